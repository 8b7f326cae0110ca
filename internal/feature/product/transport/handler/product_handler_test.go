package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing_backend/internal/feature/product/domain"
	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/feature/product/transport/handler"
	"pricing_backend/internal/feature/product/usecase"
	"pricing_backend/internal/platform/http/response"
	"pricing_backend/internal/shared/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	response.RegisterJSONTagNames()
	os.Exit(m.Run())
}

// mockProductUsecase はProductUsecaseインターフェースのモック実装です。
type mockProductUsecase struct {
	ListFunc   func(ctx context.Context) ([]entity.Product, error)
	GetFunc    func(ctx context.Context, id uint) (*entity.Product, error)
	CreateFunc func(ctx context.Context, in usecase.ProductInput) (*entity.Product, error)
	UpdateFunc func(ctx context.Context, id uint, in usecase.ProductInput) (*entity.Product, error)
	DeleteFunc func(ctx context.Context, id uint) error
}

func (m *mockProductUsecase) List(ctx context.Context) ([]entity.Product, error) {
	return m.ListFunc(ctx)
}

func (m *mockProductUsecase) Get(ctx context.Context, id uint) (*entity.Product, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockProductUsecase) Create(ctx context.Context, in usecase.ProductInput) (*entity.Product, error) {
	return m.CreateFunc(ctx, in)
}

func (m *mockProductUsecase) Update(ctx context.Context, id uint, in usecase.ProductInput) (*entity.Product, error) {
	return m.UpdateFunc(ctx, id, in)
}

func (m *mockProductUsecase) Delete(ctx context.Context, id uint) error {
	return m.DeleteFunc(ctx, id)
}

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleProduct(id uint) *entity.Product {
	forecast := 12
	price := decimal.RequireFromString("12.38")
	return &entity.Product{
		ID:             id,
		Name:           "Widget",
		Category:       "Electronics",
		CostPrice:      decimal.RequireFromString("10"),
		SellingPrice:   decimal.RequireFromString("20.5"),
		Description:    "A product",
		StockAvailable: 5,
		UnitsSold:      15,
		CreatedAt:      testTime,
		UpdatedAt:      testTime,
		Estimation:     &entity.Estimation{DemandForecast: &forecast, OptimizedPrice: &price},
	}
}

func newRouter(uc handler.ProductUsecase) *gin.Engine {
	h := handler.NewProductHandler(uc)
	r := gin.New()
	r.GET("/products", h.List)
	r.GET("/products/:id", h.Get)
	r.POST("/products", h.Create)
	r.PUT("/products/:id", h.Update)
	r.DELETE("/products/:id", h.Delete)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{"name":"Widget","category":"Electronics","cost_price":"10.00","selling_price":20.5,
"description":"A product","stock_available":5,"units_sold":15,"demand_forecast":12}`

func TestProductHandler_List(t *testing.T) {
	t.Run("success: prices as fixed strings, null estimation", func(t *testing.T) {
		plain := sampleProduct(2)
		plain.Estimation = nil
		uc := &mockProductUsecase{ListFunc: func(ctx context.Context) ([]entity.Product, error) {
			return []entity.Product{*sampleProduct(1), *plain}, nil
		}}

		w := do(newRouter(uc), http.MethodGet, "/products", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[
			{"id":1,"name":"Widget","category":"Electronics","cost_price":"10.00","selling_price":"20.50",
			 "description":"A product","stock_available":5,"units_sold":15,"customer_rating":null,
			 "demand_forecast":12,"optimized_price":"12.38",
			 "create_timestamp":"2024-03-01T12:00:00Z","updated_timestamp":"2024-03-01T12:00:00Z"},
			{"id":2,"name":"Widget","category":"Electronics","cost_price":"10.00","selling_price":"20.50",
			 "description":"A product","stock_available":5,"units_sold":15,"customer_rating":null,
			 "demand_forecast":null,"optimized_price":null,
			 "create_timestamp":"2024-03-01T12:00:00Z","updated_timestamp":"2024-03-01T12:00:00Z"}
		]`, w.Body.String())
	})

	t.Run("success: empty list", func(t *testing.T) {
		uc := &mockProductUsecase{ListFunc: func(ctx context.Context) ([]entity.Product, error) { return nil, nil }}
		w := do(newRouter(uc), http.MethodGet, "/products", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("failure: usecase error", func(t *testing.T) {
		uc := &mockProductUsecase{ListFunc: func(ctx context.Context) ([]entity.Product, error) {
			return nil, errors.New("db down")
		}}
		w := do(newRouter(uc), http.MethodGet, "/products", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestProductHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		getFunc        func(ctx context.Context, id uint) (*entity.Product, error)
		expectedStatus int
	}{
		{
			name: "success",
			path: "/products/1",
			getFunc: func(ctx context.Context, id uint) (*entity.Product, error) {
				return sampleProduct(id), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "failure: not found",
			path: "/products/9",
			getFunc: func(ctx context.Context, id uint) (*entity.Product, error) {
				return nil, domain.ErrProductNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "failure: non-numeric id",
			path:           "/products/abc",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&mockProductUsecase{GetFunc: tt.getFunc}), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNotFound {
				assert.JSONEq(t, `{"error":"Product not found"}`, w.Body.String())
			}
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	t.Run("success: 201 and estimation forwarded", func(t *testing.T) {
		uc := &mockProductUsecase{CreateFunc: func(ctx context.Context, in usecase.ProductInput) (*entity.Product, error) {
			assert.Equal(t, "Widget", in.Name)
			assert.True(t, in.CostPrice.Equal(decimal.NewFromInt(10)))
			assert.True(t, in.SellingPrice.Equal(decimal.RequireFromString("20.5")))
			require.NotNil(t, in.Estimation.DemandForecast)
			assert.Equal(t, 12, *in.Estimation.DemandForecast)
			assert.Nil(t, in.Estimation.OptimizedPrice)
			return sampleProduct(3), nil
		}}

		w := do(newRouter(uc), http.MethodPost, "/products", validBody)
		require.Equal(t, http.StatusCreated, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.EqualValues(t, 3, got["id"])
	})

	t.Run("failure: missing required fields", func(t *testing.T) {
		w := do(newRouter(&mockProductUsecase{}), http.MethodPost, "/products", `{"name":"Widget"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		var got response.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Contains(t, got.Fields, "cost_price")
		assert.Contains(t, got.Fields, "stock_available")
		assert.NotContains(t, got.Fields, "units_sold")
	})

	t.Run("failure: negative stock", func(t *testing.T) {
		body := `{"name":"W","category":"C","cost_price":1,"selling_price":2,"description":"d","stock_available":-1}`
		w := do(newRouter(&mockProductUsecase{}), http.MethodPost, "/products", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "stock_available")
	})

	t.Run("failure: usecase validation error", func(t *testing.T) {
		uc := &mockProductUsecase{CreateFunc: func(ctx context.Context, in usecase.ProductInput) (*entity.Product, error) {
			verr := validation.New()
			verr.Add("cost_price", "ensure that there are no more than 2 decimal places")
			return nil, verr
		}}
		w := do(newRouter(uc), http.MethodPost, "/products", validBody)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "decimal places")
	})
}

func TestProductHandler_Update(t *testing.T) {
	found := func(ctx context.Context, id uint) (*entity.Product, error) { return sampleProduct(id), nil }
	missing := func(ctx context.Context, id uint) (*entity.Product, error) { return nil, domain.ErrProductNotFound }

	t.Run("success", func(t *testing.T) {
		uc := &mockProductUsecase{
			GetFunc: found,
			UpdateFunc: func(ctx context.Context, id uint, in usecase.ProductInput) (*entity.Product, error) {
				assert.Equal(t, uint(4), id)
				return sampleProduct(id), nil
			},
		}
		w := do(newRouter(uc), http.MethodPut, "/products/4", validBody)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("failure: not found", func(t *testing.T) {
		uc := &mockProductUsecase{GetFunc: missing}
		w := do(newRouter(uc), http.MethodPut, "/products/4", validBody)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("failure: not found takes precedence over invalid body", func(t *testing.T) {
		uc := &mockProductUsecase{GetFunc: missing}
		w := do(newRouter(uc), http.MethodPut, "/products/4", `{"name":""}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Product not found")
	})

	t.Run("failure: malformed body", func(t *testing.T) {
		uc := &mockProductUsecase{GetFunc: found}
		w := do(newRouter(uc), http.MethodPut, "/products/4", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failure: lookup error", func(t *testing.T) {
		uc := &mockProductUsecase{GetFunc: func(ctx context.Context, id uint) (*entity.Product, error) {
			return nil, errors.New("db down")
		}}
		w := do(newRouter(uc), http.MethodPut, "/products/4", validBody)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestProductHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		deleteErr      error
		expectedStatus int
	}{
		{"success", nil, http.StatusNoContent},
		{"failure: not found", domain.ErrProductNotFound, http.StatusNotFound},
		{"failure: internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockProductUsecase{DeleteFunc: func(ctx context.Context, id uint) error {
				assert.Equal(t, uint(5), id)
				return tt.deleteErr
			}}
			w := do(newRouter(uc), http.MethodDelete, "/products/5", "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}
