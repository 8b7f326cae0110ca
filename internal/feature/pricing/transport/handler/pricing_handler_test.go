package handler_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pricing_backend/internal/feature/pricing/transport/handler"
	"pricing_backend/internal/feature/pricing/usecase"
	"pricing_backend/internal/feature/product/domain"
	"pricing_backend/internal/feature/product/domain/entity"
)

// mockPricingUsecase はPricingUsecaseインターフェースのモック実装です。
type mockPricingUsecase struct {
	DemandForecastFunc func(ctx context.Context, ids []uint) ([]entity.Product, error)
	OptimizationFunc   func(ctx context.Context) ([]entity.Product, error)
	EstimateFunc       func(ctx context.Context, id uint) (*usecase.Estimate, error)
}

func (m *mockPricingUsecase) DemandForecast(ctx context.Context, ids []uint) ([]entity.Product, error) {
	return m.DemandForecastFunc(ctx, ids)
}

func (m *mockPricingUsecase) Optimization(ctx context.Context) ([]entity.Product, error) {
	return m.OptimizationFunc(ctx)
}

func (m *mockPricingUsecase) Estimate(ctx context.Context, id uint) (*usecase.Estimate, error) {
	return m.EstimateFunc(ctx, id)
}

func product(id uint, withEstimation bool) entity.Product {
	p := entity.Product{
		ID:             id,
		Name:           "Widget",
		Category:       "Electronics",
		Description:    "A product",
		CostPrice:      decimal.RequireFromString("10"),
		SellingPrice:   decimal.RequireFromString("20.5"),
		StockAvailable: 5,
		UnitsSold:      15,
		CreatedAt:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if withEstimation {
		forecast := 12
		price := decimal.RequireFromString("12.4")
		p.Estimation = &entity.Estimation{DemandForecast: &forecast, OptimizedPrice: &price}
	}
	return p
}

func newRouter(uc handler.PricingUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewPricingHandler(uc)
	r := gin.New()
	r.POST("/pricing/demand-forecast", h.DemandForecast)
	r.GET("/pricing/pricing-optimization", h.PricingOptimization)
	r.GET("/pricing/products/:id/estimate", h.Estimate)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestPricingHandler_DemandForecast はステータスコードとスナップショットの形をテストします。
func TestPricingHandler_DemandForecast(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockFunc       func(ctx context.Context, ids []uint) ([]entity.Product, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"ids":[1,2]}`,
			mockFunc: func(ctx context.Context, ids []uint) ([]entity.Product, error) {
				assert.Equal(t, []uint{1, 2}, ids)
				return []entity.Product{product(1, true), product(2, false)}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `[
				{"product_id":1,"product_name":"Widget","product_category":"Electronics","product_cost_price":"10.00",
				 "product_selling_price":"20.50","product_available_stock":5,"product_units_sold":15,
				 "product_added_year":2023,"demand_forecast":12},
				{"product_id":2,"product_name":"Widget","product_category":"Electronics","product_cost_price":"10.00",
				 "product_selling_price":"20.50","product_available_stock":5,"product_units_sold":15,
				 "product_added_year":2023,"demand_forecast":null}
			]`,
		},
		{
			name: "failure: empty ids",
			body: `{"ids":[]}`,
			mockFunc: func(ctx context.Context, ids []uint) ([]entity.Product, error) {
				return nil, usecase.ErrNoProductIDs
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"No product IDs provided"}`,
		},
		{
			name: "failure: none found",
			body: `{"ids":[99]}`,
			mockFunc: func(ctx context.Context, ids []uint) ([]entity.Product, error) {
				return nil, usecase.ErrNoProductsFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"No products found for the given IDs"}`,
		},
		{
			name:           "failure: ids are not numbers",
			body:           `{"ids":["a"]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "failure: internal",
			body: `{"ids":[1]}`,
			mockFunc: func(ctx context.Context, ids []uint) ([]entity.Product, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&mockPricingUsecase{DemandForecastFunc: tt.mockFunc}), http.MethodPost, "/pricing/demand-forecast", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestPricingHandler_PricingOptimization(t *testing.T) {
	uc := &mockPricingUsecase{OptimizationFunc: func(ctx context.Context) ([]entity.Product, error) {
		return []entity.Product{product(1, true), product(2, false)}, nil
	}}

	w := do(newRouter(uc), http.MethodGet, "/pricing/pricing-optimization", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Widget","category":"Electronics","description":"A product",
		 "cost_price":"10.00","selling_price":"20.50","optimized_price":"12.40"},
		{"id":2,"name":"Widget","category":"Electronics","description":"A product",
		 "cost_price":"10.00","selling_price":"20.50","optimized_price":null}
	]`, w.Body.String())
}

func TestPricingHandler_Estimate(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mockFunc       func(ctx context.Context, id uint) (*usecase.Estimate, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			path: "/pricing/products/1/estimate",
			mockFunc: func(ctx context.Context, id uint) (*usecase.Estimate, error) {
				return &usecase.Estimate{
					Product:        product(id, false),
					DemandForecast: 13,
					OptimizedPrice: decimal.RequireFromString("12.2"),
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"product_id":1,"product_name":"Widget","cost_price":"10.00","selling_price":"20.50",
				"stock_available":5,"units_sold":15,"demand_forecast":13,"optimized_price":"12.20"}`,
		},
		{
			name: "failure: not found",
			path: "/pricing/products/5/estimate",
			mockFunc: func(ctx context.Context, id uint) (*usecase.Estimate, error) {
				return nil, domain.ErrProductNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Product not found"}`,
		},
		{
			name:           "failure: bad id",
			path:           "/pricing/products/x/estimate",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Product not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&mockPricingUsecase{EstimateFunc: tt.mockFunc}), http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
