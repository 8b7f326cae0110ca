// Package handler はproductフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pricing_backend/internal/feature/product/domain"
	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/feature/product/transport/http/dto"
	"pricing_backend/internal/feature/product/usecase"
	"pricing_backend/internal/platform/http/response"
	jwtmw "pricing_backend/internal/platform/jwt"
	"pricing_backend/internal/shared/validation"
)

const (
	msgNotFound = "Product not found"
	msgInternal = "internal server error"
)

// ProductUsecase は商品操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type ProductUsecase interface {
	List(ctx context.Context) ([]entity.Product, error)
	Get(ctx context.Context, id uint) (*entity.Product, error)
	Create(ctx context.Context, in usecase.ProductInput) (*entity.Product, error)
	Update(ctx context.Context, id uint, in usecase.ProductInput) (*entity.Product, error)
	Delete(ctx context.Context, id uint) error
}

// ProductHandler は商品APIのHTTPリクエストを処理します。
type ProductHandler struct {
	products ProductUsecase
}

// NewProductHandler はProductHandlerの新しいインスタンスを生成します。
func NewProductHandler(products ProductUsecase) *ProductHandler {
	return &ProductHandler{products: products}
}

// List は全商品を返します。
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		slog.Error("failed to list products", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		return
	}
	c.JSON(http.StatusOK, dto.FromEntities(products))
}

// Get は商品を1件返します。
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get product", id, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromEntity(p))
}

// Create は商品を作成し201を返します。
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("product validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	p, err := h.products.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.fail(c, "failed to create product", 0, err)
		return
	}

	slog.Info("product created", "product_id", p.ID, "user_id", c.GetUint(jwtmw.ContextUserID), "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, dto.FromEntity(p))
}

// Update は商品の全フィールドを置き換えます。
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	// 存在しない商品はリクエストボディに関わらず404
	if _, err := h.products.Get(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to update product", id, err)
		return
	}

	var req dto.ProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("product validation failed", "error", err, "product_id", id, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	p, err := h.products.Update(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.fail(c, "failed to update product", id, err)
		return
	}

	slog.Info("product updated", "product_id", p.ID, "user_id", c.GetUint(jwtmw.ContextUserID), "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.FromEntity(p))
}

// Delete は商品を削除し204を返します。
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete product", id, err)
		return
	}

	slog.Info("product deleted", "product_id", id, "user_id", c.GetUint(jwtmw.ContextUserID), "remote_addr", c.ClientIP())
	c.Status(http.StatusNoContent)
}

// fail はユースケースのエラーをステータスコードに変換します。
func (h *ProductHandler) fail(c *gin.Context, msg string, id uint, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		slog.Warn("product rejected", "fields", verr.Fields, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.Invalid(err))
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: msgNotFound})
	default:
		slog.Error(msg, "error", err, "product_id", id, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
	}
}

// productID はパスの :id を解析します。数値でない場合は存在しない商品として404を返します。
func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: msgNotFound})
		return 0, false
	}
	return uint(id), true
}
