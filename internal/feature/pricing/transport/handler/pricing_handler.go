// Package handler はpricingフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pricing_backend/internal/feature/pricing/transport/http/dto"
	"pricing_backend/internal/feature/pricing/usecase"
	"pricing_backend/internal/feature/product/domain"
	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/platform/http/response"
)

const (
	msgNoIDs          = "No product IDs provided"
	msgNoProducts     = "No products found for the given IDs"
	msgProductMissing = "Product not found"
	msgInternal       = "internal server error"
)

// PricingUsecase は価格レポートのユースケースを定義します。
type PricingUsecase interface {
	DemandForecast(ctx context.Context, ids []uint) ([]entity.Product, error)
	Optimization(ctx context.Context) ([]entity.Product, error)
	Estimate(ctx context.Context, id uint) (*usecase.Estimate, error)
}

// PricingHandler は価格レポートAPIのHTTPリクエストを処理します。
type PricingHandler struct {
	pricing PricingUsecase
}

// NewPricingHandler はPricingHandlerの新しいインスタンスを生成します。
func NewPricingHandler(pricing PricingUsecase) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// DemandForecast は指定IDの商品について需要予測スナップショットを返します。
// - IDが空の場合は400
// - 1件も見つからない場合は404
func (h *PricingHandler) DemandForecast(c *gin.Context) {
	var req dto.DemandForecastReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("demand forecast validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	products, err := h.pricing.DemandForecast(c.Request.Context(), req.IDs)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoProductIDs):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgNoIDs})
		case errors.Is(err, usecase.ErrNoProductsFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: msgNoProducts})
		default:
			slog.Error("failed to build demand forecast", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToDemandForecast(products))
}

// PricingOptimization は全商品と記録済みの最適価格を返します。
func (h *PricingHandler) PricingOptimization(c *gin.Context) {
	products, err := h.pricing.Optimization(c.Request.Context())
	if err != nil {
		slog.Error("failed to list pricing optimization", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		return
	}
	c.JSON(http.StatusOK, dto.ToOptimization(products))
}

// Estimate は商品の現在値から予測と最適価格を計算して返します。保存はしません。
func (h *PricingHandler) Estimate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: msgProductMissing})
		return
	}

	est, err := h.pricing.Estimate(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: msgProductMissing})
			return
		}
		slog.Error("failed to estimate", "error", err, "product_id", id, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		return
	}
	c.JSON(http.StatusOK, dto.ToEstimate(est))
}
