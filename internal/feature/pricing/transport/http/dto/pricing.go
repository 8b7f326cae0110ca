// Package dto はpricingフィーチャーのHTTPリクエスト/レスポンスを定義します。
package dto

import (
	"pricing_backend/internal/feature/pricing/usecase"
	"pricing_backend/internal/feature/product/domain/entity"
	productdto "pricing_backend/internal/feature/product/transport/http/dto"
)

// DemandForecastReq は POST /pricing/demand-forecast のリクエストボディです。
// 空の場合の扱いはユースケースが決めるため required は付けません。
type DemandForecastReq struct {
	IDs []uint `json:"ids"`
}

// DemandForecastRes は商品1件の需要予測スナップショットです。
type DemandForecastRes struct {
	ProductID             uint   `json:"product_id"`
	ProductName           string `json:"product_name"`
	ProductCategory       string `json:"product_category"`
	ProductCostPrice      string `json:"product_cost_price"`
	ProductSellingPrice   string `json:"product_selling_price"`
	ProductAvailableStock int    `json:"product_available_stock"`
	ProductUnitsSold      int    `json:"product_units_sold"`
	ProductAddedYear      int    `json:"product_added_year"`
	DemandForecast        *int   `json:"demand_forecast"`
}

// OptimizationRes は価格最適化一覧の1行です。
type OptimizationRes struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	CostPrice      string  `json:"cost_price"`
	SellingPrice   string  `json:"selling_price"`
	OptimizedPrice *string `json:"optimized_price"`
}

// EstimateRes は試算結果です。保存済みの見積もりとは独立しています。
type EstimateRes struct {
	ProductID      uint   `json:"product_id"`
	ProductName    string `json:"product_name"`
	CostPrice      string `json:"cost_price"`
	SellingPrice   string `json:"selling_price"`
	StockAvailable int    `json:"stock_available"`
	UnitsSold      int    `json:"units_sold"`
	DemandForecast int    `json:"demand_forecast"`
	OptimizedPrice string `json:"optimized_price"`
}

// ToDemandForecast はスナップショット一覧を組み立てます。
func ToDemandForecast(ps []entity.Product) []DemandForecastRes {
	out := make([]DemandForecastRes, 0, len(ps))
	for i := range ps {
		p := &ps[i]
		out = append(out, DemandForecastRes{
			ProductID:             p.ID,
			ProductName:           p.Name,
			ProductCategory:       p.Category,
			ProductCostPrice:      productdto.Price(p.CostPrice),
			ProductSellingPrice:   productdto.Price(p.SellingPrice),
			ProductAvailableStock: p.StockAvailable,
			ProductUnitsSold:      p.UnitsSold,
			ProductAddedYear:      p.CreatedAt.Year(),
			DemandForecast:        p.DemandForecast(),
		})
	}
	return out
}

// ToOptimization は価格最適化一覧を組み立てます。
func ToOptimization(ps []entity.Product) []OptimizationRes {
	out := make([]OptimizationRes, 0, len(ps))
	for i := range ps {
		p := &ps[i]
		out = append(out, OptimizationRes{
			ID:             p.ID,
			Name:           p.Name,
			Category:       p.Category,
			Description:    p.Description,
			CostPrice:      productdto.Price(p.CostPrice),
			SellingPrice:   productdto.Price(p.SellingPrice),
			OptimizedPrice: productdto.NullablePrice(p.OptimizedPrice()),
		})
	}
	return out
}

// ToEstimate は試算結果をレスポンスに変換します。
func ToEstimate(e *usecase.Estimate) EstimateRes {
	return EstimateRes{
		ProductID:      e.Product.ID,
		ProductName:    e.Product.Name,
		CostPrice:      productdto.Price(e.Product.CostPrice),
		SellingPrice:   productdto.Price(e.Product.SellingPrice),
		StockAvailable: e.Product.StockAvailable,
		UnitsSold:      e.Product.UnitsSold,
		DemandForecast: e.DemandForecast,
		OptimizedPrice: productdto.Price(e.OptimizedPrice),
	}
}
