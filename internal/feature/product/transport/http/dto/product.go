// Package dto はproductフィーチャーのHTTPリクエスト/レスポンスを定義します。
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/feature/product/usecase"
)

// ProductReq は POST /products と PUT /products/:id のリクエストボディです。
// 価格は数値・文字列のどちらでも受け付けます。
type ProductReq struct {
	Name           string           `json:"name" binding:"required,max=255"`
	Category       string           `json:"category" binding:"required,max=255"`
	CostPrice      *decimal.Decimal `json:"cost_price" binding:"required"`
	SellingPrice   *decimal.Decimal `json:"selling_price" binding:"required"`
	Description    string           `json:"description" binding:"required"`
	StockAvailable *int             `json:"stock_available" binding:"required,min=0"`
	UnitsSold      *int             `json:"units_sold" binding:"omitempty,min=0"`
	CustomerRating *float64         `json:"customer_rating"`

	DemandForecast *int             `json:"demand_forecast" binding:"omitempty,min=0"`
	OptimizedPrice *decimal.Decimal `json:"optimized_price"`
}

// ToInput はリクエストをユースケースの入力に変換します。
func (r ProductReq) ToInput() usecase.ProductInput {
	in := usecase.ProductInput{
		Name:           r.Name,
		Category:       r.Category,
		Description:    r.Description,
		CustomerRating: r.CustomerRating,
		Estimation: entity.EstimationParams{
			DemandForecast: r.DemandForecast,
			OptimizedPrice: r.OptimizedPrice,
		},
	}
	if r.CostPrice != nil {
		in.CostPrice = *r.CostPrice
	}
	if r.SellingPrice != nil {
		in.SellingPrice = *r.SellingPrice
	}
	if r.StockAvailable != nil {
		in.StockAvailable = *r.StockAvailable
	}
	if r.UnitsSold != nil {
		in.UnitsSold = *r.UnitsSold
	}
	return in
}

// ProductRes は商品1件のレスポンスです。価格は小数2桁の文字列で返します。
type ProductRes struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	CostPrice        string    `json:"cost_price"`
	SellingPrice     string    `json:"selling_price"`
	Description      string    `json:"description"`
	StockAvailable   int       `json:"stock_available"`
	UnitsSold        int       `json:"units_sold"`
	CustomerRating   *float64  `json:"customer_rating"`
	DemandForecast   *int      `json:"demand_forecast"`
	OptimizedPrice   *string   `json:"optimized_price"`
	CreateTimestamp  time.Time `json:"create_timestamp"`
	UpdatedTimestamp time.Time `json:"updated_timestamp"`
}

// FromEntity はエンティティをレスポンスに変換します。
func FromEntity(p *entity.Product) ProductRes {
	return ProductRes{
		ID:               p.ID,
		Name:             p.Name,
		Category:         p.Category,
		CostPrice:        Price(p.CostPrice),
		SellingPrice:     Price(p.SellingPrice),
		Description:      p.Description,
		StockAvailable:   p.StockAvailable,
		UnitsSold:        p.UnitsSold,
		CustomerRating:   p.CustomerRating,
		DemandForecast:   p.DemandForecast(),
		OptimizedPrice:   NullablePrice(p.OptimizedPrice()),
		CreateTimestamp:  p.CreatedAt,
		UpdatedTimestamp: p.UpdatedAt,
	}
}

// FromEntities は一覧レスポンスを組み立てます。空の場合も [] を返します。
func FromEntities(ps []entity.Product) []ProductRes {
	out := make([]ProductRes, 0, len(ps))
	for i := range ps {
		out = append(out, FromEntity(&ps[i]))
	}
	return out
}

// Price は価格を "12.30" 形式の文字列にします。
func Price(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NullablePrice は nil を null のまま返します。
func NullablePrice(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := Price(*d)
	return &s
}
