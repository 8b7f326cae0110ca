// Package usecase は需要予測スナップショット・価格最適化一覧・試算を実装します。
package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"pricing_backend/internal/feature/pricing/domain/estimator"
	"pricing_backend/internal/feature/product/domain/entity"
)

var (
	// ErrNoProductIDs はIDが1件も指定されなかったことを示します。
	ErrNoProductIDs = errors.New("no product ids provided")
	// ErrNoProductsFound は指定IDに一致する商品が1件もなかったことを示します。
	ErrNoProductsFound = errors.New("no products found for the given IDs")
)

// ProductReader は価格レポートが必要とする読み取り操作です。
type ProductReader interface {
	List(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id uint) (*entity.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entity.Product, error)
}

// Estimate は保存済みの値から計算した試算結果です。永続化はしません。
type Estimate struct {
	Product        entity.Product
	DemandForecast int
	OptimizedPrice decimal.Decimal
}

type pricingUsecase struct {
	products ProductReader
}

// NewPricingUsecase はpricingUsecaseの新しいインスタンスを生成します。
func NewPricingUsecase(products ProductReader) *pricingUsecase {
	return &pricingUsecase{products: products}
}

// DemandForecast は指定商品の需要予測スナップショットを返します。
func (u *pricingUsecase) DemandForecast(ctx context.Context, ids []uint) ([]entity.Product, error) {
	if len(ids) == 0 {
		return nil, ErrNoProductIDs
	}
	products, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProductsFound
	}
	return products, nil
}

// Optimization は全商品と記録済みの最適価格を返します。
func (u *pricingUsecase) Optimization(ctx context.Context) ([]entity.Product, error) {
	return u.products.List(ctx)
}

// Estimate は商品の現在値から需要予測を計算し、その予測で最適価格を求めます。
func (u *pricingUsecase) Estimate(ctx context.Context, id uint) (*Estimate, error) {
	p, err := u.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cost := p.CostPrice.InexactFloat64()
	selling := p.SellingPrice.InexactFloat64()
	forecast := estimator.DemandForecast(p.UnitsSold, p.StockAvailable, selling)

	return &Estimate{
		Product:        *p,
		DemandForecast: forecast,
		OptimizedPrice: estimator.OptimizedPrice(cost, selling, p.StockAvailable, forecast),
	}, nil
}
