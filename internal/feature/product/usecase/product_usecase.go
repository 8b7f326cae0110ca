// Package usecase は商品の作成・取得・更新・削除を実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/shared/validation"
)

const (
	// maxTextLength は name / category の最大文字数です。
	maxTextLength = 255
	// priceScale は価格の小数桁数です。
	priceScale = 2
)

// maxPrice は DECIMAL(10,2) に収まる上限（排他的）です。
var maxPrice = decimal.New(1, 8)

// ProductRepository は商品の永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ProductRepository interface {
	// List は全商品をID順に返します。見積もりが存在する場合は含めます。
	List(ctx context.Context) ([]entity.Product, error)

	// FindByID は商品を取得します。存在しない場合は domain.ErrProductNotFound を返します。
	FindByID(ctx context.Context, id uint) (*entity.Product, error)

	// Create は商品を保存し、ID とタイムスタンプを設定します。
	Create(ctx context.Context, p *entity.Product) error

	// Update は商品の全フィールドを置き換えます。存在しない場合は domain.ErrProductNotFound を返します。
	Update(ctx context.Context, p *entity.Product) error

	// Delete は商品と見積もりを削除します。存在しない場合は domain.ErrProductNotFound を返します。
	Delete(ctx context.Context, id uint) error

	// UpsertEstimation は商品の見積もりを作成または更新します。
	UpsertEstimation(ctx context.Context, productID uint, params entity.EstimationParams) error
}

// ProductInput は作成・更新リクエストの内容です。更新は全フィールドの置き換えです。
type ProductInput struct {
	Name           string
	Category       string
	CostPrice      decimal.Decimal
	SellingPrice   decimal.Decimal
	Description    string
	StockAvailable int
	UnitsSold      int
	CustomerRating *float64

	// Estimation は保存と同時に見積もりへ書き込む値です。両方 nil の場合は見積もりに触れません。
	Estimation entity.EstimationParams
}

// productUsecase は商品操作のユースケースを実装します。
type productUsecase struct {
	products ProductRepository
}

// NewProductUsecase はproductUsecaseの新しいインスタンスを生成します。
func NewProductUsecase(products ProductRepository) *productUsecase {
	return &productUsecase{products: products}
}

// List は全商品を返します。
func (u *productUsecase) List(ctx context.Context) ([]entity.Product, error) {
	return u.products.List(ctx)
}

// Get は商品を1件返します。
func (u *productUsecase) Get(ctx context.Context, id uint) (*entity.Product, error) {
	return u.products.FindByID(ctx, id)
}

// Create は商品を作成し、値が渡された場合は見積もりを記録します。
func (u *productUsecase) Create(ctx context.Context, in ProductInput) (*entity.Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	p := in.toEntity()
	if err := u.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return u.afterSave(ctx, p.ID, in.Estimation)
}

// Update は商品を置き換え、値が渡された場合は見積もりを記録します。
// 商品が存在しない場合は入力内容に関わらず domain.ErrProductNotFound を返します。
func (u *productUsecase) Update(ctx context.Context, id uint, in ProductInput) (*entity.Product, error) {
	// 存在しない商品は入力の検証より先に ErrProductNotFound を返す
	if _, err := u.products.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	p := in.toEntity()
	p.ID = id
	if err := u.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return u.afterSave(ctx, id, in.Estimation)
}

// Delete は商品と見積もりを削除します。
func (u *productUsecase) Delete(ctx context.Context, id uint) error {
	return u.products.Delete(ctx, id)
}

// afterSave は保存後に見積もりを同期的に記録し、最新の状態を読み直します。
func (u *productUsecase) afterSave(ctx context.Context, id uint, params entity.EstimationParams) (*entity.Product, error) {
	if !params.IsEmpty() {
		if err := u.products.UpsertEstimation(ctx, id, params); err != nil {
			return nil, fmt.Errorf("failed to save estimation: %w", err)
		}
	}
	return u.products.FindByID(ctx, id)
}

func (in ProductInput) toEntity() *entity.Product {
	return &entity.Product{
		Name:           strings.TrimSpace(in.Name),
		Category:       strings.TrimSpace(in.Category),
		CostPrice:      in.CostPrice.Round(priceScale),
		SellingPrice:   in.SellingPrice.Round(priceScale),
		Description:    in.Description,
		StockAvailable: in.StockAvailable,
		UnitsSold:      in.UnitsSold,
		CustomerRating: in.CustomerRating,
	}
}

// validate はHTTPバインディングでは表現できない値の制約を検証します。
func validate(in ProductInput) error {
	verr := validation.New()

	checkText(verr, "name", in.Name)
	checkText(verr, "category", in.Category)
	if strings.TrimSpace(in.Description) == "" {
		verr.Add("description", "this field may not be blank")
	}
	checkPrice(verr, "cost_price", in.CostPrice)
	checkPrice(verr, "selling_price", in.SellingPrice)
	if in.StockAvailable < 0 {
		verr.Add("stock_available", "ensure this value is greater than or equal to 0")
	}
	if in.UnitsSold < 0 {
		verr.Add("units_sold", "ensure this value is greater than or equal to 0")
	}
	if f := in.Estimation.DemandForecast; f != nil && *f < 0 {
		verr.Add("demand_forecast", "ensure this value is greater than or equal to 0")
	}
	if p := in.Estimation.OptimizedPrice; p != nil {
		checkPrice(verr, "optimized_price", *p)
	}

	return verr.OrNil()
}

func checkText(verr *validation.Error, field, v string) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		verr.Add(field, "this field may not be blank")
	case len([]rune(v)) > maxTextLength:
		verr.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", maxTextLength))
	}
}

func checkPrice(verr *validation.Error, field string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		verr.Add(field, "ensure this value is greater than or equal to 0")
	case !d.Equal(d.Truncate(priceScale)):
		verr.Add(field, fmt.Sprintf("ensure that there are no more than %d decimal places", priceScale))
	case d.GreaterThanOrEqual(maxPrice):
		verr.Add(field, "ensure that there are no more than 10 digits in total")
	}
}
