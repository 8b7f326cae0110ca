package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"pricing_backend/internal/feature/product/domain/entity"
)

// ProductModel は products テーブルのGORMモデルです。
type ProductModel struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:255;not null"`
	Category       string          `gorm:"size:255;not null"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SellingPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Description    string          `gorm:"type:text;not null"`
	StockAvailable int             `gorm:"not null"`
	UnitsSold      int             `gorm:"not null;default:0"`
	CustomerRating *float64
	CreatedAt      time.Time `gorm:"column:create_timestamp;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_timestamp;autoUpdateTime"`

	Estimation *EstimationModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (ProductModel) TableName() string {
	return "products"
}

// EstimationModel は pricing_estimations テーブルのGORMモデルです。商品と1対1です。
type EstimationModel struct {
	ID             uint `gorm:"primaryKey"`
	ProductID      uint `gorm:"uniqueIndex;not null"`
	DemandForecast *int
	OptimizedPrice decimal.NullDecimal `gorm:"type:decimal(10,2)"`
}

// TableName returns the table name for GORM.
func (EstimationModel) TableName() string {
	return "pricing_estimations"
}

func (m *ProductModel) toEntity() entity.Product {
	p := entity.Product{
		ID:             m.ID,
		Name:           m.Name,
		Category:       m.Category,
		CostPrice:      m.CostPrice,
		SellingPrice:   m.SellingPrice,
		Description:    m.Description,
		StockAvailable: m.StockAvailable,
		UnitsSold:      m.UnitsSold,
		CustomerRating: m.CustomerRating,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Estimation != nil {
		est := &entity.Estimation{DemandForecast: m.Estimation.DemandForecast}
		if m.Estimation.OptimizedPrice.Valid {
			price := m.Estimation.OptimizedPrice.Decimal
			est.OptimizedPrice = &price
		}
		p.Estimation = est
	}
	return p
}

// assign は商品の可変フィールドをモデルへコピーします（ID・タイムスタンプは除く）。
func (m *ProductModel) assign(p *entity.Product) {
	m.Name = p.Name
	m.Category = p.Category
	m.CostPrice = p.CostPrice
	m.SellingPrice = p.SellingPrice
	m.Description = p.Description
	m.StockAvailable = p.StockAvailable
	m.UnitsSold = p.UnitsSold
	m.CustomerRating = p.CustomerRating
}

func estimationModelFrom(productID uint, params entity.EstimationParams) *EstimationModel {
	m := &EstimationModel{ProductID: productID, DemandForecast: params.DemandForecast}
	if params.OptimizedPrice != nil {
		m.OptimizedPrice = decimal.NewNullDecimal(*params.OptimizedPrice)
	}
	return m
}
