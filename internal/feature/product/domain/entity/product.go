// Package entity defines the product aggregate and its paired pricing estimation.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Prices carry two decimal places.
type Product struct {
	ID             uint
	Name           string
	Category       string
	CostPrice      decimal.Decimal
	SellingPrice   decimal.Decimal
	Description    string
	StockAvailable int
	UnitsSold      int
	CustomerRating *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Estimation is nil until a save supplied forecast or price values.
	Estimation *Estimation
}

// DemandForecast returns the stored forecast, or nil when none exists.
func (p *Product) DemandForecast() *int {
	if p.Estimation == nil {
		return nil
	}
	return p.Estimation.DemandForecast
}

// OptimizedPrice returns the stored optimized price, or nil when none exists.
func (p *Product) OptimizedPrice() *decimal.Decimal {
	if p.Estimation == nil {
		return nil
	}
	return p.Estimation.OptimizedPrice
}

// Estimation is the one-to-one pricing record of a product.
type Estimation struct {
	DemandForecast *int
	OptimizedPrice *decimal.Decimal
}

// EstimationParams carries the estimation values supplied alongside a product save.
type EstimationParams struct {
	DemandForecast *int
	OptimizedPrice *decimal.Decimal
}

// IsEmpty reports whether neither value was supplied.
func (p EstimationParams) IsEmpty() bool {
	return p.DemandForecast == nil && p.OptimizedPrice == nil
}
