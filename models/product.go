package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             Int             `json:"id"`
	BrandId        Int             `json:"brand_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Price          decimal.Decimal `json:"price"`
	StockIn        decimal.Decimal `json:"stock_in"`
	StockOut       decimal.Decimal `json:"stock_out"`
	RemainingStock decimal.Decimal `json:"remaining_stock"`
	BrandName      string          `json:"brand_name"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

// ExpectedRemaining is stock_in - stock_out. The backend owns remaining_stock;
// this is only used to flag drift.
func (p Product) ExpectedRemaining() decimal.Decimal {
	return p.StockIn.Sub(p.StockOut)
}

type NewProduct struct {
	BrandId      int             `json:"brand_id" validate:"required,gt=0"`
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit" validate:"required"`
	Price        decimal.Decimal `json:"price"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

func (input *NewProduct) Validate() error {
	if err := validateInput(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return NewValidationError("price cannot be negative")
	}
	if input.InitialStock.IsNegative() {
		return NewValidationError("initial stock cannot be negative")
	}
	return nil
}

// UpdateProduct carries the only fields editable after creation.
// Brand and stock counters are fixed once a product exists.
type UpdateProduct struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit" validate:"required"`
}

func (input *UpdateProduct) Validate() error {
	if err := validateInput(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return NewValidationError("price cannot be negative")
	}
	return nil
}
