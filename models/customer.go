package models

import (
	"github.com/shopspring/decimal"
)

// Customer balance fields are a read-side aggregate the backend maintains from bills and payments.
type Customer struct {
	ID            Int             `json:"id"`
	ShopName      string          `json:"shop_name"`
	OwnerName     string          `json:"owner_name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Balance       decimal.Decimal `json:"balance"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	Bills         []Bill          `json:"bills,omitempty"`
	Payments      []Payment       `json:"payments,omitempty"`
}

type NewCustomer struct {
	ShopName  string `json:"shop_name" validate:"required,max=255"`
	OwnerName string `json:"owner_name" validate:"required,max=255"`
	Phone     string `json:"phone" validate:"required,phone"`
	Address   string `json:"address"`
}

func (input *NewCustomer) Validate() error {
	return validateInput(input)
}

// UpdateCustomer sends only the fields that are set.
type UpdateCustomer struct {
	ShopName  *string `json:"shop_name,omitempty" validate:"omitempty,max=255"`
	OwnerName *string `json:"owner_name,omitempty" validate:"omitempty,max=255"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address   *string `json:"address,omitempty"`
}

func (input *UpdateCustomer) Validate() error {
	return validateInput(input)
}
