package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID            Int             `json:"id"`
	BillNumber    string          `json:"bill_number"`
	CustomerId    Int             `json:"customer_id"`
	BillDate      string          `json:"bill_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	ShopName      string          `json:"shop_name"`
	OwnerName     string          `json:"owner_name"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	Items         []BillItem      `json:"items,omitempty"`
	Payments      []Payment       `json:"payments,omitempty"`
}

type BillItem struct {
	ID          Int             `json:"id"`
	BillId      Int             `json:"bill_id"`
	ProductId   Int             `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	BrandName   string          `json:"brand_name"`
}

func (i BillItem) ExpectedTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// ExpectedTotal sums the item totals. Only meaningful when items were loaded.
func (b Bill) ExpectedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.ExpectedTotal())
	}
	return total
}

func (b Bill) ExpectedPending() decimal.Decimal {
	return b.TotalAmount.Sub(b.PaidAmount)
}

// Settled is true once nothing remains to be paid.
func (b Bill) Settled() bool {
	return !b.PendingAmount.IsPositive()
}

// Inconsistencies lists the bill invariants the backend payload violates.
// The backend stays authoritative; callers only log these.
func (b Bill) Inconsistencies() []string {
	var out []string
	if len(b.Items) > 0 {
		for _, item := range b.Items {
			if !item.TotalPrice.Equal(item.ExpectedTotal()) {
				out = append(out, fmt.Sprintf("item %d total %s != %s x %s", item.ID, item.TotalPrice, item.Quantity, item.UnitPrice))
			}
		}
		if expected := b.ExpectedTotal(); !b.TotalAmount.Equal(expected) {
			out = append(out, fmt.Sprintf("total %s != items %s", b.TotalAmount, expected))
		}
	}
	if expected := b.ExpectedPending(); !b.PendingAmount.Equal(expected) {
		out = append(out, fmt.Sprintf("pending %s != total - paid %s", b.PendingAmount, expected))
	}
	if b.PaymentStatus == PaymentStatusPaid && !b.Settled() {
		out = append(out, "status paid with pending "+b.PendingAmount.String())
	}
	if b.PaymentStatus != "" && b.PaymentStatus != PaymentStatusPaid && b.Settled() {
		out = append(out, fmt.Sprintf("status %s with nothing pending", b.PaymentStatus))
	}
	return out
}

// NewBill is the create request body. Prices are already resolved.
type NewBill struct {
	CustomerId int             `json:"customer_id"`
	BillDate   string          `json:"bill_date"`
	Items      []NewBillItem   `json:"items"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

type NewBillItem struct {
	ProductId int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Validate repeats the draft rules for bodies built outside a BillDraft.
func (input *NewBill) Validate() error {
	if input.CustomerId <= 0 {
		return NewValidationError("please select a customer")
	}
	if len(input.Items) == 0 {
		return NewValidationError("add at least one item")
	}
	for _, item := range input.Items {
		if item.ProductId <= 0 || !item.Quantity.IsPositive() {
			return NewValidationError("every item needs a product and a quantity")
		}
		if item.UnitPrice.IsNegative() {
			return NewValidationError("unit price cannot be negative")
		}
	}
	if input.PaidAmount.IsNegative() {
		return NewValidationError("paid amount cannot be negative")
	}
	return nil
}
