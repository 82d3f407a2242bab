package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/shop_console/utils"
	"github.com/shopspring/decimal"
)

// Payment is additive: the backend has no edit operation for it.
type Payment struct {
	ID              Int             `json:"id"`
	BillId          Int             `json:"bill_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date"`
	PaymentMode     PaymentMode     `json:"payment_mode"`
	ReferenceNumber *string         `json:"reference_number"`
	Notes           string          `json:"notes"`
	ShopName        string          `json:"shop_name,omitempty"`
	ReceivedBy      string          `json:"received_by,omitempty"`
}

// NewPayment is the body of PUT /bills/{id}.
type NewPayment struct {
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	PaymentDate     string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	PaymentMode     PaymentMode     `json:"payment_mode" validate:"required,oneof=cash card upi bank_transfer cheque"`
	ReferenceNumber string          `json:"reference_number,omitempty" validate:"max=100"`
	Notes           string          `json:"notes,omitempty"`
}

// NewPaymentDraft pre-fills a payment for the bill: the whole pending amount, today, cash.
func NewPaymentDraft(bill Bill, today time.Time) NewPayment {
	amount := bill.PendingAmount
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return NewPayment{
		PaymentAmount: amount,
		PaymentDate:   utils.DateOnly(today),
		PaymentMode:   PaymentModeCash,
	}
}

func (input *NewPayment) Validate() error {
	input.ReferenceNumber = strings.TrimSpace(input.ReferenceNumber)
	if !input.PaymentAmount.IsPositive() {
		return NewValidationError("payment amount must be greater than zero")
	}
	return validateInput(input)
}

// ValidateAgainst adds the pending cap of the bill being paid. The backend is
// still the authority on resulting balances.
func (input *NewPayment) ValidateAgainst(bill Bill) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if input.PaymentAmount.GreaterThan(bill.PendingAmount) {
		return NewValidationError("payment amount exceeds pending amount " + bill.PendingAmount.StringFixed(2))
	}
	return nil
}
