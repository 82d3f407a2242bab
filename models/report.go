package models

import (
	"github.com/shopspring/decimal"
)

type StockItem struct {
	ID             Int             `json:"id"`
	Name           string          `json:"name"`
	RemainingStock decimal.Decimal `json:"remaining_stock"`
	Unit           string          `json:"unit"`
	Price          decimal.Decimal `json:"price"`
	BrandName      string          `json:"brand_name"`
	StockValue     decimal.Decimal `json:"stock_value"`
}

type CustomerBalance struct {
	ID            Int             `json:"id"`
	ShopName      string          `json:"shop_name"`
	OwnerName     string          `json:"owner_name"`
	Phone         string          `json:"phone"`
	Balance       decimal.Decimal `json:"balance"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

type SalesItem struct {
	BillDate      string          `json:"bill_date"`
	BillNumber    string          `json:"bill_number"`
	ShopName      string          `json:"shop_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	CreatedBy     string          `json:"created_by"`
}

type SalesReport struct {
	FromDate string      `json:"from_date"`
	ToDate   string      `json:"to_date"`
	Sales    []SalesItem `json:"sales"`
	Summary  struct {
		TotalSales   decimal.Decimal `json:"total_sales"`
		TotalPaid    decimal.Decimal `json:"total_paid"`
		TotalPending decimal.Decimal `json:"total_pending"`
	} `json:"summary"`
}

type PaymentItem struct {
	PaymentDate     string          `json:"payment_date"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     PaymentMode     `json:"payment_mode"`
	ReferenceNumber *string         `json:"reference_number"`
	ShopName        string          `json:"shop_name"`
	OwnerName       string          `json:"owner_name"`
	ReceivedBy      string          `json:"received_by"`
}

type PaymentModeSummary struct {
	TotalPayments decimal.Decimal `json:"total_payments"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	Count         Int             `json:"count"`
}

type PaymentsReport struct {
	FromDate string               `json:"from_date"`
	ToDate   string               `json:"to_date"`
	Payments []PaymentItem        `json:"payments"`
	Summary  []PaymentModeSummary `json:"summary"`
}
