package models

import (
	"github.com/shopspring/decimal"
)

type SalesPeriod struct {
	Count   Int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
}

type Dashboard struct {
	Sales struct {
		Today SalesPeriod `json:"today"`
		Month SalesPeriod `json:"month"`
		Year  SalesPeriod `json:"year"`
	} `json:"sales"`
	Profit struct {
		Today decimal.Decimal `json:"today"`
		Month decimal.Decimal `json:"month"`
		Year  decimal.Decimal `json:"year"`
	} `json:"profit"`
	Pending struct {
		Customers decimal.Decimal `json:"customers"`
		Bills     decimal.Decimal `json:"bills"`
	} `json:"pending"`
	Customers struct {
		Total       Int `json:"total"`
		WithPending Int `json:"with_pending"`
	} `json:"customers"`
	Products struct {
		Total      Int `json:"total"`
		LowStock   Int `json:"low_stock"`
		OutOfStock Int `json:"out_of_stock"`
	} `json:"products"`
	RecentBills []struct {
		ID            Int             `json:"id"`
		BillNumber    string          `json:"bill_number"`
		ShopName      string          `json:"shop_name"`
		TotalAmount   decimal.Decimal `json:"total_amount"`
		PaymentStatus PaymentStatus   `json:"payment_status"`
	} `json:"recent_bills"`
	RecentPayments []struct {
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate string          `json:"payment_date"`
		ShopName    string          `json:"shop_name"`
		PaymentMode PaymentMode     `json:"payment_mode"`
	} `json:"recent_payments"`
	RecentCheckins []struct {
		CheckinTime string `json:"checkin_time"`
		StaffName   string `json:"staff_name"`
		ShopName    string `json:"shop_name"`
	} `json:"recent_checkins"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	TopProducts    []struct {
		Name      string          `json:"name"`
		TotalSold decimal.Decimal `json:"total_sold"`
	} `json:"top_products"`
	TopCustomers []struct {
		ShopName       string          `json:"shop_name"`
		TotalPurchases decimal.Decimal `json:"total_purchases"`
	} `json:"top_customers"`
}
