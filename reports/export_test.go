package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_console/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	salesErr error
}

func (f *fakeSource) Stock(ctx context.Context, token string) ([]models.StockItem, error) {
	return []models.StockItem{
		{ID: 1, Name: "Rice 25kg", BrandName: "Acme", RemainingStock: decimal.NewFromInt(40), Unit: "bag", Price: decimal.NewFromInt(1200), StockValue: decimal.NewFromInt(48000)},
		{ID: 2, Name: "Oil 1L", BrandName: "Acme", RemainingStock: decimal.NewFromInt(10), Unit: "btl", Price: decimal.NewFromInt(150), StockValue: decimal.NewFromInt(1500)},
	}, nil
}

func (f *fakeSource) CustomerBalances(ctx context.Context, token string) ([]models.CustomerBalance, error) {
	return []models.CustomerBalance{{ID: 3, ShopName: "Lakshmi Stores", Balance: decimal.NewFromInt(500), PendingAmount: decimal.NewFromInt(500)}}, nil
}

func (f *fakeSource) Sales(ctx context.Context, token string) (*models.SalesReport, error) {
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	r := &models.SalesReport{Sales: []models.SalesItem{{BillNumber: "B-1", TotalAmount: decimal.NewFromInt(130), PaidAmount: decimal.NewFromInt(100), PendingAmount: decimal.NewFromInt(30)}}}
	r.Summary.TotalSales = decimal.NewFromInt(130)
	return r, nil
}

func (f *fakeSource) Payments(ctx context.Context, token string) (*models.PaymentsReport, error) {
	ref := "UPI-1"
	return &models.PaymentsReport{
		Payments: []models.PaymentItem{{PaymentDate: "2024-05-01", Amount: decimal.NewFromInt(100), PaymentMode: models.PaymentModeUpi, ReferenceNumber: &ref}},
		Summary:  []models.PaymentModeSummary{{PaymentMode: models.PaymentModeUpi, Count: 1, TotalPayments: decimal.NewFromInt(100)}},
	}, nil
}

func TestExport_WritesSheetPerReport(t *testing.T) {
	b, err := Fetch(context.Background(), &fakeSource{}, "1", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	var buf bytes.Buffer
	if err := Export(&buf, b); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	expected := []string{"Stock", "Customer Balances", "Sales", "Payments"}
	got := f.GetSheetList()
	if len(got) != len(expected) {
		t.Fatalf("expected sheets %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected sheets %v, got %v", expected, got)
		}
	}

	cases := []struct {
		sheet, cell, expected string
	}{
		{"Stock", "A1", "Product"},
		{"Stock", "A2", "Rice 25kg"},
		{"Stock", "F4", "49500"},
		{"Customer Balances", "A2", "Lakshmi Stores"},
		{"Sales", "B2", "B-1"},
		{"Payments", "F2", "UPI-1"},
	}
	for _, tc := range cases {
		v, err := f.GetCellValue(tc.sheet, tc.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s): %v", tc.sheet, tc.cell, err)
		}
		if v != tc.expected {
			t.Fatalf("%s!%s expected %q, got %q", tc.sheet, tc.cell, tc.expected, v)
		}
	}
	if name := FileName(b); name != "reports-20240501-0900.xlsx" {
		t.Fatalf("unexpected file name %q", name)
	}
}

func TestFetch_FailsWhenAnyReportFails(t *testing.T) {
	_, err := Fetch(context.Background(), &fakeSource{salesErr: errors.New("sales down")}, "1", time.Now())
	if err == nil {
		t.Fatalf("expected error")
	}
}
