package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmdatafocus/shop_console/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Source reads the four backend reports.
type Source interface {
	Stock(ctx context.Context, token string) ([]models.StockItem, error)
	CustomerBalances(ctx context.Context, token string) ([]models.CustomerBalance, error)
	Sales(ctx context.Context, token string) (*models.SalesReport, error)
	Payments(ctx context.Context, token string) (*models.PaymentsReport, error)
}

type Bundle struct {
	GeneratedAt time.Time
	Stock       []models.StockItem
	Balances    []models.CustomerBalance
	Sales       *models.SalesReport
	Payments    *models.PaymentsReport
}

// Fetch loads every report concurrently. The first failure cancels the rest.
func Fetch(ctx context.Context, src Source, token string, now time.Time) (*Bundle, error) {
	b := &Bundle{GeneratedAt: now}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Stock, err = src.Stock(ctx, token)
		return err
	})
	g.Go(func() (err error) {
		b.Balances, err = src.CustomerBalances(ctx, token)
		return err
	})
	g.Go(func() (err error) {
		b.Sales, err = src.Sales(ctx, token)
		return err
	})
	g.Go(func() (err error) {
		b.Payments, err = src.Payments(ctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

// FileName is the attachment name for a bundle.
func FileName(b *Bundle) string {
	return fmt.Sprintf("reports-%s.xlsx", b.GeneratedAt.Format("20060102-1504"))
}

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type sheet struct {
	name     string
	headings []string
	rows     []ExcelExporter
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

type stockRow models.StockItem

func (r stockRow) GetCellValues() []interface{} {
	return []interface{}{r.Name, r.BrandName, amount(r.RemainingStock), r.Unit, amount(r.Price), amount(r.StockValue)}
}

type balanceRow models.CustomerBalance

func (r balanceRow) GetCellValues() []interface{} {
	return []interface{}{r.ShopName, r.OwnerName, r.Phone, amount(r.Balance), amount(r.PaidAmount), amount(r.PendingAmount)}
}

type salesRow models.SalesItem

func (r salesRow) GetCellValues() []interface{} {
	return []interface{}{r.BillDate, r.BillNumber, r.ShopName, amount(r.TotalAmount), amount(r.PaidAmount), amount(r.PendingAmount), r.CreatedBy}
}

type paymentRow models.PaymentItem

func (r paymentRow) GetCellValues() []interface{} {
	ref := ""
	if r.ReferenceNumber != nil {
		ref = *r.ReferenceNumber
	}
	return []interface{}{r.PaymentDate, r.ShopName, r.OwnerName, amount(r.Amount), string(r.PaymentMode), ref, r.ReceivedBy}
}

type totalRow []interface{}

func (r totalRow) GetCellValues() []interface{} {
	return r
}

func sheets(b *Bundle) []sheet {
	stock := sheet{name: "Stock", headings: []string{"Product", "Brand", "Remaining", "Unit", "Price", "Stock Value"}}
	stockValue := decimal.Zero
	for _, item := range b.Stock {
		stock.rows = append(stock.rows, stockRow(item))
		stockValue = stockValue.Add(item.StockValue)
	}
	stock.rows = append(stock.rows, totalRow{"Total", "", "", "", "", amount(stockValue)})

	balances := sheet{name: "Customer Balances", headings: []string{"Shop", "Owner", "Phone", "Balance", "Paid", "Pending"}}
	for _, item := range b.Balances {
		balances.rows = append(balances.rows, balanceRow(item))
	}

	sales := sheet{name: "Sales", headings: []string{"Date", "Bill No", "Shop", "Total", "Paid", "Pending", "Created By"}}
	if b.Sales != nil {
		for _, item := range b.Sales.Sales {
			sales.rows = append(sales.rows, salesRow(item))
		}
		s := b.Sales.Summary
		sales.rows = append(sales.rows, totalRow{"Total", "", "", amount(s.TotalSales), amount(s.TotalPaid), amount(s.TotalPending), ""})
	}

	payments := sheet{name: "Payments", headings: []string{"Date", "Shop", "Owner", "Amount", "Mode", "Reference", "Received By"}}
	if b.Payments != nil {
		for _, item := range b.Payments.Payments {
			payments.rows = append(payments.rows, paymentRow(item))
		}
		for _, s := range b.Payments.Summary {
			payments.rows = append(payments.rows, totalRow{"Total", "", fmt.Sprintf("%d payments", s.Count), amount(s.TotalPayments), string(s.PaymentMode), "", ""})
		}
	}
	return []sheet{stock, balances, sales, payments}
}

// Export writes the bundle as one workbook with a sheet per report.
func Export(w io.Writer, b *Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, s := range sheets(b) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		if err := writeSheet(f, s, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, s sheet, headingStyle int) error {
	for col, h := range s.headings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.name, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(s.headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headingStyle); err != nil {
		return err
	}

	rowNo := 2
	for _, d := range s.rows {
		for col, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(s.name, cell, value); err != nil {
				return err
			}
		}
		rowNo++
	}
	return nil
}
