package models

import (
	"time"

	"github.com/mmdatafocus/shop_console/utils"
	"github.com/shopspring/decimal"
)

// Tone is how a pending preview should be styled.
type Tone string

const (
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
)

// Catalog resolves a product's current catalog price. ok is false for unknown products.
type Catalog interface {
	Price(productId int) (price decimal.Decimal, ok bool)
}

// CatalogMap is a Catalog backed by a plain map.
type CatalogMap map[int]decimal.Decimal

func (m CatalogMap) Price(productId int) (decimal.Decimal, bool) {
	p, ok := m[productId]
	return p, ok
}

// CatalogFromProducts indexes products by id.
func CatalogFromProducts(products []Product) CatalogMap {
	m := make(CatalogMap, len(products))
	for _, p := range products {
		m[int(p.ID)] = p.Price
	}
	return m
}

// DraftItem is one line of a bill being composed. A zero UnitPrice means
// "use the catalog price".
type DraftItem struct {
	ProductId int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// BillDraft is the bill creation form. Its totals are a preview; the backend
// recomputes authoritative amounts on submit.
type BillDraft struct {
	CustomerId int             `json:"customer_id"`
	BillDate   string          `json:"bill_date"`
	Items      []DraftItem     `json:"items"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

func newDraftItem() DraftItem {
	return DraftItem{Quantity: decimal.NewFromInt(1)}
}

// NewBillDraft starts a draft dated today with one empty line.
func NewBillDraft(today time.Time) *BillDraft {
	return &BillDraft{
		BillDate: utils.DateOnly(today),
		Items:    []DraftItem{newDraftItem()},
	}
}

func (d *BillDraft) AddItem() {
	d.Items = append(d.Items, newDraftItem())
}

// RemoveItem drops the line at index. The last remaining line is never removed.
func (d *BillDraft) RemoveItem(index int) bool {
	if len(d.Items) <= 1 || index < 0 || index >= len(d.Items) {
		return false
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	return true
}

func (d *BillDraft) SetItem(index int, item DraftItem) bool {
	if index < 0 || index >= len(d.Items) {
		return false
	}
	d.Items[index] = item
	return true
}

// EffectivePrice is the override when non-zero, else the catalog price, else zero.
func EffectivePrice(item DraftItem, catalog Catalog) decimal.Decimal {
	if !item.UnitPrice.IsZero() {
		return item.UnitPrice
	}
	if catalog != nil {
		if p, ok := catalog.Price(item.ProductId); ok {
			return p
		}
	}
	return decimal.Zero
}

func LineTotal(item DraftItem, catalog Catalog) decimal.Decimal {
	return item.Quantity.Mul(EffectivePrice(item, catalog))
}

func (d *BillDraft) Subtotal(catalog Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(LineTotal(item, catalog))
	}
	return total
}

// PendingPreview is |subtotal - paid|. Only the sign of subtotal - paid picks
// the tone, so an overpayment is shown as settled.
func (d *BillDraft) PendingPreview(catalog Catalog) (decimal.Decimal, Tone) {
	diff := d.Subtotal(catalog).Sub(d.PaidAmount)
	tone := ToneSuccess
	if diff.IsPositive() {
		tone = ToneWarning
	}
	return diff.Abs(), tone
}

// Validate rejects drafts that must never reach the backend.
func (d *BillDraft) Validate() error {
	if d.CustomerId == 0 {
		return NewValidationError("please select a customer")
	}
	if len(d.Items) == 0 {
		return NewValidationError("add at least one item")
	}
	for _, item := range d.Items {
		if item.ProductId == 0 || !item.Quantity.IsPositive() {
			return NewValidationError("every item needs a product and a quantity")
		}
	}
	if d.PaidAmount.IsNegative() {
		return NewValidationError("paid amount cannot be negative")
	}
	return nil
}

// Request validates the draft and resolves prices into the create body.
func (d *BillDraft) Request(catalog Catalog) (*NewBill, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	items := make([]NewBillItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, NewBillItem{
			ProductId: item.ProductId,
			Quantity:  item.Quantity,
			UnitPrice: EffectivePrice(item, catalog),
		})
	}
	return &NewBill{
		CustomerId: d.CustomerId,
		BillDate:   d.BillDate,
		Items:      items,
		PaidAmount: d.PaidAmount,
	}, nil
}

type LinePreview struct {
	ProductId int    `json:"product_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

type BillPreview struct {
	Lines    []LinePreview `json:"lines"`
	Subtotal string        `json:"subtotal"`
	Paid     string        `json:"paid"`
	Pending  string        `json:"pending"`
	Tone     Tone          `json:"tone"`
}

// Preview renders the draft totals to two decimals.
func (d *BillDraft) Preview(catalog Catalog) BillPreview {
	lines := make([]LinePreview, 0, len(d.Items))
	for _, item := range d.Items {
		lines = append(lines, LinePreview{
			ProductId: item.ProductId,
			Quantity:  item.Quantity.String(),
			UnitPrice: EffectivePrice(item, catalog).StringFixed(2),
			Total:     LineTotal(item, catalog).StringFixed(2),
		})
	}
	pending, tone := d.PendingPreview(catalog)
	return BillPreview{
		Lines:    lines,
		Subtotal: d.Subtotal(catalog).StringFixed(2),
		Paid:     d.PaidAmount.StringFixed(2),
		Pending:  pending.StringFixed(2),
		Tone:     tone,
	}
}
