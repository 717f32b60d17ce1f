package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice cabecera de factura con sus líneas.
type Invoice struct {
	ID         string
	Number     string
	CustomerID string
	Date       time.Time
	Items      []InvoiceItem
	Subtotal   decimal.Decimal // suma de UnitPrice * Quantity antes de impuestos
	TaxRate    decimal.Decimal // fracción: 0.19 = 19%
	TaxTotal   decimal.Decimal
	Total      decimal.Decimal
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InvoiceItem línea de detalle de una factura.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// ComputeInvoiceTotals fija el subtotal de cada línea (UnitPrice*Quantity) y devuelve
// subtotal = Σ líneas, tax = subtotal*taxRate redondeado a 2 decimales y total = subtotal+tax.
func ComputeInvoiceTotals(items []InvoiceItem, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for i := range items {
		line := items[i].UnitPrice.Mul(items[i].Quantity)
		items[i].Subtotal = line
		subtotal = subtotal.Add(line)
	}
	tax = subtotal.Mul(taxRate).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}

// ComputeTotals recalcula líneas y totales con la tasa de la factura.
func (inv *Invoice) ComputeTotals() {
	inv.Subtotal, inv.TaxTotal, inv.Total = ComputeInvoiceTotals(inv.Items, inv.TaxRate)
}
