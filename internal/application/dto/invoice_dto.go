package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceItemRequest línea de factura.
type InvoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InvoiceRequest alta o reemplazo de una factura. Number vacío genera uno automático;
// Date cero usa la fecha actual.
type InvoiceRequest struct {
	Number     string               `json:"number"`
	CustomerID string               `json:"customer_id"`
	Date       time.Time            `json:"date"`
	Notes      string               `json:"notes"`
	Items      []InvoiceItemRequest `json:"items"`
}

// InvoiceItemResponse línea de factura con su subtotal.
type InvoiceItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceResponse salida de una factura.
type InvoiceResponse struct {
	ID         string                `json:"id"`
	Number     string                `json:"number"`
	CustomerID string                `json:"customer_id"`
	Date       time.Time             `json:"date"`
	Items      []InvoiceItemResponse `json:"items"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	TaxRate    decimal.Decimal       `json:"tax_rate"`
	TaxTotal   decimal.Decimal       `json:"tax_total"`
	Total      decimal.Decimal       `json:"total"`
	Notes      string                `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
