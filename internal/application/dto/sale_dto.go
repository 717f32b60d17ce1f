package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRequest alta o reemplazo de una venta.
type SaleRequest struct {
	CustomerID string          `json:"customer_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Date       time.Time       `json:"date"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id,omitempty"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Total      decimal.Decimal `json:"total"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
