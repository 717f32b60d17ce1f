package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockItemRequest alta de una fila de stock (lote de material o producto).
type CreateStockItemRequest struct {
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID string          `json:"supplier_id"`
}

// UpdateStockItemRequest actualización parcial de una fila de stock.
type UpdateStockItemRequest struct {
	Name       *string          `json:"name"`
	Category   *string          `json:"category"`
	Quantity   *int             `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	SupplierID *string          `json:"supplier_id"`
}

// RestockRequest body para POST /api/stock/:id/restock.
// Si UnitPrice viene informado el precio del lote pasa a ser el promedio ponderado.
type RestockRequest struct {
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	SupplierID string           `json:"supplier_id"`
}

// StockItemResponse salida de una fila de stock.
type StockItemResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID string          `json:"supplier_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
