package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateManufacturingOrderRequest body para POST /api/manufacturing-orders.
// Producto es el alias en español que envía el front end antiguo.
type CreateManufacturingOrderRequest struct {
	Product  string `json:"product"`
	Producto string `json:"producto"`
}

// Label devuelve la etiqueta de producto enviada por cualquiera de los dos campos.
func (r CreateManufacturingOrderRequest) Label() string {
	if r.Product != "" {
		return r.Product
	}
	return r.Producto
}

// UpdateManufacturingOrderRequest body para PUT /api/manufacturing-orders/:id.
// Los campos ausentes no se modifican; producto y materiales no son editables.
type UpdateManufacturingOrderRequest struct {
	Estado *string `json:"estado"`
	Notas  *string `json:"notas"`
}

// MaterialUsageDTO material consumido por lote.
type MaterialUsageDTO struct {
	Material string `json:"material"`
	Cantidad int    `json:"cantidad"`
}

// ManufacturingOrderResponse salida de una orden de fabricación.
type ManufacturingOrderResponse struct {
	ID          string             `json:"id"`
	Producto    string             `json:"producto"`
	Materiales  []MaterialUsageDTO `json:"materiales"`
	Estado      string             `json:"estado"`
	FechaInicio time.Time          `json:"fecha_inicio"`
	FechaFin    *time.Time         `json:"fecha_fin,omitempty"`
	Notas       string             `json:"notas,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RequirementDTO material y cantidad de la lista de materiales.
type RequirementDTO struct {
	Material string `json:"material"`
	Cantidad int    `json:"cantidad"`
}

// ProductRuleResponse tamaño de maceta fabricable con su lista de materiales y precio.
type ProductRuleResponse struct {
	Producto   string           `json:"producto"`
	Precio     decimal.Decimal  `json:"precio"`
	Materiales []RequirementDTO `json:"materiales"`
}
