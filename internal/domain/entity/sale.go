package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale venta directa de un producto (normalmente una maceta fabricada).
type Sale struct {
	ID         string
	CustomerID string // opcional
	Product    string
	Quantity   int
	UnitPrice  decimal.Decimal
	Total      decimal.Decimal
	Date       time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ComputeTotal Total = UnitPrice * Quantity.
func (s *Sale) ComputeTotal() {
	s.Total = s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
