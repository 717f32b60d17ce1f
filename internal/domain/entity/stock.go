package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity tope de unidades por fila; coincide con la columna INTEGER de stock.quantity.
const MaxQuantity = math.MaxInt32

// ValidQuantity indica si n cabe en una fila de stock.
func ValidQuantity(n int) bool {
	return n >= 0 && n <= MaxQuantity
}

// CanAdd indica si sumar n unidades al lote deja la cantidad dentro del tope.
func (s *StockItem) CanAdd(n int) bool {
	return n >= 0 && n <= MaxQuantity-s.Quantity
}

// StockItem es una fila del libro de stock: un lote de un material o de un producto terminado.
// Puede haber varias filas con el mismo Name (lotes distintos del mismo material).
type StockItem struct {
	ID         string
	Name       string
	Category   string // libre: "LED Rojo", "Maceta fabricada", ...
	Quantity   int    // nunca negativa tras una mutación exitosa
	UnitPrice  decimal.Decimal
	SupplierID string // opcional: proveedor que repuso el lote
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Take descuenta hasta n unidades del lote y devuelve cuántas tomó realmente.
func (s *StockItem) Take(n int) int {
	if n <= 0 || s.Quantity <= 0 {
		return 0
	}
	if n > s.Quantity {
		n = s.Quantity
	}
	s.Quantity -= n
	return n
}
