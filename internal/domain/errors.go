package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidProduct    = errors.New("producto no válido")

	// ErrOrderNotFound envuelve ErrNotFound para que los handlers lo traten como 404.
	ErrOrderNotFound = fmt.Errorf("orden de fabricación no encontrada: %w", ErrNotFound)
	// ErrInvalidTransition envuelve ErrConflict (409).
	ErrInvalidTransition = fmt.Errorf("transición de estado no permitida: %w", ErrConflict)
)

// InsufficientStockError indica qué material no alcanza para cubrir la lista de materiales.
type InsufficientStockError struct {
	Material  string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de %s: requerido %d, disponible %d", e.Material, e.Required, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
