package repository

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// StockFilter filtros para listar el libro de stock. Campos vacíos no filtran.
type StockFilter struct {
	Name        string
	Category    string
	MaxQuantity *int // solo filas con Quantity <= MaxQuantity
}

// StockRepository puerto de persistencia del libro de stock.
// Dentro de una transacción, ListAvailableByName y FindByNameAndCategory bloquean las filas leídas.
type StockRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	Update(ctx context.Context, item *entity.StockItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StockFilter) ([]*entity.StockItem, error)
	// ListAvailableByName filas con Name exacto y Quantity > 0, en orden de alta (más antigua primero).
	ListAvailableByName(ctx context.Context, name string) ([]*entity.StockItem, error)
	// FindByNameAndCategory primera fila con ese nombre y categoría; nil si no existe.
	FindByNameAndCategory(ctx context.Context, name, category string) (*entity.StockItem, error)
	// LockNameCategory serializa hasta el fin de la transacción a quienes buscan o crean la fila
	// (name, category), aunque todavía no exista.
	LockNameCategory(ctx context.Context, name, category string) error
}
