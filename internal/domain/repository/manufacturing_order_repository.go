package repository

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// ManufacturingOrderRepository puerto de persistencia de órdenes de fabricación.
type ManufacturingOrderRepository interface {
	Create(ctx context.Context, order *entity.ManufacturingOrder) error
	GetByID(ctx context.Context, id string) (*entity.ManufacturingOrder, error)
	// GetForUpdate igual que GetByID pero bloquea la orden hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.ManufacturingOrder, error)
	Update(ctx context.Context, order *entity.ManufacturingOrder) error
	Delete(ctx context.Context, id string) error
	// List lista las órdenes (más recientes primero); state vacío no filtra.
	List(ctx context.Context, state entity.OrderState) ([]*entity.ManufacturingOrder, error)
}
