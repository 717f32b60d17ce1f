package repository

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
// Create y Update guardan cabecera y líneas juntas; GetByID devuelve la factura con Items cargados.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Invoice, error)
}
