package manufacturing

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una unidad de trabajo con repositorios atados a ella.
// Si fn devuelve error no queda ningún cambio persistido (todo o nada).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		orderRepo repository.ManufacturingOrderRepository,
	) error) error
}

// Recorder recibe los eventos de fabricación para métricas.
type Recorder interface {
	OrderCreated(product string)
	AllocationFailed(reason string)
	OrderTransitioned(state string)
	FinishedGoodCredited(product string)
}

type nopRecorder struct{}

func (nopRecorder) OrderCreated(string)         {}
func (nopRecorder) AllocationFailed(string)     {}
func (nopRecorder) OrderTransitioned(string)    {}
func (nopRecorder) FinishedGoodCredited(string) {}
