package manufacturing

import (
	"context"
	"fmt"
	"time"

	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	mfg "github.com/taller-macetas/macetas-erp/internal/domain/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// AllocationEngine convierte una etiqueta de producto en un consumo concreto de lotes de stock.
type AllocationEngine struct {
	catalog *mfg.Catalog
	now     func() time.Time
}

// NewAllocationEngine construye el motor con el catálogo inyectado.
func NewAllocationEngine(catalog *mfg.Catalog) *AllocationEngine {
	return &AllocationEngine{catalog: catalog, now: time.Now}
}

// Allocate debe llamarse dentro de la transacción del caller. Carga (y bloquea) los lotes de cada
// material en orden alfabético, calcula el plan completo y solo entonces descuenta y persiste
// cada lote tocado. Errores: domain.ErrInvalidProduct, *domain.InsufficientStockError.
func (e *AllocationEngine) Allocate(ctx context.Context, stockRepo repository.StockRepository, product string) ([]entity.MaterialUsage, error) {
	bill, ok := e.catalog.Bill(product)
	if !ok {
		return nil, fmt.Errorf("%q: %w", product, domain.ErrInvalidProduct)
	}
	lots := make(map[string][]*entity.StockItem, len(bill))
	for _, material := range mfg.Materials(bill) {
		rows, err := stockRepo.ListAvailableByName(ctx, material)
		if err != nil {
			return nil, fmt.Errorf("cargar lotes de %s: %w", material, err)
		}
		lots[material] = rows
	}
	plan, err := mfg.PlanAllocation(bill, lots)
	if err != nil {
		return nil, err
	}
	now := e.now()
	for _, item := range plan.Apply() {
		item.UpdatedAt = now
		if err := stockRepo.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("descontar lote %s: %w", item.ID, err)
		}
	}
	return plan.Usages(), nil
}
