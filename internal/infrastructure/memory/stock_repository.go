package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo libro de stock en memoria.
type StockRepo struct {
	access accessor
}

// Create inserta la fila; asigna ID si viene vacío.
func (r *StockRepo) Create(_ context.Context, item *entity.StockItem) error {
	return r.access(func(d *data) error {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, exists := d.stock[item.ID]; exists {
			return domain.ErrDuplicate
		}
		if err := d.checkSupplier(item.SupplierID); err != nil {
			return err
		}
		d.stock[item.ID] = *item
		d.stockSeq = append(d.stockSeq, item.ID)
		return nil
	})
}

// GetByID devuelve una copia de la fila o nil si no existe.
func (r *StockRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.access(func(d *data) error {
		if s, ok := d.stock[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// GetForUpdate igual que GetByID; el bloqueo lo da el mutex del store en Run.
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, id)
}

// Update reemplaza la fila.
func (r *StockRepo) Update(_ context.Context, item *entity.StockItem) error {
	return r.access(func(d *data) error {
		if _, ok := d.stock[item.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := d.checkSupplier(item.SupplierID); err != nil {
			return err
		}
		d.stock[item.ID] = *item
		return nil
	})
}

// Delete elimina la fila.
func (r *StockRepo) Delete(_ context.Context, id string) error {
	return r.access(func(d *data) error {
		if _, ok := d.stock[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.stock, id)
		for i, sid := range d.stockSeq {
			if sid == id {
				d.stockSeq = append(d.stockSeq[:i], d.stockSeq[i+1:]...)
				break
			}
		}
		return nil
	})
}

// List filtra en orden de alta.
func (r *StockRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockItem, error) {
	return r.collect(func(s entity.StockItem) bool {
		if f.Name != "" && s.Name != f.Name {
			return false
		}
		if f.Category != "" && s.Category != f.Category {
			return false
		}
		if f.MaxQuantity != nil && s.Quantity > *f.MaxQuantity {
			return false
		}
		return true
	})
}

// ListAvailableByName lotes del material con existencias, más antiguo primero.
func (r *StockRepo) ListAvailableByName(_ context.Context, name string) ([]*entity.StockItem, error) {
	return r.collect(func(s entity.StockItem) bool {
		return s.Name == name && s.Quantity > 0
	})
}

// FindByNameAndCategory primera fila (por orden de alta) con ese nombre y categoría.
func (r *StockRepo) FindByNameAndCategory(_ context.Context, name, category string) (*entity.StockItem, error) {
	list, err := r.collect(func(s entity.StockItem) bool {
		return s.Name == name && s.Category == category
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// LockNameCategory no hace nada: el mutex del store ya serializa la transacción completa.
func (r *StockRepo) LockNameCategory(_ context.Context, _, _ string) error {
	return nil
}

// checkSupplier replica la clave foránea stock.supplier_id.
func (d *data) checkSupplier(id string) error {
	if id == "" {
		return nil
	}
	if _, ok := d.suppliers[id]; !ok {
		return fmt.Errorf("%w: proveedor %s no existe", domain.ErrInvalidInput, id)
	}
	return nil
}

func (r *StockRepo) collect(keep func(entity.StockItem) bool) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.access(func(d *data) error {
		for _, id := range d.stockSeq {
			s := d.stock[id]
			if keep(s) {
				out = append(out, &s)
			}
		}
		return nil
	})
	// stockSeq da el orden de alta; el sort estable lo conserva entre filas con la misma fecha.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
