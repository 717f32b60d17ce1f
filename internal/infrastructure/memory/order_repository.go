package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ repository.ManufacturingOrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes de fabricación en memoria.
type OrderRepo struct {
	access accessor
}

func (r *OrderRepo) Create(_ context.Context, o *entity.ManufacturingOrder) error {
	return r.access(func(d *data) error {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		if _, exists := d.orders[o.ID]; exists {
			return domain.ErrDuplicate
		}
		d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.ManufacturingOrder, error) {
	var out *entity.ManufacturingOrder
	err := r.access(func(d *data) error {
		if o, ok := d.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria el bloqueo lo da el mutex de la transacción.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.ManufacturingOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) Update(_ context.Context, o *entity.ManufacturingOrder) error {
	return r.access(func(d *data) error {
		if _, ok := d.orders[o.ID]; !ok {
			return domain.ErrNotFound
		}
		d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r *OrderRepo) Delete(_ context.Context, id string) error {
	return r.access(func(d *data) error {
		if _, ok := d.orders[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.orders, id)
		return nil
	})
}

func (r *OrderRepo) List(_ context.Context, state entity.OrderState) ([]*entity.ManufacturingOrder, error) {
	var out []*entity.ManufacturingOrder
	err := r.access(func(d *data) error {
		for _, o := range d.orders {
			if state != "" && o.State != state {
				continue
			}
			c := copyOrder(o)
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}
