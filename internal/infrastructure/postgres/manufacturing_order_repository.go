package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ repository.ManufacturingOrderRepository = (*ManufacturingOrderRepo)(nil)

const orderColumns = `id, product, materials, state, started_at, finished_at, notes, created_at, updated_at`

// ManufacturingOrderRepo implementación de ManufacturingOrderRepository. Los materiales se
// guardan como JSONB en el orden de asignación.
type ManufacturingOrderRepo struct {
	q Querier
}

// NewManufacturingOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewManufacturingOrderRepository(q Querier) *ManufacturingOrderRepo {
	return &ManufacturingOrderRepo{q: q}
}

// Create persiste una orden nueva.
func (r *ManufacturingOrderRepo) Create(ctx context.Context, o *entity.ManufacturingOrder) error {
	materials, err := json.Marshal(o.Materials)
	if err != nil {
		return fmt.Errorf("marshal materials: %w", err)
	}
	query := `
		INSERT INTO manufacturing_orders (id, product, materials, state, started_at, finished_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.q.Exec(ctx, query,
		o.ID, o.Product, materials, string(o.State), o.StartedAt, o.FinishedAt, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert manufacturing order: %w", err)
	}
	return nil
}

// GetByID obtiene una orden; nil si no existe.
func (r *ManufacturingOrderRepo) GetByID(ctx context.Context, id string) (*entity.ManufacturingOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM manufacturing_orders WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
func (r *ManufacturingOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.ManufacturingOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM manufacturing_orders WHERE id = $1 FOR UPDATE`, id)
}

// Update guarda estado, fechas y notas. Los materiales no cambian tras la creación.
func (r *ManufacturingOrderRepo) Update(ctx context.Context, o *entity.ManufacturingOrder) error {
	query := `
		UPDATE manufacturing_orders SET state = $2, finished_at = $3, notes = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, o.ID, string(o.State), o.FinishedAt, o.Notes, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update manufacturing order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la orden.
func (r *ManufacturingOrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM manufacturing_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete manufacturing order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List órdenes más recientes primero; state vacío no filtra.
func (r *ManufacturingOrderRepo) List(ctx context.Context, state entity.OrderState) ([]*entity.ManufacturingOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM manufacturing_orders
		WHERE ($1 = '' OR state = $1)
		ORDER BY created_at DESC, id`
	rows, err := r.q.Query(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("list manufacturing orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.ManufacturingOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (r *ManufacturingOrderRepo) get(ctx context.Context, query, id string) (*entity.ManufacturingOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manufacturing order: %w", err)
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*entity.ManufacturingOrder, error) {
	var (
		o         entity.ManufacturingOrder
		state     string
		materials []byte
	)
	if err := row.Scan(&o.ID, &o.Product, &materials, &state, &o.StartedAt, &o.FinishedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(materials, &o.Materials); err != nil {
		return nil, fmt.Errorf("unmarshal materials: %w", err)
	}
	o.State = entity.OrderState(state)
	return &o, nil
}
