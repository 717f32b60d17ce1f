package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, name, category, quantity, unit_price, supplier_id, created_at, updated_at`

// StockRepo implementación de StockRepository (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Create inserta una fila del libro de stock.
func (r *StockRepo) Create(ctx context.Context, item *entity.StockItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock (id, name, category, quantity, unit_price, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Quantity, item.UnitPrice, nullIfEmpty(item.SupplierID),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return stockWriteError("insert stock", err)
	}
	return nil
}

// GetByID obtiene una fila por ID; nil si no existe.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE id = $1`
	item, err := scanStock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return item, nil
}

// GetForUpdate igual que GetByID pero con SELECT ... FOR UPDATE.
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE id = $1 FOR UPDATE`
	item, err := scanStock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return item, nil
}

// Update reemplaza los campos editables de la fila.
func (r *StockRepo) Update(ctx context.Context, item *entity.StockItem) error {
	query := `
		UPDATE stock SET name = $2, category = $3, quantity = $4, unit_price = $5, supplier_id = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Category, item.Quantity, item.UnitPrice, nullIfEmpty(item.SupplierID), item.UpdatedAt,
	)
	if err != nil {
		return stockWriteError("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina una fila por ID.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra el libro en orden de alta.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockItem, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		args = append(args, f.Name)
		where = append(where, fmt.Sprintf("name = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.MaxQuantity != nil {
		args = append(args, *f.MaxQuantity)
		where = append(where, fmt.Sprintf("quantity <= $%d", len(args)))
	}
	query := `SELECT ` + stockColumns + ` FROM stock`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, seq`
	return r.query(ctx, query, args...)
}

// ListAvailableByName lotes con existencias del material, más antiguo primero. Dentro de una
// transacción las filas quedan bloqueadas hasta el commit.
func (r *StockRepo) ListAvailableByName(ctx context.Context, name string) ([]*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock
		WHERE name = $1 AND quantity > 0
		ORDER BY created_at, seq
		FOR UPDATE`
	return r.query(ctx, query, name)
}

// FindByNameAndCategory primera fila con ese nombre y categoría (bloqueada); nil si no existe.
func (r *StockRepo) FindByNameAndCategory(ctx context.Context, name, category string) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock
		WHERE name = $1 AND category = $2
		ORDER BY created_at, seq
		LIMIT 1
		FOR UPDATE`
	item, err := scanStock(r.q.QueryRow(ctx, query, name, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock by name/category: %w", err)
	}
	return item, nil
}

// lockNameCategorySQL candado consultivo de transacción sobre la clave name|category.
const lockNameCategorySQL = `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`

// LockNameCategory toma el candado de la clave (name, category) hasta el commit o rollback.
// Fuera de una transacción el candado se libera al terminar la sentencia.
func (r *StockRepo) LockNameCategory(ctx context.Context, name, category string) error {
	if _, err := r.q.Exec(ctx, lockNameCategorySQL, name, category); err != nil {
		return fmt.Errorf("lock stock %s/%s: %w", name, category, err)
	}
	return nil
}

func (r *StockRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		item, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func scanStock(row pgx.Row) (*entity.StockItem, error) {
	var (
		s        entity.StockItem
		supplier *string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Quantity, &s.UnitPrice, &supplier, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.SupplierID = derefString(supplier)
	return &s, nil
}

func stockWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isForeignKeyViolation(err):
		return fmt.Errorf("proveedor inexistente: %w", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
