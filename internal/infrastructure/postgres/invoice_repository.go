package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, number, customer_id, date, subtotal, tax_rate, tax_total, total, notes, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx). Cabecera y líneas se
// escriben en una misma transacción (savepoint si q ya es una tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invoices (` + invoiceColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := tx.Exec(ctx, query,
			inv.ID, inv.Number, nullIfEmpty(inv.CustomerID), inv.Date,
			inv.Subtotal, inv.TaxRate, inv.TaxTotal, inv.Total, inv.Notes,
			inv.CreatedAt, inv.UpdatedAt,
		)
		if err != nil {
			return invoiceWriteError("insert invoice", err)
		}
		return insertItems(ctx, tx, inv)
	})
}

// GetByID obtiene la factura con sus líneas; nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.items(ctx, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return inv, nil
}

// Update reescribe la cabecera y reemplaza todas las líneas.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			UPDATE invoices SET number = $2, customer_id = $3, date = $4, subtotal = $5, tax_rate = $6,
				tax_total = $7, total = $8, notes = $9, updated_at = $10
			WHERE id = $1`
		tag, err := tx.Exec(ctx, query,
			inv.ID, inv.Number, nullIfEmpty(inv.CustomerID), inv.Date,
			inv.Subtotal, inv.TaxRate, inv.TaxTotal, inv.Total, inv.Notes, inv.UpdatedAt,
		)
		if err != nil {
			return invoiceWriteError("update invoice", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		return insertItems(ctx, tx, inv)
	})
}

// Delete elimina la factura; las líneas caen por ON DELETE CASCADE.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List facturas más recientes primero, con sus líneas.
func (r *InvoiceRepo) List(ctx context.Context) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY date DESC, created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var (
		list []*entity.Invoice
		ids  []string
	)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
		ids = append(ids, inv.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, inv := range list {
		inv.Items = items[inv.ID]
	}
	return list, nil
}

func (r *InvoiceRepo) items(ctx context.Context, invoiceIDs []string) (map[string][]entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, subtotal
		FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, position`
	rows, err := r.q.Query(ctx, query, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.InvoiceItem, len(invoiceIDs))
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		out[it.InvoiceID] = append(out[it.InvoiceID], it)
	}
	return out, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range inv.Items {
		it := &inv.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.InvoiceID = inv.ID
		if _, err := tx.Exec(ctx, query, it.ID, it.InvoiceID, i, it.Description, it.Quantity, it.UnitPrice, it.Subtotal); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv      entity.Invoice
		customer *string
	)
	if err := row.Scan(&inv.ID, &inv.Number, &customer, &inv.Date, &inv.Subtotal, &inv.TaxRate,
		&inv.TaxTotal, &inv.Total, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.CustomerID = derefString(customer)
	return &inv, nil
}

func invoiceWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("número de factura repetido: %w", domain.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("cliente inexistente: %w", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
