package memory

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var (
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.InvoiceRepository  = (*InvoiceRepo)(nil)
	_ repository.SaleRepository     = (*SaleRepo)(nil)
)

// SupplierRepo proveedores en memoria.
type SupplierRepo struct{ access accessor }

func (r *SupplierRepo) t() table[entity.Supplier] {
	return table[entity.Supplier]{
		access:  r.access,
		rows:    func(d *data) map[string]entity.Supplier { return d.suppliers },
		id:      func(v *entity.Supplier) *string { return &v.ID },
		created: func(v *entity.Supplier) int64 { return v.CreatedAt.UnixNano() },
		clone:   identity[entity.Supplier],
	}
}

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error { return r.t().create(s) }
func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	return r.t().get(id)
}
func (r *SupplierRepo) Update(_ context.Context, s *entity.Supplier) error { return r.t().update(s) }

// Delete elimina el proveedor y desvincula sus lotes, como ON DELETE SET NULL.
func (r *SupplierRepo) Delete(_ context.Context, id string) error {
	return r.access(func(d *data) error {
		if _, ok := d.suppliers[id]; !ok {
			return domain.ErrNotFound
		}
		delete(d.suppliers, id)
		for k, s := range d.stock {
			if s.SupplierID == id {
				s.SupplierID = ""
				d.stock[k] = s
			}
		}
		return nil
	})
}


func (r *SupplierRepo) List(_ context.Context) ([]*entity.Supplier, error) {
	return r.t().list(nil)
}

// CustomerRepo clientes en memoria.
type CustomerRepo struct{ access accessor }

func (r *CustomerRepo) t() table[entity.Customer] {
	return table[entity.Customer]{
		access:  r.access,
		rows:    func(d *data) map[string]entity.Customer { return d.customers },
		id:      func(v *entity.Customer) *string { return &v.ID },
		created: func(v *entity.Customer) int64 { return v.CreatedAt.UnixNano() },
		clone:   identity[entity.Customer],
	}
}

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error { return r.t().create(c) }
func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.t().get(id)
}

// GetByTaxID primer cliente con ese documento; nil si no existe.
func (r *CustomerRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Customer, error) {
	list, err := r.t().list(func(c *entity.Customer) bool { return c.TaxID == taxID })
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}
func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) error { return r.t().update(c) }
func (r *CustomerRepo) Delete(_ context.Context, id string) error        { return r.t().delete(id) }
func (r *CustomerRepo) List(_ context.Context) ([]*entity.Customer, error) {
	return r.t().list(nil)
}

// InvoiceRepo facturas en memoria (cabecera y líneas juntas).
type InvoiceRepo struct{ access accessor }

func (r *InvoiceRepo) t() table[entity.Invoice] {
	return table[entity.Invoice]{
		access:  r.access,
		rows:    func(d *data) map[string]entity.Invoice { return d.invoices },
		id:      func(v *entity.Invoice) *string { return &v.ID },
		created: func(v *entity.Invoice) int64 { return v.CreatedAt.UnixNano() },
		clone:   copyInvoice,
	}
}

func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error { return r.t().create(inv) }
func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	return r.t().get(id)
}
func (r *InvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error { return r.t().update(inv) }
func (r *InvoiceRepo) Delete(_ context.Context, id string) error         { return r.t().delete(id) }
func (r *InvoiceRepo) List(_ context.Context) ([]*entity.Invoice, error) {
	return r.t().list(nil)
}

// SaleRepo ventas en memoria.
type SaleRepo struct{ access accessor }

func (r *SaleRepo) t() table[entity.Sale] {
	return table[entity.Sale]{
		access:  r.access,
		rows:    func(d *data) map[string]entity.Sale { return d.sales },
		id:      func(v *entity.Sale) *string { return &v.ID },
		created: func(v *entity.Sale) int64 { return v.CreatedAt.UnixNano() },
		clone:   identity[entity.Sale],
	}
}

func (r *SaleRepo) Create(_ context.Context, s *entity.Sale) error { return r.t().create(s) }
func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.t().get(id)
}
func (r *SaleRepo) Update(_ context.Context, s *entity.Sale) error { return r.t().update(s) }
func (r *SaleRepo) Delete(_ context.Context, id string) error    { return r.t().delete(id) }
func (r *SaleRepo) List(_ context.Context) ([]*entity.Sale, error) {
	return r.t().list(nil)
}
