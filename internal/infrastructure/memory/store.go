// Package memory implementa los repositorios sobre mapas en memoria. Se usa en pruebas y con
// STORAGE_DRIVER=memory. Todas las operaciones se serializan con un mutex del store; una
// transacción trabaja sobre una copia que solo se publica si fn termina sin error.
package memory

import (
	"context"
	"sync"

	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

var _ manufacturing.TxRunner = (*Store)(nil)

type data struct {
	stock     map[string]entity.StockItem
	stockSeq  []string // orden de alta de las filas de stock
	orders    map[string]entity.ManufacturingOrder
	suppliers map[string]entity.Supplier
	customers map[string]entity.Customer
	invoices  map[string]entity.Invoice
	sales     map[string]entity.Sale
}

func newData() *data {
	return &data{
		stock:     make(map[string]entity.StockItem),
		orders:    make(map[string]entity.ManufacturingOrder),
		suppliers: make(map[string]entity.Supplier),
		customers: make(map[string]entity.Customer),
		invoices:  make(map[string]entity.Invoice),
		sales:     make(map[string]entity.Sale),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.stock {
		c.stock[k] = v
	}
	c.stockSeq = append([]string(nil), d.stockSeq...)
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = copyInvoice(v)
	}
	for k, v := range d.sales {
		c.sales[k] = v
	}
	return c
}

// Store contenedor de todos los datos en memoria.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newData()}
}

// with ejecuta fn con el store bloqueado.
func (s *Store) with(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Run implementa manufacturing.TxRunner. Mantiene el store bloqueado durante toda la unidad de
// trabajo, de modo que dos asignaciones concurrentes nunca leen el mismo stock a la vez.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	orderRepo repository.ManufacturingOrderRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.data.clone()
	access := func(f func(d *data) error) error { return f(tx) }
	if err := fn(&StockRepo{access: access}, &OrderRepo{access: access}); err != nil {
		return err
	}
	s.data = tx
	return nil
}

// Stock repositorio de stock fuera de transacción.
func (s *Store) Stock() *StockRepo { return &StockRepo{access: s.with} }

// Orders repositorio de órdenes fuera de transacción.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{access: s.with} }

// Suppliers repositorio de proveedores.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{access: s.with} }

// Customers repositorio de clientes.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{access: s.with} }

// Invoices repositorio de facturas.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{access: s.with} }

// Sales repositorio de ventas.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{access: s.with} }

type accessor func(fn func(d *data) error) error

func copyOrder(o entity.ManufacturingOrder) entity.ManufacturingOrder {
	o.Materials = append([]entity.MaterialUsage(nil), o.Materials...)
	if o.FinishedAt != nil {
		t := *o.FinishedAt
		o.FinishedAt = &t
	}
	return o
}

func copyInvoice(inv entity.Invoice) entity.Invoice {
	inv.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	return inv
}
