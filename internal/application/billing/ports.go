package billing

import (
	"context"

	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
)

// Issuer datos del taller que emite las facturas.
type Issuer struct {
	Name    string
	TaxID   string
	Address string
	Phone   string
	Email   string
}

// InvoicePDFGenerator genera la representación impresa de una factura. customer puede ser nil
// (venta de mostrador sin cliente registrado).
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, issuer Issuer, invoice *entity.Invoice, customer *entity.Customer) ([]byte, error)
}
