package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// PDFUseCase genera la representación impresa (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	generator    InvoicePDFGenerator
	issuer       Issuer
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	generator InvoicePDFGenerator,
	issuer Issuer,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		generator:    generator,
		issuer:       issuer,
	}
}

// DownloadInvoicePDF carga la factura y su cliente y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", domain.ErrNotFound
	}

	var customer *entity.Customer
	if inv.CustomerID != "" {
		customer, err = uc.customerRepo.GetByID(ctx, inv.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
		}
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, uc.issuer, inv, customer)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", safeFilename(inv.Number)), nil
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
