package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// InvoiceUseCase alta, edición y consulta de facturas. Los totales siempre se recalculan en el
// servidor a partir de las líneas.
type InvoiceUseCase struct {
	repo         repository.InvoiceRepository
	customerRepo repository.CustomerRepository
	taxRate      decimal.Decimal
	log          zerolog.Logger
	now          func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. taxRate es una fracción (0.19 = 19%) y se aplica a
// las facturas nuevas; las existentes conservan la tasa con que se emitieron.
func NewInvoiceUseCase(
	repo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	taxRate decimal.Decimal,
	log zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		repo:         repo,
		customerRepo: customerRepo,
		taxRate:      taxRate,
		log:          log.With().Str("component", "billing").Logger(),
		now:          time.Now,
	}
}

// Create emite una factura. Sin número se genera FAC-<unix>; sin fecha se usa la actual.
func (uc *InvoiceUseCase) Create(ctx context.Context, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.now()
	inv := &entity.Invoice{
		ID:        uuid.New().String(),
		TaxRate:   uc.taxRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInvoice(inv, in, now)
	if inv.Number == "" {
		inv.Number = fmt.Sprintf("FAC-%d", now.Unix())
	}
	inv.ComputeTotals()
	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Str("total", inv.Total.StringFixed(2)).Msg("factura emitida")
	return toInvoiceResponse(inv), nil
}

// GetByID obtiene una factura con sus líneas.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return toInvoiceResponse(inv), nil
}

// Update reemplaza cliente, fecha, notas y líneas, y recalcula los totales.
func (uc *InvoiceUseCase) Update(ctx context.Context, id string, in dto.InvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	inv, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	number := inv.Number
	applyInvoice(inv, in, inv.Date)
	if inv.Number == "" {
		inv.Number = number
	}
	inv.ComputeTotals()
	inv.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// List lista facturas.
func (uc *InvoiceUseCase) List(ctx context.Context) ([]dto.InvoiceResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, *toInvoiceResponse(inv))
	}
	return out, nil
}

// Delete elimina una factura.
func (uc *InvoiceUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *InvoiceUseCase) validate(ctx context.Context, in dto.InvoiceRequest) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("la factura necesita al menos una línea: %w", domain.ErrInvalidInput)
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" || !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
			return fmt.Errorf("línea %d: %w", i+1, domain.ErrInvalidInput)
		}
	}
	if in.CustomerID == "" {
		return nil
	}
	c, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("cliente %s: %w", in.CustomerID, domain.ErrInvalidInput)
	}
	return nil
}

func applyInvoice(inv *entity.Invoice, in dto.InvoiceRequest, defaultDate time.Time) {
	inv.Number = strings.TrimSpace(in.Number)
	inv.CustomerID = in.CustomerID
	inv.Notes = in.Notes
	inv.Date = defaultDate
	if !in.Date.IsZero() {
		inv.Date = in.Date
	}
	inv.Items = make([]entity.InvoiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		inv.Items = append(inv.Items, entity.InvoiceItem{
			ID:          uuid.New().String(),
			InvoiceID:   inv.ID,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, dto.InvoiceItemResponse{
			ID:          it.ID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return &dto.InvoiceResponse{
		ID:         inv.ID,
		Number:     inv.Number,
		CustomerID: inv.CustomerID,
		Date:       inv.Date,
		Items:      items,
		Subtotal:   inv.Subtotal,
		TaxRate:    inv.TaxRate,
		TaxTotal:   inv.TaxTotal,
		Total:      inv.Total,
		Notes:      inv.Notes,
		CreatedAt:  inv.CreatedAt,
		UpdatedAt:  inv.UpdatedAt,
	}
}
