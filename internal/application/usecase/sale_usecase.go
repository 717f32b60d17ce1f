package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// SaleUseCase casos de uso CRUD para ventas. Una venta es un registro comercial: no descuenta stock.
type SaleUseCase struct {
	repo         repository.SaleRepository
	customerRepo repository.CustomerRepository
	now          func() time.Time
}

// NewSaleUseCase construye el caso de uso. customerRepo valida el cliente cuando viene informado.
func NewSaleUseCase(repo repository.SaleRepository, customerRepo repository.CustomerRepository) *SaleUseCase {
	return &SaleUseCase{repo: repo, customerRepo: customerRepo, now: time.Now}
}

// Create registra una venta y calcula su total.
func (uc *SaleUseCase) Create(ctx context.Context, in dto.SaleRequest) (*dto.SaleResponse, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.now()
	s := &entity.Sale{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.apply(s, in, now)
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSaleResponse(s), nil
}

// GetByID obtiene una venta.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return toSaleResponse(s), nil
}

// Update reemplaza una venta y recalcula el total.
func (uc *SaleUseCase) Update(ctx context.Context, id string, in dto.SaleRequest) (*dto.SaleResponse, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	s, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	now := uc.now()
	uc.apply(s, in, s.Date)
	s.UpdatedAt = now
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return toSaleResponse(s), nil
}

// List lista ventas.
func (uc *SaleUseCase) List(ctx context.Context) ([]dto.SaleResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toSaleResponse(s))
	}
	return out, nil
}

// Delete elimina una venta.
func (uc *SaleUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *SaleUseCase) validate(ctx context.Context, in dto.SaleRequest) error {
	if strings.TrimSpace(in.Product) == "" || in.Quantity <= 0 || in.UnitPrice.IsNegative() {
		return domain.ErrInvalidInput
	}
	if in.CustomerID == "" {
		return nil
	}
	c, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// apply copia la petición; fecha vacía conserva defaultDate.
func (uc *SaleUseCase) apply(s *entity.Sale, in dto.SaleRequest, defaultDate time.Time) {
	s.CustomerID = in.CustomerID
	s.Product = strings.TrimSpace(in.Product)
	s.Quantity = in.Quantity
	s.UnitPrice = in.UnitPrice
	s.Date = defaultDate
	if !in.Date.IsZero() {
		s.Date = in.Date
	}
	s.ComputeTotal()
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	if s == nil {
		return nil
	}
	return &dto.SaleResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Product:    s.Product,
		Quantity:   s.Quantity,
		UnitPrice:  s.UnitPrice,
		Total:      s.Total,
		Date:       s.Date,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
