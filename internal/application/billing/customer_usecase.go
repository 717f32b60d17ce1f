package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
	"github.com/taller-macetas/macetas-erp/internal/domain/taxid"
)

// CustomerUseCase casos de uso para clientes (facturación y ventas).
type CustomerUseCase struct {
	repo repository.CustomerRepository
	now  func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, now: time.Now}
}

// Create crea un nuevo cliente. El NIT/cédula, si viene, debe ser válido y no puede repetirse.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkTaxID(ctx, "", in.TaxID); err != nil {
		return nil, err
	}
	now := uc.now()
	c := &entity.Customer{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyCustomer(c, in)
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// GetByID obtiene un cliente.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return toCustomerResponse(c), nil
}

// Update reemplaza los datos del cliente.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.checkTaxID(ctx, id, in.TaxID); err != nil {
		return nil, err
	}
	applyCustomer(c, in)
	c.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// List lista clientes.
func (uc *CustomerUseCase) List(ctx context.Context) ([]dto.CustomerResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCustomerResponse(c))
	}
	return out, nil
}

// Delete elimina un cliente.
func (uc *CustomerUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

func (uc *CustomerUseCase) checkTaxID(ctx context.Context, selfID, taxID string) error {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil
	}
	if err := taxid.Validate(taxID); err != nil {
		return err
	}
	existing, err := uc.repo.GetByTaxID(ctx, taxID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.ErrDuplicate
	}
	return nil
}

func applyCustomer(c *entity.Customer, in dto.CustomerRequest) {
	c.Name = strings.TrimSpace(in.Name)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
