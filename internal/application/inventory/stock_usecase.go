package inventory

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	domaininv "github.com/taller-macetas/macetas-erp/internal/domain/inventory"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// StockUseCase casos de uso del libro de stock: altas, ajustes, reposiciones y exportación.
type StockUseCase struct {
	repo              repository.StockRepository
	txRunner          TxRunner
	formats           map[string]ExportFormat
	lowStockThreshold int
	log               zerolog.Logger
	now               func() time.Time
}

// NewStockUseCase construye el caso de uso. formats indexa los exportadores por nombre (csv, xlsx).
func NewStockUseCase(
	repo repository.StockRepository,
	txRunner TxRunner,
	formats map[string]ExportFormat,
	lowStockThreshold int,
	log zerolog.Logger,
) *StockUseCase {
	return &StockUseCase{
		repo:              repo,
		txRunner:          txRunner,
		formats:           formats,
		lowStockThreshold: lowStockThreshold,
		log:               log.With().Str("component", "stock").Logger(),
		now:               time.Now,
	}
}

// Create da de alta una fila de stock.
func (uc *StockUseCase) Create(ctx context.Context, in dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || !entity.ValidQuantity(in.Quantity) || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = name
	}
	now := uc.now()
	item := &entity.StockItem{
		ID:         uuid.New().String(),
		Name:       name,
		Category:   category,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		SupplierID: in.SupplierID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return toStockResponse(item), nil
}

// GetByID obtiene una fila de stock.
func (uc *StockUseCase) GetByID(ctx context.Context, id string) (*dto.StockItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return toStockResponse(item), nil
}

// Update ajuste manual de una fila. Solo cambia los campos informados.
func (uc *StockUseCase) Update(ctx context.Context, id string, in dto.UpdateStockItemRequest) (*dto.StockItemResponse, error) {
	var out *entity.StockItem
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, _ repository.ManufacturingOrderRepository) error {
		item, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.ErrInvalidInput
			}
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.Category != nil {
			item.Category = strings.TrimSpace(*in.Category)
		}
		if in.Quantity != nil {
			if !entity.ValidQuantity(*in.Quantity) {
				return domain.ErrInvalidInput
			}
			item.Quantity = *in.Quantity
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return domain.ErrInvalidInput
			}
			item.UnitPrice = *in.UnitPrice
		}
		if in.SupplierID != nil {
			item.SupplierID = *in.SupplierID
		}
		item.UpdatedAt = uc.now()
		out = item
		return stockRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return toStockResponse(out), nil
}

// Restock suma unidades a un lote existente (reposición de proveedor). Si llega precio de
// entrada, el precio del lote pasa a ser el promedio ponderado.
func (uc *StockUseCase) Restock(ctx context.Context, id string, in dto.RestockRequest) (*dto.StockItemResponse, error) {
	if in.Quantity <= 0 || in.Quantity > entity.MaxQuantity || (in.UnitPrice != nil && in.UnitPrice.IsNegative()) {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockItem
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, _ repository.ManufacturingOrderRepository) error {
		item, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if !item.CanAdd(in.Quantity) {
			return fmt.Errorf("%w: el lote %s superaría %d unidades", domain.ErrInvalidInput, item.ID, entity.MaxQuantity)
		}
		if in.UnitPrice != nil {
			item.UnitPrice = domaininv.WeightedUnitPrice(item.Quantity, item.UnitPrice, in.Quantity, *in.UnitPrice)
		}
		item.Quantity += in.Quantity
		if in.SupplierID != "" {
			item.SupplierID = in.SupplierID
		}
		item.UpdatedAt = uc.now()
		out = item
		return stockRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("stock_id", id).Str("name", out.Name).Int("added", in.Quantity).Int("quantity", out.Quantity).Msg("lote repuesto")
	return toStockResponse(out), nil
}

// Delete elimina una fila de stock.
func (uc *StockUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// StockQuery filtros de listado. LowStock aplica el umbral configurado.
type StockQuery struct {
	Name     string
	Category string
	LowStock bool
}

// List lista el libro de stock en orden de alta.
func (uc *StockUseCase) List(ctx context.Context, q StockQuery) ([]dto.StockItemResponse, error) {
	list, err := uc.repo.List(ctx, uc.filter(q))
	if err != nil {
		return nil, err
	}
	return toStockResponses(list), nil
}

// LowStock filas con cantidad menor o igual al umbral.
func (uc *StockUseCase) LowStock(ctx context.Context, threshold int) ([]dto.StockItemResponse, error) {
	list, err := uc.repo.List(ctx, repository.StockFilter{MaxQuantity: &threshold})
	if err != nil {
		return nil, err
	}
	return toStockResponses(list), nil
}

// ExportFile archivo generado por Export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export genera el libro de stock (con los filtros de List) en el formato pedido.
func (uc *StockUseCase) Export(ctx context.Context, format string, q StockQuery) (*ExportFile, error) {
	if format == "" {
		format = "csv"
	}
	f, ok := uc.formats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("formato %q: %w", format, domain.ErrInvalidInput)
	}
	list, err := uc.repo.List(ctx, uc.filter(q))
	if err != nil {
		return nil, err
	}
	headers := []string{"ID", "Nombre", "Categoría", "Cantidad", "Precio unitario", "Proveedor", "Actualizado"}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.ID, s.Name, s.Category, strconv.Itoa(s.Quantity), s.UnitPrice.StringFixed(2), s.SupplierID,
			s.UpdatedAt.Format(time.RFC3339),
		})
	}
	var buf bytes.Buffer
	if err := f.Writer.WriteTable(&buf, "Stock", headers, rows); err != nil {
		return nil, fmt.Errorf("exportar stock: %w", err)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("stock_%s.%s", uc.now().Format("20060102"), f.Extension),
		ContentType: f.ContentType,
		Data:        buf.Bytes(),
	}, nil
}

func (uc *StockUseCase) filter(q StockQuery) repository.StockFilter {
	f := repository.StockFilter{Name: q.Name, Category: q.Category}
	if q.LowStock {
		threshold := uc.lowStockThreshold
		f.MaxQuantity = &threshold
	}
	return f
}

func toStockResponses(list []*entity.StockItem) []dto.StockItemResponse {
	out := make([]dto.StockItemResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *toStockResponse(s))
	}
	return out
}

func toStockResponse(s *entity.StockItem) *dto.StockItemResponse {
	if s == nil {
		return nil
	}
	return &dto.StockItemResponse{
		ID:         s.ID,
		Name:       s.Name,
		Category:   s.Category,
		Quantity:   s.Quantity,
		UnitPrice:  s.UnitPrice,
		SupplierID: s.SupplierID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
