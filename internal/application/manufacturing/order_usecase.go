package manufacturing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	mfg "github.com/taller-macetas/macetas-erp/internal/domain/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

// DefaultFinishedCategory categoría de las filas de producto terminado.
const DefaultFinishedCategory = "Maceta fabricada"

// Config reglas configurables del ciclo de vida.
type Config struct {
	FinishedCategory string
	Rules            mfg.TransitionRules
}

// OrderUseCase gestiona el ciclo de vida de las órdenes de fabricación: alta con asignación de
// materiales, cambios de estado y abono de producto terminado al finalizar.
type OrderUseCase struct {
	txRunner  TxRunner
	orderRepo repository.ManufacturingOrderRepository
	engine    *AllocationEngine
	catalog   *mfg.Catalog
	cfg       Config
	recorder  Recorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrderUseCase construye el caso de uso. recorder puede ser nil.
func NewOrderUseCase(
	txRunner TxRunner,
	orderRepo repository.ManufacturingOrderRepository,
	catalog *mfg.Catalog,
	cfg Config,
	log zerolog.Logger,
	recorder Recorder,
) *OrderUseCase {
	if cfg.FinishedCategory == "" {
		cfg.FinishedCategory = DefaultFinishedCategory
	}
	if cfg.Rules.CreditPolicy == "" {
		cfg.Rules.CreditPolicy = mfg.CreditOnce
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &OrderUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		engine:    NewAllocationEngine(catalog),
		catalog:   catalog,
		cfg:       cfg,
		recorder:  recorder,
		log:       log.With().Str("component", "manufacturing").Logger(),
		now:       time.Now,
	}
}

// CreateOrder asigna materiales al producto y crea la orden en estado Pendiente, todo en la
// misma transacción. Si la asignación falla no se crea la orden ni se toca el stock.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, product string) (*dto.ManufacturingOrderResponse, error) {
	var order *entity.ManufacturingOrder
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, orderRepo repository.ManufacturingOrderRepository) error {
		usages, err := uc.engine.Allocate(ctx, stockRepo, product)
		if err != nil {
			return err
		}
		now := uc.now()
		order = &entity.ManufacturingOrder{
			ID:        uuid.New().String(),
			Product:   product,
			Materials: usages,
			State:     entity.OrderStatePending,
			StartedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return orderRepo.Create(ctx, order)
	})
	if err != nil {
		reason := failureReason(err)
		uc.recorder.AllocationFailed(reason)
		uc.log.Warn().Err(err).Str("product", product).Str("reason", reason).Msg("orden de fabricación rechazada")
		return nil, err
	}
	uc.recorder.OrderCreated(product)
	uc.log.Info().Str("order_id", order.ID).Str("product", product).Int("lots", len(order.Materials)).Msg("orden de fabricación creada")
	return toOrderResponse(order), nil
}

// Transition cambia el estado de la orden. Al pasar a Finalizado fija la fecha de fin y abona
// una unidad de producto terminado en la misma transacción.
func (uc *OrderUseCase) Transition(ctx context.Context, id string, to entity.OrderState) (*dto.ManufacturingOrderResponse, error) {
	return uc.apply(ctx, id, &to, nil)
}

// Update aplica un PUT parcial: estado (con las mismas reglas que Transition) y notas.
func (uc *OrderUseCase) Update(ctx context.Context, id string, in dto.UpdateManufacturingOrderRequest) (*dto.ManufacturingOrderResponse, error) {
	var to *entity.OrderState
	if in.Estado != nil {
		st, ok := entity.ParseOrderState(*in.Estado)
		if !ok {
			return nil, fmt.Errorf("estado %q: %w", *in.Estado, domain.ErrInvalidInput)
		}
		to = &st
	}
	return uc.apply(ctx, id, to, in.Notas)
}

func (uc *OrderUseCase) apply(ctx context.Context, id string, to *entity.OrderState, notes *string) (*dto.ManufacturingOrderResponse, error) {
	var (
		order    *entity.ManufacturingOrder
		from     entity.OrderState
		changed  bool
		credited bool
	)
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, orderRepo repository.ManufacturingOrderRepository) error {
		o, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrOrderNotFound
		}
		order, from = o, o.State
		now := uc.now()
		if to != nil {
			apply, err := uc.cfg.Rules.Check(o.State, *to)
			if err != nil {
				return err
			}
			if apply {
				if *to == entity.OrderStateFinished {
					if err := uc.creditFinishedGood(ctx, stockRepo, o.Product, now); err != nil {
						return err
					}
					credited = true
					o.FinishedAt = &now
				} else {
					o.FinishedAt = nil
				}
				o.State = *to
				changed = true
			}
		}
		if notes != nil && *notes != o.Notes {
			o.Notes = *notes
			changed = true
		}
		if !changed {
			return nil
		}
		o.UpdatedAt = now
		return orderRepo.Update(ctx, o)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			uc.log.Warn().Str("order_id", id).Str("to", stateName(to)).Msg("transición rechazada")
		}
		return nil, err
	}
	if to != nil && order.State == *to && (from != *to || credited) {
		uc.recorder.OrderTransitioned(string(*to))
		uc.log.Info().Str("order_id", id).Str("from", string(from)).Str("to", string(*to)).Msg("estado de orden actualizado")
	}
	if credited {
		uc.recorder.FinishedGoodCredited(order.Product)
	}
	return toOrderResponse(order), nil
}

// creditFinishedGood suma una unidad a la fila de producto terminado (o la crea) y fija su
// precio con la tabla de precios del catálogo.
func (uc *OrderUseCase) creditFinishedGood(ctx context.Context, stockRepo repository.StockRepository, product string, now time.Time) error {
	price := uc.catalog.Price(product)
	if err := stockRepo.LockNameCategory(ctx, product, uc.cfg.FinishedCategory); err != nil {
		return fmt.Errorf("bloquear producto terminado: %w", err)
	}
	item, err := stockRepo.FindByNameAndCategory(ctx, product, uc.cfg.FinishedCategory)
	if err != nil {
		return fmt.Errorf("buscar producto terminado: %w", err)
	}
	if item != nil {
		if !item.CanAdd(1) {
			return fmt.Errorf("%w: %s superaría %d unidades", domain.ErrInvalidInput, product, entity.MaxQuantity)
		}
		item.Quantity++
		item.UnitPrice = price
		item.UpdatedAt = now
		return stockRepo.Update(ctx, item)
	}
	return stockRepo.Create(ctx, &entity.StockItem{
		ID:        uuid.New().String(),
		Name:      product,
		Category:  uc.cfg.FinishedCategory,
		Quantity:  1,
		UnitPrice: price,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// GetByID obtiene una orden por ID.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*dto.ManufacturingOrderResponse, error) {
	o, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return toOrderResponse(o), nil
}

// List lista las órdenes; estado vacío no filtra.
func (uc *OrderUseCase) List(ctx context.Context, estado string) ([]dto.ManufacturingOrderResponse, error) {
	var state entity.OrderState
	if estado != "" {
		st, ok := entity.ParseOrderState(estado)
		if !ok {
			return nil, fmt.Errorf("estado %q: %w", estado, domain.ErrInvalidInput)
		}
		state = st
	}
	list, err := uc.orderRepo.List(ctx, state)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ManufacturingOrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, *toOrderResponse(o))
	}
	return out, nil
}

// Delete elimina la orden. El stock consumido no se repone.
func (uc *OrderUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrOrderNotFound
		}
		return err
	}
	uc.log.Info().Str("order_id", id).Msg("orden de fabricación eliminada")
	return nil
}

// Products tamaños fabricables con su lista de materiales y precio.
func (uc *OrderUseCase) Products() []dto.ProductRuleResponse {
	products := uc.catalog.Products()
	out := make([]dto.ProductRuleResponse, 0, len(products))
	for _, p := range products {
		bill := make([]dto.RequirementDTO, 0, len(p.Bill))
		for _, r := range p.Bill {
			bill = append(bill, dto.RequirementDTO{Material: r.Material, Cantidad: r.Quantity})
		}
		out = append(out, dto.ProductRuleResponse{Producto: p.Label, Precio: p.Price, Materiales: bill})
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidProduct):
		return "invalid_product"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "store_error"
	}
}

func stateName(s *entity.OrderState) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func toOrderResponse(o *entity.ManufacturingOrder) *dto.ManufacturingOrderResponse {
	if o == nil {
		return nil
	}
	materials := make([]dto.MaterialUsageDTO, 0, len(o.Materials))
	for _, m := range o.Materials {
		materials = append(materials, dto.MaterialUsageDTO{Material: m.Material, Cantidad: m.Quantity})
	}
	return &dto.ManufacturingOrderResponse{
		ID:          o.ID,
		Producto:    o.Product,
		Materiales:  materials,
		Estado:      string(o.State),
		FechaInicio: o.StartedAt,
		FechaFin:    o.FinishedAt,
		Notas:       o.Notes,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
