package manufacturing_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	mfg "github.com/taller-macetas/macetas-erp/internal/domain/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/memory"
)

type fakeRecorder struct {
	mu       sync.Mutex
	created  map[string]int
	failures map[string]int
	states   map[string]int
	credits  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		created:  map[string]int{},
		failures: map[string]int{},
		states:   map[string]int{},
		credits:  map[string]int{},
	}
}

func (f *fakeRecorder) OrderCreated(p string)         { f.mu.Lock(); f.created[p]++; f.mu.Unlock() }
func (f *fakeRecorder) AllocationFailed(r string)     { f.mu.Lock(); f.failures[r]++; f.mu.Unlock() }
func (f *fakeRecorder) OrderTransitioned(s string)    { f.mu.Lock(); f.states[s]++; f.mu.Unlock() }
func (f *fakeRecorder) FinishedGoodCredited(p string) { f.mu.Lock(); f.credits[p]++; f.mu.Unlock() }

func newUseCase(store *memory.Store, rules mfg.TransitionRules, rec manufacturing.Recorder) *manufacturing.OrderUseCase {
	return manufacturing.NewOrderUseCase(store, store.Orders(), mfg.DefaultCatalog(),
		manufacturing.Config{Rules: rules}, zerolog.Nop(), rec)
}

// seedBill da de alta lotes suficientes para fabricar `units` unidades del producto.
func seedBill(t *testing.T, store *memory.Store, product string, units int) {
	t.Helper()
	bill, ok := mfg.DefaultCatalog().Bill(product)
	require.True(t, ok)
	for _, r := range bill {
		addLot(t, store, r.Material, r.Quantity*units)
	}
}

func addLot(t *testing.T, store *memory.Store, name string, qty int) *entity.StockItem {
	t.Helper()
	item := &entity.StockItem{Name: name, Category: name, Quantity: qty, UnitPrice: decimal.NewFromInt(1)}
	require.NoError(t, store.Stock().Create(context.Background(), item))
	return item
}

func snapshot(t *testing.T, store *memory.Store) map[string]int {
	t.Helper()
	list, err := store.Stock().List(context.Background(), repository.StockFilter{})
	require.NoError(t, err)
	out := make(map[string]int, len(list))
	for _, s := range list {
		out[s.ID] = s.Quantity
	}
	return out
}

func consumedByMaterial(order *dto.ManufacturingOrderResponse) map[string]int {
	out := map[string]int{}
	for _, m := range order.Materiales {
		out[m.Material] += m.Cantidad
	}
	return out
}

func TestCreateOrder_ProductoInvalido_NoTocaStock(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 3)
	before := snapshot(t, store)
	rec := newFakeRecorder()
	uc := newUseCase(store, mfg.TransitionRules{}, rec)

	for _, label := range []string{"Maceta gigante", "", "maceta pequeña", "Maceta pequeña "} {
		_, err := uc.CreateOrder(context.Background(), label)
		assert.ErrorIs(t, err, domain.ErrInvalidProduct, "etiqueta %q", label)
	}

	assert.Equal(t, before, snapshot(t, store), "el stock no debe cambiar")
	orders, err := uc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 4, rec.failures["invalid_product"])
}

func TestCreateOrder_StockInsuficiente_NombraMaterialYNoDescuentaNada(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	// La batería es el último material de la lista: los anteriores sí alcanzan.
	list, err := store.Stock().List(context.Background(), repository.StockFilter{Name: "Batería"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, store.Stock().Delete(context.Background(), list[0].ID))
	before := snapshot(t, store)

	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	_, err = uc.CreateOrder(context.Background(), mfg.ProductSmall)

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Batería", stockErr.Material)
	assert.Equal(t, 1, stockErr.Required)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, before, snapshot(t, store), "los materiales anteriores no deben quedar descontados")
}

func TestCreateOrder_LotesConCeroNoCuentan(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	addLot(t, store, "LED Rojo", 0)

	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	for _, m := range order.Materiales {
		assert.Positive(t, m.Cantidad, "no se registran lotes tocados por cero")
	}
}

func TestAllocate_RepartoVorazEntreLotes(t *testing.T) {
	store := memory.NewStore()
	first := addLot(t, store, "LED Rojo", 1)
	second := addLot(t, store, "LED Rojo", 3)
	catalog, err := mfg.NewCatalog(mfg.Product{
		Label: "Prueba",
		Bill:  []mfg.Requirement{{Material: "LED Rojo", Quantity: 2}},
	})
	require.NoError(t, err)
	engine := manufacturing.NewAllocationEngine(catalog)

	var usages []entity.MaterialUsage
	err = store.Run(context.Background(), func(stockRepo repository.StockRepository, _ repository.ManufacturingOrderRepository) error {
		var err error
		usages, err = engine.Allocate(context.Background(), stockRepo, "Prueba")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []entity.MaterialUsage{{Material: "LED Rojo", Quantity: 1}, {Material: "LED Rojo", Quantity: 1}}, usages)
	after := snapshot(t, store)
	assert.Equal(t, 0, after[first.ID])
	assert.Equal(t, 2, after[second.ID])
}

func TestCreateOrder_MacetaPequeña_PendienteConMaterialesExactos(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	addLot(t, store, "LED Verde", 5) // segundo lote que no debe tocarse
	rec := newFakeRecorder()
	uc := newUseCase(store, mfg.TransitionRules{}, rec)

	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	assert.Equal(t, string(entity.OrderStatePending), order.Estado)
	assert.Equal(t, mfg.ProductSmall, order.Producto)
	assert.False(t, order.FechaInicio.IsZero())
	assert.Nil(t, order.FechaFin)
	assert.Equal(t, map[string]int{
		"LED Rojo": 2, "LED Verde": 2, "LED Amarillo": 2,
		"Maceta de plástico Pequeño": 1,
		"Sensor de humedad":          1, "Sensor de luz": 1, "Batería": 1,
	}, consumedByMaterial(order))
	assert.Equal(t, "LED Rojo", order.Materiales[0].Material, "se respeta el orden de la lista de materiales")
	assert.Equal(t, 1, rec.created[mfg.ProductSmall])

	stored, err := uc.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Materiales, stored.Materiales)

	verde, err := store.Stock().List(context.Background(), repository.StockFilter{Name: "LED Verde"})
	require.NoError(t, err)
	require.Len(t, verde, 2)
	assert.Equal(t, 0, verde[0].Quantity)
	assert.Equal(t, 5, verde[1].Quantity)
}

func TestTransition_Finalizado_CreaProductoTerminadoConPrecioDeTabla(t *testing.T) {
	cases := []struct {
		product string
		price   int64
	}{
		{mfg.ProductSmall, 27},
		{mfg.ProductMedium, 34},
		{mfg.ProductLarge, 40},
	}
	for _, tc := range cases {
		t.Run(tc.product, func(t *testing.T) {
			store := memory.NewStore()
			seedBill(t, store, tc.product, 1)
			uc := newUseCase(store, mfg.TransitionRules{}, nil)
			order, err := uc.CreateOrder(context.Background(), tc.product)
			require.NoError(t, err)

			done, err := uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
			require.NoError(t, err)
			assert.Equal(t, "Finalizado", done.Estado)
			require.NotNil(t, done.FechaFin)

			fg, err := store.Stock().FindByNameAndCategory(context.Background(), tc.product, manufacturing.DefaultFinishedCategory)
			require.NoError(t, err)
			require.NotNil(t, fg)
			assert.Equal(t, 1, fg.Quantity)
			assert.True(t, decimal.NewFromInt(tc.price).Equal(fg.UnitPrice), "precio %s", fg.UnitPrice)
		})
	}
}

func TestTransition_Finalizado_SumaAFilaExistenteYSobrescribePrecio(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductMedium, 1)
	existing := &entity.StockItem{Name: mfg.ProductMedium, Category: manufacturing.DefaultFinishedCategory, Quantity: 4, UnitPrice: decimal.NewFromInt(10)}
	require.NoError(t, store.Stock().Create(context.Background(), existing))
	uc := newUseCase(store, mfg.TransitionRules{}, nil)

	order, err := uc.CreateOrder(context.Background(), mfg.ProductMedium)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateInProgress)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)

	fg, err := store.Stock().GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fg.Quantity)
	assert.True(t, decimal.NewFromInt(34).Equal(fg.UnitPrice))
}

func TestTransition_FinalizadoDosVeces_PoliticaOnce_AbonaUnaSolaVez(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	rec := newFakeRecorder()
	uc := newUseCase(store, mfg.TransitionRules{CreditPolicy: mfg.CreditOnce}, rec)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	first, err := uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)
	second, err := uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)

	fg, err := store.Stock().FindByNameAndCategory(context.Background(), mfg.ProductSmall, manufacturing.DefaultFinishedCategory)
	require.NoError(t, err)
	assert.Equal(t, 1, fg.Quantity, "la finalización es idempotente")
	assert.Equal(t, first.FechaFin, second.FechaFin)
	assert.Equal(t, 1, rec.credits[mfg.ProductSmall])
}

func TestTransition_FinalizadoDosVeces_PoliticaEvery_AbonaCadaVez(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	rec := newFakeRecorder()
	uc := newUseCase(store, mfg.TransitionRules{CreditPolicy: mfg.CreditEvery}, rec)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)

	fg, err := store.Stock().FindByNameAndCategory(context.Background(), mfg.ProductSmall, manufacturing.DefaultFinishedCategory)
	require.NoError(t, err)
	assert.Equal(t, 2, fg.Quantity, "cada finalización abona una unidad")
	assert.Equal(t, 2, rec.credits[mfg.ProductSmall])
}

func TestTransition_OrdenInexistente(t *testing.T) {
	store := memory.NewStore()
	uc := newUseCase(store, mfg.TransitionRules{}, nil)

	_, err := uc.Transition(context.Background(), "no-existe", entity.OrderStateFinished)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.Stock().List(context.Background(), repository.StockFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "no se abona producto terminado")
}

func TestTransition_DesdeEstadoTerminal_Rechazada(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 2)
	uc := newUseCase(store, mfg.TransitionRules{}, nil)

	cancelled, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), cancelled.ID, entity.OrderStateCancelled)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), cancelled.ID, entity.OrderStateFinished)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	finished, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), finished.ID, entity.OrderStateFinished)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), finished.ID, entity.OrderStateCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := uc.GetByID(context.Background(), finished.ID)
	require.NoError(t, err)
	assert.Equal(t, "Finalizado", got.Estado)
	assert.NotNil(t, got.FechaFin)
}

func TestTransition_RequireInProgress(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	uc := newUseCase(store, mfg.TransitionRules{RequireInProgress: true}, nil)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateInProgress)
	require.NoError(t, err)
	done, err := uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	require.NoError(t, err)
	assert.Equal(t, "Finalizado", done.Estado)
}

func TestUpdate_EstadoYNotas(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	bad := "Terminado"
	_, err = uc.Update(context.Background(), order.ID, dto.UpdateManufacturingOrderRequest{Estado: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	lower := "en proceso"
	_, err = uc.Update(context.Background(), order.ID, dto.UpdateManufacturingOrderRequest{Estado: &lower})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	estado, notas := "En Proceso", "montaje en mesa 2"
	out, err := uc.Update(context.Background(), order.ID, dto.UpdateManufacturingOrderRequest{Estado: &estado, Notas: &notas})
	require.NoError(t, err)
	assert.Equal(t, "En Proceso", out.Estado)
	assert.Equal(t, notas, out.Notas)
	assert.Nil(t, out.FechaFin)
}

func TestList_FiltraPorEstado(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 2)
	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	a, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	_, err = uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	_, err = uc.Transition(context.Background(), a.ID, entity.OrderStateCancelled)
	require.NoError(t, err)

	all, err := uc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	cancelled, err := uc.List(context.Background(), "Cancelado")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)
	_, err = uc.List(context.Background(), "Perdido")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDelete_NoReponeStock(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)
	before := snapshot(t, store)

	require.NoError(t, uc.Delete(context.Background(), order.ID))
	assert.ErrorIs(t, uc.Delete(context.Background(), order.ID), domain.ErrOrderNotFound)
	_, err = uc.GetByID(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, before, snapshot(t, store))
}

func TestCreateOrder_Concurrente_NoSobreasigna(t *testing.T) {
	const units = 5
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, units)
	uc := newUseCase(store, mfg.TransitionRules{}, nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
	)
	for i := 0; i < units*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, units, ok)
	assert.Equal(t, units*2, short)
	for id, qty := range snapshot(t, store) {
		assert.Equal(t, 0, qty, "lote %s", id)
	}
}

func TestProducts_ListaLosTresTamaños(t *testing.T) {
	uc := newUseCase(memory.NewStore(), mfg.TransitionRules{}, nil)
	products := uc.Products()
	require.Len(t, products, 3)
	assert.Equal(t, mfg.ProductSmall, products[0].Producto)
	assert.True(t, decimal.NewFromInt(27).Equal(products[0].Precio))
	assert.Len(t, products[0].Materiales, 7)
}

// lockRecordingRunner envuelve el store y anota el orden de las llamadas al libro de stock.
type lockRecordingRunner struct {
	store *memory.Store
	mu    sync.Mutex
	calls []string
}

func (r *lockRecordingRunner) Run(ctx context.Context, fn func(repository.StockRepository, repository.ManufacturingOrderRepository) error) error {
	return r.store.Run(ctx, func(stock repository.StockRepository, orders repository.ManufacturingOrderRepository) error {
		return fn(&recordingStock{StockRepository: stock, r: r}, orders)
	})
}

func (r *lockRecordingRunner) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

type recordingStock struct {
	repository.StockRepository
	r *lockRecordingRunner
}

func (s *recordingStock) LockNameCategory(ctx context.Context, name, category string) error {
	s.r.record("lock " + name + "|" + category)
	return s.StockRepository.LockNameCategory(ctx, name, category)
}

func (s *recordingStock) FindByNameAndCategory(ctx context.Context, name, category string) (*entity.StockItem, error) {
	s.r.record("find " + name + "|" + category)
	return s.StockRepository.FindByNameAndCategory(ctx, name, category)
}

func TestTransition_FinalizadoConcurrente_UnaSolaFilaDeProductoTerminado(t *testing.T) {
	const n = 8
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, n)
	runner := &lockRecordingRunner{store: store}
	uc := manufacturing.NewOrderUseCase(runner, store.Orders(), mfg.DefaultCatalog(),
		manufacturing.Config{}, zerolog.Nop(), nil)

	ids := make([]string, n)
	for i := range ids {
		order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
		require.NoError(t, err)
		ids[i] = order.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := uc.Transition(context.Background(), id, entity.OrderStateFinished)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := store.Stock().List(context.Background(), repository.StockFilter{
		Name: mfg.ProductSmall, Category: manufacturing.DefaultFinishedCategory,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1, "una sola fila de producto terminado")
	assert.Equal(t, n, rows[0].Quantity)

	key := mfg.ProductSmall + "|" + manufacturing.DefaultFinishedCategory
	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.calls, 2*n)
	for i := 0; i < len(runner.calls); i += 2 {
		assert.Equal(t, "lock "+key, runner.calls[i], "el candado precede a la búsqueda")
		assert.Equal(t, "find "+key, runner.calls[i+1])
	}
}

func TestTransition_FinalizadoRechazaDesbordeDeProductoTerminado(t *testing.T) {
	store := memory.NewStore()
	seedBill(t, store, mfg.ProductSmall, 1)
	full := &entity.StockItem{Name: mfg.ProductSmall, Category: manufacturing.DefaultFinishedCategory, Quantity: entity.MaxQuantity}
	require.NoError(t, store.Stock().Create(context.Background(), full))
	uc := newUseCase(store, mfg.TransitionRules{}, nil)
	order, err := uc.CreateOrder(context.Background(), mfg.ProductSmall)
	require.NoError(t, err)

	_, err = uc.Transition(context.Background(), order.ID, entity.OrderStateFinished)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := store.Stock().GetByID(context.Background(), full.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MaxQuantity, got.Quantity)
}
