package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
)

func TestStore_RunDescartaCambiosSiFalla(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	item := &entity.StockItem{Name: "LED Rojo", Quantity: 4}
	require.NoError(t, s.Stock().Create(ctx, item))

	boom := errors.New("boom")
	err := s.Run(ctx, func(stock repository.StockRepository, orders repository.ManufacturingOrderRepository) error {
		got, err := stock.GetForUpdate(ctx, item.ID)
		require.NoError(t, err)
		got.Quantity = 0
		require.NoError(t, stock.Update(ctx, got))
		require.NoError(t, orders.Create(ctx, &entity.ManufacturingOrder{Product: "Maceta pequeña"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Stock().GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	orders, err := s.Orders().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestStore_RunConfirma(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.Run(ctx, func(stock repository.StockRepository, _ repository.ManufacturingOrderRepository) error {
		return stock.Create(ctx, &entity.StockItem{Name: "Batería", Quantity: 1})
	})
	require.NoError(t, err)

	list, err := s.Stock().ListAvailableByName(ctx, "Batería")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStockRepo_OrdenDeAltaYFiltros(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Stock()
	for _, q := range []int{3, 0, 5} {
		require.NoError(t, repo.Create(ctx, &entity.StockItem{Name: "LED Verde", Category: "LED Verde", Quantity: q}))
	}
	require.NoError(t, repo.Create(ctx, &entity.StockItem{Name: "Maceta pequeña", Category: "Maceta fabricada", Quantity: 1}))

	avail, err := repo.ListAvailableByName(ctx, "LED Verde")
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, 3, avail[0].Quantity)
	assert.Equal(t, 5, avail[1].Quantity)

	fg, err := repo.FindByNameAndCategory(ctx, "Maceta pequeña", "Maceta fabricada")
	require.NoError(t, err)
	require.NotNil(t, fg)

	missing, err := repo.FindByNameAndCategory(ctx, "Maceta grande", "Maceta fabricada")
	require.NoError(t, err)
	assert.Nil(t, missing)

	limit := 3
	low, err := repo.List(ctx, repository.StockFilter{MaxQuantity: &limit})
	require.NoError(t, err)
	assert.Len(t, low, 3)

	assert.ErrorIs(t, repo.Delete(ctx, "no-existe"), domain.ErrNotFound)
}

func TestOrderRepo_CopiaMateriales(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	o := &entity.ManufacturingOrder{Product: "Maceta pequeña", State: entity.OrderStatePending,
		Materials: []entity.MaterialUsage{{Material: "Batería", Quantity: 1}}}
	require.NoError(t, s.Orders().Create(ctx, o))
	o.Materials[0].Quantity = 9

	got, err := s.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Materials[0].Quantity)

	missing, err := s.Orders().GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStockRepo_ProveedorDebeExistir(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Stock()

	err := repo.Create(ctx, &entity.StockItem{Name: "LED Rojo", Quantity: 1, SupplierID: "fantasma"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, s.Suppliers().Create(ctx, &entity.Supplier{ID: "prov-1", Name: "Electrónica Andina"}))
	item := &entity.StockItem{Name: "LED Rojo", Quantity: 1, SupplierID: "prov-1"}
	require.NoError(t, repo.Create(ctx, item))

	item.SupplierID = "fantasma"
	assert.ErrorIs(t, repo.Update(ctx, item), domain.ErrInvalidInput)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "prov-1", got.SupplierID)

	require.NoError(t, s.Suppliers().Delete(ctx, "prov-1"))
	got, err = repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SupplierID, "el lote queda sin proveedor")
	assert.ErrorIs(t, s.Suppliers().Delete(ctx, "prov-1"), domain.ErrNotFound)
}
