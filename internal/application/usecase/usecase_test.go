package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/application/usecase"
	"github.com/taller-macetas/macetas-erp/internal/domain"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/memory"
)

func TestSupplierUseCase_CRUD(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewSupplierUseCase(store.Suppliers())
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.SupplierRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := uc.Create(ctx, dto.SupplierRequest{Name: "Electrónica Andina", Contact: "Lucía", Email: "ventas@andina.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	updated, err := uc.Update(ctx, created.ID, dto.SupplierRequest{Name: "Electrónica Andina SAS", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, "Electrónica Andina SAS", updated.Name)
	assert.Equal(t, "555-0101", updated.Phone)
	assert.Empty(t, updated.Contact, "PUT reemplaza todos los campos")

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, uc.Delete(ctx, created.ID))
	_, err = uc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(ctx, created.ID, dto.SupplierRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestSaleUseCase_CalculaTotal(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewSaleUseCase(store.Sales(), store.Customers())
	ctx := context.Background()

	sale, err := uc.Create(ctx, dto.SaleRequest{Product: "Maceta grande", Quantity: 3, UnitPrice: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(120).Equal(sale.Total))
	assert.False(t, sale.Date.IsZero(), "sin fecha se usa la actual")

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	updated, err := uc.Update(ctx, sale.ID, dto.SaleRequest{Product: "Maceta grande", Quantity: 2, UnitPrice: decimal.RequireFromString("39.5"), Date: date})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(79).Equal(updated.Total))
	assert.Equal(t, date, updated.Date)
}

func TestSaleUseCase_Validacion(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewSaleUseCase(store.Sales(), store.Customers())
	ctx := context.Background()

	cases := []dto.SaleRequest{
		{Product: "", Quantity: 1},
		{Product: "Maceta pequeña", Quantity: 0},
		{Product: "Maceta pequeña", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
		{Product: "Maceta pequeña", Quantity: 1, CustomerID: "no-existe"},
	}
	for _, in := range cases {
		_, err := uc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}

	customer := &entity.Customer{Name: "Vivero El Roble"}
	require.NoError(t, store.Customers().Create(ctx, customer))
	sale, err := uc.Create(ctx, dto.SaleRequest{Product: "Maceta pequeña", Quantity: 1, UnitPrice: decimal.NewFromInt(27), CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, sale.CustomerID)
}
