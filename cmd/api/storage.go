package main

import (
	"context"
	"fmt"

	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/domain/repository"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/memory"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/postgres"
	"github.com/taller-macetas/macetas-erp/pkg/config"
	"github.com/taller-macetas/macetas-erp/pkg/logger"
)

// storage repositorios del backend elegido por STORAGE_DRIVER.
type storage struct {
	txRunner  manufacturing.TxRunner
	stock     repository.StockRepository
	orders    repository.ManufacturingOrderRepository
	suppliers repository.SupplierRepository
	customers repository.CustomerRepository
	invoices  repository.InvoiceRepository
	sales     repository.SaleRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			txRunner:  store,
			stock:     store.Stock(),
			orders:    store.Orders(),
			suppliers: store.Suppliers(),
			customers: store.Customers(),
			invoices:  store.Invoices(),
			sales:     store.Sales(),
			close:     func() {},
		}, nil
	case config.DriverPostgres:
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &storage{
			txRunner:  postgres.NewTxRunner(pool),
			stock:     postgres.NewStockRepository(pool),
			orders:    postgres.NewManufacturingOrderRepository(pool),
			suppliers: postgres.NewSupplierRepository(pool),
			customers: postgres.NewCustomerRepository(pool),
			invoices:  postgres.NewInvoiceRepository(pool),
			sales:     postgres.NewSaleRepository(pool),
			close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Storage.Driver)
}
