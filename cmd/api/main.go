package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/taller-macetas/macetas-erp/internal/application/billing"
	"github.com/taller-macetas/macetas-erp/internal/application/inventory"
	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/application/usecase"
	mfg "github.com/taller-macetas/macetas-erp/internal/domain/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/export"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/metrics"
	infrapdf "github.com/taller-macetas/macetas-erp/internal/infrastructure/pdf"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/scheduler"
	httpRouter "github.com/taller-macetas/macetas-erp/internal/interfaces/http"
	"github.com/taller-macetas/macetas-erp/pkg/config"
	"github.com/taller-macetas/macetas-erp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer store.close()

	policy, err := mfg.ParseCreditPolicy(cfg.Manufacturing.CreditPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de fabricación")
	}

	m := metrics.New()

	orderUC := manufacturing.NewOrderUseCase(
		store.txRunner, store.orders, mfg.DefaultCatalog(),
		manufacturing.Config{
			FinishedCategory: cfg.Manufacturing.FinishedCategory,
			Rules: mfg.TransitionRules{
				RequireInProgress: cfg.Manufacturing.RequireInProgress,
				CreditPolicy:      policy,
			},
		},
		log.Zerolog(), m,
	)
	stockUC := inventory.NewStockUseCase(store.stock, store.txRunner, export.Formats(), cfg.Jobs.LowStockThreshold, log.Zerolog())
	supplierUC := usecase.NewSupplierUseCase(store.suppliers)
	customerUC := billing.NewCustomerUseCase(store.customers)
	invoiceUC := billing.NewInvoiceUseCase(store.invoices, store.customers, cfg.Billing.TaxRate, log.Zerolog())
	saleUC := usecase.NewSaleUseCase(store.sales, store.customers)

	// PDF: representación gráfica de la factura
	invoicePDFUC := billing.NewPDFUseCase(store.invoices, store.customers, infrapdf.NewMarotoPDFGenerator(), billing.Issuer{
		Name:    cfg.Billing.IssuerName,
		TaxID:   cfg.Billing.IssuerTaxID,
		Address: cfg.Billing.IssuerAddress,
		Phone:   cfg.Billing.IssuerPhone,
		Email:   cfg.Billing.IssuerEmail,
	})

	jobs := scheduler.New(log.Zerolog())
	if cfg.Jobs.LowStockCron != "" {
		report := scheduler.NewLowStockReport(stockUC, m, cfg.Jobs.LowStockThreshold, log.Zerolog())
		if err := jobs.AddLowStockReport(cfg.Jobs.LowStockCron, report); err != nil {
			log.Fatal().Err(err).Msg("programar informe de stock bajo")
		}
	}
	jobs.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.AccessLog(log.Component("http"), m))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Macetas ERP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrderUC:    orderUC,
		StockUC:    stockUC,
		SupplierUC: supplierUC,
		CustomerUC: customerUC,
		InvoiceUC:  invoiceUC,
		InvoicePDF: invoicePDFUC,
		SaleUC:     saleUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	jobs.Stop(shutdownCtx)

	log.Info().Msg("aplicación detenida")
}
