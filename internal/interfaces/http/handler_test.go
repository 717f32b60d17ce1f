package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taller-macetas/macetas-erp/internal/application/billing"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/application/inventory"
	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/application/usecase"
	"github.com/taller-macetas/macetas-erp/internal/domain/entity"
	mfg "github.com/taller-macetas/macetas-erp/internal/domain/manufacturing"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/export"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/memory"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/metrics"
	"github.com/taller-macetas/macetas-erp/internal/infrastructure/pdf"
	apphttp "github.com/taller-macetas/macetas-erp/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func buildTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	catalog := mfg.DefaultCatalog()

	app := fiber.New()
	app.Use(apphttp.AccessLog(log, metrics.New()))
	apphttp.Router(app, apphttp.RouterDeps{
		OrderUC: manufacturing.NewOrderUseCase(store, store.Orders(), catalog,
			manufacturing.Config{Rules: mfg.TransitionRules{CreditPolicy: mfg.CreditOnce}}, log, nil),
		StockUC:    inventory.NewStockUseCase(store.Stock(), store, export.Formats(), 5, log),
		SupplierUC: usecase.NewSupplierUseCase(store.Suppliers()),
		CustomerUC: billing.NewCustomerUseCase(store.Customers()),
		InvoiceUC:  billing.NewInvoiceUseCase(store.Invoices(), store.Customers(), decimal.RequireFromString("0.19"), log),
		InvoicePDF: billing.NewPDFUseCase(store.Invoices(), store.Customers(), pdf.NewMarotoPDFGenerator(),
			billing.Issuer{Name: "Taller de Macetas"}),
		SaleUC: usecase.NewSaleUseCase(store.Sales(), store.Customers()),
	})
	return app, store
}

// seedExcept da de alta una unidad de maceta pequeña salvo el material indicado.
func seedExcept(t *testing.T, store *memory.Store, skip string) {
	t.Helper()
	bill, ok := mfg.DefaultCatalog().Bill("Maceta pequeña")
	require.True(t, ok)
	for _, r := range bill {
		if r.Material == skip {
			continue
		}
		require.NoError(t, store.Stock().Create(context.Background(), &entity.StockItem{
			Name: r.Material, Category: r.Material, Quantity: r.Quantity, UnitPrice: decimal.NewFromInt(1),
		}))
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de fabricación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_ProductoInvalido(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/manufacturing-orders", map[string]string{"product": "Maceta gigante"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_PRODUCT", body.Code)
}

func TestCreateOrder_StockInsuficienteNombraMaterial(t *testing.T) {
	app, store := buildTestApp(t)
	seedExcept(t, store, "Batería")

	resp := doJSON(t, app, http.MethodPost, "/api/manufacturing-orders", map[string]string{"product": "Maceta pequeña"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Contains(t, body.Message, "Batería")
}

func TestOrderLifecycle_HTTP(t *testing.T) {
	app, store := buildTestApp(t)
	seedExcept(t, store, "")

	// alias "producto" del front end
	resp := doJSON(t, app, http.MethodPost, "/api/manufacturing-orders", map[string]string{"producto": "Maceta pequeña"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	order := decode[dto.ManufacturingOrderResponse](t, resp)
	assert.Equal(t, "Pendiente", order.Estado)
	assert.Len(t, order.Materiales, 7)
	assert.Nil(t, order.FechaFin)

	resp = doJSON(t, app, http.MethodGet, "/api/manufacturing-orders?estado=Pendiente", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[dto.ListResponse[dto.ManufacturingOrderResponse]](t, resp)
	assert.Equal(t, 1, list.Total)

	resp = doJSON(t, app, http.MethodPut, "/api/manufacturing-orders/"+order.ID, map[string]string{"estado": "Finalizado", "notas": "lista"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	finished := decode[dto.ManufacturingOrderResponse](t, resp)
	assert.Equal(t, "Finalizado", finished.Estado)
	assert.NotNil(t, finished.FechaFin)
	assert.Equal(t, "lista", finished.Notas)

	resp = doJSON(t, app, http.MethodGet, "/api/stock?category="+url.QueryEscape("Maceta fabricada"), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	goods := decode[dto.ListResponse[dto.StockItemResponse]](t, resp)
	require.Equal(t, 1, goods.Total)
	assert.Equal(t, "Maceta pequeña", goods.Items[0].Name)
	assert.Equal(t, 1, goods.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(27).Equal(goods.Items[0].UnitPrice))

	// salir de un estado terminal
	resp = doJSON(t, app, http.MethodPut, "/api/manufacturing-orders/"+order.ID, map[string]string{"estado": "Pendiente"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/manufacturing-orders/"+order.ID, map[string]string{"estado": "Archivado"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/manufacturing-orders/"+order.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/manufacturing-orders/"+order.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateOrder_NoExiste(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPut, "/api/manufacturing-orders/no-existe", map[string]string{"estado": "En Proceso"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

func TestProducts(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/manufacturing/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[dto.ListResponse[dto.ProductRuleResponse]](t, resp)
	assert.Equal(t, 3, list.Total)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock y facturación
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_CrearReponerExportar(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock", map[string]any{"name": "LED Rojo", "quantity": 10, "unit_price": "2"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	item := decode[dto.StockItemResponse](t, resp)

	resp = doJSON(t, app, http.MethodPost, "/api/stock/"+item.ID+"/restock", map[string]any{"quantity": 5})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 15, decode[dto.StockItemResponse](t, resp).Quantity)

	resp = doJSON(t, app, http.MethodPost, "/api/stock", map[string]any{"name": "", "quantity": 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/stock/export?format=csv", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "stock_")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "LED Rojo")

	resp = doJSON(t, app, http.MethodGet, "/api/stock/export?format=pdf", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInvoice_CrearYDescargarPDF(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/customers", map[string]string{"name": "Vivero Norte", "tax_id": "800111222"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	customer := decode[dto.CustomerResponse](t, resp)

	resp = doJSON(t, app, http.MethodPost, "/api/customers", map[string]string{"name": "Otro", "tax_id": "800111222"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/invoices", map[string]any{
		"customer_id": customer.ID,
		"items": []map[string]any{
			{"description": "Maceta pequeña", "quantity": "2", "unit_price": "27"},
			{"description": "Maceta grande", "quantity": "1", "unit_price": "40"},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	inv := decode[dto.InvoiceResponse](t, resp)
	assert.True(t, decimal.NewFromInt(94).Equal(inv.Subtotal))
	assert.True(t, decimal.RequireFromString("17.86").Equal(inv.TaxTotal))
	assert.True(t, decimal.RequireFromString("111.86").Equal(inv.Total))

	resp = doJSON(t, app, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = doJSON(t, app, http.MethodGet, "/api/invoices/no-existe/pdf", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSuppliersAndSales_CRUD(t *testing.T) {
	app, _ := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/suppliers", map[string]string{"name": "Plásticos SA"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	supplier := decode[dto.SupplierResponse](t, resp)

	resp = doJSON(t, app, http.MethodPut, "/api/suppliers/"+supplier.ID, map[string]string{"name": "Plásticos SAS"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Plásticos SAS", decode[dto.SupplierResponse](t, resp).Name)

	resp = doJSON(t, app, http.MethodPost, "/api/sales", map[string]any{"product": "Maceta mediana", "quantity": 3, "unit_price": "34"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)
	assert.True(t, decimal.NewFromInt(102).Equal(sale.Total))

	resp = doJSON(t, app, http.MethodDelete, "/api/sales/"+sale.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, app, http.MethodDelete, "/api/sales/"+sale.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
