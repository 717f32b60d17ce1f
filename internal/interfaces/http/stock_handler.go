package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/application/inventory"
)

// StockHandler libro de stock (materiales y producto terminado).
type StockHandler struct {
	uc *inventory.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Create POST /api/stock
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// List GET /api/stock?name=&category=&low_stock=true
func (h *StockHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), stockQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewList(list))
}

// GetByID GET /api/stock/:id
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}

// Update PUT /api/stock/:id
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}

// Restock POST /api/stock/:id/restock
func (h *StockHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Restock(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}

// Delete DELETE /api/stock/:id
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export GET /api/stock/export?format=xlsx|csv
func (h *StockHandler) Export(c *fiber.Ctx) error {
	file, err := h.uc.Export(c.UserContext(), c.Query("format"), stockQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	return c.Send(file.Data)
}

func stockQuery(c *fiber.Ctx) inventory.StockQuery {
	low, _ := strconv.ParseBool(c.Query("low_stock", "false"))
	return inventory.StockQuery{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		LowStock: low,
	}
}
