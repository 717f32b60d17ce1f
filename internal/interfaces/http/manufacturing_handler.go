package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/taller-macetas/macetas-erp/internal/application/dto"
	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
)

// ManufacturingHandler órdenes de fabricación.
type ManufacturingHandler struct {
	uc *manufacturing.OrderUseCase
}

// NewManufacturingHandler construye el handler.
func NewManufacturingHandler(uc *manufacturing.OrderUseCase) *ManufacturingHandler {
	return &ManufacturingHandler{uc: uc}
}

// Create POST /api/manufacturing-orders
func (h *ManufacturingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateManufacturingOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.uc.CreateOrder(c.UserContext(), strings.TrimSpace(in.Label()))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// List GET /api/manufacturing-orders?estado=Pendiente
func (h *ManufacturingHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), c.Query("estado"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewList(list))
}

// GetByID GET /api/manufacturing-orders/:id
func (h *ManufacturingHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// Update PUT /api/manufacturing-orders/:id  body {estado?, notas?}
func (h *ManufacturingHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateManufacturingOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// Delete DELETE /api/manufacturing-orders/:id
func (h *ManufacturingHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Products GET /api/manufacturing/products
func (h *ManufacturingHandler) Products(c *fiber.Ctx) error {
	return c.JSON(dto.NewList(h.uc.Products()))
}
