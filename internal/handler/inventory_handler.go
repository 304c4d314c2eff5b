package handler

import (
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// InventoryHandler serves consumable materials and their stock movements.
type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) GetMaterials(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	materials, err := h.service.List(c.UserContext(), p, repository.MaterialFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, materials)
}

func (h *InventoryHandler) GetMaterial(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, m)
}

func (h *InventoryHandler) CreateMaterial(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.MaterialRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Material created", m)
}

func (h *InventoryHandler) UpdateMaterial(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.MaterialRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Material updated", Data: m})
}

func (h *InventoryHandler) DeleteMaterial(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return done(c, "Material deleted")
}

// AdjustStock records a stock movement
// POST /api/materials/:id/adjust
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.StockAdjustRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, movement, err := h.service.AdjustStock(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return created(c, "Stock adjusted", fiber.Map{"material": m, "movement": movement})
}

// GET /api/materials/:id/movements
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	movements, err := h.service.Movements(c.UserContext(), p, id, page(c))
	if err != nil {
		return err
	}
	return ok(c, movements)
}
