package handler

import (
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type EquipmentHandler struct {
	service service.EquipmentService
}

func NewEquipmentHandler(s service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: s}
}

func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), p, repository.EquipmentFilter{
		Status: model.EquipmentStatus(c.Query("status")),
		Type:   c.Query("type"),
		Page:   page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.EquipmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Equipment registered", e)
}

func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.EquipmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *EquipmentHandler) Delete(c *fiber.Ctx) error {
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
	return done(c, "Equipment deleted")
}

// POST /api/equipment/:id/maintenance
func (h *EquipmentHandler) LogMaintenance(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.MaintenanceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	e, entry, err := h.service.LogMaintenance(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return created(c, "Maintenance logged", fiber.Map{"equipment": e, "log": entry})
}

// GET /api/equipment/:id/maintenance
func (h *EquipmentHandler) MaintenanceHistory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	logs, err := h.service.MaintenanceHistory(c.UserContext(), p, id, page(c))
	if err != nil {
		return err
	}
	return ok(c, logs)
}
