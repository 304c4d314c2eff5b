package handler

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TenantHandler struct {
	service service.TenantService
}

func NewTenantHandler(s service.TenantService) *TenantHandler {
	return &TenantHandler{service: s}
}

func (h *TenantHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.TenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tenant, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Tenant created", tenant)
}

// List accepts ?active=true to hide deactivated shops.
func (h *TenantHandler) List(c *fiber.Ctx) error {
	tenants, err := h.service.List(c.UserContext(), c.QueryBool("active"))
	if err != nil {
		return err
	}
	return ok(c, tenants)
}

func (h *TenantHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tenant, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, tenant)
}

func (h *TenantHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.TenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tenant, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return ok(c, tenant)
}

func (h *TenantHandler) Delete(c *fiber.Ctx) error {
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
	return done(c, "Tenant deleted")
}
