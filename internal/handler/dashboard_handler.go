package handler

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics. Super admins may narrow
// them with ?tenant_id=.
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), p, tenantID)
	if err != nil {
		return err
	}
	return ok(c, stats)
}
