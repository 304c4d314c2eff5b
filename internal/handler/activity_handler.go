package handler

import (
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ActivityHandler struct {
	service service.ActivityService
}

func NewActivityHandler(s service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: s}
}

// List returns the audit trail, newest first.
// GET /api/activity?entity_type=&entity_id=&action=&user_id=&limit=
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	userID, err := optionalUUID(c, "user_id")
	if err != nil {
		return err
	}
	rows, total, err := h.service.List(c.UserContext(), p, tenantID, repository.ActivityFilter{
		UserID:     userID,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Page:       page(c),
	})
	if err != nil {
		return err
	}
	return list(c, rows, total)
}
