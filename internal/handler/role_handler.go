package handler

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	userService service.UserService
}

func NewRoleHandler(userService service.UserService) *RoleHandler {
	return &RoleHandler{userService: userService}
}

// GetRoles returns all available roles with their permissions
// GET /api/admin/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.userService.Roles(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, roles)
}
