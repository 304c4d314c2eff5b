package handler

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/admin/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.userService.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "User created successfully", user)
}

// GetUsers lists users, filtered by tenant_id, role, is_active and search
// GET /api/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tenantID, err := optionalUUID(c, "tenant_id")
	if err != nil {
		return err
	}
	users, err := h.userService.List(c.UserContext(), p, service.UserListQuery{
		TenantID: tenantID,
		Role:     c.Query("role"),
		IsActive: optionalBool(c, "is_active"),
		Search:   c.Query("search"),
		Page:     page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, users)
}

// GetUser returns a single user by ID
// GET /api/admin/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// UpdateUser handles user update
// PUT /api/admin/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.userService.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "User updated successfully", Data: user})
}

// DeleteUser handles user deletion
// DELETE /api/admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.userService.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return done(c, "User deleted successfully")
}
