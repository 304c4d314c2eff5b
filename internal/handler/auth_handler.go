package handler

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a client account in an existing shop
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req service.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.authService.Signup(c.UserContext(), req)
	if err != nil {
		return err
	}
	return created(c, "Account created", resp)
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return ok(c, resp)
}

// Profile returns the caller with role and permissions
// GET /api/auth/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	resp, err := h.authService.Profile(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, resp)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.UserContext(), p); err != nil {
		return err
	}
	return done(c, "Logged out")
}

// ChangePassword replaces the caller's password and returns a fresh token
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.authService.ChangePassword(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Password updated successfully", Data: resp})
}

// Impersonate issues a token acting as another user
// POST /api/admin/impersonate
func (h *AuthHandler) Impersonate(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.ImpersonateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.authService.Impersonate(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return ok(c, resp)
}
