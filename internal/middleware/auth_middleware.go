package middleware

import (
	"errors"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/metrics"
	"printshop-api/internal/service"
	"printshop-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the bearer token against the current user record and
// stores the resulting principal for downstream handlers.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return reject(c, fiber.StatusUnauthorized, "Missing authorization token")
		}
		token, ok := BearerToken(c)
		if !ok {
			return reject(c, fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
		}

		p, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			kind := apperror.KindOf(err)
			if kind == apperror.KindInternal {
				log := logger.Get()
				log.Error().Err(err).Str("path", c.Path()).Msg("authenticate failed")
				return reject(c, fiber.StatusInternalServerError, "internal server error")
			}
			var ae *apperror.Error
			msg := "Invalid or expired token"
			if errors.As(err, &ae) && ae.Message != "" {
				msg = ae.Message
			}
			return reject(c, kind.HTTPStatus(), msg)
		}

		c.Locals(principalKey, p)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(c *fiber.Ctx) (authz.Principal, bool) {
	p, ok := c.Locals(principalKey).(authz.Principal)
	return p, ok
}

func forbidden(c *fiber.Ctx, p authz.Principal, required []authz.Permission) error {
	names := make([]string, len(required))
	for i, perm := range required {
		names[i] = string(perm)
	}
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success":              false,
		"message":              "Forbidden",
		"required_permissions": names,
		"user_role":            string(p.Role),
	})
}

// RequirePermission admits principals holding every listed permission.
func RequirePermission(perms ...authz.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return reject(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if !p.HasAll(perms...) {
			for _, perm := range perms {
				if !p.Has(perm) {
					metrics.AuthzDenied(string(perm))
				}
			}
			return forbidden(c, p, perms)
		}
		return c.Next()
	}
}

// RequireAnyPermission admits principals holding at least one listed permission.
func RequireAnyPermission(perms ...authz.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return reject(c, fiber.StatusUnauthorized, "Unauthorized")
		}
		if !p.HasAny(perms...) {
			for _, perm := range perms {
				metrics.AuthzDenied(string(perm))
			}
			return forbidden(c, p, perms)
		}
		return c.Next()
	}
}

// ReadOnlyGuard rejects every mutating request made with a read-only
// impersonation token.
func ReadOnlyGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok || !p.ReadOnly {
			return c.Next()
		}
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		metrics.AuthzDenied("read_only")
		return reject(c, fiber.StatusForbidden, "Read-only session")
	}
}
