package handler

import (
	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/middleware"
	"printshop-api/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

func done(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Success: true, Message: message})
}

// list adds the total for paginated listings.
func list(c *fiber.Ctx, data any, total int64) error {
	return c.JSON(fiber.Map{"success": true, "data": data, "total": total})
}

func principal(c *fiber.Ctx) (authz.Principal, error) {
	p, found := middleware.PrincipalFrom(c)
	if !found {
		return authz.Principal{}, apperror.Unauthenticated("Unauthorized")
	}
	return p, nil
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.ValidationFields("invalid "+name, []apperror.FieldError{{Field: name, Tag: "uuid"}})
	}
	return id, nil
}

// optionalUUID parses a query parameter that may be absent.
func optionalUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.ValidationFields("invalid "+name, []apperror.FieldError{{Field: name, Tag: "uuid"}})
	}
	return &id, nil
}

func optionalBool(c *fiber.Ctx, name string) *bool {
	switch c.Query(name) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func page(c *fiber.Ctx) repository.Page {
	return repository.Page{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
}
