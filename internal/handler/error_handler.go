package handler

import (
	"errors"

	"printshop-api/internal/apperror"
	"printshop-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler as the standard
// envelope. Unexpected errors are logged and reported without detail.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(Envelope{Message: fe.Message})
	}

	var ae *apperror.Error
	if errors.As(err, &ae) && ae.Kind != apperror.KindInternal {
		msg := ae.Message
		if msg == "" {
			msg = ae.Kind.String()
		}
		body := fiber.Map{"success": false, "message": msg}
		if len(ae.Fields) > 0 {
			body["errors"] = ae.Fields
		}
		return c.Status(ae.Kind.HTTPStatus()).JSON(body)
	}

	requestID, _ := c.Locals("requestid").(string)
	log := logger.Get()
	log.Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("request_id", requestID).
		Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(Envelope{Message: "internal server error"})
}
