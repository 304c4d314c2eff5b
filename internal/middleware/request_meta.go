package middleware

import (
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequestMeta carries the caller's IP, user agent and request id on the user
// context, where the activity log picks them up. Register it after requestid.
func RequestMeta() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID, _ := c.Locals("requestid").(string)
		if requestID == "" {
			requestID = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		c.SetUserContext(service.WithRequestMeta(c.UserContext(), service.RequestMeta{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
			RequestID: requestID,
		}))
		return c.Next()
	}
}
