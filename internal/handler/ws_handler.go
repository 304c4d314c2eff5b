package handler

import (
	"printshop-api/internal/authz"
	"printshop-api/internal/service"
	"printshop-api/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const wsPrincipalKey = "ws_principal"

type WSHandler struct {
	hub  *ws.Hub
	auth service.AuthService
}

func NewWSHandler(hub *ws.Hub, auth service.AuthService) *WSHandler {
	return &WSHandler{hub: hub, auth: auth}
}

// Upgrade authenticates ?token= before the handshake. Browsers cannot set
// headers on a WebSocket request.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}
	p, err := h.auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(wsPrincipalKey, p)
	return c.Next()
}

// Serve registers the connection with the hub and keeps it open until the
// client goes away.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		p, _ := conn.Locals(wsPrincipalKey).(authz.Principal)
		h.hub.Register(&ws.Client{
			Conn:         conn,
			UserID:       p.UserID,
			TenantID:     p.TenantID,
			Unrestricted: p.BypassesTenant(),
		})
		defer h.hub.Unregister(conn)

		for {
			// Keep alive loop
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})
}
