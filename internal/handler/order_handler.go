package handler

import (
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// GET /api/orders?status=&priority=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	orders, err := h.service.List(c.UserContext(), p, repository.OrderFilter{
		Status:   model.OrderStatus(c.Query("status")),
		Priority: model.OrderPriority(c.Query("priority")),
		Page:     page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Order placed", order)
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return ok(c, order)
}

// UpdateStatus moves an order along the production workflow. The service
// checks the order exists before checking update_order.
// PATCH /api/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.service.UpdateStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Order status updated", Data: order})
}

// PATCH /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.Cancel(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Order cancelled", Data: order})
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return done(c, "Order deleted")
}
