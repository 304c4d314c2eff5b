package handler

import (
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DeliveryHandler struct {
	service service.DeliveryService
}

func NewDeliveryHandler(s service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: s}
}

func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	orderID, err := optionalUUID(c, "order_id")
	if err != nil {
		return err
	}
	deliveries, err := h.service.List(c.UserContext(), p, repository.DeliveryFilter{
		Status:  model.DeliveryStatus(c.Query("status")),
		OrderID: orderID,
		Page:    page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, deliveries)
}

func (h *DeliveryHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, d)
}

func (h *DeliveryHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.CreateDeliveryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Delivery scheduled", d)
}

func (h *DeliveryHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateDeliveryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return ok(c, d)
}

// PATCH /api/deliveries/:id/status
func (h *DeliveryHandler) UpdateStatus(c *fiber.Ctx) error {
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
	d, err := h.service.UpdateStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Delivery status updated", Data: d})
}

func (h *DeliveryHandler) Delete(c *fiber.Ctx) error {
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
	return done(c, "Delivery deleted")
}

// Track is public; it needs only the tracking number.
// GET /api/deliveries/track/:trackingNumber
func (h *DeliveryHandler) Track(c *fiber.Ctx) error {
	tracking, err := h.service.Track(c.UserContext(), c.Params("trackingNumber"))
	if err != nil {
		return err
	}
	return ok(c, tracking)
}
