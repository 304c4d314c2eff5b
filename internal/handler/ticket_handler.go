package handler

import (
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(s service.TicketService) *TicketHandler {
	return &TicketHandler{service: s}
}

func (h *TicketHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	assignee, err := optionalUUID(c, "assigned_to")
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), p, repository.TicketFilter{
		Status:       model.TicketStatus(c.Query("status")),
		Category:     model.TicketCategory(c.Query("category")),
		Priority:     model.TicketPriority(c.Query("priority")),
		AssignedToID: assignee,
		Page:         page(c),
	})
	if err != nil {
		return err
	}
	return ok(c, tickets)
}

// Get includes the comments the caller may see.
func (h *TicketHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, t)
}

func (h *TicketHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req service.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.service.Create(c.UserContext(), p, req)
	if err != nil {
		return err
	}
	return created(c, "Ticket "+t.TicketNumber+" opened", t)
}

func (h *TicketHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.service.Update(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return ok(c, t)
}

// PATCH /api/tickets/:id/status
func (h *TicketHandler) UpdateStatus(c *fiber.Ctx) error {
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
	t, err := h.service.UpdateStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Message: "Ticket status updated", Data: t})
}

func (h *TicketHandler) Delete(c *fiber.Ctx) error {
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
	return done(c, "Ticket deleted")
}

// GET /api/tickets/:id/comments
func (h *TicketHandler) Comments(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.service.Comments(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, comments)
}

// POST /api/tickets/:id/comments
func (h *TicketHandler) AddComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), p, id, req)
	if err != nil {
		return err
	}
	return created(c, "Comment added", comment)
}
