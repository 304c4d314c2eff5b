package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/metrics"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/sequence"
	"printshop-api/internal/tracing"
	"printshop-api/internal/ws"
	"printshop-api/pkg/logger"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ticketNumberAttempts bounds retries when a number collides with a row
// written before the counter was raised.
const ticketNumberAttempts = 3

type CreateTicketRequest struct {
	Subject     string               `json:"subject" validate:"required,max=255"`
	Description string               `json:"description"`
	Category    model.TicketCategory `json:"category"`
	Priority    model.TicketPriority `json:"priority"`
	OrderID     *uuid.UUID           `json:"order_id"`
	TenantID    *uuid.UUID           `json:"tenant_id"`
}

type UpdateTicketRequest struct {
	Subject      *string               `json:"subject" validate:"omitempty,max=255"`
	Description  *string               `json:"description"`
	Category     *model.TicketCategory `json:"category"`
	Priority     *model.TicketPriority `json:"priority"`
	Status       *model.TicketStatus   `json:"status"`
	AssignedToID *uuid.UUID            `json:"assigned_to_id"`
}

// onlyCloses reports whether the request does nothing but set Closed, the one
// update a closed ticket accepts.
func (r UpdateTicketRequest) onlyCloses() bool {
	return r.Status != nil && *r.Status == model.TicketClosed &&
		r.Subject == nil && r.Description == nil && r.Category == nil &&
		r.Priority == nil && r.AssignedToID == nil
}

type CommentRequest struct {
	Body       string `json:"body" validate:"required,max=10000"`
	IsInternal bool   `json:"is_internal"`
}

type TicketService interface {
	Create(ctx context.Context, p authz.Principal, req CreateTicketRequest) (*model.Ticket, error)
	List(ctx context.Context, p authz.Principal, filter repository.TicketFilter) ([]model.Ticket, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Ticket, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateTicketRequest) (*model.Ticket, error)
	UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (*model.Ticket, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	AddComment(ctx context.Context, p authz.Principal, id uuid.UUID, req CommentRequest) (*model.TicketComment, error)
	Comments(ctx context.Context, p authz.Principal, id uuid.UUID) ([]model.TicketComment, error)
}

type ticketService struct {
	ticketRepo repository.TicketRepository
	orderRepo  repository.OrderRepository
	userRepo   repository.UserRepository
	numbers    sequence.Generator
	activity   ActivityService
	notifier   Notifier
}

func NewTicketService(
	ticketRepo repository.TicketRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	numbers sequence.Generator,
	activity ActivityService,
	notifier Notifier,
) TicketService {
	return &ticketService{
		ticketRepo: ticketRepo,
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		numbers:    numbers,
		activity:   activity,
		notifier:   notifierOrNop(notifier),
	}
}

// seesInternal decides whether internal staff notes are visible.
func seesInternal(p authz.Principal) bool {
	return p.Has(authz.PermUpdateTicket)
}

func (s *ticketService) Create(ctx context.Context, p authz.Principal, req CreateTicketRequest) (t *model.Ticket, err error) {
	ctx, span := tracing.Start(ctx, "ticket.create")
	defer func() { tracing.End(span, err) }()

	// 1. Validate request
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Category == "" {
		req.Category = model.CategoryGeneral
	}
	if req.Priority == "" {
		req.Priority = model.TicketMedium
	}
	if !req.Category.IsValid() {
		return nil, apperror.ValidationFields("invalid category", []apperror.FieldError{{Field: "category", Tag: "oneof"}})
	}
	if !req.Priority.IsValid() {
		return nil, apperror.ValidationFields("invalid priority", []apperror.FieldError{{Field: "priority", Tag: "oneof"}})
	}

	// 2. Resolve tenant, from the linked order when there is one
	var tenantID uuid.UUID
	if req.OrderID != nil {
		order, err := s.orderRepo.FindByID(ctx, p.Scope(), *req.OrderID)
		if err != nil {
			return nil, err
		}
		tenantID = order.TenantID
	} else if tenantID, err = targetTenant(p, req.TenantID); err != nil {
		return nil, err
	}

	t = &model.Ticket{
		TenantID:    tenantID,
		UserID:      p.UserID,
		OrderID:     req.OrderID,
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      model.TicketOpen,
	}

	// 3. Number from the atomic counter; the unique index catches leftovers
	for attempt := 1; ; attempt++ {
		seq, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("next ticket number: %w", err))
		}
		t.ID = uuid.Nil
		t.Sequence = seq
		t.TicketNumber = model.FormatTicketNumber(seq)
		err = s.ticketRepo.Create(ctx, t)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt == ticketNumberAttempts {
			return nil, err
		}
		log := logger.Get()
		log.Warn().Int64("sequence", seq).Msg("ticket number already taken, retrying")
	}
	span.SetAttributes(attribute.String("ticket.number", t.TicketNumber))

	metrics.TicketCreated()
	s.activity.Log(ctx, entryFor(p, &t.TenantID, model.ActionCreate, "ticket", t.ID, t.TicketNumber))
	s.publish(p, t, "ticket.created", fmt.Sprintf("%s opened %s", p.Name, t.TicketNumber))
	return t, nil
}

func (s *ticketService) publish(p authz.Principal, t *model.Ticket, kind, message string) {
	s.notifier.Publish(ws.Event{
		Type:       kind,
		TenantID:   t.TenantID,
		EntityType: "ticket",
		EntityID:   t.ID,
		Status:     string(t.Status),
		Message:    message,
		ActorID:    p.UserID,
		ActorName:  p.Name,
	})
}

func (s *ticketService) List(ctx context.Context, p authz.Principal, f repository.TicketFilter) ([]model.Ticket, error) {
	return s.ticketRepo.FindAll(ctx, p.Scope(), f)
}

func (s *ticketService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Ticket, error) {
	return s.ticketRepo.FindByID(ctx, p.Scope(), id, seesInternal(p))
}

func (s *ticketService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateTicketRequest) (*model.Ticket, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Category != nil && !req.Category.IsValid() {
		return nil, apperror.ValidationFields("invalid category", []apperror.FieldError{{Field: "category", Tag: "oneof"}})
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		return nil, apperror.ValidationFields("invalid priority", []apperror.FieldError{{Field: "priority", Tag: "oneof"}})
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, apperror.ValidationFields("invalid ticket status", []apperror.FieldError{{Field: "status", Tag: "ticket_status"}})
	}

	var assignee *model.User
	if req.AssignedToID != nil {
		u, err := s.userRepo.FindByID(ctx, *req.AssignedToID)
		if err != nil {
			return nil, err
		}
		assignee = u
	}

	var previous model.TicketStatus
	t, err := s.ticketRepo.Mutate(ctx, p.Scope(), id, func(t *model.Ticket) error {
		previous = t.Status
		if t.Status == model.TicketClosed && !req.onlyCloses() {
			return apperror.InvalidState("ticket %s is closed", t.TicketNumber)
		}
		if assignee != nil {
			if assignee.TenantID == nil || *assignee.TenantID != t.TenantID {
				return apperror.Validation("assignee must belong to the ticket's tenant")
			}
			t.AssignedToID = &assignee.ID
		}
		if req.Subject != nil {
			t.Subject = strings.TrimSpace(*req.Subject)
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.Category != nil {
			t.Category = *req.Category
		}
		if req.Priority != nil {
			t.Priority = *req.Priority
		}
		if req.Status != nil {
			if !t.Status.CanTransitionTo(*req.Status) {
				return apperror.InvalidState("cannot move ticket from %s to %s", t.Status, *req.Status)
			}
			t.ApplyStatus(*req.Status, now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := entryFor(p, &t.TenantID, model.ActionUpdate, "ticket", t.ID, t.TicketNumber)
	if previous != t.Status {
		metrics.StatusTransition("ticket", string(t.Status))
		entry = entry.with("from", previous).with("to", t.Status)
		s.publish(p, t, "ticket.status_changed", fmt.Sprintf("%s is now %s", t.TicketNumber, t.Status))
	}
	s.activity.Log(ctx, entry)
	return t, nil
}

func (s *ticketService) UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (*model.Ticket, error) {
	next := model.TicketStatus(status)
	if !next.IsValid() {
		return nil, apperror.ValidationFields("invalid ticket status "+status, []apperror.FieldError{{Field: "status", Tag: "ticket_status"}})
	}
	return s.Update(ctx, p, id, UpdateTicketRequest{Status: &next})
}

func (s *ticketService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	t, err := s.ticketRepo.FindByID(ctx, p.Scope(), id, false)
	if err != nil {
		return err
	}
	if err := s.ticketRepo.Delete(ctx, p.Scope(), id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &t.TenantID, model.ActionDelete, "ticket", t.ID, t.TicketNumber))
	return nil
}

func (s *ticketService) AddComment(ctx context.Context, p authz.Principal, id uuid.UUID, req CommentRequest) (*model.TicketComment, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.IsInternal && !seesInternal(p) {
		return nil, apperror.Forbidden("only staff can write internal notes")
	}

	comment := &model.TicketComment{
		UserID:     p.UserID,
		AuthorName: p.Name,
		Body:       req.Body,
		IsInternal: req.IsInternal,
	}
	var ticket model.Ticket
	err := s.ticketRepo.AddComment(ctx, p.Scope(), id, comment, func(t *model.Ticket) error {
		if t.Status == model.TicketClosed {
			return apperror.InvalidState("ticket %s is closed", t.TicketNumber)
		}
		ticket = *t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, entryFor(p, &ticket.TenantID, model.ActionComment, "ticket", ticket.ID, ticket.TicketNumber).
		with("internal", req.IsInternal))
	s.publish(p, &ticket, "ticket.commented", fmt.Sprintf("%s commented on %s", p.Name, ticket.TicketNumber))
	return comment, nil
}

func (s *ticketService) Comments(ctx context.Context, p authz.Principal, id uuid.UUID) ([]model.TicketComment, error) {
	return s.ticketRepo.ListComments(ctx, p.Scope(), id, seesInternal(p))
}
