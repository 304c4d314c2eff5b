package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/metrics"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/tracing"
	"printshop-api/internal/ws"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CreateDeliveryRequest struct {
	OrderID           uuid.UUID  `json:"order_id" validate:"uuid_required"`
	TrackingNumber    string     `json:"tracking_number" validate:"omitempty,max=64"`
	Carrier           string     `json:"carrier" validate:"max=100"`
	RecipientName     string     `json:"recipient_name" validate:"max=255"`
	ShippingAddress   string     `json:"shipping_address" validate:"required"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	Notes             string     `json:"notes"`
}

type UpdateDeliveryRequest struct {
	Carrier           *string    `json:"carrier" validate:"omitempty,max=100"`
	RecipientName     *string    `json:"recipient_name" validate:"omitempty,max=255"`
	ShippingAddress   *string    `json:"shipping_address"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	Notes             *string    `json:"notes"`
}

type DeliveryService interface {
	Create(ctx context.Context, p authz.Principal, req CreateDeliveryRequest) (*model.Delivery, error)
	List(ctx context.Context, p authz.Principal, filter repository.DeliveryFilter) ([]model.Delivery, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Delivery, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateDeliveryRequest) (*model.Delivery, error)
	UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (*model.Delivery, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	// Track is public and exposes only the tracking view.
	Track(ctx context.Context, trackingNumber string) (*model.DeliveryTracking, error)
}

type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	orderRepo    repository.OrderRepository
	activity     ActivityService
	notifier     Notifier
}

func NewDeliveryService(deliveryRepo repository.DeliveryRepository, orderRepo repository.OrderRepository, activity ActivityService, notifier Notifier) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepo,
		activity:     activity,
		notifier:     notifierOrNop(notifier),
	}
}

// NewTrackingNumber returns "TRK-" followed by 12 uppercase hex digits.
func NewTrackingNumber() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "TRK-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

func (s *deliveryService) Create(ctx context.Context, p authz.Principal, req CreateDeliveryRequest) (*model.Delivery, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	// 1. The order must be visible and still live
	order, err := s.orderRepo.FindByID(ctx, p.Scope(), req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderCancelled {
		return nil, apperror.InvalidState("cannot ship a cancelled order")
	}

	// 2. Tracking number
	tracking := strings.TrimSpace(req.TrackingNumber)
	if tracking == "" {
		if tracking, err = NewTrackingNumber(); err != nil {
			return nil, apperror.Internal(err)
		}
	}

	d := &model.Delivery{
		OrderID:           order.ID,
		TenantID:          order.TenantID,
		TrackingNumber:    tracking,
		Status:            model.DeliveryScheduled,
		Carrier:           req.Carrier,
		RecipientName:     req.RecipientName,
		ShippingAddress:   req.ShippingAddress,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
	}
	if err := s.deliveryRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, entryFor(p, &d.TenantID, model.ActionCreate, "delivery", d.ID, d.TrackingNumber).
		with("order_id", order.ID.String()))
	s.publish(p, d, "delivery.created", fmt.Sprintf("delivery %s scheduled", d.TrackingNumber))
	return d, nil
}

func (s *deliveryService) publish(p authz.Principal, d *model.Delivery, kind, message string) {
	s.notifier.Publish(ws.Event{
		Type:       kind,
		TenantID:   d.TenantID,
		EntityType: "delivery",
		EntityID:   d.ID,
		Status:     string(d.Status),
		Message:    message,
		ActorID:    p.UserID,
		ActorName:  p.Name,
	})
}

func (s *deliveryService) List(ctx context.Context, p authz.Principal, f repository.DeliveryFilter) ([]model.Delivery, error) {
	return s.deliveryRepo.FindAll(ctx, p.Scope(), f)
}

func (s *deliveryService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Delivery, error) {
	return s.deliveryRepo.FindByID(ctx, p.Scope(), id)
}

func (s *deliveryService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateDeliveryRequest) (*model.Delivery, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	d, err := s.deliveryRepo.Mutate(ctx, p.Scope(), id, func(d *model.Delivery) error {
		if d.Status == model.DeliveryDelivered {
			return apperror.InvalidState("delivered shipments cannot be edited")
		}
		if req.Carrier != nil {
			d.Carrier = *req.Carrier
		}
		if req.RecipientName != nil {
			d.RecipientName = *req.RecipientName
		}
		if req.ShippingAddress != nil {
			d.ShippingAddress = *req.ShippingAddress
		}
		if req.EstimatedDelivery != nil {
			d.EstimatedDelivery = req.EstimatedDelivery
		}
		if req.Notes != nil {
			d.Notes = *req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, &d.TenantID, model.ActionUpdate, "delivery", d.ID, d.TrackingNumber))
	return d, nil
}

func (s *deliveryService) UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (d *model.Delivery, err error) {
	ctx, span := tracing.Start(ctx, "delivery.update_status",
		attribute.String("delivery.id", id.String()), attribute.String("delivery.status", status))
	defer func() { tracing.End(span, err) }()

	next := model.DeliveryStatus(status)
	if !next.IsValid() {
		return nil, apperror.ValidationFields("invalid delivery status "+status, []apperror.FieldError{{Field: "status", Tag: "delivery_status"}})
	}

	var previous model.DeliveryStatus
	d, err = s.deliveryRepo.Mutate(ctx, p.Scope(), id, func(d *model.Delivery) error {
		if !d.Status.CanTransitionTo(next) {
			return apperror.InvalidState("cannot move delivery from %s to %s", d.Status, next)
		}
		previous = d.Status
		d.ApplyStatus(next, now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous == d.Status {
		return d, nil
	}

	metrics.StatusTransition("delivery", string(d.Status))
	s.activity.Log(ctx, entryFor(p, &d.TenantID, model.ActionStatusChange, "delivery", d.ID, d.TrackingNumber).
		with("from", previous).with("to", d.Status))
	s.publish(p, d, "delivery.status_changed", fmt.Sprintf("delivery %s is now %s", d.TrackingNumber, d.Status))
	return d, nil
}

func (s *deliveryService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	d, err := s.deliveryRepo.FindByID(ctx, p.Scope(), id)
	if err != nil {
		return err
	}
	if err := s.deliveryRepo.Delete(ctx, p.Scope(), id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &d.TenantID, model.ActionDelete, "delivery", d.ID, d.TrackingNumber))
	return nil
}

func (s *deliveryService) Track(ctx context.Context, trackingNumber string) (*model.DeliveryTracking, error) {
	d, err := s.deliveryRepo.FindByTrackingNumber(ctx, strings.TrimSpace(trackingNumber))
	if err != nil {
		return nil, err
	}
	t := d.Tracking()
	return &t, nil
}
