package service

import (
	"context"
	"fmt"
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

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"gte=1,lte=1000000"`
}

type CreateOrderRequest struct {
	Items    []OrderItemRequest  `json:"items" validate:"required,min=1,dive"`
	Priority model.OrderPriority `json:"priority"`
	DueDate  *time.Time          `json:"due_date"`
	Notes    string              `json:"notes"`
	// TenantID is only honoured for principals without a tenant of their own.
	TenantID *uuid.UUID `json:"tenant_id"`
}

type UpdateOrderRequest struct {
	Priority *model.OrderPriority `json:"priority"`
	DueDate  *time.Time           `json:"due_date"`
	Notes    *string              `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderService interface {
	Create(ctx context.Context, p authz.Principal, req CreateOrderRequest) (*model.Order, error)
	List(ctx context.Context, p authz.Principal, filter repository.OrderFilter) ([]model.Order, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Order, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (*model.Order, error)
	Cancel(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Order, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	activity    ActivityService
	notifier    Notifier
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, activity ActivityService, notifier Notifier) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		activity:    activity,
		notifier:    notifierOrNop(notifier),
	}
}

func (s *orderService) Create(ctx context.Context, p authz.Principal, req CreateOrderRequest) (order *model.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.create", attribute.Int("order.items", len(req.Items)))
	defer func() { tracing.End(span, err) }()

	// 1. Validate request
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if !req.Priority.IsValid() {
		return nil, apperror.ValidationFields("invalid priority", []apperror.FieldError{{Field: "priority", Tag: "oneof"}})
	}
	tenantID, err := targetTenant(p, req.TenantID)
	if err != nil {
		return nil, err
	}

	// 2. Snapshot the tenant's current prices
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	offers, err := s.productRepo.FindTenantProductsByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID]model.TenantProduct, len(offers))
	for _, tp := range offers {
		byProduct[tp.ProductID] = tp
	}

	order = &model.Order{
		UserID:   p.UserID,
		TenantID: tenantID,
		Status:   model.OrderPending,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		Notes:    req.Notes,
		Items:    make([]model.OrderItem, 0, len(req.Items)),
	}
	var unavailable []apperror.FieldError
	for i, it := range req.Items {
		tp, ok := byProduct[it.ProductID]
		if !ok || !tp.IsAvailable || tp.Product == nil || !tp.Product.IsActive {
			unavailable = append(unavailable, apperror.FieldError{Field: fmt.Sprintf("items[%d].product_id", i), Tag: "available"})
			continue
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   it.ProductID,
			ProductName: tp.Product.Name,
			Quantity:    it.Quantity,
			Price:       tp.Price,
		})
	}
	if len(unavailable) > 0 {
		return nil, apperror.ValidationFields("product is not available from this shop", unavailable)
	}
	order.CalculateTotal()

	// 3. Order and items in one transaction
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	metrics.OrderCreated()
	s.activity.Log(ctx, entryFor(p, &order.TenantID, model.ActionCreate, "order", order.ID, order.ID.String()).
		with("total_amount", order.TotalAmount))
	s.publish(p, order, "order.created", fmt.Sprintf("%s placed an order", p.Name))
	return order, nil
}

func (s *orderService) publish(p authz.Principal, o *model.Order, kind, message string) {
	s.notifier.Publish(ws.Event{
		Type:       kind,
		TenantID:   o.TenantID,
		EntityType: "order",
		EntityID:   o.ID,
		Status:     string(o.Status),
		Message:    message,
		ActorID:    p.UserID,
		ActorName:  p.Name,
	})
}

func (s *orderService) List(ctx context.Context, p authz.Principal, f repository.OrderFilter) ([]model.Order, error) {
	return s.orderRepo.FindAll(ctx, p.Scope(), f)
}

func (s *orderService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, p.Scope(), id)
}

// canManage is true for the creator and for administrative roles.
func canManage(p authz.Principal, ownerID uuid.UUID) bool {
	return p.Owns(ownerID) || p.Administrative()
}

func (s *orderService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateOrderRequest) (*model.Order, error) {
	if req.Priority != nil && !req.Priority.IsValid() {
		return nil, apperror.ValidationFields("invalid priority", []apperror.FieldError{{Field: "priority", Tag: "oneof"}})
	}
	order, err := s.orderRepo.Mutate(ctx, p.Scope(), id, func(o *model.Order) error {
		if !canManage(p, o.UserID) {
			return apperror.Forbidden("only the creator or an administrator can edit this order")
		}
		if o.Status != model.OrderPending {
			return apperror.InvalidState("order can only be edited while %s", model.OrderPending)
		}
		if req.Priority != nil {
			o.Priority = *req.Priority
		}
		if req.DueDate != nil {
			o.DueDate = req.DueDate
		}
		if req.Notes != nil {
			o.Notes = *req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, &order.TenantID, model.ActionUpdate, "order", order.ID, order.ID.String()))
	return order, nil
}

// UpdateStatus checks, in order: the order is visible, the principal may update
// orders, the status is known, and the transition is legal.
func (s *orderService) UpdateStatus(ctx context.Context, p authz.Principal, id uuid.UUID, status string) (order *model.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.update_status",
		attribute.String("order.id", id.String()), attribute.String("order.status", status))
	defer func() { tracing.End(span, err) }()

	var previous model.OrderStatus
	order, err = s.orderRepo.Mutate(ctx, p.Scope(), id, func(o *model.Order) error {
		if !p.Has(authz.PermUpdateOrder) {
			return apperror.Forbidden("missing permission %s", authz.PermUpdateOrder)
		}
		next := model.OrderStatus(status)
		if !next.IsValid() {
			return apperror.ValidationFields("invalid order status "+status, []apperror.FieldError{{Field: "status", Tag: "order_status"}})
		}
		if !o.Status.CanTransitionTo(next) {
			return apperror.InvalidState("cannot move order from %s to %s", o.Status, next)
		}
		previous = o.Status
		o.ApplyStatus(next, now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if previous == order.Status {
		return order, nil
	}

	metrics.StatusTransition("order", string(order.Status))
	s.activity.Log(ctx, entryFor(p, &order.TenantID, model.ActionStatusChange, "order", order.ID, order.ID.String()).
		with("from", previous).with("to", order.Status))
	s.publish(p, order, "order.status_changed", fmt.Sprintf("order moved from %s to %s", previous, order.Status))
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Order, error) {
	var previous model.OrderStatus
	order, err := s.orderRepo.Mutate(ctx, p.Scope(), id, func(o *model.Order) error {
		if !canManage(p, o.UserID) {
			return apperror.Forbidden("only the creator or an administrator can cancel this order")
		}
		if !o.Status.CanCancel() {
			return apperror.InvalidState("order cannot be cancelled in status %s", o.Status)
		}
		previous = o.Status
		o.ApplyStatus(model.OrderCancelled, now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusTransition("order", string(order.Status))
	s.activity.Log(ctx, entryFor(p, &order.TenantID, model.ActionCancel, "order", order.ID, order.ID.String()).
		with("from", previous))
	s.publish(p, order, "order.cancelled", fmt.Sprintf("%s cancelled an order", p.Name))
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	var tenantID uuid.UUID
	err := s.orderRepo.Delete(ctx, p.Scope(), id, func(o *model.Order) error {
		if o.Status != model.OrderPending && o.Status != model.OrderCancelled {
			return apperror.InvalidState("only %s or %s orders can be deleted", model.OrderPending, model.OrderCancelled)
		}
		tenantID = o.TenantID
		return nil
	})
	if err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &tenantID, model.ActionDelete, "order", id, id.String()))
	return nil
}
