package service

import (
	"context"
	"fmt"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/tracing"
	"printshop-api/internal/ws"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type MaterialRequest struct {
	SKU          string     `json:"sku" validate:"required,max=50"`
	Name         string     `json:"name" validate:"required,max=255"`
	Category     string     `json:"category" validate:"max=100"`
	Unit         string     `json:"unit" validate:"max=20"`
	Quantity     float64    `json:"quantity" validate:"gte=0"`
	ReorderLevel float64    `json:"reorder_level" validate:"gte=0"`
	UnitCost     int64      `json:"unit_cost" validate:"gte=0"`
	Supplier     string     `json:"supplier" validate:"max=255"`
	Location     string     `json:"location" validate:"max=100"`
	TenantID     *uuid.UUID `json:"tenant_id"`
}

type StockAdjustRequest struct {
	Type   model.MovementType `json:"type" validate:"required"`
	Delta  float64            `json:"delta" validate:"ne=0"`
	Reason string             `json:"reason" validate:"max=1000"`
}

// InventoryService manages consumable materials and their stock movements.
type InventoryService interface {
	Create(ctx context.Context, p authz.Principal, req MaterialRequest) (*model.Material, error)
	List(ctx context.Context, p authz.Principal, filter repository.MaterialFilter) ([]model.Material, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Material, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req MaterialRequest) (*model.Material, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	AdjustStock(ctx context.Context, p authz.Principal, id uuid.UUID, req StockAdjustRequest) (*model.Material, *model.MaterialMovement, error)
	Movements(ctx context.Context, p authz.Principal, id uuid.UUID, page repository.Page) ([]model.MaterialMovement, error)
}

type inventoryService struct {
	repo     repository.MaterialRepository
	activity ActivityService
	notifier Notifier
}

func NewInventoryService(repo repository.MaterialRepository, activity ActivityService, notifier Notifier) InventoryService {
	return &inventoryService{repo: repo, activity: activity, notifier: notifierOrNop(notifier)}
}

func (s *inventoryService) Create(ctx context.Context, p authz.Principal, req MaterialRequest) (*model.Material, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	tenantID, err := targetTenant(p, req.TenantID)
	if err != nil {
		return nil, err
	}
	m := &model.Material{TenantID: tenantID}
	applyMaterial(m, req)
	m.Quantity = req.Quantity
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	m.RefreshStockStatus()
	s.activity.Log(ctx, entryFor(p, &m.TenantID, model.ActionCreate, "material", m.ID, m.Name))
	return m, nil
}

// applyMaterial copies the editable fields. Quantity only changes through
// stock adjustments once the material exists.
func applyMaterial(m *model.Material, req MaterialRequest) {
	m.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	m.Name = strings.TrimSpace(req.Name)
	m.Category = req.Category
	m.Unit = req.Unit
	m.ReorderLevel = req.ReorderLevel
	m.UnitCost = req.UnitCost
	m.Supplier = req.Supplier
	m.Location = req.Location
}

func (s *inventoryService) List(ctx context.Context, p authz.Principal, f repository.MaterialFilter) ([]model.Material, error) {
	return s.repo.FindAll(ctx, p.Scope(), f)
}

func (s *inventoryService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Material, error) {
	return s.repo.FindByID(ctx, p.Scope(), id)
}

func (s *inventoryService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req MaterialRequest) (*model.Material, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	m, err := s.repo.Mutate(ctx, p.Scope(), id, func(m *model.Material) error {
		applyMaterial(m, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, &m.TenantID, model.ActionUpdate, "material", m.ID, m.Name))
	return m, nil
}

func (s *inventoryService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	m, err := s.repo.FindByID(ctx, p.Scope(), id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.Scope(), id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &m.TenantID, model.ActionDelete, "material", m.ID, m.Name))
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, p authz.Principal, id uuid.UUID, req StockAdjustRequest) (m *model.Material, mv *model.MaterialMovement, err error) {
	ctx, span := tracing.Start(ctx, "material.adjust_stock",
		attribute.String("material.id", id.String()), attribute.String("movement.type", string(req.Type)))
	defer func() { tracing.End(span, err) }()

	// 1. Validasi input
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, nil, err
	}
	if !req.Type.IsValid() {
		return nil, nil, apperror.ValidationFields("invalid movement type", []apperror.FieldError{{Field: "type", Tag: "oneof", Param: "IN OUT ADJUST"}})
	}
	delta := req.Type.SignedDelta(req.Delta)

	// 2. Lock, compute and record in one transaction
	var before model.StockStatus
	m, mv, err = s.repo.AdjustStock(ctx, p.Scope(), id, func(m *model.Material) (*model.MaterialMovement, error) {
		after := m.Quantity + delta
		if after < 0 {
			return nil, apperror.InvalidState("insufficient stock: %g %s on hand", m.Quantity, m.Unit)
		}
		before = model.ClassifyStock(m.Quantity, m.ReorderLevel)
		return &model.MaterialMovement{
			UserID:         p.UserID,
			Type:           req.Type,
			Delta:          delta,
			QuantityBefore: m.Quantity,
			QuantityAfter:  after,
			Reason:         req.Reason,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.activity.Log(ctx, entryFor(p, &m.TenantID, model.ActionStockAdjust, "material", m.ID, m.Name).
		with("delta", delta).with("quantity", m.Quantity))
	if m.StockStatus != before && m.StockStatus != model.StockInStock {
		s.notifier.Publish(ws.Event{
			Type:       "material.stock_alert",
			TenantID:   m.TenantID,
			EntityType: "material",
			EntityID:   m.ID,
			Status:     string(m.StockStatus),
			Message:    fmt.Sprintf("%s is %s (%g left)", m.Name, m.StockStatus, m.Quantity),
			ActorID:    p.UserID,
			ActorName:  p.Name,
		})
	}
	return m, mv, nil
}

func (s *inventoryService) Movements(ctx context.Context, p authz.Principal, id uuid.UUID, page repository.Page) ([]model.MaterialMovement, error) {
	if _, err := s.repo.FindByID(ctx, p.Scope(), id); err != nil {
		return nil, err
	}
	return s.repo.Movements(ctx, p.Scope(), id, page)
}
