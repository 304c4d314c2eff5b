package service

import (
	"context"
	"strings"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/metrics"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
)

type EquipmentRequest struct {
	Name              string                `json:"name" validate:"required,max=255"`
	Type              string                `json:"type" validate:"max=100"`
	SerialNumber      string                `json:"serial_number" validate:"max=100"`
	Status            model.EquipmentStatus `json:"status"`
	Location          string                `json:"location" validate:"max=100"`
	Quantity          *float64              `json:"quantity" validate:"omitempty,gte=0"`
	ReorderLevel      float64               `json:"reorder_level" validate:"gte=0"`
	PurchaseDate      *time.Time            `json:"purchase_date"`
	NextMaintenanceAt *time.Time            `json:"next_maintenance_at"`
	Notes             string                `json:"notes"`
	TenantID          *uuid.UUID            `json:"tenant_id"`
}

type MaintenanceRequest struct {
	Description     string     `json:"description" validate:"required"`
	Cost            int64      `json:"cost" validate:"gte=0"`
	PerformedAt     *time.Time `json:"performed_at"`
	NextDueAt       *time.Time `json:"next_due_at"`
	MarkOperational bool       `json:"mark_operational"`
}

type EquipmentService interface {
	Create(ctx context.Context, p authz.Principal, req EquipmentRequest) (*model.Equipment, error)
	List(ctx context.Context, p authz.Principal, filter repository.EquipmentFilter) ([]model.Equipment, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Equipment, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req EquipmentRequest) (*model.Equipment, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	LogMaintenance(ctx context.Context, p authz.Principal, id uuid.UUID, req MaintenanceRequest) (*model.Equipment, *model.MaintenanceLog, error)
	MaintenanceHistory(ctx context.Context, p authz.Principal, id uuid.UUID, page repository.Page) ([]model.MaintenanceLog, error)
}

type equipmentService struct {
	repo     repository.EquipmentRepository
	activity ActivityService
}

func NewEquipmentService(repo repository.EquipmentRepository, activity ActivityService) EquipmentService {
	return &equipmentService{repo: repo, activity: activity}
}

func validEquipmentStatus(s model.EquipmentStatus) error {
	if !s.IsValid() {
		return apperror.ValidationFields("invalid equipment status", []apperror.FieldError{{Field: "status", Tag: "oneof"}})
	}
	return nil
}

func applyEquipment(e *model.Equipment, req EquipmentRequest) {
	e.Name = strings.TrimSpace(req.Name)
	e.Type = req.Type
	e.SerialNumber = req.SerialNumber
	if req.Status != "" {
		e.Status = req.Status
	}
	e.Location = req.Location
	if req.Quantity != nil {
		e.Quantity = *req.Quantity
	}
	e.ReorderLevel = req.ReorderLevel
	if req.PurchaseDate != nil {
		e.PurchaseDate = req.PurchaseDate
	}
	if req.NextMaintenanceAt != nil {
		e.NextMaintenanceAt = req.NextMaintenanceAt
	}
	e.Notes = req.Notes
}

func (s *equipmentService) Create(ctx context.Context, p authz.Principal, req EquipmentRequest) (*model.Equipment, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = model.EquipmentOperational
	}
	if err := validEquipmentStatus(req.Status); err != nil {
		return nil, err
	}
	tenantID, err := targetTenant(p, req.TenantID)
	if err != nil {
		return nil, err
	}

	e := &model.Equipment{TenantID: tenantID, Quantity: 1}
	applyEquipment(e, req)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	e.RefreshStockStatus()
	s.activity.Log(ctx, entryFor(p, &e.TenantID, model.ActionCreate, "equipment", e.ID, e.Name))
	return e, nil
}

func (s *equipmentService) List(ctx context.Context, p authz.Principal, f repository.EquipmentFilter) ([]model.Equipment, error) {
	return s.repo.FindAll(ctx, p.Scope(), f)
}

func (s *equipmentService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.Equipment, error) {
	return s.repo.FindByID(ctx, p.Scope(), id)
}

func (s *equipmentService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req EquipmentRequest) (*model.Equipment, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if err := validEquipmentStatus(req.Status); err != nil {
			return nil, err
		}
	}
	var previous model.EquipmentStatus
	e, err := s.repo.Mutate(ctx, p.Scope(), id, func(e *model.Equipment) error {
		previous = e.Status
		applyEquipment(e, req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	entry := entryFor(p, &e.TenantID, model.ActionUpdate, "equipment", e.ID, e.Name)
	if previous != e.Status {
		metrics.StatusTransition("equipment", string(e.Status))
		entry = entry.with("from", previous).with("to", e.Status)
	}
	s.activity.Log(ctx, entry)
	return e, nil
}

func (s *equipmentService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	e, err := s.repo.FindByID(ctx, p.Scope(), id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.Scope(), id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &e.TenantID, model.ActionDelete, "equipment", e.ID, e.Name))
	return nil
}

func (s *equipmentService) LogMaintenance(ctx context.Context, p authz.Principal, id uuid.UUID, req MaintenanceRequest) (*model.Equipment, *model.MaintenanceLog, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, nil, err
	}
	performedAt := now()
	if req.PerformedAt != nil {
		performedAt = req.PerformedAt.UTC()
	}
	if req.NextDueAt != nil && !req.NextDueAt.After(performedAt) {
		return nil, nil, apperror.ValidationFields("next_due_at must be after performed_at", []apperror.FieldError{{Field: "next_due_at", Tag: "gtfield", Param: "performed_at"}})
	}

	var reopened bool
	e, entry, err := s.repo.LogMaintenance(ctx, p.Scope(), id, func(e *model.Equipment) (*model.MaintenanceLog, error) {
		if e.Status == model.EquipmentRetired {
			return nil, apperror.InvalidState("equipment %s is retired", e.Name)
		}
		if e.LastMaintenanceAt == nil || performedAt.After(*e.LastMaintenanceAt) {
			e.LastMaintenanceAt = &performedAt
		}
		if req.NextDueAt != nil {
			e.NextMaintenanceAt = req.NextDueAt
		}
		if req.MarkOperational && e.Status == model.EquipmentMaintenance {
			e.Status = model.EquipmentOperational
			reopened = true
		}
		return &model.MaintenanceLog{
			PerformedByID: p.UserID,
			Description:   req.Description,
			Cost:          req.Cost,
			PerformedAt:   performedAt,
			NextDueAt:     req.NextDueAt,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	if reopened {
		metrics.StatusTransition("equipment", string(e.Status))
	}
	s.activity.Log(ctx, entryFor(p, &e.TenantID, model.ActionMaintenance, "equipment", e.ID, e.Name).
		with("cost", req.Cost))
	return e, entry, nil
}

func (s *equipmentService) MaintenanceHistory(ctx context.Context, p authz.Principal, id uuid.UUID, page repository.Page) ([]model.MaintenanceLog, error) {
	if _, err := s.repo.FindByID(ctx, p.Scope(), id); err != nil {
		return nil, err
	}
	return s.repo.MaintenanceHistory(ctx, p.Scope(), id, page)
}
