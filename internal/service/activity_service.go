package service

import (
	"context"
	"encoding/json"

	"printshop-api/internal/authz"
	"printshop-api/internal/metrics"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/pkg/logger"

	"github.com/google/uuid"
)

type ActivityEntry struct {
	Action     string
	UserID     *uuid.UUID
	TenantID   *uuid.UUID
	EntityType string
	EntityID   string
	EntityName string
	Metadata   map[string]any
}

// entryFor describes an action the principal took on an entity of tenantID.
func entryFor(p authz.Principal, tenantID *uuid.UUID, action, entityType string, entityID uuid.UUID, entityName string) ActivityEntry {
	userID := p.UserID
	entry := ActivityEntry{
		Action:     action,
		UserID:     &userID,
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID.String(),
		EntityName: entityName,
	}
	if p.Impersonation && p.ImpersonatorID != nil {
		entry.Metadata = map[string]any{"impersonator_id": p.ImpersonatorID.String()}
	}
	return entry
}

func (e ActivityEntry) with(key string, value any) ActivityEntry {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata[key] = value
	return e
}

type ActivityService interface {
	// Log never fails. Write errors are logged and counted.
	Log(ctx context.Context, entry ActivityEntry)
	List(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, filter repository.ActivityFilter) ([]model.ActivityLog, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Log(ctx context.Context, e ActivityEntry) {
	meta := RequestMetaFrom(ctx)
	row := &model.ActivityLog{
		UserID:     e.UserID,
		TenantID:   e.TenantID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			row.Metadata = string(raw)
		}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		metrics.ActivityLogFailed()
		log := logger.Get()
		log.Error().Err(err).
			Str("action", e.Action).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID).
			Str("request_id", meta.RequestID).
			Msg("activity log write failed")
	}
}

func (s *activityService) List(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, f repository.ActivityFilter) ([]model.ActivityLog, int64, error) {
	return s.repo.FindAll(ctx, p.Scope().ForTenant(tenantID), f)
}
