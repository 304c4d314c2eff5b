package repository

import (
	"context"
	"time"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityFilter struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	From       *time.Time
	To         *time.Time
	Page       Page
}

// ActivityRepository is append-only.
type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	FindAll(ctx context.Context, scope authz.Scope, filter ActivityFilter) ([]model.ActivityLog, int64, error)
}

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepo) FindAll(ctx context.Context, scope authz.Scope, f ActivityFilter) ([]model.ActivityLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Scopes(TenantScope(scope.TenantOnly()))
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "activity log")
	}
	var out []model.ActivityLog
	err := f.Page.apply(q).Order("created_at DESC").Find(&out).Error
	return out, total, translate(err, "activity log")
}
