package repository

import (
	"context"
	"time"

	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFilter struct {
	TenantID *uuid.UUID
	RoleID   *uint
	IsActive *bool
	Search   string
	Page     Page
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash, version string) error
	RecordLogin(ctx context.Context, userID uuid.UUID, version string, at time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *userRepo) FindAll(ctx context.Context, f UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Preload("Role")
	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	if f.RoleID != nil {
		q = q.Where("role_id = ?", *f.RoleID)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}

	var users []model.User
	if err := f.Page.apply(q).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, translate(err, "user")
	}
	return users, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Omit("Role", "Tenant").Create(user).Error, "user")
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Omit("Role", "Tenant").Save(user).Error, "user")
}

// HardDelete removes the row for good. Deactivation goes through Update.
func (r *userRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return translate(r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Update("token_version", version).Error, "user")
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, hash, version string) error {
	return translate(r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]any{"password_hash": hash, "token_version": version}).Error, "user")
}

func (r *userRepo) RecordLogin(ctx context.Context, userID uuid.UUID, version string, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]any{"token_version": version, "last_login_at": at}).Error, "user")
}
