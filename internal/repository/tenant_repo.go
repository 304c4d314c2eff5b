package repository

import (
	"context"

	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantRepository interface {
	FindAll(ctx context.Context, activeOnly bool) ([]model.Tenant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	Create(ctx context.Context, tenant *model.Tenant) error
	Update(ctx context.Context, tenant *model.Tenant) error
	// DeleteIfUnused deletes the tenant unless users or tenant products still
	// reference it, in which case it returns both counts and deletes nothing.
	DeleteIfUnused(ctx context.Context, id uuid.UUID) (users, products int64, err error)
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) FindAll(ctx context.Context, activeOnly bool) ([]model.Tenant, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var tenants []model.Tenant
	err := q.Order("name ASC").Find(&tenants).Error
	return tenants, translate(err, "tenant")
}

func (r *tenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "tenant")
	}
	return &t, nil
}

func (r *tenantRepo) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var t model.Tenant
	if err := r.db.WithContext(ctx).First(&t, "slug = ?", slug).Error; err != nil {
		return nil, translate(err, "tenant")
	}
	return &t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *model.Tenant) error {
	return translate(r.db.WithContext(ctx).Create(tenant).Error, "tenant")
}

func (r *tenantRepo) Update(ctx context.Context, tenant *model.Tenant) error {
	return translate(r.db.WithContext(ctx).Save(tenant).Error, "tenant")
}

func (r *tenantRepo) DeleteIfUnused(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	var users, products int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Tenant
		if err := forUpdate(tx).First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("tenant_id = ?", id).Count(&users).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.TenantProduct{}).Where("tenant_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if users > 0 || products > 0 {
			return nil
		}
		return tx.Unscoped().Delete(&model.Tenant{}, "id = ?", id).Error
	})
	return users, products, translate(err, "tenant")
}
