package repository

import (
	"context"

	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Category   string
	ActiveOnly bool
	Search     string
	Page       Page
}

type ProductRepository interface {
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Tenant catalog
	FindTenantProducts(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]model.TenantProduct, error)
	FindTenantProductsByIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]model.TenantProduct, error)
	UpsertTenantProduct(ctx context.Context, tp *model.TenantProduct) error
	DeleteTenantProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	CountTenantProducts(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) FindAll(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	var products []model.Product
	err := f.Page.apply(q).Order("name ASC").Find(&products).Error
	return products, translate(err, "product")
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "product")
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error, "product")
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "product")
	}
	return translate(res.Error, "product")
}

func (r *productRepo) FindTenantProducts(ctx context.Context, tenantID uuid.UUID, availableOnly bool) ([]model.TenantProduct, error) {
	q := r.db.WithContext(ctx).Preload("Product").Where("tenant_id = ?", tenantID)
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var out []model.TenantProduct
	err := q.Order("created_at ASC").Find(&out).Error
	return out, translate(err, "tenant product")
}

func (r *productRepo) FindTenantProductsByIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) ([]model.TenantProduct, error) {
	var out []model.TenantProduct
	err := r.db.WithContext(ctx).Preload("Product").
		Where("tenant_id = ? AND product_id IN ?", tenantID, productIDs).
		Find(&out).Error
	return out, translate(err, "tenant product")
}

// UpsertTenantProduct sets the tenant's price and availability for a product.
func (r *productRepo) UpsertTenantProduct(ctx context.Context, tp *model.TenantProduct) error {
	err := r.db.WithContext(ctx).Omit("Product").Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "is_available", "updated_at", "deleted_at"}),
		},
		// the existing row keeps its id on conflict
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
	).Create(tp).Error
	return translate(err, "tenant product")
}

func (r *productRepo) DeleteTenantProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Delete(&model.TenantProduct{})
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "tenant product")
	}
	return translate(res.Error, "tenant product")
}

func (r *productRepo) CountTenantProducts(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.TenantProduct{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	return n, translate(err, "tenant product")
}
