package repository

import (
	"context"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaterialFilter struct {
	Category string
	Search   string
	Page     Page
}

type MaterialMutation func(m *model.Material) error

// StockChange computes the movement for a locked material. It must not touch
// m.Quantity; the repository applies QuantityAfter.
type StockChange func(m *model.Material) (*model.MaterialMovement, error)

type MaterialRepository interface {
	FindAll(ctx context.Context, scope authz.Scope, filter MaterialFilter) ([]model.Material, error)
	FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Material, error)
	Create(ctx context.Context, m *model.Material) error
	Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn MaterialMutation) (*model.Material, error)
	Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error
	// AdjustStock locks the material, records the movement and updates the
	// quantity in one transaction.
	AdjustStock(ctx context.Context, scope authz.Scope, id uuid.UUID, change StockChange) (*model.Material, *model.MaterialMovement, error)
	Movements(ctx context.Context, scope authz.Scope, id uuid.UUID, page Page) ([]model.MaterialMovement, error)
}

type materialRepo struct {
	db *gorm.DB
}

func NewMaterialRepo(db *gorm.DB) MaterialRepository {
	return &materialRepo{db: db}
}

func (r *materialRepo) scoped(db *gorm.DB, scope authz.Scope) *gorm.DB {
	return db.Model(&model.Material{}).Scopes(TenantScope(scope.TenantOnly()))
}

func (r *materialRepo) FindAll(ctx context.Context, scope authz.Scope, f MaterialFilter) ([]model.Material, error) {
	q := r.scoped(r.db.WithContext(ctx), scope)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	var out []model.Material
	err := f.Page.apply(q).Order("name ASC").Find(&out).Error
	return out, translate(err, "material")
}

func (r *materialRepo) FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	if err := r.scoped(r.db.WithContext(ctx), scope).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, "material")
	}
	return &m, nil
}

func (r *materialRepo) Create(ctx context.Context, m *model.Material) error {
	return translate(r.db.WithContext(ctx).Create(m).Error, "material")
}

func (r *materialRepo) Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn MaterialMutation) (*model.Material, error) {
	var m model.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		return tx.Save(&m).Error
	})
	if err != nil {
		return nil, translate(err, "material")
	}
	m.RefreshStockStatus()
	return &m, nil
}

func (r *materialRepo) Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error {
	res := r.scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&model.Material{})
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "material")
	}
	return translate(res.Error, "material")
}

func (r *materialRepo) AdjustStock(ctx context.Context, scope authz.Scope, id uuid.UUID, change StockChange) (*model.Material, *model.MaterialMovement, error) {
	var (
		m        model.Material
		movement *model.MaterialMovement
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		var err error
		movement, err = change(&m)
		if err != nil {
			return err
		}
		movement.MaterialID = m.ID
		movement.TenantID = m.TenantID
		if err := tx.Create(movement).Error; err != nil {
			return err
		}
		m.Quantity = movement.QuantityAfter
		return tx.Model(&m).Update("quantity", m.Quantity).Error
	})
	if err != nil {
		return nil, nil, translate(err, "material")
	}
	m.RefreshStockStatus()
	return &m, movement, nil
}

func (r *materialRepo) Movements(ctx context.Context, scope authz.Scope, id uuid.UUID, page Page) ([]model.MaterialMovement, error) {
	q := r.db.WithContext(ctx).Model(&model.MaterialMovement{}).
		Scopes(TenantScope(scope.TenantOnly())).
		Where("material_id = ?", id)
	var out []model.MaterialMovement
	err := page.apply(q).Order("created_at DESC").Find(&out).Error
	return out, translate(err, "material movement")
}
