package repository

import (
	"context"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EquipmentFilter struct {
	Status model.EquipmentStatus
	Type   string
	Page   Page
}

type EquipmentMutation func(e *model.Equipment) error

// MaintenanceEntry fills in the log row for a locked piece of equipment and may
// update the equipment itself.
type MaintenanceEntry func(e *model.Equipment) (*model.MaintenanceLog, error)

type EquipmentRepository interface {
	FindAll(ctx context.Context, scope authz.Scope, filter EquipmentFilter) ([]model.Equipment, error)
	FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Equipment, error)
	Create(ctx context.Context, e *model.Equipment) error
	Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn EquipmentMutation) (*model.Equipment, error)
	Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error
	LogMaintenance(ctx context.Context, scope authz.Scope, id uuid.UUID, entry MaintenanceEntry) (*model.Equipment, *model.MaintenanceLog, error)
	MaintenanceHistory(ctx context.Context, scope authz.Scope, id uuid.UUID, page Page) ([]model.MaintenanceLog, error)
}

type equipmentRepo struct {
	db *gorm.DB
}

func NewEquipmentRepo(db *gorm.DB) EquipmentRepository {
	return &equipmentRepo{db: db}
}

func (r *equipmentRepo) scoped(db *gorm.DB, scope authz.Scope) *gorm.DB {
	return db.Model(&model.Equipment{}).Scopes(TenantScope(scope.TenantOnly()))
}

func (r *equipmentRepo) FindAll(ctx context.Context, scope authz.Scope, f EquipmentFilter) ([]model.Equipment, error) {
	q := r.scoped(r.db.WithContext(ctx), scope)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var out []model.Equipment
	err := f.Page.apply(q).Order("name ASC").Find(&out).Error
	return out, translate(err, "equipment")
}

func (r *equipmentRepo) FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Equipment, error) {
	var e model.Equipment
	if err := r.scoped(r.db.WithContext(ctx), scope).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "equipment")
	}
	return &e, nil
}

func (r *equipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	return translate(r.db.WithContext(ctx).Create(e).Error, "equipment")
}

func (r *equipmentRepo) Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn EquipmentMutation) (*model.Equipment, error) {
	var e model.Equipment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&e, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
		return tx.Save(&e).Error
	})
	if err != nil {
		return nil, translate(err, "equipment")
	}
	e.RefreshStockStatus()
	return &e, nil
}

func (r *equipmentRepo) Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error {
	res := r.scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&model.Equipment{})
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "equipment")
	}
	return translate(res.Error, "equipment")
}

func (r *equipmentRepo) LogMaintenance(ctx context.Context, scope authz.Scope, id uuid.UUID, entry MaintenanceEntry) (*model.Equipment, *model.MaintenanceLog, error) {
	var (
		e   model.Equipment
		log *model.MaintenanceLog
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&e, "id = ?", id).Error; err != nil {
			return err
		}
		var err error
		log, err = entry(&e)
		if err != nil {
			return err
		}
		log.EquipmentID = e.ID
		log.TenantID = e.TenantID
		if err := tx.Create(log).Error; err != nil {
			return err
		}
		return tx.Save(&e).Error
	})
	if err != nil {
		return nil, nil, translate(err, "equipment")
	}
	e.RefreshStockStatus()
	return &e, log, nil
}

func (r *equipmentRepo) MaintenanceHistory(ctx context.Context, scope authz.Scope, id uuid.UUID, page Page) ([]model.MaintenanceLog, error) {
	q := r.db.WithContext(ctx).Model(&model.MaintenanceLog{}).
		Scopes(TenantScope(scope.TenantOnly())).
		Where("equipment_id = ?", id)
	var out []model.MaintenanceLog
	err := page.apply(q).Order("performed_at DESC").Find(&out).Error
	return out, translate(err, "maintenance log")
}
