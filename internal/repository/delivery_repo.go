package repository

import (
	"context"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryFilter struct {
	Status  model.DeliveryStatus
	OrderID *uuid.UUID
	Page    Page
}

type DeliveryMutation func(d *model.Delivery) error

type DeliveryRepository interface {
	FindAll(ctx context.Context, scope authz.Scope, filter DeliveryFilter) ([]model.Delivery, error)
	FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Delivery, error)
	// FindByTrackingNumber is unscoped; it backs the public tracking page.
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Delivery, error)
	Create(ctx context.Context, d *model.Delivery) error
	Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn DeliveryMutation) (*model.Delivery, error)
	Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error
}

type deliveryRepo struct {
	db *gorm.DB
}

func NewDeliveryRepo(db *gorm.DB) DeliveryRepository {
	return &deliveryRepo{db: db}
}

// scoped limits clients to deliveries of their own orders.
func (r *deliveryRepo) scoped(db *gorm.DB, scope authz.Scope) *gorm.DB {
	q := db.Model(&model.Delivery{}).Scopes(TenantScope(scope))
	if !scope.Unrestricted && scope.OwnerID != nil {
		q = q.Where("order_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Order{}).Select("id").Where("user_id = ?", *scope.OwnerID))
	}
	return q
}

func (r *deliveryRepo) FindAll(ctx context.Context, scope authz.Scope, f DeliveryFilter) ([]model.Delivery, error) {
	q := r.scoped(r.db.WithContext(ctx), scope)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OrderID != nil {
		q = q.Where("order_id = ?", *f.OrderID)
	}
	var out []model.Delivery
	err := f.Page.apply(q).Order("created_at DESC").Find(&out).Error
	return out, translate(err, "delivery")
}

func (r *deliveryRepo) FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	if err := r.scoped(r.db.WithContext(ctx), scope).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err, "delivery")
	}
	return &d, nil
}

func (r *deliveryRepo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Delivery, error) {
	var d model.Delivery
	if err := r.db.WithContext(ctx).First(&d, "tracking_number = ?", trackingNumber).Error; err != nil {
		return nil, translate(err, "delivery")
	}
	return &d, nil
}

func (r *deliveryRepo) Create(ctx context.Context, d *model.Delivery) error {
	return translate(r.db.WithContext(ctx).Omit("Order").Create(d).Error, "delivery")
}

func (r *deliveryRepo) Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn DeliveryMutation) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&d, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&d); err != nil {
			return err
		}
		return tx.Omit("Order").Save(&d).Error
	})
	if err != nil {
		return nil, translate(err, "delivery")
	}
	return &d, nil
}

func (r *deliveryRepo) Delete(ctx context.Context, scope authz.Scope, id uuid.UUID) error {
	res := r.scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&model.Delivery{})
	if res.Error == nil && res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delivery")
	}
	return translate(res.Error, "delivery")
}
