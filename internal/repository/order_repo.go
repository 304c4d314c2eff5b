package repository

import (
	"context"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status   model.OrderStatus
	Priority model.OrderPriority
	Page     Page
}

// OrderMutation edits a locked order in place. Returning an error rolls back.
type OrderMutation func(order *model.Order) error

type OrderRepository interface {
	FindAll(ctx context.Context, scope authz.Scope, filter OrderFilter) ([]model.Order, error)
	FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Order, error)
	// Create inserts the order and all of its items in one transaction.
	Create(ctx context.Context, order *model.Order) error
	// Mutate locks the order row inside scope, applies fn and saves the result.
	Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn OrderMutation) (*model.Order, error)
	// Delete removes the order when check accepts the locked row.
	Delete(ctx context.Context, scope authz.Scope, id uuid.UUID, check OrderMutation) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) scoped(db *gorm.DB, scope authz.Scope) *gorm.DB {
	return db.Model(&model.Order{}).Scopes(TenantScope(scope), OwnerScope(scope, "user_id"))
}

func (r *orderRepo) FindAll(ctx context.Context, scope authz.Scope, f OrderFilter) ([]model.Order, error) {
	q := r.scoped(r.db.WithContext(ctx), scope).Preload("Items")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	var orders []model.Order
	err := f.Page.apply(q).Order("created_at DESC").Find(&orders).Error
	return orders, translate(err, "order")
}

func (r *orderRepo) FindByID(ctx context.Context, scope authz.Scope, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.scoped(r.db.WithContext(ctx), scope).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil
		if err := tx.Omit("User").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	return translate(err, "order")
}

func (r *orderRepo) Mutate(ctx context.Context, scope authz.Scope, id uuid.UUID, fn OrderMutation) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(r.scoped(tx, scope)).First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&order); err != nil {
			return err
		}
		if err := tx.Omit("User", "Items").Save(&order).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", order.ID).Find(&order.Items).Error
	})
	if err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

func (r *orderRepo) Delete(ctx context.Context, scope authz.Scope, id uuid.UUID, check OrderMutation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := forUpdate(r.scoped(tx, scope)).First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if err := check(&order); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	return translate(err, "order")
}
