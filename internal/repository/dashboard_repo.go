package repository

import (
	"context"
	"time"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"gorm.io/gorm"
)

// DashboardRepository runs the aggregate queries behind the dashboard. Each
// method is independent so the service can run them concurrently.
type DashboardRepository interface {
	OrdersByStatus(ctx context.Context, scope authz.Scope) (map[model.OrderStatus]int64, error)
	// Revenue sums non-cancelled order totals created in [from, to).
	Revenue(ctx context.Context, scope authz.Scope, from, to time.Time) (int64, error)
	MaterialLevels(ctx context.Context, scope authz.Scope) ([]model.StockLevel, error)
	EquipmentLevels(ctx context.Context, scope authz.Scope) ([]model.StockLevel, error)
	EquipmentByStatus(ctx context.Context, scope authz.Scope) (map[model.EquipmentStatus]int64, error)
	MaintenanceDue(ctx context.Context, scope authz.Scope, now time.Time) (int64, error)
	TicketsByCategory(ctx context.Context, scope authz.Scope) (map[model.TicketCategory]int64, error)
	OpenTickets(ctx context.Context, scope authz.Scope) (int64, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

// countBy groups rows of m by column within scope and feeds each bucket to put.
func countBy(ctx context.Context, db *gorm.DB, scope authz.Scope, m any, column string, put func(key string, n int64)) error {
	rows, err := db.WithContext(ctx).Model(m).
		Scopes(TenantScope(scope), OwnerScope(scope, "user_id")).
		Select(column + " AS bucket, COUNT(*) AS total").
		Group(column).
		Rows()
	if err != nil {
		return translate(err, "dashboard")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return translate(err, "dashboard")
		}
		put(key, n)
	}
	return translate(rows.Err(), "dashboard")
}

func (r *dashboardRepo) OrdersByStatus(ctx context.Context, scope authz.Scope) (map[model.OrderStatus]int64, error) {
	out := map[model.OrderStatus]int64{}
	err := countBy(ctx, r.db, scope, &model.Order{}, "status", func(k string, n int64) {
		out[model.OrderStatus(k)] = n
	})
	return out, err
}

func (r *dashboardRepo) Revenue(ctx context.Context, scope authz.Scope, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Scopes(TenantScope(scope), OwnerScope(scope, "user_id")).
		Where("status <> ? AND created_at >= ? AND created_at < ?", model.OrderCancelled, from, to).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	return total, translate(err, "dashboard")
}

func (r *dashboardRepo) levels(ctx context.Context, scope authz.Scope, m any) ([]model.StockLevel, error) {
	var out []model.StockLevel
	err := r.db.WithContext(ctx).Model(m).
		Scopes(TenantScope(scope.TenantOnly())).
		Select("id, name, quantity, reorder_level").
		Order("name ASC").
		Scan(&out).Error
	return out, translate(err, "dashboard")
}

func (r *dashboardRepo) MaterialLevels(ctx context.Context, scope authz.Scope) ([]model.StockLevel, error) {
	return r.levels(ctx, scope, &model.Material{})
}

func (r *dashboardRepo) EquipmentLevels(ctx context.Context, scope authz.Scope) ([]model.StockLevel, error) {
	return r.levels(ctx, scope, &model.Equipment{})
}

func (r *dashboardRepo) EquipmentByStatus(ctx context.Context, scope authz.Scope) (map[model.EquipmentStatus]int64, error) {
	out := map[model.EquipmentStatus]int64{}
	err := countBy(ctx, r.db, scope.TenantOnly(), &model.Equipment{}, "status", func(k string, n int64) {
		out[model.EquipmentStatus(k)] = n
	})
	return out, err
}

func (r *dashboardRepo) MaintenanceDue(ctx context.Context, scope authz.Scope, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Scopes(TenantScope(scope.TenantOnly())).
		Where("status <> ? AND next_maintenance_at IS NOT NULL AND next_maintenance_at <= ?", model.EquipmentRetired, now).
		Count(&n).Error
	return n, translate(err, "dashboard")
}

func (r *dashboardRepo) TicketsByCategory(ctx context.Context, scope authz.Scope) (map[model.TicketCategory]int64, error) {
	out := map[model.TicketCategory]int64{}
	err := countBy(ctx, r.db, scope, &model.Ticket{}, "category", func(k string, n int64) {
		out[model.TicketCategory(k)] = n
	})
	return out, err
}

func (r *dashboardRepo) OpenTickets(ctx context.Context, scope authz.Scope) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Scopes(TenantScope(scope), OwnerScope(scope, "user_id")).
		Where("status NOT IN ?", []model.TicketStatus{model.TicketResolved, model.TicketClosed}).
		Count(&n).Error
	return n, translate(err, "dashboard")
}
