package service

import (
	"context"
	"time"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/internal/tracing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	// Stats aggregates the principal's tenant. Unrestricted principals see the
	// whole platform unless tenantID narrows it.
	Stats(ctx context.Context, p authz.Principal, tenantID *uuid.UUID) (*model.DashboardStats, error)
}

type dashboardService struct {
	repo repository.DashboardRepository
}

func NewDashboardService(repo repository.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo}
}

// monthBounds returns the start of the month containing t and of the month before.
func monthBounds(t time.Time) (current, previous time.Time) {
	current = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return current, current.AddDate(0, -1, 0)
}

func (s *dashboardService) Stats(ctx context.Context, p authz.Principal, tenantID *uuid.UUID) (stats *model.DashboardStats, err error) {
	ctx, span := tracing.Start(ctx, "dashboard.stats")
	defer func() { tracing.End(span, err) }()

	scope := p.Scope().ForTenant(tenantID)
	at := now()
	thisMonth, lastMonth := monthBounds(at)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	var (
		out                    model.DashboardStats
		materials, equipment   []model.StockLevel
		revenueCur, revenuePrv int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.OrdersByStatus, err = s.repo.OrdersByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		revenueCur, err = s.repo.Revenue(gctx, scope, thisMonth, nextMonth)
		return err
	})
	g.Go(func() (err error) {
		revenuePrv, err = s.repo.Revenue(gctx, scope, lastMonth, thisMonth)
		return err
	})
	g.Go(func() (err error) {
		materials, err = s.repo.MaterialLevels(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = s.repo.EquipmentLevels(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		out.EquipmentByStatus, err = s.repo.EquipmentByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		out.MaintenanceDue, err = s.repo.MaintenanceDue(gctx, scope, at)
		return err
	})
	g.Go(func() (err error) {
		out.TicketsByCategory, err = s.repo.TicketsByCategory(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		out.OpenTickets, err = s.repo.OpenTickets(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, n := range out.OrdersByStatus {
		out.TotalOrders += n
	}
	out.Revenue = model.RevenueSummary{
		CurrentMonth:  revenueCur,
		PreviousMonth: revenuePrv,
		PercentChange: model.PercentChange(revenueCur, revenuePrv),
	}
	out.MaterialStock = model.SummarizeStock(materials)
	out.EquipmentStock = model.SummarizeStock(equipment)
	return &out, nil
}
