package service

import (
	"context"
	"sync"
	"testing"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMaterials struct {
	repository.MaterialRepository
	mu        sync.Mutex
	rows      map[uuid.UUID]model.Material
	movements []model.MaterialMovement
}

func newMemMaterials() *memMaterials { return &memMaterials{rows: map[uuid.UUID]model.Material{}} }

func (m *memMaterials) Create(_ context.Context, mat *model.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&mat.BaseModel)
	m.rows[mat.ID] = *mat
	return nil
}

func (m *memMaterials) FindByID(_ context.Context, scope authz.Scope, id uuid.UUID) (*model.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.rows[id]
	if !ok || !scope.TenantOnly().Allows(mat.TenantID, nil) {
		return nil, apperror.NotFound("material")
	}
	mat.RefreshStockStatus()
	return &mat, nil
}

func (m *memMaterials) AdjustStock(_ context.Context, scope authz.Scope, id uuid.UUID, change repository.StockChange) (*model.Material, *model.MaterialMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.rows[id]
	if !ok || !scope.TenantOnly().Allows(mat.TenantID, nil) {
		return nil, nil, apperror.NotFound("material")
	}
	mv, err := change(&mat)
	if err != nil {
		return nil, nil, err
	}
	mv.MaterialID, mv.TenantID = mat.ID, mat.TenantID
	stamp(&mv.BaseModel)
	m.movements = append(m.movements, *mv)
	mat.Quantity = mv.QuantityAfter
	m.rows[id] = mat
	mat.RefreshStockStatus()
	return &mat, mv, nil
}

type inventoryFixture struct {
	svc       InventoryService
	materials *memMaterials
	events    *recordingNotifier
	tenant    *uuid.UUID
	staff     authz.Principal
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	f := &inventoryFixture{materials: newMemMaterials(), events: &recordingNotifier{}, tenant: newTenant()}
	f.svc = NewInventoryService(f.materials, NewActivityService(&memActivity{}), f.events)
	f.staff = principal(t, authz.RoleProductionStaff, f.tenant)
	return f
}

func (f *inventoryFixture) paper(t *testing.T, qty, reorder float64) *model.Material {
	mgr := principal(t, authz.RoleProductionManager, f.tenant)
	m, err := f.svc.Create(testCtx(), mgr, MaterialRequest{SKU: " paper-a4 ", Name: "A4 Paper", Unit: "ream", Quantity: qty, ReorderLevel: reorder})
	require.NoError(t, err)
	return m
}

func TestCreateMaterialNormalizesSKU(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 100, 10)
	assert.Equal(t, "PAPER-A4", m.SKU)
	assert.Equal(t, *f.tenant, m.TenantID)
	assert.Equal(t, model.StockInStock, m.StockStatus)
}

func TestCreateMaterialSuperAdminNeedsTenant(t *testing.T) {
	f := newInventoryFixture(t)
	admin := principal(t, authz.RoleSuperAdmin, nil)
	_, err := f.svc.Create(testCtx(), admin, MaterialRequest{SKU: "INK", Name: "Ink"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 100, 10)

	got, mv, err := f.svc.AdjustStock(testCtx(), f.staff, m.ID, StockAdjustRequest{Type: model.MovementOut, Delta: 30, Reason: "job 42"})
	require.NoError(t, err)
	assert.Equal(t, 70.0, got.Quantity)
	assert.Equal(t, -30.0, mv.Delta)
	assert.Equal(t, 100.0, mv.QuantityBefore)
	assert.Equal(t, 70.0, mv.QuantityAfter)
	assert.Equal(t, f.staff.UserID, mv.UserID)
	assert.Empty(t, f.events.types())
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 5, 1)

	_, _, err := f.svc.AdjustStock(testCtx(), f.staff, m.ID, StockAdjustRequest{Type: model.MovementOut, Delta: 6})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	assert.Empty(t, f.materials.movements)
	assert.Equal(t, 5.0, f.materials.rows[m.ID].Quantity)
}

func TestAdjustStockRejectsUnknownType(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 5, 1)

	_, _, err := f.svc.AdjustStock(testCtx(), f.staff, m.ID, StockAdjustRequest{Type: "STEAL", Delta: 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAdjustStockAlertsOnStatusDrop(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 20, 10)

	got, _, err := f.svc.AdjustStock(testCtx(), f.staff, m.ID, StockAdjustRequest{Type: model.MovementOut, Delta: 12})
	require.NoError(t, err)
	assert.Equal(t, model.StockLow, got.StockStatus)
	assert.Equal(t, []string{"material.stock_alert"}, f.events.types())

	// already low, no second alert
	_, _, err = f.svc.AdjustStock(testCtx(), f.staff, m.ID, StockAdjustRequest{Type: model.MovementOut, Delta: 1})
	require.NoError(t, err)
	assert.Len(t, f.events.types(), 1)
}

func TestMaterialsAreTenantScoped(t *testing.T) {
	f := newInventoryFixture(t)
	m := f.paper(t, 20, 10)

	outsider := principal(t, authz.RoleProductionStaff, newTenant())
	_, err := f.svc.Get(context.Background(), outsider, m.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, _, err = f.svc.AdjustStock(testCtx(), outsider, m.ID, StockAdjustRequest{Type: model.MovementIn, Delta: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
