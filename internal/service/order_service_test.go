package service

import (
	"testing"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc      OrderService
	orders   *memOrders
	products *memProducts
	activity *memActivity
	events   *recordingNotifier
	tenant   *uuid.UUID
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   newMemOrders(),
		products: newMemProducts(),
		activity: &memActivity{},
		events:   &recordingNotifier{},
		tenant:   newTenant(),
	}
	f.svc = NewOrderService(f.orders, f.products, NewActivityService(f.activity), f.events)
	return f
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newOrderFixture()
	flyers := f.products.offer(*f.tenant, "Flyers", 50)
	banner := f.products.offer(*f.tenant, "Banner", 100)
	client := principal(t, authz.RoleClient, f.tenant)

	order, err := f.svc.Create(testCtx(), client, CreateOrderRequest{Items: []OrderItemRequest{
		{ProductID: flyers, Quantity: 2},
		{ProductID: banner, Quantity: 1},
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 200, order.TotalAmount)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PriorityNormal, order.Priority)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Flyers", order.Items[0].ProductName)
	assert.EqualValues(t, 100, order.Items[0].Subtotal)

	f.products.setPrice(*f.tenant, flyers, 999)
	stored, err := f.svc.Get(testCtx(), client, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 200, stored.TotalAmount)
	assert.EqualValues(t, 50, stored.Items[0].Price)

	assert.Equal(t, []string{model.ActionCreate}, f.activity.actions())
	assert.Equal(t, []string{"order.created"}, f.events.types())
}

func TestCreateOrderRejectsProductsOfOtherShops(t *testing.T) {
	f := newOrderFixture()
	elsewhere := f.products.offer(uuid.New(), "Stickers", 10)

	_, err := f.svc.Create(testCtx(), principal(t, authz.RoleClient, f.tenant), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: elsewhere, Quantity: 1}},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "items[0].product_id", ae.Fields[0].Field)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture()
	client := principal(t, authz.RoleClient, f.tenant)

	_, err := f.svc.Create(testCtx(), client, CreateOrderRequest{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Create(testCtx(), client, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: uuid.New(), Quantity: 0}},
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func (f *orderFixture) place(t *testing.T, owner authz.Principal) *model.Order {
	t.Helper()
	product := f.products.offer(*f.tenant, "Cards", 25)
	order, err := f.svc.Create(testCtx(), owner, CreateOrderRequest{Items: []OrderItemRequest{{ProductID: product, Quantity: 4}}})
	require.NoError(t, err)
	return order
}

func TestCancelOrderOnlyOnce(t *testing.T) {
	f := newOrderFixture()
	client := principal(t, authz.RoleClient, f.tenant)
	order := f.place(t, client)

	cancelled, err := f.svc.Cancel(testCtx(), client, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = f.svc.Cancel(testCtx(), client, order.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestCancelOrderRequiresOwnerOrAdministrator(t *testing.T) {
	f := newOrderFixture()
	order := f.place(t, principal(t, authz.RoleClient, f.tenant))

	_, err := f.svc.Cancel(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), order.ID)
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = f.svc.Cancel(testCtx(), principal(t, authz.RoleClient, f.tenant), order.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "another client cannot even see it")

	_, err = f.svc.Cancel(testCtx(), principal(t, authz.RoleProductionManager, f.tenant), order.ID)
	assert.NoError(t, err)
}

func TestUpdateOrderStatusChecksInOrder(t *testing.T) {
	f := newOrderFixture()
	client := principal(t, authz.RoleClient, f.tenant)
	staff := principal(t, authz.RoleProductionStaff, f.tenant)
	order := f.place(t, client)

	_, err := f.svc.UpdateStatus(testCtx(), staff, uuid.New(), "BOGUS")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.UpdateStatus(testCtx(), principal(t, authz.RoleProductionStaff, newTenant()), order.ID, "PROCESSING")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.UpdateStatus(testCtx(), client, order.ID, "BOGUS")
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = f.svc.UpdateStatus(testCtx(), staff, order.ID, "BOGUS")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.UpdateStatus(testCtx(), staff, order.ID, "COMPLETED")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestUpdateOrderStatusWalksTheWorkflow(t *testing.T) {
	f := newOrderFixture()
	staff := principal(t, authz.RoleProductionStaff, f.tenant)
	order := f.place(t, principal(t, authz.RoleClient, f.tenant))

	for _, next := range []model.OrderStatus{model.OrderProcessing, model.OrderPrinting, model.OrderCompleted} {
		updated, err := f.svc.UpdateStatus(testCtx(), staff, order.ID, string(next))
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
	done, err := f.svc.UpdateStatus(testCtx(), staff, order.ID, string(model.OrderCompleted))
	require.NoError(t, err, "re-applying the current status is a no-op")
	require.NotNil(t, done.CompletedAt)

	_, err = f.svc.Cancel(testCtx(), principal(t, authz.RoleBusinessOwner, f.tenant), order.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	assert.Equal(t, []string{"order.created", "order.status_changed", "order.status_changed", "order.status_changed"}, f.events.types())
}

func TestUpdateOrderOnlyWhilePending(t *testing.T) {
	f := newOrderFixture()
	client := principal(t, authz.RoleClient, f.tenant)
	order := f.place(t, client)
	notes := "double-sided"

	updated, err := f.svc.Update(testCtx(), client, order.ID, UpdateOrderRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	_, err = f.svc.UpdateStatus(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), order.ID, "PROCESSING")
	require.NoError(t, err)
	_, err = f.svc.Update(testCtx(), client, order.ID, UpdateOrderRequest{Notes: &notes})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture()
	owner := principal(t, authz.RoleBusinessOwner, f.tenant)
	order := f.place(t, principal(t, authz.RoleClient, f.tenant))

	_, err := f.svc.UpdateStatus(testCtx(), owner, order.ID, "PROCESSING")
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Delete(testCtx(), owner, order.ID), apperror.ErrInvalidState)

	_, err = f.svc.Cancel(testCtx(), owner, order.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(testCtx(), owner, order.ID))
	_, err = f.svc.Get(testCtx(), owner, order.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListOrdersIsScoped(t *testing.T) {
	f := newOrderFixture()
	alice := principal(t, authz.RoleClient, f.tenant)
	bob := principal(t, authz.RoleClient, f.tenant)
	f.place(t, alice)
	f.place(t, bob)

	mine, err := f.svc.List(testCtx(), alice, repository.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.UserID, mine[0].UserID)

	all, err := f.svc.List(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := f.svc.List(testCtx(), principal(t, authz.RoleProductionStaff, newTenant()), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	platform, err := f.svc.List(testCtx(), principal(t, authz.RoleSuperAdmin, nil), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, platform, 2)
}
