package service

import (
	"regexp"
	"testing"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeliveryFixture(t *testing.T) (*orderFixture, DeliveryService, *model.Order, authz.Principal) {
	t.Helper()
	f := newOrderFixture()
	client := principal(t, authz.RoleClient, f.tenant)
	order := f.place(t, client)
	svc := NewDeliveryService(newMemDeliveries(f.orders), f.orders, NewActivityService(f.activity), f.events)
	return f, svc, order, client
}

func TestTrackingNumberFormat(t *testing.T) {
	tn, err := NewTrackingNumber()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TRK-[0-9A-F]{12}$`), tn)
}

func TestDeliveredStampsActualDeliveryOnce(t *testing.T) {
	f, svc, order, _ := newDeliveryFixture(t)
	staff := principal(t, authz.RoleProductionStaff, f.tenant)

	d, err := svc.Create(testCtx(), staff, CreateDeliveryRequest{OrderID: order.ID, ShippingAddress: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryScheduled, d.Status)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now = func() time.Time { return first }
	t.Cleanup(func() { now = func() time.Time { return time.Now().UTC() } })

	d, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryDelivered))
	require.NoError(t, err)
	require.NotNil(t, d.ActualDelivery)
	assert.Equal(t, first, *d.ActualDelivery)

	now = func() time.Time { return first.Add(48 * time.Hour) }
	d, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryDelivered))
	require.NoError(t, err)
	assert.Equal(t, first, *d.ActualDelivery)
}

func TestDeliveryStatusRules(t *testing.T) {
	f, svc, order, _ := newDeliveryFixture(t)
	staff := principal(t, authz.RoleProductionStaff, f.tenant)
	d, err := svc.Create(testCtx(), staff, CreateDeliveryRequest{OrderID: order.ID, ShippingAddress: "1 Main St"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, "Lost")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryOutForDelivery))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryInTransit))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryFailed))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryDelivered))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = svc.UpdateStatus(testCtx(), staff, d.ID, string(model.DeliveryScheduled))
	assert.NoError(t, err)
}

func TestCreateDeliveryForCancelledOrder(t *testing.T) {
	f, svc, order, client := newDeliveryFixture(t)
	_, err := f.svc.Cancel(testCtx(), client, order.ID)
	require.NoError(t, err)

	_, err = svc.Create(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), CreateDeliveryRequest{OrderID: order.ID, ShippingAddress: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestDuplicateTrackingNumberConflicts(t *testing.T) {
	f, svc, order, _ := newDeliveryFixture(t)
	staff := principal(t, authz.RoleProductionStaff, f.tenant)
	req := CreateDeliveryRequest{OrderID: order.ID, ShippingAddress: "x", TrackingNumber: "TRK-1"}

	_, err := svc.Create(testCtx(), staff, req)
	require.NoError(t, err)
	_, err = svc.Create(testCtx(), staff, req)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDeliveriesVisibleToOrderOwnerOnly(t *testing.T) {
	f, svc, order, client := newDeliveryFixture(t)
	d, err := svc.Create(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), CreateDeliveryRequest{OrderID: order.ID, ShippingAddress: "x"})
	require.NoError(t, err)

	_, err = svc.Get(testCtx(), client, d.ID)
	assert.NoError(t, err)
	_, err = svc.Get(testCtx(), principal(t, authz.RoleClient, f.tenant), d.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTrackExposesOnlyTrackingFields(t *testing.T) {
	f, svc, order, _ := newDeliveryFixture(t)
	d, err := svc.Create(testCtx(), principal(t, authz.RoleProductionStaff, f.tenant), CreateDeliveryRequest{
		OrderID: order.ID, ShippingAddress: "secret address", Carrier: "DHL",
	})
	require.NoError(t, err)

	tracking, err := svc.Track(testCtx(), d.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, d.TrackingNumber, tracking.TrackingNumber)
	assert.Equal(t, "DHL", tracking.Carrier)

	_, err = svc.Track(testCtx(), "TRK-000000000000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
