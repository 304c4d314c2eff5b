package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrincipal(t *testing.T, id Identity) Principal {
	t.Helper()
	p, err := DefaultPolicy().Principal(id)
	require.NoError(t, err)
	return p
}

func TestDefaultPolicyCoversTaxonomy(t *testing.T) {
	pol := DefaultPolicy()
	names := []RoleName{
		RoleSuperAdmin, RoleBusinessOwner, RoleProductionOwner, RoleProductionManager,
		RoleProductionStaff, RoleMachineOperator, RoleQualityInspector, RoleClient,
	}
	require.Len(t, pol.Roles(), len(names))
	for i, rp := range pol.Roles() {
		assert.Equal(t, names[i], rp.Name)
	}
}

func TestSuperAdminHoldsEverything(t *testing.T) {
	set := DefaultPolicy().Permissions(RoleSuperAdmin, false)
	for _, perm := range AllPermissions {
		assert.True(t, set.Has(perm), perm)
	}
}

func TestOnlyClientIsSelfService(t *testing.T) {
	for _, rp := range DefaultPolicy().Roles() {
		assert.Equal(t, rp.Name == RoleClient, rp.SelfService, rp.Name)
	}
}

func TestUpdateOrderHolders(t *testing.T) {
	pol := DefaultPolicy()
	assert.False(t, pol.Permissions(RoleClient, false).Has(PermUpdateOrder))
	for _, r := range []RoleName{RoleBusinessOwner, RoleProductionManager, RoleProductionStaff, RoleMachineOperator, RoleQualityInspector} {
		assert.True(t, pol.Permissions(r, false).Has(PermUpdateOrder), r)
	}
}

func TestNewPolicyRejectsBadTables(t *testing.T) {
	_, err := NewPolicy([]RoleProfile{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)

	_, err = NewPolicy([]RoleProfile{{Name: "a", Permissions: []Permission{"fly_plane"}}})
	assert.Error(t, err)
}

func TestReadOnlyImpersonationDropsWrites(t *testing.T) {
	tenant := uuid.New()
	admin := uuid.New()
	p := mustPrincipal(t, Identity{
		UserID: uuid.New(), TenantID: &tenant, Role: RoleBusinessOwner,
		Impersonation: true, ReadOnly: true, ImpersonatorID: &admin,
	})

	assert.True(t, p.ReadOnly)
	assert.True(t, p.Has(PermViewOrders))
	assert.False(t, p.Has(PermUpdateOrder))
	assert.False(t, p.Has(PermCreateOrder))
	for perm := range p.Permissions {
		assert.True(t, perm.ReadOnly(), perm)
	}
}

func TestReadOnlyIgnoredWithoutImpersonation(t *testing.T) {
	tenant := uuid.New()
	p := mustPrincipal(t, Identity{UserID: uuid.New(), TenantID: &tenant, Role: RoleBusinessOwner, ReadOnly: true})
	assert.False(t, p.ReadOnly)
	assert.True(t, p.Has(PermUpdateOrder))
}

func TestUnknownRole(t *testing.T) {
	_, err := DefaultPolicy().Principal(Identity{UserID: uuid.New(), Role: "janitor"})
	assert.Error(t, err)
}

func TestScopes(t *testing.T) {
	tenant := uuid.New()
	other := uuid.New()

	super := mustPrincipal(t, Identity{UserID: uuid.New(), Role: RoleSuperAdmin})
	assert.Equal(t, Scope{Unrestricted: true}, super.Scope())
	assert.True(t, super.Scope().Allows(other, nil))

	staff := mustPrincipal(t, Identity{UserID: uuid.New(), TenantID: &tenant, Role: RoleProductionStaff})
	s := staff.Scope()
	assert.False(t, s.Unrestricted)
	assert.Nil(t, s.OwnerID)
	assert.True(t, s.Allows(tenant, nil))
	assert.False(t, s.Allows(other, nil))

	client := mustPrincipal(t, Identity{UserID: uuid.New(), TenantID: &tenant, Role: RoleClient})
	cs := client.Scope()
	require.NotNil(t, cs.OwnerID)
	assert.Equal(t, client.UserID, *cs.OwnerID)
	someoneElse := uuid.New()
	assert.True(t, cs.Allows(tenant, &client.UserID))
	assert.False(t, cs.Allows(tenant, &someoneElse))
	assert.True(t, cs.TenantOnly().Allows(tenant, &someoneElse))
}

func TestTenantlessStaffMatchesNothing(t *testing.T) {
	p := mustPrincipal(t, Identity{UserID: uuid.New(), Role: RoleProductionStaff})
	assert.False(t, p.Scope().Allows(uuid.New(), nil))
	assert.False(t, p.CanAccessTenant(uuid.New()))
}

func TestForTenant(t *testing.T) {
	tenant := uuid.New()
	narrowed := Scope{Unrestricted: true}.ForTenant(&tenant)
	assert.False(t, narrowed.Unrestricted)
	assert.Equal(t, &tenant, narrowed.TenantID)

	other := uuid.New()
	restricted := Scope{TenantID: &tenant}
	assert.Equal(t, restricted, restricted.ForTenant(&other))
}

func TestPermissionHelpers(t *testing.T) {
	assert.True(t, PermViewOrders.ReadOnly())
	assert.False(t, PermAdjustStock.ReadOnly())
	assert.Equal(t, "orders", PermViewOrders.Resource())

	set := NewPermissionSet(PermViewActivity, PermManageUsers)
	assert.Equal(t, []string{"manage_users", "view_activity"}, set.Strings())
}

func TestHasAllAndHasAny(t *testing.T) {
	tenant := uuid.New()
	op := mustPrincipal(t, Identity{UserID: uuid.New(), TenantID: &tenant, Role: RoleMachineOperator})
	assert.True(t, op.HasAll(PermViewEquipment, PermLogMaintenance))
	assert.False(t, op.HasAll(PermViewEquipment, PermManageEquipment))
	assert.True(t, op.HasAny(PermManageEquipment, PermLogMaintenance))
	assert.False(t, op.HasAny(PermManageUsers, PermDeleteOrder))
}
