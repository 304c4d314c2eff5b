package service

import (
	"testing"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc    UserService
	users  *memUsers
	roles  *memRoles
	tenant *model.Tenant
	owner  authz.Principal
}

func newUserFixture(t *testing.T) *userFixture {
	tenant := &model.Tenant{Name: "Acme Print", Slug: "acme"}
	tenant.ID = uuid.New()
	f := &userFixture{users: newMemUsers(), roles: newMemRoles(testPolicy), tenant: tenant}
	tenants := &memTenants{bySlug: map[string]*model.Tenant{"acme": tenant}}
	f.svc = NewUserService(f.users, f.roles, tenants, testPolicy, NewActivityService(&memActivity{}))
	f.owner = principal(t, authz.RoleBusinessOwner, &tenant.ID)
	return f
}

func (f *userFixture) request(role string) CreateUserRequest {
	return CreateUserRequest{
		Email: "Press.Op@Acme.io", Password: "s3cret-pass", Name: " Pat ", Role: role, TenantID: &f.tenant.ID,
	}
}

func TestCreateUser(t *testing.T) {
	f := newUserFixture(t)
	resp, err := f.svc.Create(testCtx(), f.owner, f.request(string(authz.RoleMachineOperator)))
	require.NoError(t, err)
	assert.Equal(t, "press.op@acme.io", resp.Email)
	assert.Equal(t, "Pat", resp.Name)
	assert.True(t, resp.IsActive)

	stored, err := f.users.FindByEmail(testCtx(), "press.op@acme.io")
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("s3cret-pass"))
	assert.NotEmpty(t, stored.TokenVersion)

	_, err = f.svc.Create(testCtx(), f.owner, f.request(string(authz.RoleMachineOperator)))
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCreateUserRoleRules(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Create(testCtx(), f.owner, f.request(string(authz.RoleSuperAdmin)))
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	_, err = f.svc.Create(testCtx(), f.owner, f.request("janitor"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req := f.request(string(authz.RoleClient))
	req.TenantID = nil
	_, err = f.svc.Create(testCtx(), f.owner, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	missing := uuid.New()
	req.TenantID = &missing
	_, err = f.svc.Create(testCtx(), f.owner, req)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUsersOfOtherTenantsAreHidden(t *testing.T) {
	f := newUserFixture(t)
	other := uuid.New()
	stranger := f.users.add(&model.User{Email: "x@other.io", TenantID: &other, IsActive: true})

	_, err := f.svc.Get(testCtx(), f.owner, stranger.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	admin := principal(t, authz.RoleSuperAdmin, nil)
	got, err := f.svc.Get(testCtx(), admin, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, "x@other.io", got.Email)
}

func TestUpdateUserRoleRevokesSessions(t *testing.T) {
	f := newUserFixture(t)
	operator := f.roles.roles[authz.RoleMachineOperator]
	u := f.users.add(&model.User{
		Email: "op@acme.io", TenantID: &f.tenant.ID, RoleID: operator.ID, Role: operator,
		IsActive: true, TokenVersion: "v1",
	})

	manager := string(authz.RoleProductionManager)
	resp, err := f.svc.Update(testCtx(), f.owner, u.ID, UpdateUserRequest{Role: &manager})
	require.NoError(t, err)
	assert.Equal(t, manager, string(resp.Role))

	stored, err := f.users.FindByID(testCtx(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "v1", stored.TokenVersion)
}

func TestUsersCannotDeactivateOrDeleteThemselves(t *testing.T) {
	f := newUserFixture(t)
	owner := f.roles.roles[authz.RoleBusinessOwner]
	self := f.users.add(&model.User{Email: "boss@acme.io", TenantID: &f.tenant.ID, RoleID: owner.ID, Role: owner, IsActive: true})
	p, err := testPolicy.Principal(self.Identity())
	require.NoError(t, err)

	inactive := false
	_, err = f.svc.Update(testCtx(), p, self.ID, UpdateUserRequest{IsActive: &inactive})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = f.svc.Delete(testCtx(), p, self.ID)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
