package service

import (
	"testing"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

type authFixture struct {
	svc      AuthService
	users    *memUsers
	roles    *memRoles
	tenants  *memTenants
	activity *memActivity
	tenant   *model.Tenant
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tenant := &model.Tenant{Name: "Acme Print", Slug: "acme", IsActive: true}
	stamp(&tenant.BaseModel)
	f := &authFixture{
		users:    newMemUsers(),
		roles:    newMemRoles(testPolicy),
		tenants:  &memTenants{bySlug: map[string]*model.Tenant{"acme": tenant}},
		activity: &memActivity{},
		tenant:   tenant,
	}
	tokens := jwt.NewManager("test-secret", "printshop-test", time.Hour, 15*time.Minute)
	f.svc = NewAuthService(f.users, f.roles, f.tenants, tokens, testPolicy, NewActivityService(f.activity))
	return f
}

func (f *authFixture) user(t *testing.T, email string, role authz.RoleName, tenantID *uuid.UUID) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: email, Role: f.roles.roles[role], TenantID: tenantID, IsActive: true}
	u.RoleID = u.Role.ID
	require.NoError(t, u.SetPassword(testPassword))
	return f.users.add(u)
}

func (f *authFixture) login(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Login(testCtx(), LoginRequest{Email: email, Password: testPassword})
	require.NoError(t, err)
	return resp
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)

	_, err := f.svc.Login(testCtx(), LoginRequest{Email: "ann@acme.io", Password: "nope"})
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
	_, err = f.svc.Login(testCtx(), LoginRequest{Email: "nobody@acme.io", Password: testPassword})
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
}

func TestLoginIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)

	resp := f.login(t, "ANN@acme.io")
	assert.Equal(t, "business_owner", resp.User.Role)
	assert.Contains(t, resp.User.Permissions, string(authz.PermManageTenantCatalog))
}

func TestInactiveUserCannotLogin(t *testing.T) {
	f := newAuthFixture(t)
	u := f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)
	u.IsActive = false

	_, err := f.svc.Login(testCtx(), LoginRequest{Email: "ann@acme.io", Password: testPassword})
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
}

func TestNewLoginRevokesOlderTokens(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)

	first := f.login(t, "ann@acme.io")
	p, err := f.svc.Authenticate(testCtx(), first.Token)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleBusinessOwner, p.Role)

	second := f.login(t, "ann@acme.io")
	_, err = f.svc.Authenticate(testCtx(), first.Token)
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
	_, err = f.svc.Authenticate(testCtx(), second.Token)
	assert.NoError(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)
	resp := f.login(t, "ann@acme.io")
	p, err := f.svc.Authenticate(testCtx(), resp.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(testCtx(), p))
	_, err = f.svc.Authenticate(testCtx(), resp.Token)
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	f := newAuthFixture(t)
	u := f.user(t, "ann@acme.io", authz.RoleProductionManager, &f.tenant.ID)
	resp := f.login(t, "ann@acme.io")

	// demoted after the token was issued
	u.Role = f.roles.roles[authz.RoleProductionStaff]
	p, err := f.svc.Authenticate(testCtx(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleProductionStaff, p.Role)
	assert.False(t, p.Has(authz.PermManageMaterials))
}

func TestSignupAssignsClientRole(t *testing.T) {
	f := newAuthFixture(t)
	resp, err := f.svc.Signup(testCtx(), SignupRequest{
		Name: "Carl", Email: "Carl@Example.com", Password: "long enough", TenantSlug: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "client", resp.User.Role)
	assert.Equal(t, "carl@example.com", resp.User.Email)
	assert.Equal(t, &f.tenant.ID, resp.User.TenantID)

	_, err = f.svc.Signup(testCtx(), SignupRequest{
		Name: "Carl", Email: "carl@example.com", Password: "long enough", TenantSlug: "acme",
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.svc.Signup(testCtx(), SignupRequest{
		Name: "Dee", Email: "dee@example.com", Password: "long enough", TenantSlug: "nowhere",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChangePasswordIssuesFreshToken(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)
	old := f.login(t, "ann@acme.io")
	p, err := f.svc.Authenticate(testCtx(), old.Token)
	require.NoError(t, err)

	_, err = f.svc.ChangePassword(testCtx(), p, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "brand new pass"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	fresh, err := f.svc.ChangePassword(testCtx(), p, ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "brand new pass"})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(testCtx(), old.Token)
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
	_, err = f.svc.Authenticate(testCtx(), fresh.Token)
	assert.NoError(t, err)

	_, err = f.svc.Login(testCtx(), LoginRequest{Email: "ann@acme.io", Password: "brand new pass"})
	assert.NoError(t, err)
}

func TestReadOnlyImpersonation(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "root@platform.io", authz.RoleSuperAdmin, nil)
	owner := f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)

	admin, err := f.svc.Authenticate(testCtx(), f.login(t, "root@platform.io").Token)
	require.NoError(t, err)

	resp, err := f.svc.Impersonate(testCtx(), admin, ImpersonateRequest{UserID: owner.ID, ReadOnly: true})
	require.NoError(t, err)

	p, err := f.svc.Authenticate(testCtx(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, p.UserID)
	assert.True(t, p.Impersonation)
	assert.True(t, p.ReadOnly)
	require.NotNil(t, p.ImpersonatorID)
	assert.Equal(t, admin.UserID, *p.ImpersonatorID)
	assert.True(t, p.Has(authz.PermViewOrders))
	assert.False(t, p.Has(authz.PermCreateOrder))

	_, err = f.svc.ChangePassword(testCtx(), p, ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "brand new pass"})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = f.svc.Impersonate(testCtx(), p, ImpersonateRequest{UserID: admin.UserID})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)

	// ending the impersonated session ends the admin's as well
	require.NoError(t, f.svc.Logout(testCtx(), p))
	_, err = f.svc.Authenticate(testCtx(), resp.Token)
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
}

func TestImpersonationGuards(t *testing.T) {
	f := newAuthFixture(t)
	f.user(t, "root@platform.io", authz.RoleSuperAdmin, nil)
	other := f.user(t, "root2@platform.io", authz.RoleSuperAdmin, nil)
	inactive := f.user(t, "gone@acme.io", authz.RoleClient, &f.tenant.ID)
	inactive.IsActive = false
	f.user(t, "ann@acme.io", authz.RoleBusinessOwner, &f.tenant.ID)

	admin, err := f.svc.Authenticate(testCtx(), f.login(t, "root@platform.io").Token)
	require.NoError(t, err)

	_, err = f.svc.Impersonate(testCtx(), admin, ImpersonateRequest{UserID: admin.UserID})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.svc.Impersonate(testCtx(), admin, ImpersonateRequest{UserID: other.ID})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	_, err = f.svc.Impersonate(testCtx(), admin, ImpersonateRequest{UserID: inactive.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	owner, err := f.svc.Authenticate(testCtx(), f.login(t, "ann@acme.io").Token)
	require.NoError(t, err)
	_, err = f.svc.Impersonate(testCtx(), owner, ImpersonateRequest{UserID: inactive.ID})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
}
