package service

import (
	"context"
	"testing"

	"printshop-api/internal/authz"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testPolicy = authz.DefaultPolicy()

func principal(t *testing.T, role authz.RoleName, tenantID *uuid.UUID) authz.Principal {
	t.Helper()
	p, err := testPolicy.Principal(authz.Identity{
		UserID: uuid.New(), TenantID: tenantID, Role: role, Name: string(role),
	})
	require.NoError(t, err)
	return p
}

func newTenant() *uuid.UUID {
	id := uuid.New()
	return &id
}

func testCtx() context.Context {
	return WithRequestMeta(context.Background(), RequestMeta{IP: "10.0.0.1", UserAgent: "test", RequestID: "req-1"})
}
