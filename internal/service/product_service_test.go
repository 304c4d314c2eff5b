package service

import (
	"context"
	"testing"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogRepo struct {
	repository.ProductRepository
	products      map[uuid.UUID]*model.Product
	offers        []model.TenantProduct
	availableOnly *bool
}

func (c *catalogRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	return nil, apperror.NotFound("product")
}

func (c *catalogRepo) UpsertTenantProduct(_ context.Context, tp *model.TenantProduct) error {
	c.offers = append(c.offers, *tp)
	return nil
}

func (c *catalogRepo) FindTenantProducts(_ context.Context, tenantID uuid.UUID, availableOnly bool) ([]model.TenantProduct, error) {
	c.availableOnly = &availableOnly
	var out []model.TenantProduct
	for _, tp := range c.offers {
		if tp.TenantID == tenantID {
			out = append(out, tp)
		}
	}
	return out, nil
}

func newCatalog(active bool) (*catalogRepo, uuid.UUID) {
	p := &model.Product{SKU: "BC-500", Name: "Business cards", IsActive: active}
	p.ID = uuid.New()
	return &catalogRepo{products: map[uuid.UUID]*model.Product{p.ID: p}}, p.ID
}

func TestOwnerPricesOnlyOwnTenant(t *testing.T) {
	repo, productID := newCatalog(true)
	svc := NewProductService(repo, NewActivityService(&memActivity{}))
	tenant := newTenant()
	owner := principal(t, authz.RoleBusinessOwner, tenant)

	other := uuid.New()
	tp, err := svc.SetTenantPrice(testCtx(), owner, &other, productID, TenantProductRequest{Price: 2500})
	require.NoError(t, err)
	assert.Equal(t, *tenant, tp.TenantID)
	assert.Equal(t, int64(2500), tp.Price)
	assert.True(t, tp.IsAvailable)
}

func TestStaffCannotPrice(t *testing.T) {
	repo, productID := newCatalog(true)
	svc := NewProductService(repo, NewActivityService(&memActivity{}))
	staff := principal(t, authz.RoleProductionStaff, newTenant())

	_, err := svc.SetTenantPrice(testCtx(), staff, nil, productID, TenantProductRequest{Price: 1})
	assert.ErrorIs(t, err, apperror.ErrAuthorization)
	assert.Empty(t, repo.offers)
}

func TestInactiveProductCannotBeOffered(t *testing.T) {
	repo, productID := newCatalog(false)
	svc := NewProductService(repo, NewActivityService(&memActivity{}))
	admin := principal(t, authz.RoleSuperAdmin, nil)

	_, err := svc.SetTenantPrice(testCtx(), admin, newTenant(), productID, TenantProductRequest{Price: 1})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = svc.SetTenantPrice(testCtx(), admin, nil, productID, TenantProductRequest{Price: 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestClientsSeeAvailableCatalogOnly(t *testing.T) {
	repo, _ := newCatalog(true)
	svc := NewProductService(repo, NewActivityService(&memActivity{}))
	tenant := newTenant()

	_, err := svc.Catalog(testCtx(), principal(t, authz.RoleClient, tenant), nil)
	require.NoError(t, err)
	require.NotNil(t, repo.availableOnly)
	assert.True(t, *repo.availableOnly)

	_, err = svc.Catalog(testCtx(), principal(t, authz.RoleBusinessOwner, tenant), nil)
	require.NoError(t, err)
	assert.False(t, *repo.availableOnly)
}
