package service

import (
	"context"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
)

type TenantRequest struct {
	Name     string  `json:"name" validate:"required,max=150"`
	Slug     string  `json:"slug" validate:"omitempty,slug"`
	Domain   *string `json:"domain" validate:"omitempty,domain"`
	IsActive *bool   `json:"is_active"`
}

type TenantService interface {
	Create(ctx context.Context, p authz.Principal, req TenantRequest) (*model.Tenant, error)
	List(ctx context.Context, activeOnly bool) ([]model.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req TenantRequest) (*model.Tenant, error)
	// Delete refuses while users or catalog entries still belong to the tenant.
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
}

type tenantService struct {
	repo     repository.TenantRepository
	activity ActivityService
}

func NewTenantService(repo repository.TenantRepository, activity ActivityService) TenantService {
	return &tenantService{repo: repo, activity: activity}
}

// slugFor uses the requested slug or derives one from the name.
func slugFor(req TenantRequest) (string, error) {
	slug := req.Slug
	if slug == "" {
		slug = model.Slugify(req.Name)
	}
	if !model.ValidSlug(slug) {
		return "", apperror.ValidationFields("cannot derive a slug from name", []apperror.FieldError{{Field: "slug", Tag: "slug"}})
	}
	return slug, nil
}

func domainOf(d *string) *string {
	if d == nil || *d == "" {
		return nil
	}
	lower := strings.ToLower(*d)
	return &lower
}

func (s *tenantService) Create(ctx context.Context, p authz.Principal, req TenantRequest) (*model.Tenant, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	slug, err := slugFor(req)
	if err != nil {
		return nil, err
	}
	tenant := &model.Tenant{
		Name:     strings.TrimSpace(req.Name),
		Slug:     slug,
		Domain:   domainOf(req.Domain),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, &tenant.ID, model.ActionCreate, "tenant", tenant.ID, tenant.Name))
	return tenant, nil
}

func (s *tenantService) List(ctx context.Context, activeOnly bool) ([]model.Tenant, error) {
	return s.repo.FindAll(ctx, activeOnly)
}

func (s *tenantService) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *tenantService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req TenantRequest) (*model.Tenant, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.Name = strings.TrimSpace(req.Name)
	if req.Slug != "" {
		tenant.Slug = req.Slug
	}
	if req.Domain != nil {
		tenant.Domain = domainOf(req.Domain)
	}
	if req.IsActive != nil {
		tenant.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, &tenant.ID, model.ActionUpdate, "tenant", tenant.ID, tenant.Name))
	return tenant, nil
}

func (s *tenantService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	users, products, err := s.repo.DeleteIfUnused(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 || products > 0 {
		return apperror.Conflict("cannot delete tenant: %d user(s) and %d product(s) still assigned", users, products)
	}
	s.activity.Log(ctx, entryFor(p, nil, model.ActionDelete, "tenant", id, ""))
	return nil
}
