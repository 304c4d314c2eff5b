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

type ProductRequest struct {
	SKU         string `json:"sku" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=100"`
	Unit        string `json:"unit" validate:"max=20"`
	BasePrice   int64  `json:"base_price" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

type TenantProductRequest struct {
	Price       int64 `json:"price" validate:"gte=0"`
	IsAvailable *bool `json:"is_available"`
}

type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, p authz.Principal, req ProductRequest) (*model.Product, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error

	// Catalog lists what a tenant sells. Principals that cannot manage the
	// catalog only see available entries.
	Catalog(ctx context.Context, p authz.Principal, tenantID *uuid.UUID) ([]model.TenantProduct, error)
	SetTenantPrice(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, productID uuid.UUID, req TenantProductRequest) (*model.TenantProduct, error)
	RemoveTenantProduct(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, productID uuid.UUID) error
}

type productService struct {
	repo     repository.ProductRepository
	activity ActivityService
}

func NewProductService(repo repository.ProductRepository, activity ActivityService) ProductService {
	return &productService{repo: repo, activity: activity}
}

func (s *productService) List(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	return s.repo.FindAll(ctx, f)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *productService) Create(ctx context.Context, p authz.Principal, req ProductRequest) (*model.Product, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	product := &model.Product{
		SKU:         strings.ToUpper(strings.TrimSpace(req.SKU)),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Unit:        req.Unit,
		BasePrice:   req.BasePrice,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, nil, model.ActionCreate, "product", product.ID, product.Name))
	return product, nil
}

func (s *productService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req ProductRequest) (*model.Product, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Category = req.Category
	product.Unit = req.Unit
	product.BasePrice = req.BasePrice
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, nil, model.ActionUpdate, "product", product.ID, product.Name))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, nil, model.ActionDelete, "product", id, ""))
	return nil
}

// targetTenant picks the tenant a write operates on. Only unrestricted
// principals may name one; everyone else works on their own.
func targetTenant(p authz.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if p.BypassesTenant() {
		if requested == nil {
			return uuid.Nil, apperror.ValidationFields("tenant_id is required", []apperror.FieldError{{Field: "tenant_id", Tag: "required"}})
		}
		return *requested, nil
	}
	if p.TenantID == nil {
		return uuid.Nil, apperror.Forbidden("no tenant assigned")
	}
	return *p.TenantID, nil
}

func canManageCatalog(p authz.Principal) bool {
	return p.HasAny(authz.PermManageProducts, authz.PermManageTenantCatalog)
}

func (s *productService) Catalog(ctx context.Context, p authz.Principal, tenantID *uuid.UUID) ([]model.TenantProduct, error) {
	tid, err := targetTenant(p, tenantID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindTenantProducts(ctx, tid, !canManageCatalog(p))
}

func (s *productService) SetTenantPrice(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, productID uuid.UUID, req TenantProductRequest) (*model.TenantProduct, error) {
	if !canManageCatalog(p) {
		return nil, apperror.Forbidden("missing permission %s", authz.PermManageTenantCatalog)
	}
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	tid, err := targetTenant(p, tenantID)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperror.InvalidState("product %s is inactive", product.SKU)
	}

	tp := &model.TenantProduct{
		TenantID:    tid,
		ProductID:   productID,
		Price:       req.Price,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := s.repo.UpsertTenantProduct(ctx, tp); err != nil {
		return nil, err
	}
	tp.Product = product
	s.activity.Log(ctx, entryFor(p, &tid, model.ActionUpdate, "tenant_product", productID, product.Name).
		with("price", req.Price))
	return tp, nil
}

func (s *productService) RemoveTenantProduct(ctx context.Context, p authz.Principal, tenantID *uuid.UUID, productID uuid.UUID) error {
	if !canManageCatalog(p) {
		return apperror.Forbidden("missing permission %s", authz.PermManageTenantCatalog)
	}
	tid, err := targetTenant(p, tenantID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTenantProduct(ctx, tid, productID); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, &tid, model.ActionDelete, "tenant_product", productID, ""))
	return nil
}
