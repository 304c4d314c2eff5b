package service

import (
	"context"
	"errors"
	"strings"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Name     string     `json:"name" validate:"required,max=255"`
	Role     string     `json:"role" validate:"required"`
	TenantID *uuid.UUID `json:"tenant_id"`
	IsActive *bool      `json:"is_active"`
}

type UpdateUserRequest struct {
	Email    *string    `json:"email" validate:"omitempty,email,max=255"`
	Password *string    `json:"password" validate:"omitempty,min=8,max=72"`
	Name     *string    `json:"name" validate:"omitempty,max=255"`
	Role     *string    `json:"role"`
	TenantID *uuid.UUID `json:"tenant_id"`
	IsActive *bool      `json:"is_active"`
}

type UserListQuery struct {
	TenantID *uuid.UUID
	Role     string
	IsActive *bool
	Search   string
	Page     repository.Page
}

type UserService interface {
	Create(ctx context.Context, p authz.Principal, req CreateUserRequest) (*model.UserResponse, error)
	List(ctx context.Context, p authz.Principal, q UserListQuery) ([]model.UserResponse, error)
	Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.UserResponse, error)
	Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateUserRequest) (*model.UserResponse, error)
	Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error
	Roles(ctx context.Context) ([]model.Role, error)
}

type userService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	tenantRepo repository.TenantRepository
	policy     *authz.Policy
	activity   ActivityService
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tenantRepo repository.TenantRepository,
	policy *authz.Policy,
	activity ActivityService,
) UserService {
	return &userService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tenantRepo: tenantRepo,
		policy:     policy,
		activity:   activity,
	}
}

// assignableRole resolves a role name that an administrator may hand out.
// Platform-wide roles are seeded, never assigned through the API.
func (s *userService) assignableRole(ctx context.Context, name string) (*model.Role, authz.RoleProfile, error) {
	rp, ok := s.policy.Profile(authz.RoleName(name))
	if !ok {
		return nil, rp, apperror.ValidationFields("unknown role "+name, []apperror.FieldError{{Field: "role", Tag: "oneof"}})
	}
	if rp.BypassTenant {
		return nil, rp, apperror.Forbidden("role %s cannot be assigned", name)
	}
	role, err := s.roleRepo.FindByName(ctx, rp.Name)
	return role, rp, err
}

func (s *userService) requireTenant(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return apperror.ValidationFields("tenant_id is required for this role", []apperror.FieldError{{Field: "tenant_id", Tag: "required"}})
	}
	_, err := s.tenantRepo.FindByID(ctx, *id)
	return err
}

func (s *userService) Create(ctx context.Context, p authz.Principal, req CreateUserRequest) (*model.UserResponse, error) {
	// 1. Validate request
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	role, _, err := s.assignableRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.requireTenant(ctx, req.TenantID); err != nil {
		return nil, err
	}

	// 2. Check if email already exists
	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	// 3. Create
	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		RoleID:   role.ID,
		TenantID: req.TenantID,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err)
	}
	user.RotateTokenVersion()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role

	s.activity.Log(ctx, entryFor(p, user.TenantID, model.ActionCreate, "user", user.ID, user.Email).
		with("role", role.Name))
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) List(ctx context.Context, p authz.Principal, q UserListQuery) ([]model.UserResponse, error) {
	filter := repository.UserFilter{TenantID: q.TenantID, IsActive: q.IsActive, Search: q.Search, Page: q.Page}
	if !p.BypassesTenant() {
		filter.TenantID = p.TenantID
		if filter.TenantID == nil {
			return []model.UserResponse{}, nil
		}
	}
	if q.Role != "" {
		role, err := s.roleRepo.FindByName(ctx, authz.RoleName(q.Role))
		if errors.Is(err, apperror.ErrNotFound) {
			return []model.UserResponse{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.RoleID = &role.ID
	}

	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}

// load hides users of other tenants behind NotFound.
func (s *userService) load(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.BypassesTenant() && (user.TenantID == nil || !p.CanAccessTenant(*user.TenantID)) {
		return nil, apperror.NotFound("user")
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, p authz.Principal, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, p authz.Principal, id uuid.UUID, req UpdateUserRequest) (*model.UserResponse, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if rp, ok := s.policy.Profile(user.RoleName()); ok && rp.BypassTenant && user.ID != p.UserID {
		return nil, apperror.Forbidden("platform administrators can only be changed by themselves")
	}

	invalidate := false
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil && *req.Role != string(user.RoleName()) {
		role, _, err := s.assignableRole(ctx, *req.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = role.ID
		user.Role = role
		invalidate = true
	}
	if req.TenantID != nil {
		user.TenantID = req.TenantID
		user.Tenant = nil
	}
	if rp, _ := s.policy.Profile(user.RoleName()); !rp.BypassTenant {
		if err := s.requireTenant(ctx, user.TenantID); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		if !*req.IsActive && user.ID == p.UserID {
			return nil, apperror.Validation("you cannot deactivate your own account")
		}
		invalidate = invalidate || user.IsActive != *req.IsActive
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, apperror.Internal(err)
		}
		invalidate = true
	}
	if invalidate {
		user.RotateTokenVersion()
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.activity.Log(ctx, entryFor(p, user.TenantID, model.ActionUpdate, "user", user.ID, user.Email))
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	if id == p.UserID {
		return apperror.Validation("you cannot delete your own account")
	}
	user, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if rp, ok := s.policy.Profile(user.RoleName()); ok && rp.BypassTenant {
		return apperror.Forbidden("platform administrators cannot be deleted")
	}
	if err := s.userRepo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, user.TenantID, model.ActionDelete, "user", user.ID, user.Email))
	return nil
}

func (s *userService) Roles(ctx context.Context) ([]model.Role, error) {
	return s.roleRepo.FindAll(ctx)
}
