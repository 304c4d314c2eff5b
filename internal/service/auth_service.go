package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"printshop-api/internal/apperror"
	"printshop-api/internal/authz"
	"printshop-api/internal/model"
	"printshop-api/internal/repository"
	"printshop-api/pkg/jwt"
	"printshop-api/pkg/validator"

	"github.com/google/uuid"
)

var (
	errInvalidCredentials = apperror.Unauthenticated("invalid email or password")
	errUserInactive       = apperror.Unauthenticated("user account is inactive")
	errSessionExpired     = apperror.Unauthenticated("session expired, please log in again")
)

type SignupRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	TenantSlug string `json:"tenant_slug" validate:"required,slug"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type ImpersonateRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"uuid_required"`
	ReadOnly bool      `json:"read_only"`
}

type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expires_at"`
	User      model.UserResponse `json:"user"`
}

type ProfileResponse struct {
	model.UserResponse
	Impersonation  bool       `json:"is_impersonation"`
	ReadOnly       bool       `json:"read_only"`
	ImpersonatorID *uuid.UUID `json:"impersonator_id,omitempty"`
}

type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	// Authenticate turns a bearer token into the principal of the request.
	Authenticate(ctx context.Context, token string) (authz.Principal, error)
	Profile(ctx context.Context, p authz.Principal) (*ProfileResponse, error)
	Logout(ctx context.Context, p authz.Principal) error
	ChangePassword(ctx context.Context, p authz.Principal, req ChangePasswordRequest) (*AuthResponse, error)
	Impersonate(ctx context.Context, p authz.Principal, req ImpersonateRequest) (*AuthResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	tenantRepo repository.TenantRepository
	tokens     *jwt.Manager
	policy     *authz.Policy
	activity   ActivityService
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tenantRepo repository.TenantRepository,
	tokens *jwt.Manager,
	policy *authz.Policy,
	activity ActivityService,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tenantRepo: tenantRepo,
		tokens:     tokens,
		policy:     policy,
		activity:   activity,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	// 1. Tenant must exist and accept customers
	tenant, err := s.tenantRepo.FindBySlug(ctx, req.TenantSlug)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return nil, apperror.Validation("tenant %q is not accepting signups", req.TenantSlug)
	}

	// 2. Email must be free
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	// 3. Public signup only ever assigns a self-service role
	role, err := s.selfServiceRole(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		RoleID:   role.ID,
		TenantID: &tenant.ID,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err)
	}
	user.RotateTokenVersion()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role

	resp, err := s.issue(user, jwt.Claims{TokenVersion: user.TokenVersion})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, ActivityEntry{
		Action: model.ActionSignup, UserID: &user.ID, TenantID: user.TenantID,
		EntityType: "user", EntityID: user.ID.String(), EntityName: user.Email,
	})
	return resp, nil
}

func (s *authService) selfServiceRole(ctx context.Context) (*model.Role, error) {
	for _, rp := range s.policy.Roles() {
		if rp.SelfService {
			return s.roleRepo.FindByName(ctx, rp.Name)
		}
	}
	return nil, apperror.Internal(errors.New("no self-service role configured"))
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// 2. Verify password, then status
	if !user.CheckPassword(req.Password) {
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, errUserInactive
	}

	// 3. Single session: a new token version invalidates older tokens
	version := user.RotateTokenVersion()
	at := now()
	if err := s.userRepo.RecordLogin(ctx, user.ID, version, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at

	resp, err := s.issue(user, jwt.Claims{TokenVersion: version})
	if err != nil {
		return nil, err
	}
	s.activity.Log(ctx, ActivityEntry{
		Action: model.ActionLogin, UserID: &user.ID, TenantID: user.TenantID,
		EntityType: "user", EntityID: user.ID.String(), EntityName: user.Email,
	})
	return resp, nil
}

// issue signs a token for user. base carries the session fields; identity
// fields are filled from the user.
func (s *authService) issue(user *model.User, base jwt.Claims) (*AuthResponse, error) {
	p, err := s.policy.Principal(authz.Identity{
		UserID:        user.ID,
		TenantID:      user.TenantID,
		Role:          user.RoleName(),
		Impersonation: base.IsImpersonation,
		ReadOnly:      base.ReadOnly,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	base.UserID = user.ID
	base.TenantID = user.TenantID
	base.Email = user.Email
	base.Name = user.Name
	base.Role = string(user.RoleName())
	base.Permissions = p.Permissions.Strings()

	token, expiresAt, err := s.tokens.Generate(base)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	resp := user.ToResponse()
	resp.Permissions = base.Permissions
	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: resp}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (authz.Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return authz.Principal{}, apperror.Unauthenticated(err.Error())
	}

	// The session belongs to whoever logged in: the impersonator for
	// impersonation tokens, the user otherwise.
	sessionOwner := claims.UserID
	if claims.IsImpersonation {
		if claims.ImpersonatorID == nil {
			return authz.Principal{}, apperror.Unauthenticated(jwt.ErrInvalidToken.Error())
		}
		sessionOwner = *claims.ImpersonatorID
	}
	owner, err := s.activeUser(ctx, sessionOwner)
	if err != nil {
		return authz.Principal{}, err
	}
	if owner.TokenVersion != claims.TokenVersion {
		return authz.Principal{}, errSessionExpired
	}

	user := owner
	if claims.IsImpersonation {
		if user, err = s.activeUser(ctx, claims.UserID); err != nil {
			return authz.Principal{}, err
		}
	}

	// Role and tenant come from the database, so demotions apply immediately.
	id := user.Identity()
	id.Impersonation = claims.IsImpersonation
	id.ReadOnly = claims.ReadOnly
	id.ImpersonatorID = claims.ImpersonatorID
	p, err := s.policy.Principal(id)
	if err != nil {
		return authz.Principal{}, apperror.Unauthenticated("unknown role")
	}
	return p, nil
}

func (s *authService) activeUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errUserInactive
	}
	return user, nil
}

func (s *authService) Profile(ctx context.Context, p authz.Principal) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	resp.Permissions = p.Permissions.Strings()
	return &ProfileResponse{
		UserResponse:   resp,
		Impersonation:  p.Impersonation,
		ReadOnly:       p.ReadOnly,
		ImpersonatorID: p.ImpersonatorID,
	}, nil
}

// Logout ends the session. For an impersonation token this ends the
// impersonator's session as well, since both share one token version.
func (s *authService) Logout(ctx context.Context, p authz.Principal) error {
	owner := p.UserID
	if p.Impersonation && p.ImpersonatorID != nil {
		owner = *p.ImpersonatorID
	}
	if err := s.userRepo.UpdateTokenVersion(ctx, owner, uuid.NewString()); err != nil {
		return err
	}
	s.activity.Log(ctx, entryFor(p, p.TenantID, model.ActionLogout, "user", p.UserID, p.Email))
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, p authz.Principal, req ChangePasswordRequest) (*AuthResponse, error) {
	if p.Impersonation {
		return nil, apperror.Forbidden("password cannot be changed while impersonating")
	}
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return nil, apperror.Validation("current password is incorrect")
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return nil, apperror.Internal(err)
	}
	version := user.RotateTokenVersion()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.PasswordHash, version); err != nil {
		return nil, err
	}

	s.activity.Log(ctx, entryFor(p, user.TenantID, model.ActionPassword, "user", user.ID, user.Email))
	return s.issue(user, jwt.Claims{TokenVersion: version})
}

func (s *authService) Impersonate(ctx context.Context, p authz.Principal, req ImpersonateRequest) (*AuthResponse, error) {
	if !p.Has(authz.PermImpersonateUsers) {
		return nil, apperror.Forbidden("missing permission %s", authz.PermImpersonateUsers)
	}
	if p.Impersonation {
		return nil, apperror.Forbidden("cannot impersonate while impersonating")
	}
	if err := validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if req.UserID == p.UserID {
		return nil, apperror.Validation("cannot impersonate yourself")
	}

	target, err := s.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if target.TenantID != nil && !p.CanAccessTenant(*target.TenantID) {
		return nil, apperror.NotFound("user")
	}
	if !target.IsActive {
		return nil, apperror.InvalidState("user account is inactive")
	}
	if rp, ok := s.policy.Profile(target.RoleName()); !ok || rp.BypassTenant {
		return nil, apperror.Forbidden("this user cannot be impersonated")
	}

	// The token rides on the impersonator's session.
	self, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	impersonator := p.UserID
	resp, err := s.issue(target, jwt.Claims{
		TokenVersion:    self.TokenVersion,
		IsImpersonation: true,
		ReadOnly:        req.ReadOnly,
		ImpersonatorID:  &impersonator,
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(ctx, entryFor(p, target.TenantID, model.ActionImpersonate, "user", target.ID, target.Email).
		with("read_only", req.ReadOnly))
	return resp, nil
}
