package model

import (
	"time"

	"printshop-api/internal/authz"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	RoleID        uint       `gorm:"index;not null" json:"role_id"`
	Role          *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	TenantID      *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Tenant        *Tenant    `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	TokenVersion  string     `gorm:"type:varchar(64);default:''" json:"-"` // rotated on login, logout and password change
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RotateTokenVersion invalidates every token issued before the call.
func (u *User) RotateTokenVersion() string {
	u.TokenVersion = uuid.NewString()
	return u.TokenVersion
}

// RoleName is empty when Role was not preloaded.
func (u *User) RoleName() authz.RoleName {
	if u.Role == nil {
		return ""
	}
	return u.Role.RoleName()
}

// Identity is the authz input for this user acting as themselves.
func (u *User) Identity() authz.Identity {
	return authz.Identity{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.RoleName(),
	}
}

type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	TenantID      *uuid.UUID `json:"tenant_id,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Permissions   []string   `json:"permissions,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.RoleName()),
		TenantID:      u.TenantID,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}
