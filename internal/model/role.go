package model

import "printshop-api/internal/authz"

// Role is the persisted copy of an authz.RoleProfile. The policy table stays the
// source of truth; this row exists for foreign keys and listings.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	DisplayName string       `gorm:"type:varchar(100)" json:"display_name"`
	Description string       `gorm:"type:text" json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

func (r Role) RoleName() authz.RoleName { return authz.RoleName(r.Name) }

// RoleFromProfile builds the role row (without permissions) for a profile.
func RoleFromProfile(rp authz.RoleProfile) Role {
	return Role{
		Name:        string(rp.Name),
		DisplayName: rp.DisplayName,
		Description: rp.Description,
	}
}
