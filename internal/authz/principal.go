package authz

import "github.com/google/uuid"

// Principal is the authenticated identity of one request.
type Principal struct {
	UserID         uuid.UUID
	TenantID       *uuid.UUID
	Email          string
	Name           string
	Role           RoleName
	Permissions    PermissionSet
	Impersonation  bool
	ReadOnly       bool
	ImpersonatorID *uuid.UUID

	profile RoleProfile
}

func (p Principal) Has(perm Permission) bool {
	return p.Permissions.Has(perm)
}

func (p Principal) HasAll(perms ...Permission) bool {
	for _, perm := range perms {
		if !p.Permissions.Has(perm) {
			return false
		}
	}
	return true
}

func (p Principal) HasAny(perms ...Permission) bool {
	for _, perm := range perms {
		if p.Permissions.Has(perm) {
			return true
		}
	}
	return false
}

func (p Principal) BypassesTenant() bool { return p.profile.BypassTenant }

func (p Principal) Administrative() bool { return p.profile.Administrative }

func (p Principal) OwnRecordsOnly() bool { return p.profile.OwnRecordsOnly }

// Owns reports whether the principal created a record owned by userID.
func (p Principal) Owns(userID uuid.UUID) bool { return p.UserID == userID }

// CanAccessTenant is the write-side counterpart of Scope for records that are
// looked up by something other than a scoped query.
func (p Principal) CanAccessTenant(tenantID uuid.UUID) bool {
	if p.profile.BypassTenant {
		return true
	}
	return p.TenantID != nil && *p.TenantID == tenantID
}

// Scope is the row filter every repository query applies for this principal.
func (p Principal) Scope() Scope {
	if p.profile.BypassTenant {
		return Scope{Unrestricted: true}
	}
	s := Scope{TenantID: p.TenantID}
	if p.profile.OwnRecordsOnly {
		owner := p.UserID
		s.OwnerID = &owner
	}
	return s
}

// Scope restricts queries to one tenant and optionally one owning user.
// A restricted scope without a tenant matches nothing.
type Scope struct {
	Unrestricted bool
	TenantID     *uuid.UUID
	OwnerID      *uuid.UUID
}

// ForTenant narrows an unrestricted scope to a single tenant. Restricted scopes
// are returned unchanged.
func (s Scope) ForTenant(tenantID *uuid.UUID) Scope {
	if !s.Unrestricted || tenantID == nil {
		return s
	}
	return Scope{TenantID: tenantID}
}

// Allows checks a loaded row against the scope. ownerID may be nil for rows
// without an owner column.
func (s Scope) Allows(tenantID uuid.UUID, ownerID *uuid.UUID) bool {
	if s.Unrestricted {
		return true
	}
	if s.TenantID == nil || *s.TenantID != tenantID {
		return false
	}
	if s.OwnerID != nil {
		return ownerID != nil && *ownerID == *s.OwnerID
	}
	return true
}

// TenantOnly drops the owner restriction. Used for tenant-wide resources such as
// materials that have no owning user.
func (s Scope) TenantOnly() Scope {
	s.OwnerID = nil
	return s
}
