package authz

import (
	"fmt"

	"github.com/google/uuid"
)

type RoleName string

const (
	RoleSuperAdmin        RoleName = "super_admin"
	RoleBusinessOwner     RoleName = "business_owner"
	RoleProductionOwner   RoleName = "production_owner"
	RoleProductionManager RoleName = "production_manager"
	RoleProductionStaff   RoleName = "production_staff"
	RoleMachineOperator   RoleName = "machine_operator"
	RoleQualityInspector  RoleName = "quality_inspector"
	RoleClient            RoleName = "client"
)

// RoleProfile is everything the rest of the system needs to know about a role.
// Code asks the profile instead of comparing role names.
type RoleProfile struct {
	Name        RoleName
	DisplayName string
	Description string
	Permissions []Permission

	// BypassTenant disables tenant scoping entirely.
	BypassTenant bool
	// OwnRecordsOnly narrows orders, deliveries and tickets to the principal's own rows.
	OwnRecordsOnly bool
	// Administrative roles may act on orders created by other users of the tenant.
	Administrative bool
	// SelfService roles are the only ones public signup may assign.
	SelfService bool
}

// Policy is the role table. It is built once at startup and never mutated.
type Policy struct {
	order    []RoleName
	profiles map[RoleName]RoleProfile
	sets     map[RoleName]PermissionSet
}

func NewPolicy(profiles []RoleProfile) (*Policy, error) {
	p := &Policy{
		profiles: make(map[RoleName]RoleProfile, len(profiles)),
		sets:     make(map[RoleName]PermissionSet, len(profiles)),
	}
	known := NewPermissionSet(AllPermissions...)
	for _, rp := range profiles {
		if _, dup := p.profiles[rp.Name]; dup {
			return nil, fmt.Errorf("authz: duplicate role %q", rp.Name)
		}
		for _, perm := range rp.Permissions {
			if !known.Has(perm) {
				return nil, fmt.Errorf("authz: role %q lists unknown permission %q", rp.Name, perm)
			}
		}
		p.order = append(p.order, rp.Name)
		p.profiles[rp.Name] = rp
		p.sets[rp.Name] = NewPermissionSet(rp.Permissions...)
	}
	return p, nil
}

// DefaultPolicy is the print-shop role table.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultProfiles())
	if err != nil {
		panic(err)
	}
	return p
}

func DefaultProfiles() []RoleProfile {
	staffViews := []Permission{
		PermViewProducts, PermViewOrders, PermViewDeliveries, PermViewTickets,
		PermViewMaterials, PermViewEquipment, PermViewDashboard,
	}
	manager := append(append([]Permission{}, staffViews...),
		PermUpdateOrder, PermCancelOrder,
		PermManageDeliveries,
		PermCreateTicket, PermUpdateTicket, PermCommentTicket,
		PermManageMaterials, PermAdjustStock,
		PermManageEquipment, PermLogMaintenance,
		PermViewActivity,
	)

	return []RoleProfile{
		{
			Name:           RoleSuperAdmin,
			DisplayName:    "Super Administrator",
			Description:    "Platform operator with access to every tenant",
			Permissions:    AllPermissions,
			BypassTenant:   true,
			Administrative: true,
		},
		{
			Name:        RoleBusinessOwner,
			DisplayName: "Business Owner",
			Description: "Owns a print shop and everything inside it",
			Permissions: append(append([]Permission{}, manager...),
				PermViewUsers, PermManageTenantCatalog, PermCreateOrder,
				PermDeleteOrder, PermDeleteTicket,
			),
			Administrative: true,
		},
		{
			Name:           RoleProductionOwner,
			DisplayName:    "Production Owner",
			Description:    "Runs production for the shop",
			Permissions:    append(append([]Permission{}, manager...), PermViewUsers),
			Administrative: true,
		},
		{
			Name:           RoleProductionManager,
			DisplayName:    "Production Manager",
			Description:    "Schedules and supervises production work",
			Permissions:    manager,
			Administrative: true,
		},
		{
			Name:        RoleProductionStaff,
			DisplayName: "Production Staff",
			Description: "Works orders through the production floor",
			Permissions: append(append([]Permission{}, staffViews...),
				PermUpdateOrder, PermManageDeliveries,
				PermCreateTicket, PermUpdateTicket, PermCommentTicket,
				PermAdjustStock, PermLogMaintenance,
			),
		},
		{
			Name:        RoleMachineOperator,
			DisplayName: "Machine Operator",
			Description: "Operates presses and logs maintenance",
			Permissions: []Permission{
				PermViewOrders, PermUpdateOrder,
				PermViewMaterials, PermAdjustStock,
				PermViewEquipment, PermLogMaintenance,
				PermViewTickets, PermCreateTicket, PermCommentTicket,
			},
		},
		{
			Name:        RoleQualityInspector,
			DisplayName: "Quality Inspector",
			Description: "Checks finished work before it ships",
			Permissions: []Permission{
				PermViewOrders, PermUpdateOrder,
				PermViewDeliveries,
				PermViewTickets, PermCreateTicket, PermUpdateTicket, PermCommentTicket,
				PermViewMaterials,
			},
		},
		{
			Name:        RoleClient,
			DisplayName: "Client",
			Description: "Customer placing print orders",
			Permissions: []Permission{
				PermViewProducts,
				PermViewOrders, PermCreateOrder, PermCancelOrder,
				PermViewDeliveries,
				PermViewTickets, PermCreateTicket, PermCommentTicket,
			},
			OwnRecordsOnly: true,
			SelfService:    true,
		},
	}
}

func (p *Policy) Profile(role RoleName) (RoleProfile, bool) {
	rp, ok := p.profiles[role]
	return rp, ok
}

// Roles returns the profiles in declaration order.
func (p *Policy) Roles() []RoleProfile {
	out := make([]RoleProfile, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.profiles[name])
	}
	return out
}

// Permissions returns the role's permission set, reduced to read-only permissions
// when readOnly is set. Unknown roles get the empty set.
func (p *Policy) Permissions(role RoleName, readOnly bool) PermissionSet {
	full, ok := p.sets[role]
	if !ok {
		return PermissionSet{}
	}
	if !readOnly {
		return full
	}
	reduced := make(PermissionSet, len(full))
	for perm := range full {
		if perm.ReadOnly() {
			reduced[perm] = struct{}{}
		}
	}
	return reduced
}

// Identity is the verified input a Principal is built from.
type Identity struct {
	UserID         uuid.UUID
	TenantID       *uuid.UUID
	Email          string
	Name           string
	Role           RoleName
	Impersonation  bool
	ReadOnly       bool
	ImpersonatorID *uuid.UUID
}

// Principal resolves an identity against the table. Unknown roles are an error.
// Read-only impersonation keeps only the view permissions of the target role.
func (p *Policy) Principal(id Identity) (Principal, error) {
	rp, ok := p.profiles[id.Role]
	if !ok {
		return Principal{}, fmt.Errorf("authz: unknown role %q", id.Role)
	}
	return Principal{
		UserID:         id.UserID,
		TenantID:       id.TenantID,
		Email:          id.Email,
		Name:           id.Name,
		Role:           id.Role,
		Permissions:    p.Permissions(id.Role, id.Impersonation && id.ReadOnly),
		Impersonation:  id.Impersonation,
		ReadOnly:       id.Impersonation && id.ReadOnly,
		ImpersonatorID: id.ImpersonatorID,
		profile:        rp,
	}, nil
}
