package authz

import "strings"

type Permission string

const (
	PermManageUsers      Permission = "manage_users"
	PermViewUsers        Permission = "view_users"
	PermManageTenants    Permission = "manage_tenants"
	PermImpersonateUsers Permission = "impersonate_users"

	PermViewProducts        Permission = "view_products"
	PermManageProducts      Permission = "manage_products"
	PermManageTenantCatalog Permission = "manage_tenant_catalog"

	PermViewOrders  Permission = "view_orders"
	PermCreateOrder Permission = "create_order"
	PermUpdateOrder Permission = "update_order"
	PermCancelOrder Permission = "cancel_order"
	PermDeleteOrder Permission = "delete_order"

	PermViewDeliveries   Permission = "view_deliveries"
	PermManageDeliveries Permission = "manage_deliveries"

	PermViewTickets   Permission = "view_tickets"
	PermCreateTicket  Permission = "create_ticket"
	PermUpdateTicket  Permission = "update_ticket"
	PermCommentTicket Permission = "comment_ticket"
	PermDeleteTicket  Permission = "delete_ticket"

	PermViewMaterials   Permission = "view_materials"
	PermManageMaterials Permission = "manage_materials"
	PermAdjustStock     Permission = "adjust_stock"

	PermViewEquipment   Permission = "view_equipment"
	PermManageEquipment Permission = "manage_equipment"
	PermLogMaintenance  Permission = "log_maintenance"

	PermViewDashboard Permission = "view_dashboard"
	PermViewActivity  Permission = "view_activity"
)

// AllPermissions is every permission the policy knows about, in display order.
var AllPermissions = []Permission{
	PermManageUsers, PermViewUsers, PermManageTenants, PermImpersonateUsers,
	PermViewProducts, PermManageProducts, PermManageTenantCatalog,
	PermViewOrders, PermCreateOrder, PermUpdateOrder, PermCancelOrder, PermDeleteOrder,
	PermViewDeliveries, PermManageDeliveries,
	PermViewTickets, PermCreateTicket, PermUpdateTicket, PermCommentTicket, PermDeleteTicket,
	PermViewMaterials, PermManageMaterials, PermAdjustStock,
	PermViewEquipment, PermManageEquipment, PermLogMaintenance,
	PermViewDashboard, PermViewActivity,
}

// ReadOnly reports whether holding p never allows a mutation.
func (p Permission) ReadOnly() bool {
	return strings.HasPrefix(string(p), "view_")
}

// Resource is the part after the verb: "adjust_stock" -> "stock".
func (p Permission) Resource() string {
	s := string(p)
	if i := strings.IndexByte(s, '_'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// PermissionSet is an immutable lookup set.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Slice returns the members in AllPermissions order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings is Slice as plain strings, the shape carried in tokens and JSON.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
