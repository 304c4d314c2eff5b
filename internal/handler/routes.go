package handler

import (
	"printshop-api/internal/authz"
	"printshop-api/internal/middleware"
	"printshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Roles     *RoleHandler
	Tenants   *TenantHandler
	Products  *ProductHandler
	Orders    *OrderHandler
	Delivery  *DeliveryHandler
	Tickets   *TicketHandler
	Inventory *InventoryHandler
	Equipment *EquipmentHandler
	Dashboard *DashboardHandler
	Activity  *ActivityHandler
	Health    *HealthHandler
	WS        *WSHandler
}

// Register mounts every route. Routes name the permissions they need, never roles.
func Register(app *fiber.App, auth service.AuthService, h Handlers) {
	need := middleware.RequirePermission
	anyOf := middleware.RequireAnyPermission

	app.Get("/health", h.Health.Live)
	app.Get("/ready", h.Health.Ready)
	app.Get("/ws", h.WS.Upgrade, h.WS.Serve())

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	api.Post("/auth/signup", h.Auth.Signup)
	api.Post("/auth/login", h.Auth.Login)
	api.Get("/deliveries/track/:trackingNumber", h.Delivery.Track)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(auth), middleware.ReadOnlyGuard())

	protected.Get("/auth/profile", h.Auth.Profile)
	protected.Post("/auth/logout", h.Auth.Logout)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)

	// Admin
	admin := protected.Group("/admin")
	admin.Post("/users", need(authz.PermManageUsers), h.Users.CreateUser)
	admin.Get("/users", need(authz.PermManageUsers), h.Users.GetUsers)
	admin.Get("/users/:id", need(authz.PermManageUsers), h.Users.GetUser)
	admin.Put("/users/:id", need(authz.PermManageUsers), h.Users.UpdateUser)
	admin.Delete("/users/:id", need(authz.PermManageUsers), h.Users.DeleteUser)
	admin.Post("/tenants", need(authz.PermManageTenants), h.Tenants.Create)
	admin.Get("/tenants", need(authz.PermManageTenants), h.Tenants.List)
	admin.Get("/tenants/:id", need(authz.PermManageTenants), h.Tenants.Get)
	admin.Put("/tenants/:id", need(authz.PermManageTenants), h.Tenants.Update)
	admin.Delete("/tenants/:id", need(authz.PermManageTenants), h.Tenants.Delete)
	admin.Post("/impersonate", need(authz.PermImpersonateUsers), h.Auth.Impersonate)
	admin.Get("/roles", anyOf(authz.PermViewUsers, authz.PermManageUsers), h.Roles.GetRoles)

	// Catalog
	protected.Get("/products", need(authz.PermViewProducts), h.Products.GetProducts)
	protected.Get("/products/:id", need(authz.PermViewProducts), h.Products.GetProduct)
	protected.Post("/products", need(authz.PermManageProducts), h.Products.CreateProduct)
	protected.Put("/products/:id", need(authz.PermManageProducts), h.Products.UpdateProduct)
	protected.Delete("/products/:id", need(authz.PermManageProducts), h.Products.DeleteProduct)

	catalog := anyOf(authz.PermManageProducts, authz.PermManageTenantCatalog)
	protected.Get("/tenant-products", need(authz.PermViewProducts), h.Products.GetCatalog)
	protected.Put("/tenant-products/:productId", catalog, h.Products.SetTenantPrice)
	protected.Delete("/tenant-products/:productId", catalog, h.Products.RemoveTenantProduct)

	// Orders
	protected.Get("/orders", need(authz.PermViewOrders), h.Orders.List)
	protected.Post("/orders", need(authz.PermCreateOrder), h.Orders.Create)
	protected.Get("/orders/:id", need(authz.PermViewOrders), h.Orders.Get)
	protected.Put("/orders/:id", anyOf(authz.PermCreateOrder, authz.PermUpdateOrder), h.Orders.Update)
	protected.Delete("/orders/:id", need(authz.PermDeleteOrder), h.Orders.Delete)
	protected.Patch("/orders/:id/status", need(authz.PermViewOrders), h.Orders.UpdateStatus)
	protected.Patch("/orders/:id/cancel", need(authz.PermCancelOrder), h.Orders.Cancel)

	// Deliveries
	protected.Get("/deliveries", need(authz.PermViewDeliveries), h.Delivery.List)
	protected.Post("/deliveries", need(authz.PermManageDeliveries), h.Delivery.Create)
	protected.Get("/deliveries/:id", need(authz.PermViewDeliveries), h.Delivery.Get)
	protected.Put("/deliveries/:id", need(authz.PermManageDeliveries), h.Delivery.Update)
	protected.Delete("/deliveries/:id", need(authz.PermManageDeliveries), h.Delivery.Delete)
	protected.Patch("/deliveries/:id/status", need(authz.PermManageDeliveries), h.Delivery.UpdateStatus)

	// Tickets
	protected.Get("/tickets", need(authz.PermViewTickets), h.Tickets.List)
	protected.Post("/tickets", need(authz.PermCreateTicket), h.Tickets.Create)
	protected.Get("/tickets/:id", need(authz.PermViewTickets), h.Tickets.Get)
	protected.Put("/tickets/:id", need(authz.PermUpdateTicket), h.Tickets.Update)
	protected.Delete("/tickets/:id", need(authz.PermDeleteTicket), h.Tickets.Delete)
	protected.Patch("/tickets/:id/status", need(authz.PermUpdateTicket), h.Tickets.UpdateStatus)
	protected.Get("/tickets/:id/comments", need(authz.PermViewTickets), h.Tickets.Comments)
	protected.Post("/tickets/:id/comments", need(authz.PermCommentTicket), h.Tickets.AddComment)

	// Materials
	protected.Get("/materials", need(authz.PermViewMaterials), h.Inventory.GetMaterials)
	protected.Post("/materials", need(authz.PermManageMaterials), h.Inventory.CreateMaterial)
	protected.Get("/materials/:id", need(authz.PermViewMaterials), h.Inventory.GetMaterial)
	protected.Put("/materials/:id", need(authz.PermManageMaterials), h.Inventory.UpdateMaterial)
	protected.Delete("/materials/:id", need(authz.PermManageMaterials), h.Inventory.DeleteMaterial)
	protected.Post("/materials/:id/adjust", need(authz.PermAdjustStock), h.Inventory.AdjustStock)
	protected.Get("/materials/:id/movements", need(authz.PermViewMaterials), h.Inventory.GetMovements)

	// Equipment
	protected.Get("/equipment", need(authz.PermViewEquipment), h.Equipment.List)
	protected.Post("/equipment", need(authz.PermManageEquipment), h.Equipment.Create)
	protected.Get("/equipment/:id", need(authz.PermViewEquipment), h.Equipment.Get)
	protected.Put("/equipment/:id", need(authz.PermManageEquipment), h.Equipment.Update)
	protected.Delete("/equipment/:id", need(authz.PermManageEquipment), h.Equipment.Delete)
	protected.Post("/equipment/:id/maintenance", need(authz.PermLogMaintenance), h.Equipment.LogMaintenance)
	protected.Get("/equipment/:id/maintenance", need(authz.PermViewEquipment), h.Equipment.MaintenanceHistory)

	protected.Get("/dashboard/stats", need(authz.PermViewDashboard), h.Dashboard.GetDashboardStats)
	protected.Get("/activity", need(authz.PermViewActivity), h.Activity.List)
}
