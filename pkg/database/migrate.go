package database

import (
	"printshop-api/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Permission{},
		&model.Role{},
		&model.Tenant{},
		&model.User{},
		&model.Product{},
		&model.TenantProduct{},
		&model.Order{},
		&model.OrderItem{},
		&model.Delivery{},
		&model.Ticket{},
		&model.TicketComment{},
		&model.Material{},
		&model.MaterialMovement{},
		&model.Equipment{},
		&model.MaintenanceLog{},
		&model.ActivityLog{},
		&model.Counter{},
	)
}
