package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EquipmentStatus string

const (
	EquipmentOperational  EquipmentStatus = "Operational"
	EquipmentMaintenance  EquipmentStatus = "Maintenance"
	EquipmentOutOfService EquipmentStatus = "Out of Service"
	EquipmentRetired      EquipmentStatus = "Retired"
)

var EquipmentStatuses = []EquipmentStatus{
	EquipmentOperational, EquipmentMaintenance, EquipmentOutOfService, EquipmentRetired,
}

func (s EquipmentStatus) IsValid() bool {
	for _, known := range EquipmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Equipment is a press, cutter or other tracked asset. Quantity counts identical
// units on hand (spare print heads, blades) and feeds the same stock health rules
// as materials.
type Equipment struct {
	BaseModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Type              string          `gorm:"type:varchar(100)" json:"type"`
	SerialNumber      string          `gorm:"type:varchar(100)" json:"serial_number"`
	Status            EquipmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Location          string          `gorm:"type:varchar(100)" json:"location"`
	Quantity          float64         `gorm:"not null;default:1" json:"quantity"`
	ReorderLevel      float64         `gorm:"not null;default:0" json:"reorder_level"`
	PurchaseDate      *time.Time      `json:"purchase_date,omitempty"`
	LastMaintenanceAt *time.Time      `json:"last_maintenance_at,omitempty"`
	NextMaintenanceAt *time.Time      `json:"next_maintenance_at,omitempty"`
	Notes             string          `gorm:"type:text" json:"notes"`

	StockStatus StockStatus `gorm:"-" json:"stock_status"`
}

func (e *Equipment) RefreshStockStatus() {
	e.StockStatus = ClassifyStock(e.Quantity, e.ReorderLevel)
}

func (e *Equipment) AfterFind(*gorm.DB) error {
	e.RefreshStockStatus()
	return nil
}

// MaintenanceDue reports whether the next scheduled maintenance is at or before now.
func (e *Equipment) MaintenanceDue(now time.Time) bool {
	return e.Status != EquipmentRetired && e.NextMaintenanceAt != nil && !e.NextMaintenanceAt.After(now)
}

type MaintenanceLog struct {
	BaseModel
	EquipmentID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"equipment_id"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PerformedByID uuid.UUID  `gorm:"type:uuid;not null" json:"performed_by_id"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	Cost          int64      `gorm:"default:0" json:"cost"`
	PerformedAt   time.Time  `gorm:"not null" json:"performed_at"`
	NextDueAt     *time.Time `json:"next_due_at,omitempty"`
}
