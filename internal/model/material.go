package model

import (
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockStatus string

const (
	StockInStock     StockStatus = "In Stock"
	StockLow         StockStatus = "Low Stock"
	StockReorderSoon StockStatus = "Reorder Soon"
	StockOut         StockStatus = "Out of Stock"
)

var StockStatuses = []StockStatus{StockInStock, StockReorderSoon, StockLow, StockOut}

// reorderSoonFactor is how far above the reorder level an item starts to warn.
const reorderSoonFactor = 1.5

// ClassifyStock derives the stock health shown on dashboards and lists.
func ClassifyStock(quantity, reorderLevel float64) StockStatus {
	switch {
	case quantity <= 0:
		return StockOut
	case quantity <= reorderLevel:
		return StockLow
	case quantity <= reorderLevel*reorderSoonFactor:
		return StockReorderSoon
	default:
		return StockInStock
	}
}

type Material struct {
	BaseModel
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_material_tenant_sku" json:"tenant_id"`
	SKU          string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_material_tenant_sku" json:"sku"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Category     string    `gorm:"type:varchar(100)" json:"category"`
	Unit         string    `gorm:"type:varchar(20)" json:"unit"`
	Quantity     float64   `gorm:"not null;default:0" json:"quantity"`
	ReorderLevel float64   `gorm:"not null;default:0" json:"reorder_level"`
	UnitCost     int64     `gorm:"default:0" json:"unit_cost"`
	Supplier     string    `gorm:"type:varchar(255)" json:"supplier"`
	Location     string    `gorm:"type:varchar(100)" json:"location"`

	StockStatus StockStatus `gorm:"-" json:"stock_status"`
}

func (m *Material) RefreshStockStatus() {
	m.StockStatus = ClassifyStock(m.Quantity, m.ReorderLevel)
}

func (m *Material) AfterFind(*gorm.DB) error {
	m.RefreshStockStatus()
	return nil
}

type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

func (t MovementType) IsValid() bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjust
}

// SignedDelta applies the movement direction to a positive amount. ADJUST keeps the
// caller's sign so stock counts can be corrected either way.
func (t MovementType) SignedDelta(amount float64) float64 {
	switch t {
	case MovementIn:
		return math.Abs(amount)
	case MovementOut:
		return -math.Abs(amount)
	default:
		return amount
	}
}

// MaterialMovement is one stock adjustment, written in the same transaction
// that changes Material.Quantity.
type MaterialMovement struct {
	BaseModel
	MaterialID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"material_id"`
	TenantID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID         uuid.UUID    `gorm:"type:uuid;not null" json:"user_id"`
	Type           MovementType `gorm:"type:varchar(10);not null" json:"type"`
	Delta          float64      `gorm:"not null" json:"delta"`
	QuantityBefore float64      `gorm:"not null" json:"quantity_before"`
	QuantityAfter  float64      `gorm:"not null" json:"quantity_after"`
	Reason         string       `gorm:"type:text" json:"reason"`
}
