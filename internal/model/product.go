package model

import "github.com/google/uuid"

// Product is the platform-wide catalog entry.
type Product struct {
	BaseModel
	SKU         string `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(100);index" json:"category"`
	Unit        string `gorm:"type:varchar(20)" json:"unit"`
	BasePrice   int64  `gorm:"default:0" json:"base_price"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

// TenantProduct is a product as sold by one shop, at that shop's price.
type TenantProduct struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_product" json:"tenant_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tenant_product" json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Price       int64     `gorm:"not null" json:"price"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
}
