package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionCancel       = "cancel"
	ActionComment      = "comment"
	ActionStockAdjust  = "stock_adjust"
	ActionMaintenance  = "maintenance"
	ActionLogin        = "login"
	ActionLogout       = "logout"
	ActionSignup       = "signup"
	ActionImpersonate  = "impersonate"
	ActionPassword     = "password_change"
)

// ActivityLog is append-only: it has no UpdatedAt or DeletedAt and the
// repository exposes no way to change a row once written.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	TenantID   *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(50);index:idx_activity_entity" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(64);index:idx_activity_entity" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name"`
	Metadata   string     `gorm:"type:text" json:"metadata,omitempty"` // JSON object
	IPAddress  string     `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent  string     `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Counter backs atomic sequences when Redis is not configured.
type Counter struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int64  `gorm:"not null"`
}
