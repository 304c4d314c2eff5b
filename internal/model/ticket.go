package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// CanTransitionTo treats Closed as terminal. Every other move is allowed,
// including reopening a resolved ticket.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return s != TicketClosed || next == TicketClosed
}

type TicketCategory string

const (
	CategoryGeneral    TicketCategory = "General"
	CategoryOrderIssue TicketCategory = "Order Issue"
	CategoryBilling    TicketCategory = "Billing"
	CategoryTechnical  TicketCategory = "Technical"
	CategoryDelivery   TicketCategory = "Delivery"
	CategoryQuality    TicketCategory = "Quality"
)

var TicketCategories = []TicketCategory{
	CategoryGeneral, CategoryOrderIssue, CategoryBilling, CategoryTechnical, CategoryDelivery, CategoryQuality,
}

func (c TicketCategory) IsValid() bool {
	for _, known := range TicketCategories {
		if c == known {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	TicketLow    TicketPriority = "Low"
	TicketMedium TicketPriority = "Medium"
	TicketHigh   TicketPriority = "High"
	TicketUrgent TicketPriority = "Urgent"
)

func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketLow, TicketMedium, TicketHigh, TicketUrgent:
		return true
	}
	return false
}

type Ticket struct {
	BaseModel
	Sequence     int64           `gorm:"uniqueIndex;not null" json:"-"`
	TicketNumber string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"ticket_number"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	AssignedToID *uuid.UUID      `gorm:"type:uuid;index" json:"assigned_to_id,omitempty"`
	OrderID      *uuid.UUID      `gorm:"type:uuid" json:"order_id,omitempty"`
	Subject      string          `gorm:"type:varchar(255);not null" json:"subject"`
	Description  string          `gorm:"type:text" json:"description"`
	Category     TicketCategory  `gorm:"type:varchar(30);not null;index" json:"category"`
	Priority     TicketPriority  `gorm:"type:varchar(10);not null" json:"priority"`
	Status       TicketStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	Comments     []TicketComment `gorm:"foreignKey:TicketID" json:"comments,omitempty"`
}

// FormatTicketNumber renders a sequence value as the customer-facing number.
func FormatTicketNumber(seq int64) string {
	return fmt.Sprintf("TKT-%d", seq)
}

// ApplyStatus sets the status and stamps resolved_at / closed_at on first entry.
func (t *Ticket) ApplyStatus(next TicketStatus, now time.Time) {
	t.Status = next
	switch next {
	case TicketResolved:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
	case TicketClosed:
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	}
}

type TicketComment struct {
	BaseModel
	TicketID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	AuthorName string    `gorm:"type:varchar(255)" json:"author_name"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	IsInternal bool      `gorm:"not null" json:"is_internal"`
}
