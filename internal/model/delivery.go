package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryScheduled      DeliveryStatus = "Scheduled"
	DeliveryInTransit      DeliveryStatus = "In Transit"
	DeliveryOutForDelivery DeliveryStatus = "Out for Delivery"
	DeliveryDelivered      DeliveryStatus = "Delivered"
	DeliveryFailed         DeliveryStatus = "Failed"
)

// deliveryRank orders the happy path. Failed sits outside it.
var deliveryRank = map[DeliveryStatus]int{
	DeliveryScheduled:      0,
	DeliveryInTransit:      1,
	DeliveryOutForDelivery: 2,
	DeliveryDelivered:      3,
	DeliveryFailed:         -1,
}

func (s DeliveryStatus) IsValid() bool {
	_, ok := deliveryRank[s]
	return ok
}

// CanTransitionTo allows staying put, any forward move along the happy path,
// failing from anywhere before Delivered, and rescheduling a failed delivery.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	switch {
	case s == DeliveryDelivered:
		return false
	case next == DeliveryFailed:
		return true
	case s == DeliveryFailed:
		return next == DeliveryScheduled
	}
	return deliveryRank[next] > deliveryRank[s]
}

type Delivery struct {
	BaseModel
	OrderID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Order             *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	TenantID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	TrackingNumber    string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"tracking_number"`
	Status            DeliveryStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Carrier           string         `gorm:"type:varchar(100)" json:"carrier"`
	RecipientName     string         `gorm:"type:varchar(255)" json:"recipient_name"`
	ShippingAddress   string         `gorm:"type:text" json:"shipping_address"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"` // set once, on first arrival in Delivered
	Notes             string         `gorm:"type:text" json:"notes"`
}

func (d *Delivery) ApplyStatus(next DeliveryStatus, now time.Time) {
	d.Status = next
	if next == DeliveryDelivered && d.ActualDelivery == nil {
		d.ActualDelivery = &now
	}
}

// DeliveryTracking is the public, unauthenticated view of a delivery.
type DeliveryTracking struct {
	TrackingNumber    string         `json:"tracking_number"`
	Status            DeliveryStatus `json:"status"`
	Carrier           string         `json:"carrier"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (d *Delivery) Tracking() DeliveryTracking {
	return DeliveryTracking{
		TrackingNumber:    d.TrackingNumber,
		Status:            d.Status,
		Carrier:           d.Carrier,
		EstimatedDelivery: d.EstimatedDelivery,
		ActualDelivery:    d.ActualDelivery,
		UpdatedAt:         d.UpdatedAt,
	}
}
