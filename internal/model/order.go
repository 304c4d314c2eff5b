package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderPrinting   OrderStatus = "PRINTING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderPrinting, OrderCancelled},
	OrderPrinting:   {OrderCompleted},
	OrderCompleted:  {},
	OrderCancelled:  {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanCancel reports whether an order in this status may still be cancelled.
func (s OrderStatus) CanCancel() bool {
	return s == OrderPending || s == OrderProcessing
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether next is a legal step from s. Staying put is
// always legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return s.IsValid()
	}
	if s.IsTerminal() {
		return false
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type OrderPriority string

const (
	PriorityLow    OrderPriority = "LOW"
	PriorityNormal OrderPriority = "NORMAL"
	PriorityHigh   OrderPriority = "HIGH"
	PriorityUrgent OrderPriority = "URGENT"
)

func (p OrderPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Order struct {
	BaseModel
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TenantID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Status      OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount int64         `gorm:"not null" json:"total_amount"` // snapshot of item prices at creation
	Priority    OrderPriority `gorm:"type:varchar(10);not null" json:"priority"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Notes       string        `gorm:"type:text" json:"notes"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	Items       []OrderItem   `gorm:"foreignKey:OrderID" json:"items"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       int64     `gorm:"not null" json:"price"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
}

// CalculateTotal fills item subtotals and the order total from the snapshotted prices.
func (o *Order) CalculateTotal() int64 {
	var total int64
	for i := range o.Items {
		o.Items[i].Subtotal = o.Items[i].Price * int64(o.Items[i].Quantity)
		total += o.Items[i].Subtotal
	}
	o.TotalAmount = total
	return total
}

// ApplyStatus moves the order to next and stamps the milestone for it once.
// Legality is checked by the caller via CanTransitionTo.
func (o *Order) ApplyStatus(next OrderStatus, now time.Time) {
	o.Status = next
	switch next {
	case OrderCompleted:
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	case OrderCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
}
