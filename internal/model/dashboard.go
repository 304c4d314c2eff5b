package model

import (
	"math"

	"github.com/google/uuid"
)

type DashboardStats struct {
	OrdersByStatus    map[OrderStatus]int64     `json:"orders_by_status"`
	TotalOrders       int64                     `json:"total_orders"`
	Revenue           RevenueSummary            `json:"revenue"`
	MaterialStock     StockHealth               `json:"material_stock"`
	EquipmentStock    StockHealth               `json:"equipment_stock"`
	EquipmentByStatus map[EquipmentStatus]int64 `json:"equipment_by_status"`
	MaintenanceDue    int64                     `json:"maintenance_due"`
	TicketsByCategory map[TicketCategory]int64  `json:"tickets_by_category"`
	OpenTickets       int64                     `json:"open_tickets"`
}

type RevenueSummary struct {
	CurrentMonth  int64   `json:"current_month"`
	PreviousMonth int64   `json:"previous_month"`
	PercentChange float64 `json:"percent_change"`
}

type StockHealth struct {
	Counts    map[StockStatus]int64 `json:"counts"`
	Attention []StockItem           `json:"attention"`
}

// StockItem is a row that is not In Stock.
type StockItem struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Quantity     float64     `json:"quantity"`
	ReorderLevel float64     `json:"reorder_level"`
	Status       StockStatus `json:"status"`
}

// StockLevel is the raw projection the health summary is computed from.
type StockLevel struct {
	ID           uuid.UUID
	Name         string
	Quantity     float64
	ReorderLevel float64
}

// SummarizeStock classifies every level and counts each class.
func SummarizeStock(levels []StockLevel) StockHealth {
	h := StockHealth{Counts: make(map[StockStatus]int64, len(StockStatuses)), Attention: []StockItem{}}
	for _, s := range StockStatuses {
		h.Counts[s] = 0
	}
	for _, l := range levels {
		status := ClassifyStock(l.Quantity, l.ReorderLevel)
		h.Counts[status]++
		if status != StockInStock {
			h.Attention = append(h.Attention, StockItem{
				ID: l.ID, Name: l.Name, Quantity: l.Quantity, ReorderLevel: l.ReorderLevel, Status: status,
			})
		}
	}
	return h
}

// PercentChange compares two periods, rounded to two decimals. A zero baseline
// reads as +100% when there is any current value and 0% otherwise.
func PercentChange(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return roundTo2(pct)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
