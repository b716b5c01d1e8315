package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	EventOrderCreated       OrderEventType = "order.created"
	EventOrderUpdated       OrderEventType = "order.updated"
	EventOrderStatusChanged OrderEventType = "order.status_changed"
	EventOrderDeleted       OrderEventType = "order.deleted"
)

// OrderEvent is the notification emitted after a committed order mutation.
type OrderEvent struct {
	Type         OrderEventType  `json:"type"`
	OrderID      string          `json:"orderId"`
	CustomerID   string          `json:"customerId"`
	Status       OrderStatus     `json:"status"`
	TrackingCode *string         `json:"trackingCode,omitempty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	At           time.Time       `json:"at"`
}

func NewOrderEvent(t OrderEventType, o Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:         t,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		Status:       o.Status,
		TrackingCode: o.TrackingCode,
		TotalAmount:  o.TotalAmount,
		At:           at,
	}
}

type Stats struct {
	TotalCustomers int                 `json:"totalCustomers"`
	TotalOrders    int                 `json:"totalOrders"`
	OpenOrders     int                 `json:"openOrders"`
	ShippedOrders  int                 `json:"shippedOrders"`
	TotalRevenue   decimal.Decimal     `json:"totalRevenue"`
	OrdersByStatus map[OrderStatus]int `json:"ordersByStatus"`
}
