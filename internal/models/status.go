package models

import "strings"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ShipmentStatuses are the statuses under which an order is listed as a shipment.
var ShipmentStatuses = []OrderStatus{StatusShipped, StatusDelivered}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsShipment() bool {
	return s == StatusShipped || s == StatusDelivered
}

// IsOpen reports whether the order still awaits dispatch.
func (s OrderStatus) IsOpen() bool {
	return s == StatusPending || s == StatusProcessing
}

// ParseOrderStatus lowercases and trims s; ok is false for unknown values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}
