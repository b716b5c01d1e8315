package models

import "github.com/shopspring/decimal"

type AddressInput struct {
	Title     string `json:"title"     validate:"required"`
	Text      string `json:"text"      validate:"required,min=5"`
	IsDefault bool   `json:"isDefault"`
}

type CustomerInput struct {
	Name      string         `json:"name"      validate:"required"`
	Phone1    string         `json:"phone1"    validate:"required"`
	Phone2    *string        `json:"phone2"`
	Addresses []AddressInput `json:"addresses" validate:"required,min=1,dive"`
}

// CustomerUpdate carries the client-editable customer fields; nil fields are
// left unchanged. Rating and order references are not editable.
type CustomerUpdate struct {
	Name      *string        `json:"name,omitempty"      validate:"omitempty,min=1"`
	Phone1    *string        `json:"phone1,omitempty"    validate:"omitempty,min=1"`
	Phone2    *string        `json:"phone2,omitempty"`
	Addresses []AddressInput `json:"addresses,omitempty" validate:"omitempty,min=1,dive"`
}

type OrderItemInput struct {
	Name     string          `json:"name"     validate:"required"`
	Quantity int             `json:"quantity" validate:"gte=1"`
	Price    decimal.Decimal `json:"price"    validate:"gte=0"`
}

type CreateOrderInput struct {
	CustomerID   string           `json:"customerId"         validate:"required"`
	Items        []OrderItemInput `json:"items"              validate:"required,min=1,dive"`
	ShippingCost decimal.Decimal  `json:"shippingCost"       validate:"gte=0"`
	Status       OrderStatus      `json:"status,omitempty"   validate:"omitempty,order_status"`
	Rating       *int             `json:"rating,omitempty"   validate:"omitempty,min=1,max=5"`
	Comments     []string         `json:"comments,omitempty" validate:"dive,required"`
}

// UpdateOrderInput is a partial order update; nil fields are left unchanged.
type UpdateOrderInput struct {
	Items        []OrderItemInput `json:"items,omitempty"        validate:"omitempty,min=1,dive"`
	ShippingCost *decimal.Decimal `json:"shippingCost,omitempty" validate:"omitempty,gte=0"`
	Status       *OrderStatus     `json:"status,omitempty"       validate:"omitempty,order_status"`
	TrackingCode *string          `json:"trackingCode,omitempty"`
	Rating       *int             `json:"rating,omitempty"       validate:"omitempty,min=1,max=5"`
}

type StatusInput struct {
	Status       OrderStatus `json:"status"                 validate:"required"`
	TrackingCode string      `json:"trackingCode,omitempty"`
}

type CommentInput struct {
	Text string `json:"text" validate:"required"`
}
