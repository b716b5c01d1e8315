package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultRating = 5
	MinRating     = 1
	MaxRating     = 5
)

func init() {
	// the web client expects plain JSON numbers for money
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderItem struct {
	ID       string          `json:"id"       gorm:"primary_key;type:varchar(36)"`
	OrderID  string          `json:"-"        gorm:"type:varchar(36);index"`
	Position int             `json:"-"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"    gorm:"type:numeric(14,2)"`
}

type OrderComment struct {
	ID        string    `json:"id"        gorm:"primary_key;type:varchar(36)"`
	OrderID   string    `json:"-"         gorm:"type:varchar(36);index"`
	Position  int       `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Order struct {
	ID           string          `json:"id"           gorm:"primary_key;type:varchar(36)"`
	CustomerID   string          `json:"customerId"   gorm:"type:varchar(36);index"`
	Items        []OrderItem     `json:"items"        gorm:"foreignkey:OrderID;association_foreignkey:ID"`
	TotalPrice   decimal.Decimal `json:"totalPrice"   gorm:"type:numeric(14,2)"`
	ShippingCost decimal.Decimal `json:"shippingCost" gorm:"type:numeric(14,2)"`
	TotalAmount  decimal.Decimal `json:"totalAmount"  gorm:"type:numeric(14,2)"`
	Status       OrderStatus     `json:"status"       gorm:"type:varchar(16);index"`
	TrackingCode *string         `json:"trackingCode"`
	Rating       int             `json:"rating"`
	Comments     []OrderComment  `json:"comments"     gorm:"foreignkey:OrderID;association_foreignkey:ID"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// OrderView is an order together with the summary of its owner. Customer is
// nil when the owning customer no longer exists.
type OrderView struct {
	Order
	Customer *CustomerSummary `json:"customer"`
}

// ComputeTotals returns the sum of price*quantity over items and that sum
// plus the shipping cost.
func ComputeTotals(items []OrderItem, shippingCost decimal.Decimal) (totalPrice, totalAmount decimal.Decimal) {
	totalPrice = decimal.Zero
	for _, it := range items {
		totalPrice = totalPrice.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return totalPrice, totalPrice.Add(shippingCost)
}

func (o *Order) ApplyTotals() {
	o.TotalPrice, o.TotalAmount = ComputeTotals(o.Items, o.ShippingCost)
}

func (o Order) HasTrackingCode() bool {
	return o.TrackingCode != nil && *o.TrackingCode != ""
}

// AverageRating rounds the mean of ratings half up. ok is false for an empty
// slice, in which case the caller keeps its previous rating.
func AverageRating(ratings []int) (avg int, ok bool) {
	n := len(ratings)
	if n == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return (2*sum + n) / (2 * n), true
}
