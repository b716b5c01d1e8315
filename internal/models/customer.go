package models

import "time"

type Address struct {
	ID         string `json:"id"        gorm:"primary_key;type:varchar(36)"`
	CustomerID string `json:"-"         gorm:"type:varchar(36);index"`
	Position   int    `json:"-"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	IsDefault  bool   `json:"isDefault"`
}

type Customer struct {
	ID        string    `json:"id"        gorm:"primary_key;type:varchar(36)"`
	Name      string    `json:"name"`
	Phone1    string    `json:"phone1"    gorm:"column:phone1;unique_index"`
	Phone2    *string   `json:"phone2"    gorm:"column:phone2"`
	Addresses []Address `json:"addresses" gorm:"foreignkey:CustomerID;association_foreignkey:ID"`
	Rating    int       `json:"rating"`
	Orders    []string  `json:"orders"    gorm:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerSummary is the slice of a customer attached to order and shipment views.
type CustomerSummary struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Phone1         string   `json:"phone1"`
	Phone2         *string  `json:"phone2,omitempty"`
	DefaultAddress *Address `json:"defaultAddress,omitempty"`
}

func (c Customer) Summary() *CustomerSummary {
	return &CustomerSummary{
		ID:             c.ID,
		Name:           c.Name,
		Phone1:         c.Phone1,
		Phone2:         c.Phone2,
		DefaultAddress: DefaultAddress(c.Addresses),
	}
}

// HasOrder reports whether orderID is among the customer's order references.
func (c Customer) HasOrder(orderID string) bool {
	for _, id := range c.Orders {
		if id == orderID {
			return true
		}
	}
	return false
}

// NormalizeAddresses fixes the default flags in place: a
// non-empty list ends up with exactly one default, the first flagged one,
// or the first address when none is flagged.
func NormalizeAddresses(addrs []Address) {
	def := -1
	for i := range addrs {
		if !addrs[i].IsDefault {
			continue
		}
		if def >= 0 {
			addrs[i].IsDefault = false
			continue
		}
		def = i
	}
	if def < 0 && len(addrs) > 0 {
		addrs[0].IsDefault = true
	}
	for i := range addrs {
		addrs[i].Position = i
	}
}

func DefaultAddress(addrs []Address) *Address {
	for i := range addrs {
		if addrs[i].IsDefault {
			a := addrs[i]
			return &a
		}
	}
	return nil
}
