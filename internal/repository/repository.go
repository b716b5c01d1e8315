package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/models"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("record conflicts with an existing one")
	ErrUnavailable = errors.New("store unavailable")
	ErrOutOfRange  = errors.New("value out of range for the store")
)

// SearchScope selects which fields an order search token is matched against.
type SearchScope int

const (
	// SearchOrders matches order id, tracking code, customer name and item names.
	SearchOrders SearchScope = iota
	// SearchShipments matches order id, tracking code, customer name, customer
	// phones and customer address texts.
	SearchShipments
)

type SortOrder int

const (
	SortCreatedDesc SortOrder = iota
	SortUpdatedDesc
)

type OrderFilter struct {
	Statuses    []models.OrderStatus
	CustomerID  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string
	Scope       SearchScope
	Sort        SortOrder
	Offset      int
	Limit       int
}

type CustomerFilter struct {
	Search string
	Offset int
	Limit  int
}

type OrderStats struct {
	ByStatus map[models.OrderStatus]int
	Revenue  decimal.Decimal
}

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id string) (models.Customer, error)
	List(ctx context.Context, f CustomerFilter) ([]models.Customer, int, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id string) error
	AppendOrder(ctx context.Context, customerID, orderID string) error
	RemoveOrder(ctx context.Context, customerID, orderID string) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (models.Order, error)
	// GetMany returns the orders found among ids in the order of ids; unknown
	// ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int, error)
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (OrderStats, error)
}

// Transactor runs fn as a single unit of work against a Repository bound to
// that unit. An error returned by fn discards every write made through tx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *Repository) error) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	Customers CustomerStore
	Orders    OrderStore

	tx     Transactor
	pinger Pinger
}

func New(customers CustomerStore, orders OrderStore, tx Transactor, pinger Pinger) *Repository {
	return &Repository{
		Customers: customers,
		Orders:    orders,
		tx:        tx,
		pinger:    pinger,
	}
}

// Transaction runs fn inside the store's unit of work. A Repository obtained
// inside fn runs nested calls inline.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx.Transaction(ctx, fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.pinger == nil {
		return nil
	}
	return r.pinger.Ping(ctx)
}
