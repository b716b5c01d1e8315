package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

type Order interface {
	CreateOrder(ctx context.Context, in models.CreateOrderInput) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, trackingCode string) (models.Order, error)
	UpdateOrder(ctx context.Context, id string, in models.UpdateOrderInput) (models.Order, error)
	AddOrderComment(ctx context.Context, id, text string) (models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	GetOrder(ctx context.Context, id string) (models.OrderView, error)
	ListOrders(ctx context.Context, q models.OrderQuery) (models.Page[models.OrderView], error)

	HandleMessage(ctx context.Context, messageID string, payload []byte) error
}

type Customer interface {
	CreateCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error)
	GetCustomer(ctx context.Context, id string) (models.Customer, error)
	ListCustomers(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error)
	UpdateCustomer(ctx context.Context, id string, in models.CustomerUpdate) (models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	CustomerOrders(ctx context.Context, id string) ([]models.Order, error)
	AddAddress(ctx context.Context, id string, in models.AddressInput) (models.Customer, error)
	RemoveAddress(ctx context.Context, id, addressID string) (models.Customer, error)
	SetDefaultAddress(ctx context.Context, id, addressID string) (models.Customer, error)
}

type Shipment interface {
	ListShipments(ctx context.Context, q models.ListQuery) (models.Page[models.OrderView], error)
	GetShipment(ctx context.Context, id string) (models.OrderView, error)
	UpdateShipmentStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)
}

type Dashboard interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// API is everything the HTTP layer needs.
type API interface {
	Customer
	Order
	Shipment
	Dashboard

	Ready(ctx context.Context) error
}

// TrackingCodeGenerator returns a fresh tracking code.
type TrackingCodeGenerator func() string

// RandomTrackingCode returns "TRK" followed by an integer in [0, 10000).
// Codes are not checked for uniqueness.
func RandomTrackingCode() string {
	return fmt.Sprintf("TRK%d", rand.IntN(10000))
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishOrderEvent(context.Context, models.OrderEvent) error { return nil }

type Service struct {
	repo     *repository.Repository
	v        *validator.Validate
	tracking TrackingCodeGenerator
	events   EventPublisher
	now      func() time.Time
}

type Option func(*Service)

func WithTrackingCodes(g TrackingCodeGenerator) Option {
	return func(s *Service) { s.tracking = g }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo *repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		v:        newValidator(),
		tracking: RandomTrackingCode,
		events:   noopPublisher{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return models.OrderStatus(fl.Field().String()).Valid()
	})
	return v
}

func (s *Service) validate(in interface{}) error {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		return humanizeValidationErrors(verrs)
	}
	return errors.Wrap(ErrValidation, err.Error())
}

func (s *Service) Ready(ctx context.Context) error {
	return storeError(s.repo.Ping(ctx), "store ping")
}

func (s *Service) publish(ctx context.Context, t models.OrderEventType, o models.Order) {
	ev := models.NewOrderEvent(t, o, s.now())
	if err := s.events.PublishOrderEvent(ctx, ev); err != nil {
		logrus.WithError(err).
			WithFields(logrus.Fields{"order_id": o.ID, "event": t}).
			Warn("order event not published")
	}
}

// lookupCustomer is the single accessor for customers by id; a missing
// customer is reported as ErrNotFound.
func lookupCustomer(ctx context.Context, repo *repository.Repository, id string) (models.Customer, error) {
	c, err := repo.Customers.Get(ctx, id)
	if err != nil {
		return models.Customer{}, storeError(err, "customer "+id)
	}
	return c, nil
}

// findCustomer is lookupCustomer for read paths that tolerate a deleted owner.
func findCustomer(ctx context.Context, repo *repository.Repository, id string) (*models.Customer, error) {
	c, err := lookupCustomer(ctx, repo, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
