package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
	"orderdesk/internal/repository/memory"
	svc "orderdesk/internal/service"
)

type eventRecorder struct {
	events []models.OrderEvent
	err    error
}

func (r *eventRecorder) PublishOrderEvent(_ context.Context, ev models.OrderEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *eventRecorder) types() []models.OrderEventType {
	out := make([]models.OrderEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	s      *svc.Service
	repo   *repository.Repository
	events *eventRecorder
	codes  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	f := &fixture{
		repo:   memory.NewRepository(memory.WithClock(tick)),
		events: &eventRecorder{},
	}
	f.s = svc.NewService(f.repo,
		svc.WithClock(tick),
		svc.WithEventPublisher(f.events),
		svc.WithTrackingCodes(func() string {
			f.codes++
			return fmt.Sprintf("TRK%d", f.codes)
		}),
	)
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func ali() models.CustomerInput {
	return models.CustomerInput{
		Name:   "Ali",
		Phone1: "01012345678",
		Addresses: []models.AddressInput{
			{Title: "Home", Text: "12 Nile Street, Cairo", IsDefault: true},
		},
	}
}

func item(name string, price int64, qty int) models.OrderItemInput {
	return models.OrderItemInput{Name: name, Price: decimal.NewFromInt(price), Quantity: qty}
}

func (f *fixture) customer(t *testing.T, name, phone string) models.Customer {
	t.Helper()
	c, err := f.s.CreateCustomer(context.Background(), models.CustomerInput{
		Name:      name,
		Phone1:    phone,
		Addresses: []models.AddressInput{{Title: "Home", Text: name + " street 1"}},
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) order(t *testing.T, customerID string, status models.OrderStatus, rating int) models.Order {
	t.Helper()
	o, err := f.s.CreateOrder(context.Background(), models.CreateOrderInput{
		CustomerID:   customerID,
		Items:        []models.OrderItemInput{item("Shirt", 10, 1)},
		ShippingCost: decimal.NewFromInt(2),
		Status:       status,
		Rating:       intPtr(rating),
	})
	require.NoError(t, err)
	return o
}

func TestService_EndToEnd_Ali(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.s.CreateCustomer(ctx, ali())
	require.NoError(t, err)
	require.Equal(t, models.DefaultRating, c.Rating)
	require.True(t, c.Addresses[0].IsDefault)

	o, err := f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID:   c.ID,
		Items:        []models.OrderItemInput{item("Jacket", 100, 2), item("Scarf", 50, 1)},
		ShippingCost: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(250).Equal(o.TotalPrice), o.TotalPrice.String())
	require.True(t, decimal.NewFromInt(270).Equal(o.TotalAmount), o.TotalAmount.String())
	require.Equal(t, models.StatusPending, o.Status)
	require.Nil(t, o.TrackingCode)

	shipped, err := f.s.UpdateOrderStatus(ctx, o.ID, models.StatusShipped, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, shipped.Status)
	require.NotNil(t, shipped.TrackingCode)
	require.Equal(t, "TRK1", *shipped.TrackingCode)

	page, err := f.s.ListShipments(ctx, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, o.ID, page.Items[0].ID)
	require.NotNil(t, page.Items[0].Customer)
	require.Equal(t, "Ali", page.Items[0].Customer.Name)
	require.Equal(t, "12 Nile Street, Cairo", page.Items[0].Customer.DefaultAddress.Text)

	got, err := f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{o.ID}, got.Orders)

	require.Equal(t, []models.OrderEventType{
		models.EventOrderCreated,
		models.EventOrderStatusChanged,
	}, f.events.types())
}

func TestService_CreateOrder_TrackingTrigger(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Sara", "0935")

	pending := f.order(t, c.ID, models.StatusPending, 5)
	require.Nil(t, pending.TrackingCode)

	processing := f.order(t, c.ID, models.StatusProcessing, 5)
	require.NotNil(t, processing.TrackingCode)
	require.Equal(t, "TRK1", *processing.TrackingCode)

	defaulted := f.order(t, c.ID, "", 5)
	require.Equal(t, models.StatusPending, defaulted.Status)
	require.Nil(t, defaulted.TrackingCode)
}

func TestService_TrackingCode_NeverOverwritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Sara", "0935")
	o := f.order(t, c.ID, models.StatusPending, 5)

	out, err := f.s.UpdateOrderStatus(ctx, o.ID, models.StatusProcessing, "MANUAL-1")
	require.NoError(t, err)
	require.Equal(t, "MANUAL-1", *out.TrackingCode)

	for _, st := range []models.OrderStatus{
		models.StatusShipped, models.StatusPending, models.StatusDelivered, models.StatusCancelled, models.StatusProcessing,
	} {
		out, err = f.s.UpdateOrderStatus(ctx, o.ID, st, "OTHER")
		require.NoError(t, err)
		require.Equal(t, st, out.Status)
		require.Equal(t, "MANUAL-1", *out.TrackingCode)
	}

	out, err = f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{TrackingCode: strPtr("X")})
	require.NoError(t, err)
	require.Equal(t, "MANUAL-1", *out.TrackingCode)
	require.Zero(t, f.codes)
}

func TestService_UpdateOrderStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Sara", "0935")
	o := f.order(t, c.ID, models.StatusPending, 5)

	_, err := f.s.UpdateOrderStatus(ctx, o.ID, "lost", "")
	require.ErrorIs(t, err, svc.ErrValidation)
	var ve *svc.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "status", ve.Fields[0].Field)

	_, err = f.s.UpdateOrderStatus(ctx, "missing", models.StatusShipped, "")
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestService_CreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Sara", "0935")

	_, err := f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID:   c.ID,
		Items:        []models.OrderItemInput{{Name: "", Quantity: 0, Price: decimal.NewFromInt(-1)}},
		ShippingCost: decimal.NewFromInt(-5),
		Status:       "lost",
		Rating:       intPtr(9),
	})
	require.ErrorIs(t, err, svc.ErrValidation)

	var ve *svc.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, fe := range ve.Fields {
		fields[fe.Field] = true
	}
	for _, want := range []string{
		"items[0].name", "items[0].quantity", "items[0].price", "shippingCost", "status", "rating",
	} {
		require.True(t, fields[want], "missing field error for %s in %v", want, ve.Fields)
	}

	_, err = f.s.CreateOrder(ctx, models.CreateOrderInput{CustomerID: c.ID})
	require.ErrorIs(t, err, svc.ErrValidation)

	got, err := f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, got.Orders)
}

func TestService_CreateOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID: "ghost",
		Items:      []models.OrderItemInput{item("Hat", 5, 1)},
	})
	require.ErrorIs(t, err, svc.ErrNotFound)

	page, err := f.s.ListOrders(ctx, models.OrderQuery{})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, f.events.events)
}

func TestService_CustomerOrderConsistency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.customer(t, "A", "100")
	b := f.customer(t, "B", "200")

	a1 := f.order(t, a.ID, models.StatusPending, 5)
	b1 := f.order(t, b.ID, models.StatusPending, 5)
	a2 := f.order(t, a.ID, models.StatusPending, 5)

	got, err := f.s.GetCustomer(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []string{a1.ID, a2.ID}, got.Orders)

	require.NoError(t, f.s.DeleteOrder(ctx, a1.ID))
	got, err = f.s.GetCustomer(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []string{a2.ID}, got.Orders)

	orders, err := f.s.CustomerOrders(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, b1.ID, orders[0].ID)

	err = f.s.DeleteOrder(ctx, a1.ID)
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestService_RatingAggregation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.customer(t, "R", "300")
	f.order(t, c.ID, models.StatusPending, 3)
	f.order(t, c.ID, models.StatusPending, 4)
	five := f.order(t, c.ID, models.StatusPending, 5)

	got, err := f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.Rating)

	require.NoError(t, f.s.DeleteOrder(ctx, five.ID))
	got, err = f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.Rating, "mean 3.5 rounds half up")

	d := f.customer(t, "D", "400")
	low := f.order(t, d.ID, models.StatusPending, 1)
	got, err = f.s.GetCustomer(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Rating)

	_, err = f.s.UpdateOrder(ctx, low.ID, models.UpdateOrderInput{Rating: intPtr(2)})
	require.NoError(t, err)
	got, err = f.s.GetCustomer(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Rating)

	require.NoError(t, f.s.DeleteOrder(ctx, low.ID))
	got, err = f.s.GetCustomer(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Rating, "no orders left keeps the last rating")
}

func TestService_DeleteOrder_OwnerGone_LogsWarn(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Gone", "500")
	o := f.order(t, c.ID, models.StatusShipped, 5)

	require.NoError(t, f.s.DeleteCustomer(ctx, c.ID))

	v, err := f.s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Nil(t, v.Customer)

	require.NoError(t, f.s.DeleteOrder(ctx, o.ID))
	_, err = f.s.GetOrder(ctx, o.ID)
	require.ErrorIs(t, err, svc.ErrNotFound)

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Data["order_id"] == o.ID {
			found = true
			break
		}
	}
	require.True(t, found, "expected warn log for missing owner")
}

func TestService_UpdateOrder_RecomputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "T", "600")
	o := f.order(t, c.ID, models.StatusPending, 5)

	out, err := f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{
		Items: []models.OrderItemInput{item("Coat", 40, 3)},
	})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(120).Equal(out.TotalPrice))
	require.True(t, decimal.NewFromInt(122).Equal(out.TotalAmount))

	ship := decimal.RequireFromString("7.5")
	out, err = f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{ShippingCost: &ship})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(120).Equal(out.TotalPrice))
	require.True(t, decimal.RequireFromString("127.5").Equal(out.TotalAmount))
	require.Len(t, out.Items, 1)

	status := models.StatusDelivered
	out, err = f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{Status: &status, TrackingCode: strPtr("DHL-9")})
	require.NoError(t, err)
	require.Equal(t, "DHL-9", *out.TrackingCode)

	_, err = f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{Items: []models.OrderItemInput{}})
	require.ErrorIs(t, err, svc.ErrValidation)

	_, err = f.s.UpdateOrder(ctx, "missing", models.UpdateOrderInput{})
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestService_AddOrderComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "K", "700")
	o := f.order(t, c.ID, models.StatusPending, 5)

	out, err := f.s.AddOrderComment(ctx, o.ID, "  leave at the door ")
	require.NoError(t, err)
	require.Len(t, out.Comments, 1)
	require.Equal(t, "leave at the door", out.Comments[0].Text)
	require.False(t, out.Comments[0].CreatedAt.IsZero())

	_, err = f.s.AddOrderComment(ctx, o.ID, "   ")
	require.ErrorIs(t, err, svc.ErrValidation)
	_, err = f.s.AddOrderComment(ctx, "missing", "hi")
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestService_Addresses_DefaultInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.s.CreateCustomer(ctx, models.CustomerInput{
		Name:   "Mona",
		Phone1: "800",
		Addresses: []models.AddressInput{
			{Title: "A", Text: "first address"},
			{Title: "B", Text: "second address", IsDefault: true},
			{Title: "C", Text: "third address", IsDefault: true},
		},
	})
	require.NoError(t, err)
	requireOneDefault(t, c, "B")

	c, err = f.s.AddAddress(ctx, c.ID, models.AddressInput{Title: "D", Text: "fourth address", IsDefault: true})
	require.NoError(t, err)
	requireOneDefault(t, c, "D")

	c, err = f.s.RemoveAddress(ctx, c.ID, c.Addresses[3].ID)
	require.NoError(t, err)
	requireOneDefault(t, c, "A")

	c, err = f.s.SetDefaultAddress(ctx, c.ID, c.Addresses[2].ID)
	require.NoError(t, err)
	requireOneDefault(t, c, "C")

	c, err = f.s.RemoveAddress(ctx, c.ID, c.Addresses[0].ID)
	require.NoError(t, err)
	c, err = f.s.RemoveAddress(ctx, c.ID, c.Addresses[0].ID)
	require.NoError(t, err)
	requireOneDefault(t, c, "C")

	_, err = f.s.RemoveAddress(ctx, c.ID, c.Addresses[0].ID)
	require.ErrorIs(t, err, svc.ErrValidation)
	_, err = f.s.RemoveAddress(ctx, c.ID, "nope")
	require.ErrorIs(t, err, svc.ErrNotFound)

	_, err = f.s.AddAddress(ctx, c.ID, models.AddressInput{Title: "E", Text: "abc"})
	require.ErrorIs(t, err, svc.ErrValidation)
}

func requireOneDefault(t *testing.T, c models.Customer, title string) {
	t.Helper()
	n := 0
	for _, a := range c.Addresses {
		if a.IsDefault {
			n++
			require.Equal(t, title, a.Title)
		}
	}
	require.Equal(t, 1, n)
}

func TestService_PhoneUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.s.CreateCustomer(ctx, ali())
	require.NoError(t, err)

	dup := ali()
	dup.Name = "Another Ali"
	_, err = f.s.CreateCustomer(ctx, dup)
	require.ErrorIs(t, err, svc.ErrConflict)

	page, err := f.s.ListCustomers(ctx, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	other := f.customer(t, "Omar", "0999")
	_, err = f.s.UpdateCustomer(ctx, other.ID, models.CustomerUpdate{Phone1: strPtr(first.Phone1)})
	require.ErrorIs(t, err, svc.ErrConflict)
}

func TestService_UpdateCustomer_Partial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.s.CreateCustomer(ctx, ali())
	require.NoError(t, err)
	o := f.order(t, c.ID, models.StatusPending, 3)

	out, err := f.s.UpdateCustomer(ctx, c.ID, models.CustomerUpdate{
		Name:   strPtr("Ali Hassan"),
		Phone2: strPtr("0123"),
	})
	require.NoError(t, err)
	require.Equal(t, "Ali Hassan", out.Name)
	require.Equal(t, "01012345678", out.Phone1)
	require.Equal(t, "0123", *out.Phone2)
	require.Equal(t, []string{o.ID}, out.Orders)
	require.Equal(t, 3, out.Rating)

	out, err = f.s.UpdateCustomer(ctx, c.ID, models.CustomerUpdate{Phone2: strPtr("")})
	require.NoError(t, err)
	require.Nil(t, out.Phone2)

	_, err = f.s.UpdateCustomer(ctx, c.ID, models.CustomerUpdate{Addresses: []models.AddressInput{}})
	require.ErrorIs(t, err, svc.ErrValidation)
	_, err = f.s.UpdateCustomer(ctx, "missing", models.CustomerUpdate{})
	require.ErrorIs(t, err, svc.ErrNotFound)
}

func TestService_ShipmentFiltering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "S", "900")

	byStatus := map[models.OrderStatus]models.Order{}
	for _, st := range []models.OrderStatus{
		models.StatusPending, models.StatusShipped, models.StatusDelivered, models.StatusCancelled,
	} {
		byStatus[st] = f.order(t, c.ID, st, 5)
	}

	page, err := f.s.ListShipments(ctx, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	ids := []string{page.Items[0].ID, page.Items[1].ID}
	require.ElementsMatch(t, []string{byStatus[models.StatusShipped].ID, byStatus[models.StatusDelivered].ID}, ids)

	_, err = f.s.GetShipment(ctx, byStatus[models.StatusPending].ID)
	require.ErrorIs(t, err, svc.ErrNotFound)
	_, err = f.s.GetShipment(ctx, "missing")
	require.ErrorIs(t, err, svc.ErrNotFound)

	v, err := f.s.GetShipment(ctx, byStatus[models.StatusShipped].ID)
	require.NoError(t, err)
	require.Equal(t, "S", v.Customer.Name)

	_, err = f.s.UpdateShipmentStatus(ctx, byStatus[models.StatusShipped].ID, models.StatusPending)
	require.ErrorIs(t, err, svc.ErrValidation)

	out, err := f.s.UpdateShipmentStatus(ctx, byStatus[models.StatusShipped].ID, models.StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, models.StatusDelivered, out.Status)

	page, err = f.s.ListShipments(ctx, models.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, byStatus[models.StatusShipped].ID, page.Items[0].ID, "most recently updated first")

	page, err = f.s.ListShipments(ctx, models.ListQuery{Search: "900"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	page, err = f.s.ListShipments(ctx, models.ListQuery{Search: "nothing-matches"})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.NotNil(t, page.Items)
}

func TestService_ListOrders_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "L", "1000")

	for i := 0; i < 12; i++ {
		f.order(t, c.ID, models.StatusPending, 5)
	}
	shipped := f.order(t, c.ID, models.StatusShipped, 5)

	page, err := f.s.ListOrders(ctx, models.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 13, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, models.DefaultPageSize)
	require.Equal(t, shipped.ID, page.Items[0].ID)

	page, err = f.s.ListOrders(ctx, models.OrderQuery{ListQuery: models.ListQuery{Page: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.Equal(t, 2, page.Page)

	page, err = f.s.ListOrders(ctx, models.OrderQuery{Status: "SHIPPED"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	page, err = f.s.ListOrders(ctx, models.OrderQuery{Status: "all"})
	require.NoError(t, err)
	require.Equal(t, 13, page.Total)

	_, err = f.s.ListOrders(ctx, models.OrderQuery{Status: "lost"})
	require.ErrorIs(t, err, svc.ErrValidation)

	day := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	page, err = f.s.ListOrders(ctx, models.OrderQuery{Date: &day})
	require.NoError(t, err)
	require.Equal(t, 13, page.Total)

	other := day.AddDate(0, 0, 1)
	page, err = f.s.ListOrders(ctx, models.OrderQuery{Date: &other})
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestService_List_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "P", "1200")
	f.order(t, c.ID, models.StatusShipped, 5)

	huge := models.ListQuery{Page: math.MaxInt, PageSize: 10}

	orders, err := f.s.ListOrders(ctx, models.OrderQuery{ListQuery: huge})
	require.NoError(t, err)
	require.Empty(t, orders.Items)
	require.Equal(t, 1, orders.Total)
	require.Equal(t, math.MaxInt, orders.Page)

	shipments, err := f.s.ListShipments(ctx, huge)
	require.NoError(t, err)
	require.Empty(t, shipments.Items)
	require.Equal(t, 1, shipments.Total)

	customers, err := f.s.ListCustomers(ctx, huge)
	require.NoError(t, err)
	require.Empty(t, customers.Items)
}

func TestService_HandleMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "M", "1100")

	err := f.s.HandleMessage(ctx, "intake/0/1", []byte("not json"))
	require.ErrorIs(t, err, svc.ErrDecode)

	err = f.s.HandleMessage(ctx, "intake/0/2", []byte(`{"customerId":"`+c.ID+`","items":[]}`))
	require.ErrorIs(t, err, svc.ErrValidation)

	payload := fmt.Sprintf(`{"customerId":%q,"items":[{"name":"Boots","quantity":2,"price":35.5}],"shippingCost":4,"status":"processing"}`, c.ID)
	require.NoError(t, f.s.HandleMessage(ctx, "intake/0/3", []byte(payload)))

	orders, err := f.s.CustomerOrders(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.True(t, decimal.NewFromInt(75).Equal(orders[0].TotalAmount))
	require.NotNil(t, orders[0].TrackingCode)
}

func TestService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.customer(t, "A", "1")
	f.customer(t, "B", "2")

	f.order(t, a.ID, models.StatusPending, 5)
	f.order(t, a.ID, models.StatusProcessing, 5)
	f.order(t, a.ID, models.StatusShipped, 5)
	f.order(t, a.ID, models.StatusDelivered, 5)

	st, err := f.s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.TotalCustomers)
	require.Equal(t, 4, st.TotalOrders)
	require.Equal(t, 2, st.OpenOrders)
	require.Equal(t, 1, st.ShippedOrders)
	require.True(t, decimal.NewFromInt(48).Equal(st.TotalRevenue))
	require.Equal(t, 0, st.OrdersByStatus[models.StatusCancelled])
}

func TestService_PublishFailure_IsLoggedNotReturned(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	f := newFixture(t)
	f.events.err = errors.New("broker down")
	c := f.customer(t, "P", "1200")

	o := f.order(t, c.ID, models.StatusPending, 5)
	require.NotEmpty(t, o.ID)

	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Message == "order event not published" {
			found = true
			break
		}
	}
	require.True(t, found)
}

type customerStoreStub struct {
	repository.CustomerStore
	getErr error
}

func (s *customerStoreStub) Get(context.Context, string) (models.Customer, error) {
	return models.Customer{}, s.getErr
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func TestService_StoreErrors_AreTranslated(t *testing.T) {
	ctx := context.Background()
	down := fmt.Errorf("dial tcp: %w", repository.ErrUnavailable)
	repo := repository.New(&customerStoreStub{getErr: down}, nil, nil, pingStub{err: down})
	s := svc.NewService(repo)

	_, err := s.GetCustomer(ctx, "x")
	require.ErrorIs(t, err, svc.ErrUnavailable)
	require.ErrorIs(t, s.Ready(ctx), svc.ErrUnavailable)

	_, err = s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID: "x",
		Items:      []models.OrderItemInput{item("Hat", 5, 1)},
	})
	require.ErrorIs(t, err, svc.ErrUnavailable)
}

func TestRandomTrackingCode_Format(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := svc.RandomTrackingCode()
		require.Regexp(t, `^TRK\d{1,4}$`, code)
	}
}

func TestService_Amounts_MustFitTheStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Q", "1300")

	_, err := f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID:   c.ID,
		Items:        []models.OrderItemInput{{Name: "Pen", Quantity: 3, Price: decimal.RequireFromString("0.335")}},
		ShippingCost: decimal.RequireFromString("1.001"),
	})
	var verr *svc.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []svc.FieldError{
		{Field: "items[0].price", Reason: "must have at most 2 decimal places"},
		{Field: "shippingCost", Reason: "must have at most 2 decimal places"},
	}, verr.Fields)

	_, err = f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID: c.ID,
		Items:      []models.OrderItemInput{{Name: "Yacht", Quantity: 1, Price: decimal.RequireFromString("1000000000000")}},
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "items[0].price", verr.Fields[0].Field)

	_, err = f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID: c.ID,
		Items:      []models.OrderItemInput{{Name: "Bulk", Quantity: 2000000, Price: decimal.RequireFromString("999999.99")}},
	})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "totalAmount", verr.Fields[0].Field)

	o, err := f.s.CreateOrder(ctx, models.CreateOrderInput{
		CustomerID: c.ID,
		Items:      []models.OrderItemInput{{Name: "Pen", Quantity: 3, Price: decimal.RequireFromString("0.330")}},
	})
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("0.99").Equal(o.TotalPrice))

	ship := decimal.RequireFromString("2.555")
	_, err = f.s.UpdateOrder(ctx, o.ID, models.UpdateOrderInput{ShippingCost: &ship})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "shippingCost", verr.Fields[0].Field)

	got, err := f.s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.ShippingCost.IsZero())
}

func TestService_HandleMessage_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "R", "1400")
	payload := []byte(fmt.Sprintf(`{"customerId":%q,"items":[{"name":"Cup","quantity":1,"price":3}]}`, c.ID))

	require.NoError(t, f.s.HandleMessage(ctx, "intake/1/7", payload))
	require.NoError(t, f.s.HandleMessage(ctx, "intake/1/7", payload))

	cust, err := f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{svc.IntakeOrderID("intake/1/7")}, cust.Orders)
	require.Equal(t, []models.OrderEventType{models.EventOrderCreated}, f.events.types())

	require.NoError(t, f.s.HandleMessage(ctx, "intake/1/8", payload))
	require.NoError(t, f.s.HandleMessage(ctx, "", payload))
	cust, err = f.s.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, cust.Orders, 3)
	require.NotEqual(t, svc.IntakeOrderID("intake/1/7"), svc.IntakeOrderID("intake/1/8"))
}
