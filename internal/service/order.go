package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/metrics"
	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

func toItems(in []models.OrderItemInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		items = append(items, models.OrderItem{
			Name:     strings.TrimSpace(it.Name),
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return items
}

// maxMoney is the exclusive upper bound of any stored amount (NUMERIC(14,2)).
var maxMoney = decimal.New(1, 12)

func moneyReason(d decimal.Decimal) string {
	switch {
	case !d.Equal(d.Round(2)):
		return "must have at most 2 decimal places"
	case d.GreaterThanOrEqual(maxMoney):
		return "must be less than " + maxMoney.String()
	}
	return ""
}

// checkAmounts rejects prices and shipping costs the store cannot hold
// exactly, and totals that overflow it.
func checkAmounts(o models.Order) error {
	var fields []FieldError
	for i, it := range o.Items {
		if r := moneyReason(it.Price); r != "" {
			fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].price", i), Reason: r})
		}
	}
	if r := moneyReason(o.ShippingCost); r != "" {
		fields = append(fields, FieldError{Field: "shippingCost", Reason: r})
	}
	if len(fields) == 0 && o.TotalAmount.GreaterThanOrEqual(maxMoney) {
		fields = append(fields, FieldError{Field: "totalAmount", Reason: "must be less than " + maxMoney.String()})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// assignTracking attaches a tracking code to an order that is not pending and
// has none yet, preferring explicit over a generated one. An existing code is
// never replaced.
func (s *Service) assignTracking(o *models.Order, explicit string) string {
	if o.Status == models.StatusPending || o.HasTrackingCode() {
		return ""
	}
	code, source := strings.TrimSpace(explicit), "explicit"
	if code == "" {
		code, source = s.tracking(), "generated"
	}
	o.TrackingCode = &code
	return source
}

func logTracking(o models.Order, source string) {
	if source == "" {
		return
	}
	metrics.TrackingCodesAssigned.WithLabelValues(source).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":      o.ID,
		"tracking_code": *o.TrackingCode,
		"source":        source,
	}).Info("tracking code assigned")
}

// refreshRating sets the customer's rating to the rounded mean of its
// orders' ratings. A customer without orders keeps its rating; a customer
// that no longer exists is skipped.
func (s *Service) refreshRating(ctx context.Context, tx *repository.Repository, customerID string) error {
	c, err := lookupCustomer(ctx, tx, customerID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	orders, err := tx.Orders.GetMany(ctx, c.Orders)
	if err != nil {
		return storeError(err, "customer orders")
	}
	ratings := make([]int, 0, len(orders))
	for _, o := range orders {
		ratings = append(ratings, o.Rating)
	}
	avg, ok := models.AverageRating(ratings)
	if !ok || avg == c.Rating {
		return nil
	}
	c.Rating = avg
	return storeError(tx.Customers.Update(ctx, &c), "update customer rating")
}

func (s *Service) CreateOrder(ctx context.Context, in models.CreateOrderInput) (models.Order, error) {
	return s.createOrder(ctx, in, "")
}

// createOrder creates the order under id, or a fresh id when id is empty.
func (s *Service) createOrder(ctx context.Context, in models.CreateOrderInput, id string) (models.Order, error) {
	if err := s.validate(in); err != nil {
		return models.Order{}, err
	}

	o := models.Order{
		ID:           id,
		CustomerID:   strings.TrimSpace(in.CustomerID),
		Items:        toItems(in.Items),
		ShippingCost: in.ShippingCost,
		Status:       in.Status,
		Rating:       models.DefaultRating,
		Comments:     []models.OrderComment{},
	}
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	if in.Rating != nil {
		o.Rating = *in.Rating
	}
	now := s.now()
	for _, text := range in.Comments {
		o.Comments = append(o.Comments, models.OrderComment{Text: text, CreatedAt: now})
	}
	o.ApplyTotals()
	if err := checkAmounts(o); err != nil {
		return models.Order{}, err
	}
	source := s.assignTracking(&o, "")

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := lookupCustomer(ctx, tx, o.CustomerID); err != nil {
			return err
		}
		if err := tx.Orders.Create(ctx, &o); err != nil {
			return storeError(err, "create order")
		}
		if err := tx.Customers.AppendOrder(ctx, o.CustomerID, o.ID); err != nil {
			return storeError(err, "link order to customer")
		}
		return s.refreshRating(ctx, tx, o.CustomerID)
	})
	if err != nil {
		return models.Order{}, storeError(err, "create order")
	}

	metrics.OrdersCreated.Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"customer_id":  o.CustomerID,
		"status":       o.Status,
		"total_amount": o.TotalAmount.String(),
	}).Info("order created")
	logTracking(o, source)
	s.publish(ctx, models.EventOrderCreated, o)
	return o, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, trackingCode string) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, invalid("status", "must be one of pending, processing, shipped, delivered, cancelled")
	}

	var (
		out    models.Order
		prev   models.OrderStatus
		source string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		o, err := tx.Orders.Get(ctx, id)
		if err != nil {
			return storeError(err, "order "+id)
		}
		prev = o.Status
		o.Status = status
		source = s.assignTracking(&o, trackingCode)
		if err := tx.Orders.Update(ctx, &o); err != nil {
			return storeError(err, "update order "+id)
		}
		out = o
		return nil
	})
	if err != nil {
		return models.Order{}, storeError(err, "update order status")
	}

	s.afterStatusChange(ctx, out, prev, source)
	return out, nil
}

func (s *Service) afterStatusChange(ctx context.Context, o models.Order, prev models.OrderStatus, source string) {
	logTracking(o, source)
	if prev == o.Status {
		s.publish(ctx, models.EventOrderUpdated, o)
		return
	}
	metrics.StatusTransitions.WithLabelValues(string(prev), string(o.Status)).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id": o.ID,
		"from":     prev,
		"to":       o.Status,
	}).Info("order status changed")
	s.publish(ctx, models.EventOrderStatusChanged, o)
}

func (s *Service) UpdateOrder(ctx context.Context, id string, in models.UpdateOrderInput) (models.Order, error) {
	if err := s.validate(in); err != nil {
		return models.Order{}, err
	}

	var (
		out    models.Order
		prev   models.OrderStatus
		source string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		o, err := tx.Orders.Get(ctx, id)
		if err != nil {
			return storeError(err, "order "+id)
		}
		prev = o.Status

		if in.Items != nil {
			o.Items = toItems(in.Items)
		}
		if in.ShippingCost != nil {
			o.ShippingCost = *in.ShippingCost
		}
		o.ApplyTotals()
		if err := checkAmounts(o); err != nil {
			return err
		}

		if in.Status != nil {
			o.Status = *in.Status
		}
		explicit := ""
		if in.TrackingCode != nil {
			explicit = *in.TrackingCode
		}
		source = s.assignTracking(&o, explicit)

		ratingChanged := in.Rating != nil && *in.Rating != o.Rating
		if in.Rating != nil {
			o.Rating = *in.Rating
		}

		if err := tx.Orders.Update(ctx, &o); err != nil {
			return storeError(err, "update order "+id)
		}
		out = o
		if ratingChanged {
			return s.refreshRating(ctx, tx, o.CustomerID)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, storeError(err, "update order")
	}

	s.afterStatusChange(ctx, out, prev, source)
	return out, nil
}

func (s *Service) AddOrderComment(ctx context.Context, id, text string) (models.Order, error) {
	in := models.CommentInput{Text: strings.TrimSpace(text)}
	if err := s.validate(in); err != nil {
		return models.Order{}, err
	}

	var out models.Order
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		o, err := tx.Orders.Get(ctx, id)
		if err != nil {
			return storeError(err, "order "+id)
		}
		o.Comments = append(o.Comments, models.OrderComment{Text: in.Text, CreatedAt: s.now()})
		if err := tx.Orders.Update(ctx, &o); err != nil {
			return storeError(err, "update order "+id)
		}
		out = o
		return nil
	})
	if err != nil {
		return models.Order{}, storeError(err, "add comment")
	}

	s.publish(ctx, models.EventOrderUpdated, out)
	return out, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	var deleted models.Order
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		o, err := tx.Orders.Get(ctx, id)
		if err != nil {
			return storeError(err, "order "+id)
		}
		if err := tx.Orders.Delete(ctx, id); err != nil {
			return storeError(err, "delete order "+id)
		}

		err = tx.Customers.RemoveOrder(ctx, o.CustomerID, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			logrus.WithFields(logrus.Fields{
				"order_id":    id,
				"customer_id": o.CustomerID,
			}).Warn("order owner no longer exists, skipping reference removal")
		case err != nil:
			return storeError(err, "unlink order from customer")
		default:
			if err := s.refreshRating(ctx, tx, o.CustomerID); err != nil {
				return err
			}
		}
		deleted = o
		return nil
	})
	if err != nil {
		return storeError(err, "delete order")
	}

	metrics.OrdersDeleted.Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":    deleted.ID,
		"customer_id": deleted.CustomerID,
	}).Info("order deleted")
	s.publish(ctx, models.EventOrderDeleted, deleted)
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (models.OrderView, error) {
	o, err := s.repo.Orders.Get(ctx, id)
	if err != nil {
		return models.OrderView{}, storeError(err, "order "+id)
	}
	views, err := s.views(ctx, []models.Order{o})
	if err != nil {
		return models.OrderView{}, err
	}
	return views[0], nil
}

// views attaches the owner summary to each order, looking every customer up
// once. A deleted owner yields a nil summary.
func (s *Service) views(ctx context.Context, orders []models.Order) ([]models.OrderView, error) {
	owners := make(map[string]*models.CustomerSummary)
	out := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		summary, seen := owners[o.CustomerID]
		if !seen {
			c, err := findCustomer(ctx, s.repo, o.CustomerID)
			if err != nil {
				return nil, err
			}
			if c != nil {
				summary = c.Summary()
			}
			owners[o.CustomerID] = summary
		}
		out = append(out, models.OrderView{Order: o, Customer: summary})
	}
	return out, nil
}

func (s *Service) ListOrders(ctx context.Context, q models.OrderQuery) (models.Page[models.OrderView], error) {
	lq := q.ListQuery.Normalize()
	f := repository.OrderFilter{
		Search: strings.TrimSpace(lq.Search),
		Scope:  repository.SearchOrders,
		Sort:   repository.SortCreatedDesc,
		Offset: lq.Offset(),
		Limit:  lq.PageSize,
	}

	if raw := strings.TrimSpace(q.Status); raw != "" && !strings.EqualFold(raw, "all") {
		st, ok := models.ParseOrderStatus(raw)
		if !ok {
			return models.Page[models.OrderView]{}, invalid("status", "must be all or one of pending, processing, shipped, delivered, cancelled")
		}
		f.Statuses = []models.OrderStatus{st}
	}
	if q.Date != nil {
		d := q.Date.UTC()
		from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 1)
		f.CreatedFrom, f.CreatedTo = &from, &to
	}

	orders, total, err := s.repo.Orders.List(ctx, f)
	if err != nil {
		return models.Page[models.OrderView]{}, storeError(err, "list orders")
	}
	views, err := s.views(ctx, orders)
	if err != nil {
		return models.Page[models.OrderView]{}, err
	}
	return models.NewPage(views, total, lq), nil
}

// intakeNamespace scopes order ids derived from intake message ids.
var intakeNamespace = uuid.MustParse("6f1c7a52-3c1e-4d8b-9a57-0b2f4e8d1c90")

// IntakeOrderID is the id given to the order created from the intake message
// messageID. Redelivering a message therefore targets the same order.
func IntakeOrderID(messageID string) string {
	return uuid.NewSHA1(intakeNamespace, []byte(messageID)).String()
}

// HandleMessage creates an order from a create-order command received on the
// intake topic. A message that already produced its order is acknowledged
// without creating another one. An empty messageID disables that check.
func (s *Service) HandleMessage(ctx context.Context, messageID string, payload []byte) error {
	var in models.CreateOrderInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return errors.Wrap(ErrDecode, err.Error())
	}

	id := ""
	if messageID != "" {
		id = IntakeOrderID(messageID)
	}
	o, err := s.createOrder(ctx, in, id)
	if err != nil {
		if id != "" && errors.Is(err, ErrConflict) {
			if _, gerr := s.repo.Orders.Get(ctx, id); gerr == nil {
				logrus.WithFields(logrus.Fields{
					"order_id":   id,
					"message_id": messageID,
				}).Info("intake message already handled")
				return nil
			}
		}
		return err
	}
	logrus.WithFields(logrus.Fields{"order_id": o.ID, "message_id": messageID}).Debug("order intake handled")
	return nil
}
