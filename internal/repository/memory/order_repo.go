package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

// orderRecord keeps insertion and last-write sequence numbers so that
// orders stamped within the same clock tick still sort deterministically.
type orderRecord struct {
	O   models.Order
	Seq uint64
	Rev uint64
}

type orderRepo struct {
	v view
}

func (r *orderRepo) load(id string) (orderRecord, error) {
	val, ok := r.v.s.orders.Get(id)
	if !ok {
		return orderRecord{}, errors.Wrapf(repository.ErrNotFound, "order %s", id)
	}
	rec, ok := val.(orderRecord)
	if !ok {
		return orderRecord{}, errors.Errorf("order %s has unexpected type %T", id, val)
	}
	return rec, nil
}

func stampChildren(o *models.Order) {
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.NewString()
		}
		o.Items[i].OrderID = o.ID
		o.Items[i].Position = i
	}
	for i := range o.Comments {
		if o.Comments[i].ID == "" {
			o.Comments[i].ID = uuid.NewString()
		}
		o.Comments[i].OrderID = o.ID
		o.Comments[i].Position = i
	}
}

func (r *orderRepo) Create(ctx context.Context, o *models.Order) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, exists := r.v.s.orders.Get(o.ID); exists {
		return errors.Wrapf(repository.ErrConflict, "order %s", o.ID)
	}
	now := r.v.s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	stampChildren(o)

	seq := r.v.s.nextSeq()
	r.v.put(r.v.s.orders, o.ID, orderRecord{O: cloneOrder(*o), Seq: seq, Rev: seq})
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id string) (models.Order, error) {
	if err := alive(ctx); err != nil {
		return models.Order{}, err
	}
	defer r.v.rlock()()

	rec, err := r.load(id)
	if err != nil {
		return models.Order{}, err
	}
	return cloneOrder(rec.O), nil
}

func (r *orderRepo) GetMany(ctx context.Context, ids []string) ([]models.Order, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	defer r.v.rlock()()

	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		rec, err := r.load(id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, cloneOrder(rec.O))
	}
	return out, nil
}

func (r *orderRepo) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, int, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	defer r.v.rlock()()

	token := strings.ToLower(strings.TrimSpace(f.Search))
	var recs []orderRecord
	for _, val := range r.v.s.orders.Snapshot() {
		rec, ok := val.(orderRecord)
		if !ok {
			continue
		}
		if !r.matches(rec.O, f, token) {
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if f.Sort == repository.SortUpdatedDesc {
			if !a.O.UpdatedAt.Equal(b.O.UpdatedAt) {
				return a.O.UpdatedAt.After(b.O.UpdatedAt)
			}
			return a.Rev > b.Rev
		}
		if !a.O.CreatedAt.Equal(b.O.CreatedAt) {
			return a.O.CreatedAt.After(b.O.CreatedAt)
		}
		return a.Seq > b.Seq
	})

	total := len(recs)
	out := make([]models.Order, 0, len(recs))
	for _, rec := range page(recs, f.Offset, f.Limit) {
		out = append(out, cloneOrder(rec.O))
	}
	return out, total, nil
}

func (r *orderRepo) matches(o models.Order, f repository.OrderFilter, token string) bool {
	if len(f.Statuses) > 0 && !hasStatus(f.Statuses, o.Status) {
		return false
	}
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !o.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if token == "" {
		return true
	}

	if strings.Contains(strings.ToLower(o.ID), token) {
		return true
	}
	if o.TrackingCode != nil && strings.Contains(strings.ToLower(*o.TrackingCode), token) {
		return true
	}
	c, found := r.owner(o.CustomerID)
	if found && strings.Contains(strings.ToLower(c.Name), token) {
		return true
	}

	switch f.Scope {
	case repository.SearchShipments:
		if !found {
			return false
		}
		if strings.Contains(strings.ToLower(c.Phone1), token) {
			return true
		}
		if c.Phone2 != nil && strings.Contains(strings.ToLower(*c.Phone2), token) {
			return true
		}
		for _, a := range c.Addresses {
			if strings.Contains(strings.ToLower(a.Text), token) {
				return true
			}
		}
	default:
		for _, it := range o.Items {
			if strings.Contains(strings.ToLower(it.Name), token) {
				return true
			}
		}
	}
	return false
}

func (r *orderRepo) owner(customerID string) (models.Customer, bool) {
	val, ok := r.v.s.customers.Get(customerID)
	if !ok {
		return models.Customer{}, false
	}
	rec, ok := val.(customerRecord)
	return rec.C, ok
}

func hasStatus(list []models.OrderStatus, s models.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *orderRepo) Update(ctx context.Context, o *models.Order) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	rec, err := r.load(o.ID)
	if err != nil {
		return err
	}
	o.CreatedAt = rec.O.CreatedAt
	o.UpdatedAt = r.v.s.now()
	stampChildren(o)

	rec.O = cloneOrder(*o)
	rec.Rev = r.v.s.nextSeq()
	r.v.put(r.v.s.orders, o.ID, rec)
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	if _, err := r.load(id); err != nil {
		return err
	}
	r.v.del(r.v.s.orders, id)
	return nil
}

func (r *orderRepo) Stats(ctx context.Context) (repository.OrderStats, error) {
	if err := alive(ctx); err != nil {
		return repository.OrderStats{}, err
	}
	defer r.v.rlock()()

	st := repository.OrderStats{
		ByStatus: make(map[models.OrderStatus]int, len(models.OrderStatuses)),
		Revenue:  decimal.Zero,
	}
	for _, val := range r.v.s.orders.Snapshot() {
		rec, ok := val.(orderRecord)
		if !ok {
			continue
		}
		st.ByStatus[rec.O.Status]++
		st.Revenue = st.Revenue.Add(rec.O.TotalAmount)
	}
	return st, nil
}
