package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

type customerRecord struct {
	C   models.Customer
	Seq uint64
}

type customerRepo struct {
	v view
}

func (r *customerRepo) load(id string) (customerRecord, error) {
	val, ok := r.v.s.customers.Get(id)
	if !ok {
		return customerRecord{}, errors.Wrapf(repository.ErrNotFound, "customer %s", id)
	}
	rec, ok := val.(customerRecord)
	if !ok {
		return customerRecord{}, errors.Errorf("customer %s has unexpected type %T", id, val)
	}
	return rec, nil
}

func (r *customerRepo) phoneOwner(phone string) (string, bool) {
	val, ok := r.v.s.phones.Get(phone)
	if !ok {
		return "", false
	}
	id, _ := val.(string)
	return id, true
}

func stampAddresses(c *models.Customer) {
	for i := range c.Addresses {
		if c.Addresses[i].ID == "" {
			c.Addresses[i].ID = uuid.NewString()
		}
		c.Addresses[i].CustomerID = c.ID
		c.Addresses[i].Position = i
	}
}

func (r *customerRepo) Create(ctx context.Context, c *models.Customer) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	if _, taken := r.phoneOwner(c.Phone1); taken {
		return errors.Wrapf(repository.ErrConflict, "phone1 %s", c.Phone1)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := r.v.s.customers.Get(c.ID); exists {
		return errors.Wrapf(repository.ErrConflict, "customer %s", c.ID)
	}
	now := r.v.s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Orders == nil {
		c.Orders = []string{}
	}
	stampAddresses(c)

	r.v.put(r.v.s.customers, c.ID, customerRecord{C: cloneCustomer(*c), Seq: r.v.s.nextSeq()})
	r.v.put(r.v.s.phones, c.Phone1, c.ID)
	return nil
}

func (r *customerRepo) Get(ctx context.Context, id string) (models.Customer, error) {
	if err := alive(ctx); err != nil {
		return models.Customer{}, err
	}
	defer r.v.rlock()()

	rec, err := r.load(id)
	if err != nil {
		return models.Customer{}, err
	}
	return cloneCustomer(rec.C), nil
}

func (r *customerRepo) List(ctx context.Context, f repository.CustomerFilter) ([]models.Customer, int, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}
	defer r.v.rlock()()

	token := strings.ToLower(strings.TrimSpace(f.Search))
	var recs []customerRecord
	for _, val := range r.v.s.customers.Snapshot() {
		rec, ok := val.(customerRecord)
		if !ok {
			continue
		}
		if token != "" && !customerMatches(rec.C, token) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.C.CreatedAt.Equal(b.C.CreatedAt) {
			return a.C.CreatedAt.After(b.C.CreatedAt)
		}
		return a.Seq > b.Seq
	})

	total := len(recs)
	out := make([]models.Customer, 0, len(recs))
	for _, rec := range page(recs, f.Offset, f.Limit) {
		out = append(out, cloneCustomer(rec.C))
	}
	return out, total, nil
}

func customerMatches(c models.Customer, token string) bool {
	if strings.Contains(strings.ToLower(c.Name), token) || strings.Contains(strings.ToLower(c.Phone1), token) {
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
	return false
}

func (r *customerRepo) Count(ctx context.Context) (int, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	defer r.v.rlock()()
	return r.v.s.customers.Len(), nil
}

func (r *customerRepo) Update(ctx context.Context, c *models.Customer) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	rec, err := r.load(c.ID)
	if err != nil {
		return err
	}
	if c.Phone1 != rec.C.Phone1 {
		if owner, taken := r.phoneOwner(c.Phone1); taken && owner != c.ID {
			return errors.Wrapf(repository.ErrConflict, "phone1 %s", c.Phone1)
		}
		r.v.del(r.v.s.phones, rec.C.Phone1)
		r.v.put(r.v.s.phones, c.Phone1, c.ID)
	}

	c.CreatedAt = rec.C.CreatedAt
	c.UpdatedAt = r.v.s.now()
	c.Orders = append([]string{}, rec.C.Orders...)
	stampAddresses(c)
	rec.C = cloneCustomer(*c)
	r.v.put(r.v.s.customers, c.ID, rec)
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	rec, err := r.load(id)
	if err != nil {
		return err
	}
	r.v.del(r.v.s.customers, id)
	r.v.del(r.v.s.phones, rec.C.Phone1)
	return nil
}

func (r *customerRepo) AppendOrder(ctx context.Context, customerID, orderID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	rec, err := r.load(customerID)
	if err != nil {
		return err
	}
	if rec.C.HasOrder(orderID) {
		return nil
	}
	rec.C = cloneCustomer(rec.C)
	rec.C.Orders = append(rec.C.Orders, orderID)
	r.v.put(r.v.s.customers, customerID, rec)
	return nil
}

func (r *customerRepo) RemoveOrder(ctx context.Context, customerID, orderID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	defer r.v.lock()()

	rec, err := r.load(customerID)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(rec.C.Orders))
	for _, id := range rec.C.Orders {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	rec.C = cloneCustomer(rec.C)
	rec.C.Orders = kept
	r.v.put(r.v.s.customers, customerID, rec)
	return nil
}
