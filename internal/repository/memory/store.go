package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

// Store keeps customers and orders as documents in sharded key-value maps.
// Single calls lock the store for their own duration; Transaction holds the
// write lock for the whole unit of work and undoes its writes on error.
type Store struct {
	mu sync.RWMutex

	customers KV
	orders    KV
	phones    KV

	now func() time.Time
	seq uint64
}

type Option func(*Store)

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(opts ...Option) *Store {
	s := &Store{
		customers: NewShardedKV(),
		orders:    NewShardedKV(),
		phones:    NewShardedKV(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewRepository returns a Repository backed by a fresh in-memory store.
func NewRepository(opts ...Option) *repository.Repository {
	return NewStore(opts...).Repository()
}

func (s *Store) Repository() *repository.Repository {
	v := view{s: s}
	return repository.New(&customerRepo{v}, &orderRepo{v}, s, nil)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *repository.Repository) error) (err error) {
	if err := alive(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	v := view{s: s, j: j}
	tx := repository.New(&customerRepo{v}, &orderRepo{v}, nil, nil)

	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
		if err != nil {
			j.rollback()
		}
	}()
	return fn(tx)
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// view is the access path of a repository: bare, or bound to a transaction
// journal whose owner already holds the write lock.
type view struct {
	s *Store
	j *journal
}

func (v view) rlock() func() {
	if v.j != nil {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}

func (v view) lock() func() {
	if v.j != nil {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v view) put(kv KV, key string, val any) {
	if v.j != nil {
		v.j.record(kv, key)
	}
	kv.Put(key, val)
}

func (v view) del(kv KV, key string) {
	if v.j != nil {
		v.j.record(kv, key)
	}
	kv.Delete(key)
}

type undo struct {
	kv      KV
	key     string
	prev    any
	existed bool
}

type journal struct {
	entries []undo
}

func (j *journal) record(kv KV, key string) {
	prev, ok := kv.Get(key)
	j.entries = append(j.entries, undo{kv: kv, key: key, prev: prev, existed: ok})
}

func (j *journal) rollback() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if e.existed {
			e.kv.Put(e.key, e.prev)
		} else {
			e.kv.Delete(e.key)
		}
	}
	j.entries = nil
}

func alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(repository.ErrUnavailable, err.Error())
	}
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneCustomer(c models.Customer) models.Customer {
	c.Addresses = append([]models.Address{}, c.Addresses...)
	c.Orders = append([]string{}, c.Orders...)
	if c.Phone2 != nil {
		p := *c.Phone2
		c.Phone2 = &p
	}
	return c
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	o.Comments = append([]models.OrderComment{}, o.Comments...)
	if o.TrackingCode != nil {
		code := *o.TrackingCode
		o.TrackingCode = &code
	}
	return o
}
