package postgres

import (
	"context"

	"github.com/jinzhu/gorm"

	"orderdesk/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func NewRepository(db *gorm.DB) *repository.Repository {
	return NewStore(db).Repository()
}

func (s *Store) Repository() *repository.Repository {
	b := base{db: s.db}
	return repository.New(&CustomerPostgresRepo{b}, &OrderPostgresRepo{b}, s, s)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *repository.Repository) error) error {
	if err := alive(ctx); err != nil {
		return err
	}
	tx := s.db.BeginTx(ctx, nil)
	if tx.Error != nil {
		return classify(tx.Error, "begin transaction")
	}

	done := false
	defer func() {
		if !done {
			tx.Rollback()
		}
	}()

	b := base{db: tx, inTx: true}
	if err := fn(repository.New(&CustomerPostgresRepo{b}, &OrderPostgresRepo{b}, nil, nil)); err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return classify(err, "commit transaction")
	}
	done = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.DB().PingContext(ctx), "ping postgres")
}

type base struct {
	db   *gorm.DB
	inTx bool
}

// atomic runs fn in its own transaction unless the repository is already
// bound to one.
func (b base) atomic(fn func(tx *gorm.DB) error) error {
	if b.inTx {
		return fn(b.db)
	}
	return b.db.Transaction(fn)
}

func noAssoc(db *gorm.DB) *gorm.DB {
	return db.
		Set("gorm:association_autocreate", false).
		Set("gorm:association_autoupdate", false)
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func paginate(db *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db
}
