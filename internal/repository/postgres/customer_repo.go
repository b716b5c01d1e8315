package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

// customerOrderRef is a row of customer_orders; seq keeps insertion order.
type customerOrderRef struct {
	CustomerID string
	OrderID    string
}

type CustomerPostgresRepo struct {
	base
}

func (r *CustomerPostgresRepo) Create(ctx context.Context, c *models.Customer) error {
	if err := alive(ctx); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Orders == nil {
		c.Orders = []string{}
	}
	stampAddresses(c)

	err := r.atomic(func(tx *gorm.DB) error {
		if err := noAssoc(tx).Create(c).Error; err != nil {
			return err
		}
		return insertAddresses(tx, c.Addresses)
	})
	return classify(err, "create customer %s", c.ID)
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

func insertAddresses(tx *gorm.DB, addrs []models.Address) error {
	for i := range addrs {
		if err := tx.Model(&models.Address{}).Create(&addrs[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *CustomerPostgresRepo) Get(ctx context.Context, id string) (models.Customer, error) {
	if err := alive(ctx); err != nil {
		return models.Customer{}, err
	}
	c, err := r.get(r.db, id)
	return c, classify(err, "get customer %s", id)
}

func (r *CustomerPostgresRepo) get(db *gorm.DB, id string) (models.Customer, error) {
	var c models.Customer
	if err := db.Preload("Addresses", byPosition).
		Where("id = ?", id).
		First(&c).Error; err != nil {
		return models.Customer{}, err
	}
	refs, err := orderRefs(db, []string{id})
	if err != nil {
		return models.Customer{}, err
	}
	c.Orders = refs[id]
	if c.Orders == nil {
		c.Orders = []string{}
	}
	return c, nil
}

func orderRefs(db *gorm.DB, customerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(customerIDs))
	if len(customerIDs) == 0 {
		return out, nil
	}
	var rows []customerOrderRef
	if err := db.Table("customer_orders").
		Select("customer_id, order_id").
		Where("customer_id IN (?)", customerIDs).
		Order("seq ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CustomerID] = append(out[row.CustomerID], row.OrderID)
	}
	return out, nil
}

func (r *CustomerPostgresRepo) List(ctx context.Context, f repository.CustomerFilter) ([]models.Customer, int, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}

	q := r.db.Model(&models.Customer{})
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`customers.name ILIKE ? OR customers.phone1 ILIKE ? OR customers.phone2 ILIKE ?
			OR EXISTS (SELECT 1 FROM addresses a WHERE a.customer_id = customers.id AND a.text ILIKE ?)`,
			p, p, p, p)
	}

	var total int
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "count customers")
	}

	var out []models.Customer
	if err := paginate(q, f.Offset, f.Limit).
		Preload("Addresses", byPosition).
		Order("customers.created_at DESC, customers.id DESC").
		Find(&out).Error; err != nil {
		return nil, 0, classify(err, "list customers")
	}

	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	refs, err := orderRefs(r.db, ids)
	if err != nil {
		return nil, 0, classify(err, "list customer orders")
	}
	for i := range out {
		out[i].Orders = refs[out[i].ID]
		if out[i].Orders == nil {
			out[i].Orders = []string{}
		}
	}
	return out, total, nil
}

func (r *CustomerPostgresRepo) Count(ctx context.Context) (int, error) {
	if err := alive(ctx); err != nil {
		return 0, err
	}
	var n int
	err := r.db.Model(&models.Customer{}).Count(&n).Error
	return n, classify(err, "count customers")
}

func (r *CustomerPostgresRepo) Update(ctx context.Context, c *models.Customer) error {
	if err := alive(ctx); err != nil {
		return err
	}
	stampAddresses(c)

	err := r.atomic(func(tx *gorm.DB) error {
		res := tx.Model(&models.Customer{}).
			Where("id = ?", c.ID).
			UpdateColumns(map[string]interface{}{
				"name":       c.Name,
				"phone1":     c.Phone1,
				"phone2":     c.Phone2,
				"rating":     c.Rating,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("customer_id = ?", c.ID).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		if err := insertAddresses(tx, c.Addresses); err != nil {
			return err
		}

		fresh, err := r.get(tx, c.ID)
		if err != nil {
			return err
		}
		*c = fresh
		return nil
	})
	return classify(err, "update customer %s", c.ID)
}

func (r *CustomerPostgresRepo) Delete(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	err := r.atomic(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM customer_orders WHERE customer_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Customer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return classify(err, "delete customer %s", id)
}

func (r *CustomerPostgresRepo) exists(db *gorm.DB, id string) error {
	var n int
	if err := db.Model(&models.Customer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CustomerPostgresRepo) AppendOrder(ctx context.Context, customerID, orderID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	err := r.atomic(func(tx *gorm.DB) error {
		if err := r.exists(tx, customerID); err != nil {
			return err
		}
		return tx.Exec(`INSERT INTO customer_orders (customer_id, order_id) VALUES (?, ?)
			ON CONFLICT (customer_id, order_id) DO NOTHING`, customerID, orderID).Error
	})
	return classify(err, "append order %s to customer %s", orderID, customerID)
}

func (r *CustomerPostgresRepo) RemoveOrder(ctx context.Context, customerID, orderID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	err := r.atomic(func(tx *gorm.DB) error {
		if err := r.exists(tx, customerID); err != nil {
			return err
		}
		return tx.Exec("DELETE FROM customer_orders WHERE customer_id = ? AND order_id = ?", customerID, orderID).Error
	})
	return classify(err, "remove order %s from customer %s", orderID, customerID)
}
