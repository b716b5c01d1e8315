package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

type OrderPostgresRepo struct {
	base
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

func insertChildren(tx *gorm.DB, o *models.Order) error {
	for i := range o.Items {
		if err := tx.Model(&models.OrderItem{}).Create(&o.Items[i]).Error; err != nil {
			return err
		}
	}
	for i := range o.Comments {
		if err := tx.Model(&models.OrderComment{}).Create(&o.Comments[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", byPosition).Preload("Comments", byPosition)
}

func (r *OrderPostgresRepo) Create(ctx context.Context, o *models.Order) error {
	if err := alive(ctx); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	stampChildren(o)

	err := r.atomic(func(tx *gorm.DB) error {
		if err := noAssoc(tx).Create(o).Error; err != nil {
			return err
		}
		return insertChildren(tx, o)
	})
	return classify(err, "create order %s", o.ID)
}

func (r *OrderPostgresRepo) Get(ctx context.Context, id string) (models.Order, error) {
	if err := alive(ctx); err != nil {
		return models.Order{}, err
	}
	var o models.Order
	err := withChildren(r.db).
		Where("id = ?", id).
		First(&o).Error
	return o, classify(err, "get order %s", id)
}

func (r *OrderPostgresRepo) GetMany(ctx context.Context, ids []string) ([]models.Order, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Order{}, nil
	}

	var found []models.Order
	if err := withChildren(r.db).
		Where("id IN (?)", ids).
		Find(&found).Error; err != nil {
		return nil, classify(err, "get orders")
	}

	byID := make(map[string]models.Order, len(found))
	for _, o := range found {
		byID[o.ID] = o
	}
	out := make([]models.Order, 0, len(found))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderPostgresRepo) List(ctx context.Context, f repository.OrderFilter) ([]models.Order, int, error) {
	if err := alive(ctx); err != nil {
		return nil, 0, err
	}

	q := r.db.Model(&models.Order{})
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("orders.status IN (?)", statuses)
	}
	if f.CustomerID != "" {
		q = q.Where("orders.customer_id = ?", f.CustomerID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("orders.created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("orders.created_at < ?", *f.CreatedTo)
	}
	if f.Search != "" {
		q = searchOrders(q, f.Scope, likePattern(f.Search))
	}

	var total int
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "count orders")
	}

	sortBy := "orders.created_at DESC, orders.id DESC"
	if f.Sort == repository.SortUpdatedDesc {
		sortBy = "orders.updated_at DESC, orders.id DESC"
	}

	var out []models.Order
	if err := withChildren(paginate(q, f.Offset, f.Limit)).
		Select("orders.*").
		Order(sortBy).
		Find(&out).Error; err != nil {
		return nil, 0, classify(err, "list orders")
	}
	if out == nil {
		out = []models.Order{}
	}
	return out, total, nil
}

func searchOrders(q *gorm.DB, scope repository.SearchScope, p string) *gorm.DB {
	q = q.Joins("LEFT JOIN customers ON customers.id = orders.customer_id")
	if scope == repository.SearchShipments {
		return q.Where(`orders.id ILIKE ? OR orders.tracking_code ILIKE ? OR customers.name ILIKE ?
			OR customers.phone1 ILIKE ? OR customers.phone2 ILIKE ?
			OR EXISTS (SELECT 1 FROM addresses a WHERE a.customer_id = customers.id AND a.text ILIKE ?)`,
			p, p, p, p, p, p)
	}
	return q.Where(`orders.id ILIKE ? OR orders.tracking_code ILIKE ? OR customers.name ILIKE ?
		OR EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = orders.id AND i.name ILIKE ?)`,
		p, p, p, p)
}

func (r *OrderPostgresRepo) Update(ctx context.Context, o *models.Order) error {
	if err := alive(ctx); err != nil {
		return err
	}
	stampChildren(o)

	err := r.atomic(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ?", o.ID).
			UpdateColumns(map[string]interface{}{
				"total_price":   o.TotalPrice,
				"shipping_cost": o.ShippingCost,
				"total_amount":  o.TotalAmount,
				"status":        string(o.Status),
				"tracking_code": o.TrackingCode,
				"rating":        o.Rating,
				"updated_at":    time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderComment{}).Error; err != nil {
			return err
		}
		if err := insertChildren(tx, o); err != nil {
			return err
		}

		var fresh models.Order
		if err := withChildren(tx).Where("id = ?", o.ID).First(&fresh).Error; err != nil {
			return err
		}
		*o = fresh
		return nil
	})
	return classify(err, "update order %s", o.ID)
}

func (r *OrderPostgresRepo) Delete(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	err := r.atomic(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderComment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return classify(err, "delete order %s", id)
}

type statusRow struct {
	Status  string
	N       int
	Revenue decimal.Decimal
}

func (r *OrderPostgresRepo) Stats(ctx context.Context) (repository.OrderStats, error) {
	if err := alive(ctx); err != nil {
		return repository.OrderStats{}, err
	}

	var rows []statusRow
	if err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS n, COALESCE(SUM(total_amount), 0) AS revenue").
		Group("status").
		Scan(&rows).Error; err != nil {
		return repository.OrderStats{}, classify(err, "order stats")
	}

	st := repository.OrderStats{
		ByStatus: make(map[models.OrderStatus]int, len(rows)),
		Revenue:  decimal.Zero,
	}
	for _, row := range rows {
		st.ByStatus[models.OrderStatus(row.Status)] = row.N
		st.Revenue = st.Revenue.Add(row.Revenue)
	}
	return st, nil
}
