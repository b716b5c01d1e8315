package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

// ListShipments lists shipped and delivered orders, most recently updated
// first. The search token also matches the owner's phones and addresses.
func (s *Service) ListShipments(ctx context.Context, q models.ListQuery) (models.Page[models.OrderView], error) {
	q = q.Normalize()
	orders, total, err := s.repo.Orders.List(ctx, repository.OrderFilter{
		Statuses: models.ShipmentStatuses,
		Search:   strings.TrimSpace(q.Search),
		Scope:    repository.SearchShipments,
		Sort:     repository.SortUpdatedDesc,
		Offset:   q.Offset(),
		Limit:    q.PageSize,
	})
	if err != nil {
		return models.Page[models.OrderView]{}, storeError(err, "list shipments")
	}
	views, err := s.views(ctx, orders)
	if err != nil {
		return models.Page[models.OrderView]{}, err
	}
	return models.NewPage(views, total, q), nil
}

func (s *Service) GetShipment(ctx context.Context, id string) (models.OrderView, error) {
	v, err := s.GetOrder(ctx, id)
	if err != nil {
		return models.OrderView{}, err
	}
	if !v.Status.IsShipment() {
		return models.OrderView{}, errors.Wrapf(ErrNotFound, "order %s is not a shipment yet", id)
	}
	return v, nil
}

func (s *Service) UpdateShipmentStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.IsShipment() {
		return models.Order{}, invalid("status", "invalid shipment status, must be shipped or delivered")
	}
	return s.UpdateOrderStatus(ctx, id, status, "")
}
