package service

import (
	"context"

	"orderdesk/internal/models"
)

func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	customers, err := s.repo.Customers.Count(ctx)
	if err != nil {
		return models.Stats{}, storeError(err, "count customers")
	}
	st, err := s.repo.Orders.Stats(ctx)
	if err != nil {
		return models.Stats{}, storeError(err, "order stats")
	}

	out := models.Stats{
		TotalCustomers: customers,
		TotalRevenue:   st.Revenue,
		OrdersByStatus: make(map[models.OrderStatus]int, len(models.OrderStatuses)),
	}
	for _, status := range models.OrderStatuses {
		n := st.ByStatus[status]
		out.OrdersByStatus[status] = n
		out.TotalOrders += n
		if status.IsOpen() {
			out.OpenOrders += n
		}
	}
	out.ShippedOrders = st.ByStatus[models.StatusShipped]
	return out, nil
}
