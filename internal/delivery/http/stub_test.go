package http_test

import (
	"context"
	"fmt"

	"orderdesk/internal/models"
	"orderdesk/internal/service"
)

type svcStub struct {
	createCustomer    func(ctx context.Context, in models.CustomerInput) (models.Customer, error)
	getCustomer       func(ctx context.Context, id string) (models.Customer, error)
	listCustomers     func(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error)
	updateCustomer    func(ctx context.Context, id string, in models.CustomerUpdate) (models.Customer, error)
	deleteCustomer    func(ctx context.Context, id string) error
	customerOrders    func(ctx context.Context, id string) ([]models.Order, error)
	addAddress        func(ctx context.Context, id string, in models.AddressInput) (models.Customer, error)
	removeAddress     func(ctx context.Context, id, addressID string) (models.Customer, error)
	setDefaultAddress func(ctx context.Context, id, addressID string) (models.Customer, error)

	createOrder       func(ctx context.Context, in models.CreateOrderInput) (models.Order, error)
	updateOrderStatus func(ctx context.Context, id string, status models.OrderStatus, trackingCode string) (models.Order, error)
	updateOrder       func(ctx context.Context, id string, in models.UpdateOrderInput) (models.Order, error)
	addOrderComment   func(ctx context.Context, id, text string) (models.Order, error)
	deleteOrder       func(ctx context.Context, id string) error
	getOrder          func(ctx context.Context, id string) (models.OrderView, error)
	listOrders        func(ctx context.Context, q models.OrderQuery) (models.Page[models.OrderView], error)
	handle            func(ctx context.Context, messageID string, payload []byte) error

	listShipments        func(ctx context.Context, q models.ListQuery) (models.Page[models.OrderView], error)
	getShipment          func(ctx context.Context, id string) (models.OrderView, error)
	updateShipmentStatus func(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)

	stats func(ctx context.Context) (models.Stats, error)
	ready func(ctx context.Context) error
}

var _ service.API = (*svcStub)(nil)

var errNotImplemented = fmt.Errorf("not implemented")

func (s *svcStub) CreateCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	if s.createCustomer != nil {
		return s.createCustomer(ctx, in)
	}
	return models.Customer{}, errNotImplemented
}

func (s *svcStub) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	if s.getCustomer != nil {
		return s.getCustomer(ctx, id)
	}
	return models.Customer{}, service.ErrNotFound
}

func (s *svcStub) ListCustomers(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error) {
	if s.listCustomers != nil {
		return s.listCustomers(ctx, q)
	}
	return models.NewPage[models.Customer](nil, 0, q.Normalize()), nil
}

func (s *svcStub) UpdateCustomer(ctx context.Context, id string, in models.CustomerUpdate) (models.Customer, error) {
	if s.updateCustomer != nil {
		return s.updateCustomer(ctx, id, in)
	}
	return models.Customer{}, errNotImplemented
}

func (s *svcStub) DeleteCustomer(ctx context.Context, id string) error {
	if s.deleteCustomer != nil {
		return s.deleteCustomer(ctx, id)
	}
	return nil
}

func (s *svcStub) CustomerOrders(ctx context.Context, id string) ([]models.Order, error) {
	if s.customerOrders != nil {
		return s.customerOrders(ctx, id)
	}
	return nil, nil
}

func (s *svcStub) AddAddress(ctx context.Context, id string, in models.AddressInput) (models.Customer, error) {
	if s.addAddress != nil {
		return s.addAddress(ctx, id, in)
	}
	return models.Customer{}, errNotImplemented
}

func (s *svcStub) RemoveAddress(ctx context.Context, id, addressID string) (models.Customer, error) {
	if s.removeAddress != nil {
		return s.removeAddress(ctx, id, addressID)
	}
	return models.Customer{}, errNotImplemented
}

func (s *svcStub) SetDefaultAddress(ctx context.Context, id, addressID string) (models.Customer, error) {
	if s.setDefaultAddress != nil {
		return s.setDefaultAddress(ctx, id, addressID)
	}
	return models.Customer{}, errNotImplemented
}

func (s *svcStub) CreateOrder(ctx context.Context, in models.CreateOrderInput) (models.Order, error) {
	if s.createOrder != nil {
		return s.createOrder(ctx, in)
	}
	return models.Order{}, errNotImplemented
}

func (s *svcStub) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, trackingCode string) (models.Order, error) {
	if s.updateOrderStatus != nil {
		return s.updateOrderStatus(ctx, id, status, trackingCode)
	}
	return models.Order{}, errNotImplemented
}

func (s *svcStub) UpdateOrder(ctx context.Context, id string, in models.UpdateOrderInput) (models.Order, error) {
	if s.updateOrder != nil {
		return s.updateOrder(ctx, id, in)
	}
	return models.Order{}, errNotImplemented
}

func (s *svcStub) AddOrderComment(ctx context.Context, id, text string) (models.Order, error) {
	if s.addOrderComment != nil {
		return s.addOrderComment(ctx, id, text)
	}
	return models.Order{}, errNotImplemented
}

func (s *svcStub) DeleteOrder(ctx context.Context, id string) error {
	if s.deleteOrder != nil {
		return s.deleteOrder(ctx, id)
	}
	return nil
}

func (s *svcStub) GetOrder(ctx context.Context, id string) (models.OrderView, error) {
	if s.getOrder != nil {
		return s.getOrder(ctx, id)
	}
	return models.OrderView{}, service.ErrNotFound
}

func (s *svcStub) ListOrders(ctx context.Context, q models.OrderQuery) (models.Page[models.OrderView], error) {
	if s.listOrders != nil {
		return s.listOrders(ctx, q)
	}
	return models.NewPage[models.OrderView](nil, 0, q.ListQuery.Normalize()), nil
}

func (s *svcStub) HandleMessage(ctx context.Context, messageID string, payload []byte) error {
	if s.handle != nil {
		return s.handle(ctx, messageID, payload)
	}
	return nil
}

func (s *svcStub) ListShipments(ctx context.Context, q models.ListQuery) (models.Page[models.OrderView], error) {
	if s.listShipments != nil {
		return s.listShipments(ctx, q)
	}
	return models.NewPage[models.OrderView](nil, 0, q.Normalize()), nil
}

func (s *svcStub) GetShipment(ctx context.Context, id string) (models.OrderView, error) {
	if s.getShipment != nil {
		return s.getShipment(ctx, id)
	}
	return models.OrderView{}, service.ErrNotFound
}

func (s *svcStub) UpdateShipmentStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if s.updateShipmentStatus != nil {
		return s.updateShipmentStatus(ctx, id, status)
	}
	return models.Order{}, errNotImplemented
}

func (s *svcStub) Stats(ctx context.Context) (models.Stats, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return models.Stats{}, nil
}

func (s *svcStub) Ready(ctx context.Context) error {
	if s.ready != nil {
		return s.ready(ctx)
	}
	return nil
}
