package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"orderdesk/internal/models"
	"orderdesk/internal/repository"
)

func toAddresses(in []models.AddressInput) []models.Address {
	out := make([]models.Address, 0, len(in))
	for _, a := range in {
		out = append(out, toAddress(a))
	}
	return out
}

func toAddress(a models.AddressInput) models.Address {
	return models.Address{
		Title:     strings.TrimSpace(a.Title),
		Text:      strings.TrimSpace(a.Text),
		IsDefault: a.IsDefault,
	}
}

func optionalPhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func phoneConflict(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return errors.Wrap(ErrConflict, "phone number already exists")
	}
	return err
}

func (s *Service) CreateCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	if err := s.validate(in); err != nil {
		return models.Customer{}, err
	}

	c := models.Customer{
		Name:      strings.TrimSpace(in.Name),
		Phone1:    strings.TrimSpace(in.Phone1),
		Phone2:    optionalPhone(in.Phone2),
		Addresses: toAddresses(in.Addresses),
		Rating:    models.DefaultRating,
		Orders:    []string{},
	}
	models.NormalizeAddresses(c.Addresses)

	if err := s.repo.Customers.Create(ctx, &c); err != nil {
		return models.Customer{}, storeError(phoneConflict(err), "create customer")
	}
	logrus.WithField("customer_id", c.ID).Info("customer created")
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	return lookupCustomer(ctx, s.repo, id)
}

func (s *Service) ListCustomers(ctx context.Context, q models.ListQuery) (models.Page[models.Customer], error) {
	q = q.Normalize()
	list, total, err := s.repo.Customers.List(ctx, repository.CustomerFilter{
		Search: strings.TrimSpace(q.Search),
		Offset: q.Offset(),
		Limit:  q.PageSize,
	})
	if err != nil {
		return models.Page[models.Customer]{}, storeError(err, "list customers")
	}
	return models.NewPage(list, total, q), nil
}

// mutateCustomer loads the customer, applies fn and stores the result in one
// unit of work. fn may reject the change with an error.
func (s *Service) mutateCustomer(ctx context.Context, id string, fn func(c *models.Customer) error) (models.Customer, error) {
	var out models.Customer
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := lookupCustomer(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		models.NormalizeAddresses(c.Addresses)
		if err := tx.Customers.Update(ctx, &c); err != nil {
			return storeError(phoneConflict(err), "update customer "+id)
		}
		out = c
		return nil
	})
	if err != nil {
		return models.Customer{}, storeError(err, "update customer")
	}
	return out, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, in models.CustomerUpdate) (models.Customer, error) {
	if err := s.validate(in); err != nil {
		return models.Customer{}, err
	}
	return s.mutateCustomer(ctx, id, func(c *models.Customer) error {
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone1 != nil {
			c.Phone1 = strings.TrimSpace(*in.Phone1)
		}
		if in.Phone2 != nil {
			c.Phone2 = optionalPhone(in.Phone2)
		}
		if in.Addresses != nil {
			c.Addresses = toAddresses(in.Addresses)
		}
		return nil
	})
}

// DeleteCustomer removes the customer only; its orders stay and are shown
// without an owner.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.Customers.Delete(ctx, id); err != nil {
		return storeError(err, "customer "+id)
	}
	logrus.WithField("customer_id", id).Info("customer deleted")
	return nil
}

// CustomerOrders returns the customer's orders in creation order. References
// to orders that no longer exist are skipped.
func (s *Service) CustomerOrders(ctx context.Context, id string) ([]models.Order, error) {
	c, err := lookupCustomer(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.Orders.GetMany(ctx, c.Orders)
	if err != nil {
		return nil, storeError(err, "customer orders")
	}
	if len(orders) != len(c.Orders) {
		logrus.WithFields(logrus.Fields{
			"customer_id": id,
			"dangling":    len(c.Orders) - len(orders),
		}).Warn("customer references missing orders")
	}
	return orders, nil
}

func (s *Service) AddAddress(ctx context.Context, id string, in models.AddressInput) (models.Customer, error) {
	if err := s.validate(in); err != nil {
		return models.Customer{}, err
	}
	return s.mutateCustomer(ctx, id, func(c *models.Customer) error {
		a := toAddress(in)
		if a.IsDefault {
			for i := range c.Addresses {
				c.Addresses[i].IsDefault = false
			}
		}
		c.Addresses = append(c.Addresses, a)
		return nil
	})
}

func addressIndex(c *models.Customer, addressID string) (int, error) {
	for i := range c.Addresses {
		if c.Addresses[i].ID == addressID {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrNotFound, "address %s", addressID)
}

func (s *Service) RemoveAddress(ctx context.Context, id, addressID string) (models.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *models.Customer) error {
		i, err := addressIndex(c, addressID)
		if err != nil {
			return err
		}
		if len(c.Addresses) == 1 {
			return invalid("addresses", "a customer needs at least one address")
		}
		c.Addresses = append(c.Addresses[:i], c.Addresses[i+1:]...)
		return nil
	})
}

func (s *Service) SetDefaultAddress(ctx context.Context, id, addressID string) (models.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *models.Customer) error {
		i, err := addressIndex(c, addressID)
		if err != nil {
			return err
		}
		for j := range c.Addresses {
			c.Addresses[j].IsDefault = j == i
		}
		return nil
	})
}
