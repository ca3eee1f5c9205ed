package accounts

import (
	"context"
	"errors"

	"storefront/apperr"
	"storefront/globals"
	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

// CreateAddress files a delivery address under an existing customer.
func (s *Service) CreateAddress(ctx context.Context, a models.Address) (models.Address, error) {
	if a.AddressLine == "" {
		return models.Address{}, apperr.Validation("address_line is required")
	}
	now := s.now()
	a.ID = utils.GetUUID()
	a.CreatedAt, a.UpdatedAt = now, now

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Accounts().Get(ctx, globals.RoleCustomer, a.CustomerID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Customer not found")
		}
		if err != nil {
			return err
		}
		return tx.Addresses().Insert(ctx, a)
	})
	if err != nil {
		return models.Address{}, err
	}
	return a, nil
}

func (s *Service) UpdateAddress(ctx context.Context, id string, p models.AddressPatch) (models.Address, error) {
	var a models.Address
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		a, err = tx.Addresses().Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Address not found")
		}
		if err != nil {
			return err
		}
		p.Apply(&a)
		a.UpdatedAt = s.now()
		return tx.Addresses().Update(ctx, a)
	})
	if err != nil {
		return models.Address{}, err
	}
	return a, nil
}

func (s *Service) Addresses(ctx context.Context, customerID string) ([]models.Address, error) {
	var out []models.Address
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Addresses().ListByCustomer(ctx, customerID)
		return err
	})
	if out == nil {
		out = []models.Address{}
	}
	return out, err
}
