package accounts

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

func validateGuest(g models.GuestUser) error {
	if err := validatePhone(g.PhoneNumber); err != nil {
		return err
	}
	if g.Email != "" {
		return validateEmail(g.Email)
	}
	return nil
}

func (s *Service) CreateGuest(ctx context.Context, g models.GuestUser) (models.GuestUser, error) {
	g.Email = normalizeEmail(g.Email)
	if err := validateGuest(g); err != nil {
		return models.GuestUser{}, err
	}
	now := s.now()
	g.ID = utils.GetUUID()
	g.CreatedAt, g.UpdatedAt = now, now

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Guests().Insert(ctx, g)
	})
	if err != nil {
		return models.GuestUser{}, err
	}
	s.log.Info("guest user created", zap.String("guest_user_id", g.ID))
	return g, nil
}

func (s *Service) Guest(ctx context.Context, id string) (models.GuestUser, error) {
	var g models.GuestUser
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = getGuest(ctx, tx, id)
		return err
	})
	return g, err
}

func (s *Service) GuestByPhone(ctx context.Context, phone string) (models.GuestUser, error) {
	if err := validatePhone(phone); err != nil {
		return models.GuestUser{}, err
	}
	var g models.GuestUser
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		g, err = tx.Guests().ByPhone(ctx, phone)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Guest user not found.")
		}
		return err
	})
	return g, err
}

func (s *Service) Guests(ctx context.Context) ([]models.GuestUser, error) {
	var out []models.GuestUser
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Guests().List(ctx)
		return err
	})
	if out == nil {
		out = []models.GuestUser{}
	}
	return out, err
}

func (s *Service) UpdateGuest(ctx context.Context, id string, p models.GuestPatch) (models.GuestUser, error) {
	var g models.GuestUser
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if g, err = getGuest(ctx, tx, id); err != nil {
			return err
		}
		p.Apply(&g)
		g.Email = normalizeEmail(g.Email)
		if err := validateGuest(g); err != nil {
			return err
		}
		g.UpdatedAt = s.now()
		return tx.Guests().Update(ctx, g)
	})
	if err != nil {
		return models.GuestUser{}, err
	}
	return g, nil
}

func getGuest(ctx context.Context, tx store.Tx, id string) (models.GuestUser, error) {
	g, err := tx.Guests().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return g, apperr.NotFound("Guest user not found")
	}
	return g, err
}
