// Package catalog manages the vendor's items and categories.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/models"
	"storefront/pricing"
	"storefront/store"
	"storefront/utils"
)

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// CreateItem stores a new item. When the request carries a discount the
// final price is derived from it; a final price alone derives the
// discount; with neither the item sells at MRP.
func (s *Service) CreateItem(ctx context.Context, it models.Item) (models.Item, error) {
	it.ItemName = strings.TrimSpace(it.ItemName)
	if it.ItemName == "" {
		return models.Item{}, apperr.Validation("item_name is required")
	}
	fromFinal := it.Discount == nil && it.FinalPrice != 0
	if err := validateItem(it, fromFinal); err != nil {
		return models.Item{}, err
	}
	derivePrice(&it, fromFinal)
	if it.AdditionalImages == nil {
		it.AdditionalImages = []string{}
	}

	now := s.now()
	it.ID = utils.GetUUID()
	it.CreatedAt, it.UpdatedAt = now, now

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if it.CategoryID != "" {
			if _, err := getCategory(ctx, tx, it.CategoryID); err != nil {
				return err
			}
		}
		return tx.Items().Insert(ctx, it)
	})
	if err != nil {
		return models.Item{}, err
	}
	s.log.Info("item created", zap.String("item_id", it.ID), zap.String("name", it.ItemName))
	return it, nil
}

func (s *Service) UpdateItem(ctx context.Context, id string, p models.ItemPatch) (models.Item, error) {
	if p.ItemName != nil && strings.TrimSpace(*p.ItemName) == "" {
		return models.Item{}, apperr.Validation("item_name cannot be empty")
	}

	var it models.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if it, err = getItem(ctx, tx, id); err != nil {
			return err
		}
		if p.CategoryID != nil && *p.CategoryID != "" && *p.CategoryID != it.CategoryID {
			if _, err := getCategory(ctx, tx, *p.CategoryID); err != nil {
				return err
			}
		}

		// An explicit final price without a new discount re-derives the discount.
		fromFinal := p.FinalPrice != nil && p.Discount == nil
		p.Apply(&it)
		if err := validateItem(it, fromFinal); err != nil {
			return err
		}
		derivePrice(&it, fromFinal)
		it.UpdatedAt = s.now()
		return tx.Items().Update(ctx, it)
	})
	if err != nil {
		return models.Item{}, err
	}
	return it, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		err := tx.Items().Delete(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Item not found")
		}
		return err
	})
}

func (s *Service) Item(ctx context.Context, id string) (models.Item, error) {
	var it models.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		it, err = getItem(ctx, tx, id)
		return err
	})
	return it, err
}

func (s *Service) Items(ctx context.Context) ([]models.Item, error) {
	var out []models.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Items().List(ctx)
		return err
	})
	return nonNil(out), err
}

func (s *Service) ItemsByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	var out []models.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := getCategory(ctx, tx, categoryID); err != nil {
			return err
		}
		var err error
		out, err = tx.Items().ListByCategory(ctx, categoryID)
		return err
	})
	return nonNil(out), err
}

func (s *Service) CreateCategory(ctx context.Context, vendorID, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.Validation("category_name is required")
	}
	now := s.now()
	c := models.Category{ID: utils.GetUUID(), VendorID: vendorID, CategoryName: name, CreatedAt: now, UpdatedAt: now}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Categories().Insert(ctx, c)
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, p models.CategoryPatch) (models.Category, error) {
	if p.CategoryName != nil && strings.TrimSpace(*p.CategoryName) == "" {
		return models.Category{}, apperr.Validation("category_name cannot be empty")
	}
	var c models.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if c, err = getCategory(ctx, tx, id); err != nil {
			return err
		}
		p.Apply(&c)
		c.UpdatedAt = s.now()
		return tx.Categories().Update(ctx, c)
	})
	if err != nil {
		return models.Category{}, err
	}
	return c, nil
}

// DeleteCategory refuses while items still point at the category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := getCategory(ctx, tx, id); err != nil {
			return err
		}
		items, err := tx.Items().ListByCategory(ctx, id)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			return apperr.Conflict("Category still has %d items", len(items))
		}
		return tx.Categories().Delete(ctx, id)
	})
}

func (s *Service) Category(ctx context.Context, id string) (models.Category, error) {
	var c models.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		c, err = getCategory(ctx, tx, id)
		return err
	})
	return c, err
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Categories().List(ctx)
		return err
	})
	if out == nil {
		out = []models.Category{}
	}
	return out, err
}

// Menu lists every category with its items nested.
func (s *Service) Menu(ctx context.Context) ([]models.CategoryWithItems, error) {
	var out []models.CategoryWithItems
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cats, err := tx.Categories().List(ctx)
		if err != nil {
			return err
		}
		items, err := tx.Items().List(ctx)
		if err != nil {
			return err
		}
		byCat := make(map[string][]models.Item)
		for _, it := range items {
			byCat[it.CategoryID] = append(byCat[it.CategoryID], it)
		}
		out = make([]models.CategoryWithItems, 0, len(cats))
		for _, c := range cats {
			out = append(out, models.CategoryWithItems{Category: c, Items: nonNil(byCat[c.ID])})
		}
		return nil
	})
	return out, err
}

func validateItem(it models.Item, checkFinal bool) error {
	if it.ItemPrice <= 0 {
		return apperr.Validation("item_price must be greater than 0")
	}
	if d := it.Discount; d != nil && (*d < 0 || *d > 100) {
		return apperr.Validation("discount must be between 0 and 100")
	}
	if checkFinal && (it.FinalPrice < 0 || it.FinalPrice > it.ItemPrice) {
		return apperr.Validation("final_price must be between 0 and item_price")
	}
	if it.Quantity < 0 {
		return apperr.Validation("quantity cannot be negative")
	}
	return nil
}

// derivePrice keeps discount and final_price consistent. With fromFinal
// the final price is the source of truth.
func derivePrice(it *models.Item, fromFinal bool) {
	switch {
	case fromFinal:
		d := pricing.DiscountFromFinalPrice(it.ItemPrice, it.FinalPrice)
		it.Discount = &d
	case it.Discount != nil:
		it.FinalPrice = pricing.FinalPriceFromDiscount(it.ItemPrice, *it.Discount)
	default:
		it.FinalPrice = it.ItemPrice
	}
}

func getItem(ctx context.Context, tx store.Tx, id string) (models.Item, error) {
	it, err := tx.Items().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return it, apperr.NotFound("Item not found")
	}
	return it, err
}

func getCategory(ctx context.Context, tx store.Tx, id string) (models.Category, error) {
	c, err := tx.Categories().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return c, apperr.NotFound("Category not found")
	}
	return c, err
}

func nonNil(items []models.Item) []models.Item {
	if items == nil {
		return []models.Item{}
	}
	return items
}
