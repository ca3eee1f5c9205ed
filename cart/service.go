package cart

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/globals"
	"storefront/identity"
	"storefront/models"
	"storefront/pricing"
	"storefront/store"
	"storefront/utils"
)

// LineRequest asks for quantity more units of an item.
type LineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// LineView is one cart line as served to clients. ItemPrice is the unit
// price after the stacked discount; CartDiscount is that discount in percent.
type LineView struct {
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	ItemPrice    float64 `json:"item_price"`
	MRPPrice     float64 `json:"mrp_price"`
	CartDiscount float64 `json:"cart_discount"`
	Quantity     int     `json:"quantity"`
	TotalPrice   float64 `json:"total_price"`
	ProductImage string  `json:"product_image,omitempty"`
}

// View is a whole cart. MRPPrice sums mrp*quantity, CartDiscount sums the
// amount saved, and TotalCartPrice sums the line totals.
type View struct {
	CartID         string     `json:"cart_id"`
	CustomerID     string     `json:"customer_id,omitempty"`
	GuestUserID    string     `json:"guest_user_id,omitempty"`
	Items          []LineView `json:"items"`
	MRPPrice       float64    `json:"mrp_price"`
	CartDiscount   float64    `json:"cart_discount"`
	TotalCartPrice float64    `json:"total_cart_price"`
	CreatedAt      time.Time  `json:"created_datetime"`
	UpdatedAt      time.Time  `json:"updated_datetime"`
}

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// AddItems adds every requested line to the owner's cart. A line that
// already exists gets its quantity increased and is re-priced on the new
// total, so the bulk rate follows the cumulative quantity.
func (s *Service) AddItems(ctx context.Context, owner identity.Owner, reqs []LineRequest) (View, error) {
	if owner.IsZero() {
		return View{}, apperr.InvalidIdentity("customer_id, guest_user_id or cart_id is required")
	}
	if len(reqs) == 0 {
		return View{}, apperr.Validation("At least one item is required")
	}
	for _, r := range reqs {
		if r.ItemID == "" || r.Quantity <= 0 {
			return View{}, apperr.Validation("Each item needs an item_id and a positive quantity")
		}
	}

	var view View
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := checkOwnerExists(ctx, tx, owner); err != nil {
			return err
		}

		lines, err := tx.Carts().Lines(ctx, owner)
		if err != nil {
			return err
		}
		token := cartToken(owner, lines)
		byItem := indexByItem(lines)

		for _, r := range reqs {
			item, err := tx.Items().Get(ctx, r.ItemID)
			if err != nil {
				return itemErr(err, r.ItemID)
			}

			line, ok := byItem[r.ItemID]
			if ok {
				line.Quantity += r.Quantity
			} else {
				line = s.newLine(owner, token, r.ItemID, r.Quantity)
			}
			s.reprice(&line, item)
			if err := tx.Carts().Upsert(ctx, line); err != nil {
				return err
			}
			byItem[r.ItemID] = line
		}

		view, err = buildView(ctx, tx, token)
		return err
	})
	return view, err
}

// UpdateQuantity sets one line's quantity and re-prices it from the current
// catalog entry. Zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, token, itemID string, quantity int) (View, error) {
	if token == "" {
		return View{}, apperr.InvalidIdentity("cart_id is required")
	}
	if quantity < 0 {
		return View{}, apperr.Validation("Quantity cannot be negative")
	}

	var view View
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lines, err := tx.Carts().Lines(ctx, identity.Anonymous(token))
		if err != nil {
			return err
		}
		line, ok := indexByItem(lines)[itemID]
		if !ok {
			return apperr.NotFound("Cart item not found")
		}

		if quantity == 0 {
			if err := tx.Carts().Delete(ctx, line.ID); err != nil {
				return err
			}
		} else {
			item, err := tx.Items().Get(ctx, itemID)
			if err != nil {
				return itemErr(err, itemID)
			}
			line.Quantity = quantity
			s.reprice(&line, item)
			if err := tx.Carts().Upsert(ctx, line); err != nil {
				return err
			}
		}

		view, err = buildView(ctx, tx, token)
		return err
	})
	return view, err
}

// RemoveItem deletes the owner's line for itemID.
func (s *Service) RemoveItem(ctx context.Context, owner identity.Owner, itemID string) (View, error) {
	if owner.IsZero() {
		return View{}, apperr.InvalidIdentity("customer_id, guest_user_id or cart_id is required")
	}

	var view View
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lines, err := tx.Carts().Lines(ctx, owner)
		if err != nil {
			return err
		}
		line, ok := indexByItem(lines)[itemID]
		if !ok {
			return apperr.NotFound("Item not found in cart")
		}
		if err := tx.Carts().Delete(ctx, line.ID); err != nil {
			return err
		}
		view, err = buildView(ctx, tx, line.CartID)
		return err
	})
	return view, err
}

// DeleteCart removes every line stored under token.
func (s *Service) DeleteCart(ctx context.Context, token string) error {
	if token == "" {
		return apperr.InvalidIdentity("cart_id is required")
	}
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		n, err := tx.Carts().DeleteByOwner(ctx, identity.Anonymous(token))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("Cart not found")
		}
		return nil
	})
}

// Merge moves an anonymous cart into target's cart. Quantities of shared
// items are summed and re-priced; the temporary lines are deleted in the
// same transaction. Lines whose item has left the catalog are dropped.
func (s *Service) Merge(ctx context.Context, tempToken string, target identity.Owner) (View, error) {
	if tempToken == "" {
		return View{}, apperr.InvalidIdentity("temp_cart_id is required")
	}
	if !target.Identified() {
		return View{}, apperr.InvalidIdentity("customer_id or guest_user_id is required for a cart merge")
	}

	var view View
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := checkOwnerExists(ctx, tx, target); err != nil {
			return err
		}

		temp, err := tx.Carts().Lines(ctx, identity.Anonymous(tempToken))
		if err != nil {
			return err
		}
		if len(temp) == 0 {
			return apperr.NotFound("Temporary cart not found")
		}

		existing, err := tx.Carts().Lines(ctx, target)
		if err != nil {
			return err
		}
		token := cartToken(target, existing)
		if token == tempToken {
			view, err = buildView(ctx, tx, token)
			return err
		}
		byItem := indexByItem(existing)

		ids := make([]string, 0, len(temp))
		for _, l := range temp {
			ids = append(ids, l.ItemID)
		}
		items, err := tx.Items().GetMany(ctx, ids)
		if err != nil {
			return err
		}

		for _, tl := range temp {
			item, ok := items[tl.ItemID]
			if !ok {
				s.log.Warn("dropping cart line for missing item",
					zap.String("cart_id", tempToken), zap.String("item_id", tl.ItemID))
				continue
			}
			line, ok := byItem[tl.ItemID]
			if ok {
				line.Quantity += tl.Quantity
			} else {
				line = s.newLine(target, token, tl.ItemID, tl.Quantity)
				line.CreatedAt = tl.CreatedAt
			}
			s.reprice(&line, item)
			if err := tx.Carts().Upsert(ctx, line); err != nil {
				return err
			}
			byItem[tl.ItemID] = line
		}

		if _, err := tx.Carts().DeleteByOwner(ctx, identity.Anonymous(tempToken)); err != nil {
			return err
		}

		view, err = buildView(ctx, tx, token)
		return err
	})
	return view, err
}

// Get returns the owner's cart, or NotFound when it has no lines.
func (s *Service) Get(ctx context.Context, owner identity.Owner) (View, error) {
	if owner.IsZero() {
		return View{}, apperr.InvalidIdentity("customer_id, guest_user_id or cart_id is required")
	}

	var view View
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lines, err := tx.Carts().Lines(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.NotFound("Cart is empty")
		}
		view, err = buildView(ctx, tx, lines[0].CartID)
		if err != nil {
			return err
		}
		if len(view.Items) == 0 {
			return apperr.NotFound("Cart is empty")
		}
		return nil
	})
	return view, err
}

func (s *Service) newLine(owner identity.Owner, token, itemID string, qty int) models.CartLine {
	line := models.CartLine{
		ID:        utils.GetUUID(),
		CartID:    token,
		ItemID:    itemID,
		Quantity:  qty,
		CreatedAt: s.now(),
	}
	switch owner.Kind() {
	case identity.KindCustomer:
		line.CustomerID = owner.ID()
	case identity.KindGuest:
		line.GuestUserID = owner.ID()
	}
	return line
}

func (s *Service) reprice(line *models.CartLine, item models.Item) {
	p := pricing.Compute(item.ItemPrice, item.BaseDiscount(), line.Quantity, pricing.Stacked)
	line.MRPPrice = item.ItemPrice
	line.Discount = p.DiscountPercent
	line.FinalPrice = p.UnitPrice
	line.TotalPrice = p.LineTotal
	line.UpdatedAt = s.now()
}

// cartToken is the token the owner's lines already use, the anonymous
// owner's own token, or a fresh one.
func cartToken(owner identity.Owner, lines []models.CartLine) string {
	if len(lines) > 0 {
		return lines[0].CartID
	}
	if owner.Kind() == identity.KindAnonymous {
		return owner.ID()
	}
	return utils.GetUUID()
}

func indexByItem(lines []models.CartLine) map[string]models.CartLine {
	m := make(map[string]models.CartLine, len(lines))
	for _, l := range lines {
		m[l.ItemID] = l
	}
	return m
}

func checkOwnerExists(ctx context.Context, tx store.Tx, owner identity.Owner) error {
	var err error
	switch owner.Kind() {
	case identity.KindCustomer:
		_, err = tx.Accounts().Get(ctx, globals.RoleCustomer, owner.ID())
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Customer not found")
		}
	case identity.KindGuest:
		_, err = tx.Guests().Get(ctx, owner.ID())
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Guest user not found")
		}
	}
	return err
}

func itemErr(err error, itemID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Item %s not found", itemID)
	}
	return err
}

// buildView reads every line under token and prices it from the current
// catalog entry, so the view always matches what checkout will charge.
// Lines whose item was deleted from the catalog are left out.
func buildView(ctx context.Context, tx store.Tx, token string) (View, error) {
	lines, err := tx.Carts().Lines(ctx, identity.Anonymous(token))
	if err != nil {
		return View{}, err
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	items, err := tx.Items().GetMany(ctx, ids)
	if err != nil {
		return View{}, err
	}

	view := View{CartID: token, Items: []LineView{}}
	var mrp, totals []float64
	for _, l := range lines {
		item, ok := items[l.ItemID]
		if !ok {
			continue
		}
		p := pricing.Compute(item.ItemPrice, item.BaseDiscount(), l.Quantity, pricing.Stacked)
		view.Items = append(view.Items, LineView{
			ItemID:       l.ItemID,
			ItemName:     item.ItemName,
			ItemPrice:    p.UnitPrice,
			MRPPrice:     item.ItemPrice,
			CartDiscount: p.DiscountPercent,
			Quantity:     l.Quantity,
			TotalPrice:   p.LineTotal,
			ProductImage: item.ProductImage,
		})
		mrp = append(mrp, pricing.Extend(item.ItemPrice, l.Quantity))
		totals = append(totals, p.LineTotal)

		if view.CustomerID == "" {
			view.CustomerID = l.CustomerID
		}
		if view.GuestUserID == "" {
			view.GuestUserID = l.GuestUserID
		}
		if view.CreatedAt.IsZero() || l.CreatedAt.Before(view.CreatedAt) {
			view.CreatedAt = l.CreatedAt
		}
		if l.UpdatedAt.After(view.UpdatedAt) {
			view.UpdatedAt = l.UpdatedAt
		}
	}

	view.MRPPrice = pricing.Sum(mrp...)
	view.TotalCartPrice = pricing.Sum(totals...)
	view.CartDiscount = pricing.Diff(view.MRPPrice, view.TotalCartPrice)
	return view, nil
}
