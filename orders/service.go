package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/globals"
	"storefront/identity"
	"storefront/models"
	"storefront/mq"
	"storefront/notify"
	"storefront/pricing"
	"storefront/store"
	"storefront/utils"
)

// LineRequest is one checkout line. Prices always come from the catalog;
// AdditionalDiscount and Note are kept on the snapshot for reference only.
type LineRequest struct {
	ItemID             string  `json:"item_id"`
	Quantity           int     `json:"quantity"`
	AdditionalDiscount float64 `json:"additional_discount"`
	Note               string  `json:"note"`
}

type PlaceRequest struct {
	UserID        string               `json:"user_id"`
	GuestUserID   string               `json:"guest_user_id"`
	Items         []LineRequest        `json:"items"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Address       string               `json:"address"`
	City          string               `json:"city"`
	State         string               `json:"state"`
}

type Options struct {
	// StrictTransitions rejects status changes outside the order lifecycle.
	StrictTransitions bool
	// SupportContact is quoted in decline notices.
	SupportContact string
}

type Service struct {
	store  store.Store
	events mq.Publisher
	sender notify.Sender
	log    *zap.Logger
	opts   Options
	now    func() time.Time
}

func NewService(st store.Store, events mq.Publisher, sender notify.Sender, log *zap.Logger, opts Options) *Service {
	return &Service{
		store:  st,
		events: events,
		sender: sender,
		log:    log,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusAccepted, models.StatusDeclined, models.StatusReturned},
	models.StatusAccepted:  {models.StatusCompleted, models.StatusReturned},
	models.StatusCompleted: {models.StatusReturned},
}

// CanTransition reports whether the strict lifecycle allows from -> to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Place snapshots the requested lines, takes them out of stock, stores the
// order and empties the owner's cart, all in one transaction. Any failure
// leaves stock and cart untouched.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (models.Order, error) {
	owner, err := identity.ResolveOrderOwner(req.UserID, req.GuestUserID)
	if err != nil {
		return models.Order{}, err
	}
	if len(req.Items) == 0 {
		return models.Order{}, apperr.Validation("Order must contain at least one item")
	}
	for _, l := range req.Items {
		if l.ItemID == "" || l.Quantity <= 0 {
			return models.Order{}, apperr.Validation("Each item needs an item_id and a positive quantity")
		}
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCOD
	}
	if !req.PaymentMethod.Valid() {
		return models.Order{}, apperr.Validation("Invalid payment method %q", req.PaymentMethod)
	}

	now := s.now()
	order := models.Order{
		ID:            utils.GetUUID(),
		OrderStatus:   models.StatusPending,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		IsPaid:        false,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch owner.Kind() {
	case identity.KindCustomer:
		order.UserID = owner.ID()
	case identity.KindGuest:
		order.GuestUserID = owner.ID()
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order.Items = make([]models.OrderLine, 0, len(req.Items))
		totals := make([]float64, 0, len(req.Items))

		for _, l := range req.Items {
			item, err := tx.Items().Get(ctx, l.ItemID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("Item with ID %s not found", l.ItemID)
			}
			if err != nil {
				return err
			}
			if item.Quantity < l.Quantity {
				return insufficient(item)
			}
			if _, err := tx.Items().AdjustStock(ctx, item.ID, -l.Quantity); err != nil {
				if errors.Is(err, store.ErrStockConflict) {
					return insufficient(item)
				}
				return err
			}

			p := pricing.Compute(item.ItemPrice, item.BaseDiscount(), l.Quantity, pricing.BaseOnly)
			order.Items = append(order.Items, models.OrderLine{
				ItemID:             item.ID,
				ItemName:           item.ItemName,
				MRPPrice:           item.ItemPrice,
				UnitPrice:          p.UnitPrice,
				Discount:           p.DiscountPercent,
				AdditionalDiscount: l.AdditionalDiscount,
				Quantity:           l.Quantity,
				TotalPrice:         p.LineTotal,
				ProductImage:       item.ProductImage,
				Note:               l.Note,
			})
			totals = append(totals, p.LineTotal)
		}
		order.TotalPrice = pricing.Sum(totals...)

		if err := tx.Orders().Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		_, err := tx.Carts().DeleteByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.log.Info("order placed", zap.String("order_id", order.ID), zap.Stringer("owner", owner),
		zap.Int("lines", len(order.Items)), zap.Float64("total", order.TotalPrice))
	s.emit(ctx, mq.OrderPlacedKey, order)
	return order, nil
}

func insufficient(item models.Item) error {
	return apperr.InsufficientStock("Not enough stock for item '%s'. Only %d left.", item.ItemName, item.Quantity)
}

// UpdateStatus moves an order to status. Returned puts every snapshot line
// back in stock; Completed marks the order paid and anything else resets
// payment to pending.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, apperr.Validation("Invalid order status %q", status)
	}

	var order models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if s.opts.StrictTransitions && !CanTransition(order.OrderStatus, status) {
			return apperr.Conflict("Cannot move order from %s to %s", order.OrderStatus, status)
		}

		if status == models.StatusReturned {
			for _, l := range order.Items {
				if _, err := tx.Items().AdjustStock(ctx, l.ItemID, l.Quantity); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return apperr.NotFound("Item not found for item_id %s", l.ItemID)
					}
					return err
				}
			}
		}

		order.OrderStatus = status
		if status == models.StatusCompleted {
			order.IsPaid = true
			order.PaymentStatus = models.PaymentSuccess
		} else {
			order.IsPaid = false
			order.PaymentStatus = models.PaymentPending
		}
		order.UpdatedAt = s.now()
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return models.Order{}, err
	}

	s.log.Info("order status updated", zap.String("order_id", order.ID), zap.String("status", string(status)))
	s.emit(ctx, mq.OrderStatusKey, order)
	return order, nil
}

// UpdateReason stores why an order was declined and emails the owner when
// an address is on file. Mail failures are logged only.
func (s *Service) UpdateReason(ctx context.Context, orderID, reason string) (models.Order, error) {
	if reason == "" {
		return models.Order{}, apperr.Validation("reason is required")
	}

	var order models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		order.Reason = reason
		order.UpdatedAt = s.now()
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return models.Order{}, err
	}

	var email string
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		email, err = ownerEmail(ctx, tx, order)
		return err
	})
	if err != nil {
		s.log.Warn("resolve owner email", zap.String("order_id", order.ID), zap.Error(err))
		return order, nil
	}
	if email == "" {
		s.log.Info("no email on file, skipping decline notice", zap.String("order_id", order.ID))
		return order, nil
	}
	if err := s.sender.Send(ctx, "Order Declined", declineBody(reason, s.opts.SupportContact), email); err != nil {
		s.log.Warn("decline notice failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func declineBody(reason, contact string) string {
	return fmt.Sprintf("Your order has been declined due to: '%s'.\nIf you have any questions, feel free to contact %s.", reason, contact)
}

func ownerEmail(ctx context.Context, tx store.Tx, o models.Order) (string, error) {
	switch {
	case o.UserID != "":
		acc, err := tx.Accounts().Get(ctx, globals.RoleCustomer, o.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return acc.Email, err
	case o.GuestUserID != "":
		g, err := tx.Guests().Get(ctx, o.GuestUserID)
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return g.Email, err
	}
	return "", nil
}

func (s *Service) ByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid order status %q", status)
	}
	return s.list(ctx, store.OrderFilter{Status: status})
}

// ByOwner lists a customer's or guest's orders, newest first.
func (s *Service) ByOwner(ctx context.Context, owner identity.Owner) ([]models.Order, error) {
	f := store.OrderFilter{}
	switch owner.Kind() {
	case identity.KindCustomer:
		f.UserID = owner.ID()
	case identity.KindGuest:
		f.GuestUserID = owner.ID()
	default:
		return nil, apperr.InvalidIdentity("user_id or guest_user_id is required")
	}
	return s.list(ctx, f)
}

func (s *Service) ByID(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, id)
		return err
	})
	return order, err
}

func (s *Service) All(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, store.OrderFilter{})
}

func (s *Service) list(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	var out []models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Orders().List(ctx, f)
		return err
	})
	if out == nil {
		out = []models.Order{}
	}
	return out, err
}

func getOrder(ctx context.Context, tx store.Tx, id string) (models.Order, error) {
	o, err := tx.Orders().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return o, apperr.NotFound("Order not found")
	}
	return o, err
}

func (s *Service) emit(ctx context.Context, key string, o models.Order) {
	mq.Emit(context.WithoutCancel(ctx), s.events, s.log, mq.OrderEvent{
		Key:         key,
		OrderID:     o.ID,
		UserID:      o.UserID,
		GuestUserID: o.GuestUserID,
		Status:      string(o.OrderStatus),
		TotalPrice:  o.TotalPrice,
		At:          o.UpdatedAt,
	})
}
