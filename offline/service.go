// Package offline records in-store sales. Stock moves the moment an order
// is written, and every change to an order's lines moves it back first.
package offline

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

type LineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CreateRequest struct {
	CustomerName    string                      `json:"customer_name"`
	CustomerPhone   string                      `json:"customer_phone"`
	CustomerAddress string                      `json:"customer_address"`
	OrderDate       string                      `json:"order_date"`
	DeliveryDate    string                      `json:"delivery_date"`
	PaymentStatus   models.OfflinePaymentStatus `json:"payment_status"`
	PaymentMethod   models.OfflinePaymentMethod `json:"payment_method"`
	Discount        float64                     `json:"discount"`
	AmountPaid      float64                     `json:"amount_paid"`
	CreatedBy       string                      `json:"created_by"`
	Notes           string                      `json:"notes"`
	Items           []LineRequest               `json:"items"`
}

// UpdateRequest patches header fields and, when Items is set, replaces
// the order's lines.
type UpdateRequest struct {
	models.OfflineOrderPatch
	Items *[]LineRequest `json:"items"`
}

type Options struct {
	// StrictReturns rejects returning an order twice or un-returning it.
	StrictReturns bool
}

type Service struct {
	store store.Store
	log   *zap.Logger
	opts  Options
	now   func() time.Time
}

func NewService(st store.Store, log *zap.Logger, opts Options) *Service {
	return &Service{store: st, log: log, opts: opts, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (models.OfflineOrder, error) {
	if err := validateCreate(req); err != nil {
		return models.OfflineOrder{}, err
	}

	now := s.now()
	order := models.OfflineOrder{
		ID:              utils.GetUUID(),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		OrderDate:       req.OrderDate,
		DeliveryDate:    req.DeliveryDate,
		PaymentStatus:   req.PaymentStatus,
		PaymentMethod:   req.PaymentMethod,
		Discount:        req.Discount,
		AmountPaid:      req.AmountPaid,
		CreatedBy:       req.CreatedBy,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		lines, err := take(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		order.Items = lines
		computeTotals(&order)
		return tx.OfflineOrders().Insert(ctx, order)
	})
	if err != nil {
		return models.OfflineOrder{}, err
	}
	s.log.Info("offline order created", zap.String("order_id", order.ID),
		zap.String("created_by", order.CreatedBy), zap.Float64("total", order.TotalAmount))
	return order, nil
}

// Update applies the patch. New lines are validated only after the old
// ones are back in stock, inside the same transaction, so a rejected
// update leaves inventory exactly as it was. A returned order's units are
// already back in stock, so its items cannot be replaced.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (models.OfflineOrder, error) {
	if err := validatePatch(req); err != nil {
		return models.OfflineOrder{}, err
	}

	var order models.OfflineOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Items != nil {
			if order.IsReturned {
				return apperr.Conflict("Items of a returned offline order cannot be changed")
			}
			if err := s.restock(ctx, tx, order.Items, false); err != nil {
				return err
			}
			lines, err := take(ctx, tx, *req.Items)
			if err != nil {
				return err
			}
			order.Items = lines
		}

		req.OfflineOrderPatch.Apply(&order)
		computeTotals(&order)
		order.UpdatedAt = s.now()
		return tx.OfflineOrders().Update(ctx, order)
	})
	if err != nil {
		return models.OfflineOrder{}, err
	}
	return order, nil
}

// SetReturned flags an order as returned and puts its lines back in stock.
// Clearing the flag leaves stock alone.
func (s *Service) SetReturned(ctx context.Context, id string, returned bool) (models.OfflineOrder, error) {
	var order models.OfflineOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if s.opts.StrictReturns && order.IsReturned {
			return apperr.Conflict("Offline order is already returned")
		}
		if returned {
			if err := s.restock(ctx, tx, order.Items, true); err != nil {
				return err
			}
		}
		order.IsReturned = returned
		order.UpdatedAt = s.now()
		return tx.OfflineOrders().Update(ctx, order)
	})
	if err != nil {
		return models.OfflineOrder{}, err
	}
	s.log.Info("offline order return flag set", zap.String("order_id", id), zap.Bool("is_returned", returned))
	return order, nil
}

func (s *Service) List(ctx context.Context) ([]models.OfflineOrder, error) {
	return s.list(ctx, false)
}

func (s *Service) Returned(ctx context.Context) ([]models.OfflineOrder, error) {
	return s.list(ctx, true)
}

func (s *Service) ByID(ctx context.Context, id string) (models.OfflineOrder, error) {
	var order models.OfflineOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = getOrder(ctx, tx, id)
		return err
	})
	return order, err
}

func (s *Service) list(ctx context.Context, returnedOnly bool) ([]models.OfflineOrder, error) {
	var out []models.OfflineOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.OfflineOrders().List(ctx, returnedOnly)
		return err
	})
	if out == nil {
		out = []models.OfflineOrder{}
	}
	return out, err
}

// take checks every requested id at once, then decrements stock and
// prices each line with the item's own discount.
func take(ctx context.Context, tx store.Tx, reqs []LineRequest) ([]models.OfflineLine, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("Order must contain at least one item")
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, apperr.Validation("Quantity must be positive for item %s", r.ItemID)
		}
		ids = append(ids, r.ItemID)
	}

	items, err := tx.Items().GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if _, ok := items[id]; !ok && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("Invalid item IDs: %s", strings.Join(missing, ", "))
	}

	lines := make([]models.OfflineLine, 0, len(reqs))
	for _, r := range reqs {
		item := items[r.ItemID]
		if _, err := tx.Items().AdjustStock(ctx, item.ID, -r.Quantity); err != nil {
			if errors.Is(err, store.ErrStockConflict) {
				return nil, apperr.InsufficientStock("Insufficient stock for item %s", item.ItemName)
			}
			return nil, err
		}
		p := pricing.Compute(item.ItemPrice, item.BaseDiscount(), r.Quantity, pricing.BaseOnly)
		lines = append(lines, models.OfflineLine{
			ItemID:     item.ID,
			ItemName:   item.ItemName,
			ItemPrice:  item.ItemPrice,
			Discount:   item.BaseDiscount(),
			FinalPrice: p.UnitPrice,
			Quantity:   r.Quantity,
			LineTotal:  p.LineTotal,
		})
	}
	return lines, nil
}

// restock returns lines to stock. With strict set a line whose item has
// left the catalog fails the call; otherwise it is skipped.
func (s *Service) restock(ctx context.Context, tx store.Tx, lines []models.OfflineLine, strict bool) error {
	for _, l := range lines {
		_, err := tx.Items().AdjustStock(ctx, l.ItemID, l.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			if strict {
				return apperr.NotFound("Item not found for item_id %s", l.ItemID)
			}
			s.log.Warn("skipping restock for missing item", zap.String("item_id", l.ItemID))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// computeTotals derives total_amount and balance_due from the stored lines,
// the overall discount and the amount paid.
func computeTotals(o *models.OfflineOrder) {
	gross := make([]float64, 0, len(o.Items))
	for _, l := range o.Items {
		gross = append(gross, l.LineTotal)
	}
	o.TotalAmount = pricing.ApplyPercent(pricing.Sum(gross...), o.Discount)
	o.BalanceDue = pricing.Diff(o.TotalAmount, o.AmountPaid)
}

func getOrder(ctx context.Context, tx store.Tx, id string) (models.OfflineOrder, error) {
	o, err := tx.OfflineOrders().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return o, apperr.NotFound("Offline order not found")
	}
	return o, err
}

func validateCreate(req CreateRequest) error {
	if err := utils.ValidateDate("order_date", req.OrderDate, false); err != nil {
		return err
	}
	if err := utils.ValidateDate("delivery_date", req.DeliveryDate, true); err != nil {
		return err
	}
	if !req.PaymentStatus.Valid() {
		return apperr.Validation("payment_status must be Paid, Unpaid or Partial")
	}
	if !req.PaymentMethod.Valid() {
		return apperr.Validation("payment_method must be Cash, Bank Transfer or UPI")
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		return apperr.Validation("created_by is required")
	}
	return validateAmounts(req.Discount, req.AmountPaid)
}

func validatePatch(req UpdateRequest) error {
	p := req.OfflineOrderPatch
	if p.DeliveryDate != nil {
		if err := utils.ValidateDate("delivery_date", *p.DeliveryDate, true); err != nil {
			return err
		}
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return apperr.Validation("payment_status must be Paid, Unpaid or Partial")
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return apperr.Validation("payment_method must be Cash, Bank Transfer or UPI")
	}
	var discount, paid float64
	if p.Discount != nil {
		discount = *p.Discount
	}
	if p.AmountPaid != nil {
		paid = *p.AmountPaid
	}
	return validateAmounts(discount, paid)
}

func validateAmounts(discount, paid float64) error {
	if discount < 0 || discount > 100 {
		return apperr.Validation("discount must be between 0 and 100")
	}
	if paid < 0 {
		return apperr.Validation("amount_paid cannot be negative")
	}
	return nil
}
