// Package analytics summarises sales for the vendor dashboard. Online and
// offline orders both count; returned orders are taken back out of revenue.
package analytics

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/models"
	"storefront/pricing"
	"storefront/store"
	"storefront/utils"
)

// lowStock is the quantity at or below which an item is flagged.
const lowStock = 5

type StatusCount struct {
	Status  models.OrderStatus `json:"status"`
	Count   int                `json:"count"`
	Revenue float64            `json:"revenue"`
}

type TopCustomer struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	OrderCount   int     `json:"order_count"`
	TotalValue   float64 `json:"total_order_value"`
}

type StockLevel struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

type Report struct {
	TotalOrders       int     `json:"total_orders"`
	OnlineOrders      int     `json:"online_orders"`
	OfflineOrders     int     `json:"offline_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`

	OnlineReturnsValue  float64 `json:"online_returns_value"`
	OfflineReturnsValue float64 `json:"offline_returns_value"`
	TotalReturnsValue   float64 `json:"total_returns_value"`
	ReturnedOrders      int     `json:"returned_orders_count"`

	// Statuses counts online orders per status; offline returns are added
	// to Returned.
	Statuses []StatusCount `json:"order_status_counts"`

	TopCustomersByValue  []TopCustomer `json:"top_customers_by_value"`
	TopCustomersByOrders []TopCustomer `json:"top_customers_by_orders"`

	RevenueToday     float64 `json:"revenue_today"`
	RevenueLast3Days float64 `json:"revenue_last_3_days"`
	RevenueLastWeek  float64 `json:"revenue_last_week"`
	RevenueLastMonth float64 `json:"revenue_last_month"`

	// Trend is the online order count for each of the last seven days,
	// oldest first.
	Trend []int `json:"trend"`

	TotalProducts    int          `json:"total_products"`
	StockLevels      []StockLevel `json:"stock_levels"`
	LowStockItems    []StockLevel `json:"out_of_stock_items"`
	PotentialRevenue float64      `json:"potential_revenue_from_stock"`
}

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Report(ctx context.Context) (Report, error) {
	var (
		online    []models.Order
		offline   []models.OfflineOrder
		items     []models.Item
		customers []models.Account
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if online, err = tx.Orders().List(ctx, store.OrderFilter{}); err != nil {
			return err
		}
		if offline, err = tx.OfflineOrders().List(ctx, false); err != nil {
			return err
		}
		if items, err = tx.Items().List(ctx); err != nil {
			return err
		}
		customers, err = tx.Accounts().List(ctx, globals.RoleCustomer)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	return build(s.now(), online, offline, items, customers), nil
}

func build(now time.Time, online []models.Order, offline []models.OfflineOrder, items []models.Item, customers []models.Account) Report {
	r := Report{
		OnlineOrders:  len(online),
		OfflineOrders: len(offline),
		TotalOrders:   len(online) + len(offline),
		TotalProducts: len(items),
		Trend:         make([]int, 7),
		StockLevels:   []StockLevel{},
		LowStockItems: []StockLevel{},
	}

	today := now.Truncate(24 * time.Hour)
	windows := []struct {
		since time.Time
		dst   *float64
	}{
		{today, &r.RevenueToday},
		{today.AddDate(0, 0, -3), &r.RevenueLast3Days},
		{today.AddDate(0, 0, -7), &r.RevenueLastWeek},
		{today.AddDate(0, 0, -30), &r.RevenueLastMonth},
	}

	var gross []float64
	byStatus := map[models.OrderStatus]*StatusCount{}
	byCustomer := map[string]*TopCustomer{}
	for _, o := range online {
		gross = append(gross, o.TotalPrice)
		sc, ok := byStatus[o.OrderStatus]
		if !ok {
			sc = &StatusCount{Status: o.OrderStatus}
			byStatus[o.OrderStatus] = sc
		}
		sc.Count++
		sc.Revenue = pricing.Sum(sc.Revenue, o.TotalPrice)

		returned := o.OrderStatus == models.StatusReturned
		if returned {
			r.OnlineReturnsValue = pricing.Sum(r.OnlineReturnsValue, o.TotalPrice)
			r.ReturnedOrders++
		}
		for _, w := range windows {
			if !o.CreatedAt.Before(w.since) && !returned {
				*w.dst = pricing.Sum(*w.dst, o.TotalPrice)
			}
		}
		if day := int(today.Sub(o.CreatedAt.Truncate(24*time.Hour)).Hours() / 24); day >= 0 && day < 7 {
			r.Trend[6-day]++
		}
		if o.UserID != "" {
			tc, ok := byCustomer[o.UserID]
			if !ok {
				tc = &TopCustomer{CustomerID: o.UserID}
				byCustomer[o.UserID] = tc
			}
			tc.OrderCount++
			tc.TotalValue = pricing.Sum(tc.TotalValue, o.TotalPrice)
		}
	}

	// Offline revenue is what was actually collected.
	offlineReturned := 0
	for _, o := range offline {
		gross = append(gross, o.AmountPaid)
		if o.IsReturned {
			r.OfflineReturnsValue = pricing.Sum(r.OfflineReturnsValue, o.AmountPaid)
			offlineReturned++
		}
	}
	r.ReturnedOrders += offlineReturned
	r.TotalReturnsValue = pricing.Sum(r.OnlineReturnsValue, r.OfflineReturnsValue)
	r.TotalRevenue = pricing.Diff(pricing.Sum(gross...), r.TotalReturnsValue)
	if r.TotalOrders > 0 {
		r.AverageOrderValue = pricing.Round2(r.TotalRevenue / float64(r.TotalOrders))
	}

	if offlineReturned > 0 {
		sc, ok := byStatus[models.StatusReturned]
		if !ok {
			sc = &StatusCount{Status: models.StatusReturned}
			byStatus[models.StatusReturned] = sc
		}
		sc.Count += offlineReturned
	}
	r.Statuses = make([]StatusCount, 0, len(byStatus))
	for _, sc := range byStatus {
		r.Statuses = append(r.Statuses, *sc)
	}
	slices.SortFunc(r.Statuses, func(a, b StatusCount) int { return cmp.Compare(a.Status, b.Status) })

	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	top := make([]TopCustomer, 0, len(byCustomer))
	for _, tc := range byCustomer {
		tc.CustomerName = names[tc.CustomerID]
		top = append(top, *tc)
	}
	r.TopCustomersByValue = topN(top, func(a, b TopCustomer) int {
		return cmp.Or(cmp.Compare(b.TotalValue, a.TotalValue), cmp.Compare(a.CustomerID, b.CustomerID))
	})
	r.TopCustomersByOrders = topN(top, func(a, b TopCustomer) int {
		return cmp.Or(cmp.Compare(b.OrderCount, a.OrderCount), cmp.Compare(a.CustomerID, b.CustomerID))
	})

	var stockValue []float64
	for _, it := range items {
		lvl := StockLevel{ItemID: it.ID, ItemName: it.ItemName, Quantity: it.Quantity}
		r.StockLevels = append(r.StockLevels, lvl)
		if it.Quantity <= lowStock {
			r.LowStockItems = append(r.LowStockItems, lvl)
		}
		stockValue = append(stockValue, pricing.Extend(it.FinalPrice, it.Quantity))
	}
	r.PotentialRevenue = pricing.Sum(stockValue...)
	return r
}

func topN(in []TopCustomer, less func(a, b TopCustomer) int) []TopCustomer {
	out := slices.Clone(in)
	slices.SortFunc(out, less)
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.svc.Report(ctx)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, report)
}
