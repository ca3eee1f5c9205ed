package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/models"
	"storefront/store"
	"storefront/store/memstore"
)

func TestReport(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	st := memstore.New()
	require.NoError(t, st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		orders := []models.Order{
			{ID: "o1", UserID: "c1", TotalPrice: 100, OrderStatus: models.StatusCompleted, CreatedAt: now.Add(-time.Hour)},
			{ID: "o2", UserID: "c1", TotalPrice: 50, OrderStatus: models.StatusPending, CreatedAt: now.AddDate(0, 0, -2)},
			{ID: "o3", UserID: "c2", TotalPrice: 300, OrderStatus: models.StatusReturned, CreatedAt: now.AddDate(0, 0, -1)},
			{ID: "o4", GuestUserID: "g1", TotalPrice: 25, OrderStatus: models.StatusPending, CreatedAt: now.AddDate(0, 0, -20)},
		}
		for _, o := range orders {
			if err := tx.Orders().Insert(ctx, o); err != nil {
				return err
			}
		}
		if err := tx.OfflineOrders().Insert(ctx, models.OfflineOrder{ID: "f1", AmountPaid: 80, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.OfflineOrders().Insert(ctx, models.OfflineOrder{ID: "f2", AmountPaid: 40, IsReturned: true, CreatedAt: now}); err != nil {
			return err
		}
		if err := tx.Items().Insert(ctx, models.Item{ID: "i1", ItemName: "Tea", FinalPrice: 10, Quantity: 3}); err != nil {
			return err
		}
		if err := tx.Items().Insert(ctx, models.Item{ID: "i2", ItemName: "Rice", FinalPrice: 2.5, Quantity: 40}); err != nil {
			return err
		}
		if err := tx.Accounts().Insert(ctx, models.Account{ID: "c1", Role: globals.RoleCustomer, Email: "c1@x.io", Name: "Ann"}); err != nil {
			return err
		}
		return tx.Accounts().Insert(ctx, models.Account{ID: "c2", Role: globals.RoleCustomer, Email: "c2@x.io", Name: "Bo"})
	}))

	svc := NewService(st)
	svc.now = func() time.Time { return now }
	r, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, r.TotalOrders)
	assert.Equal(t, 300.0, r.OnlineReturnsValue)
	assert.Equal(t, 40.0, r.OfflineReturnsValue)
	// 475 online + 120 offline - 340 returned
	assert.Equal(t, 255.0, r.TotalRevenue)
	assert.Equal(t, 42.5, r.AverageOrderValue)
	assert.Equal(t, 2, r.ReturnedOrders)

	assert.Equal(t, 100.0, r.RevenueToday)
	assert.Equal(t, 150.0, r.RevenueLast3Days)
	assert.Equal(t, 175.0, r.RevenueLastMonth)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1}, r.Trend)

	assert.Contains(t, r.Statuses, StatusCount{Status: models.StatusReturned, Count: 2, Revenue: 300})
	assert.Contains(t, r.Statuses, StatusCount{Status: models.StatusPending, Count: 2, Revenue: 75})

	require.Len(t, r.TopCustomersByValue, 2)
	assert.Equal(t, "Bo", r.TopCustomersByValue[0].CustomerName)
	assert.Equal(t, "Ann", r.TopCustomersByOrders[0].CustomerName)
	assert.Equal(t, 2, r.TopCustomersByOrders[0].OrderCount)

	assert.Equal(t, 2, r.TotalProducts)
	assert.Equal(t, []StockLevel{{ItemID: "i1", ItemName: "Tea", Quantity: 3}}, r.LowStockItems)
	assert.Equal(t, 130.0, r.PotentialRevenue)
}

func TestAnalyticsHandlerEmptyStore(t *testing.T) {
	h := NewHandler(NewService(memstore.New()), zap.NewNop())
	router := httprouter.New()
	router.GET("/analytics", h.GetAnalytics)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_orders":0`)
	assert.Contains(t, rr.Body.String(), `"stock_levels":[]`)
}
