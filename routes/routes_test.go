package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/accounts"
	"storefront/analytics"
	"storefront/auth"
	"storefront/cart"
	"storefront/catalog"
	"storefront/globals"
	"storefront/livefeed"
	"storefront/middleware"
	"storefront/models"
	"storefront/notify"
	"storefront/offline"
	"storefront/orders"
	"storefront/ratelim"
	"storefront/rdx"
	"storefront/store"
	"storefront/store/memstore"
)

type otpMap map[string]string

func (m otpMap) RdxSet(_ context.Context, key, value string, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m otpMap) RdxGet(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", rdx.ErrNil
	}
	return v, nil
}

func (m otpMap) RdxDel(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func newServer(t *testing.T) (*httprouter.Router, *auth.Manager) {
	t.Helper()
	log := zap.NewNop()
	st := memstore.New()
	require.NoError(t, st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Items().Insert(ctx, models.Item{ID: "A", ItemName: "Apples", ItemPrice: 100, FinalPrice: 100, Quantity: 5})
	}))

	hub := livefeed.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	tokens := auth.NewManager([]byte("v"), []byte("c"), time.Hour)
	sender := notify.LogSender{Log: log}
	acct := accounts.NewService(st, otpMap{}, tokens, sender, log, time.Minute)

	h := Handlers{
		Cart:      cart.NewHandler(cart.NewService(st, log), log),
		Orders:    orders.NewHandler(orders.NewService(st, hub, sender, log, orders.Options{}), log),
		Offline:   offline.NewHandler(offline.NewService(st, log, offline.Options{}), log),
		Catalog:   catalog.NewHandler(catalog.NewService(st, log), log),
		Customers: accounts.NewHandler(acct, log, globals.RoleCustomer),
		Vendors:   accounts.NewHandler(acct, log, globals.RoleVendor),
		Analytics: analytics.NewHandler(analytics.NewService(st), log),
		Hub:       hub,
	}
	router := httprouter.New()
	RoutesWrapper(router, h, middleware.New(tokens, log), ratelim.NewRateLimiter(600, 100))
	return router, tokens
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestVendorRoutesRequireVendorToken(t *testing.T) {
	router, tokens := newServer(t)
	vendor, _, err := tokens.Issue(auth.Subject{ID: "v1", Role: globals.RoleVendor})
	require.NoError(t, err)
	customer, _, err := tokens.Issue(auth.Subject{ID: "c1", Role: globals.RoleCustomer})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/vendor/orders", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(router, http.MethodGet, "/api/vendor/orders", customer, "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/vendor/orders", vendor, "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/vendor/analytics", vendor, "").Code)
}

func TestCheckoutThroughRouter(t *testing.T) {
	router, tokens := newServer(t)
	vendor, _, err := tokens.Issue(auth.Subject{ID: "v1", Role: globals.RoleVendor})
	require.NoError(t, err)

	rr := do(router, http.MethodPost, "/api/cart", "", `{"cart_id":"tok","items":[{"item_id":"A","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(router, http.MethodGet, "/api/cart?cart_id=tok", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_cart_price":200`)

	rr = do(router, http.MethodGet, "/api/items", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"quantity":5`)

	rr = do(router, http.MethodPost, "/api/vendor/offline-orders", vendor,
		`{"order_date":"2024-05-01","payment_status":"Paid","payment_method":"Cash","amount_paid":100,"items":[{"item_id":"A","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"created_by":"v1"`)

	rr = do(router, http.MethodGet, "/api/item/A", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"quantity":4`)
}
