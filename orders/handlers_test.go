package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/globals"
	"storefront/models"
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	f := newFixture(t, Options{})
	h := NewHandler(f.svc, zap.NewNop())

	router := httprouter.New()
	router.POST("/orders", h.PlaceOrder)
	router.GET("/orders", h.GetAllOrders)
	router.GET("/orders/status/:status", h.GetOrdersByStatus)
	router.GET("/order/:id", h.GetOrder)
	router.POST("/orders/by-user-or-guest", h.GetOrdersByOwner)
	router.PUT("/order/:id/status", h.UpdateOrderStatus)
	router.PUT("/orders/reason", h.UpdateOrderReason)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router := newRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"guest_user_id":"guest-1","items":[{"item_id":"A","quantity":2}],"payment_method":"Cash On Delivery"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	assert.Equal(t, 200.0, order.TotalPrice)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/order/"+order.ID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"unit_price":100`)

	rr = serve(router, httptest.NewRequest(http.MethodPut, "/order/"+order.ID+"/status", strings.NewReader(`{"order_status":"Declined"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/orders/status/Declined", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodGet, "/orders/status/Completed", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "No orders found with status 'Completed'")

	rr = serve(router, httptest.NewRequest(http.MethodPost, "/orders/by-user-or-guest", strings.NewReader(`{"guest_user_id":"guest-1"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)
}

func TestPlaceOrderErrorsOverHTTP(t *testing.T) {
	router := newRouter(t)

	rr := serve(router, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":[{"item_id":"A","quantity":1}]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"user_id":"cust-1","items":[{"item_id":"A","quantity":9}]}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(router, httptest.NewRequest(http.MethodPut, "/order/nope/status", strings.NewReader(`{"order_status":"Accepted"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignedInCustomerOrdersAsThemselves(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"guest_user_id":"guest-1","items":[{"item_id":"A","quantity":1}]}`))
	ctx := context.WithValue(req.Context(), globals.UserIDKey, "cust-1")
	ctx = context.WithValue(ctx, globals.RoleKey, globals.RoleCustomer)
	rr := serve(router, req.WithContext(ctx))
	require.Equal(t, http.StatusCreated, rr.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	assert.Equal(t, "cust-1", order.UserID)
	assert.Empty(t, order.GuestUserID)
}
