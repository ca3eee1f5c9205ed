package cart

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
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc, zap.NewNop())

	router := httprouter.New()
	router.POST("/cart/add", h.AddToCart)
	router.GET("/cart/get", h.GetCart)
	router.PUT("/cart/update-quantity", h.UpdateQuantity)
	router.DELETE("/cart/remove", h.RemoveItem)
	router.DELETE("/cart/cart/:cartid", h.DeleteCart)
	router.POST("/cart/cart/merge", h.MergeCarts)
	return router
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAddToCartHandler(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add",
		strings.NewReader(`{"cart_id":"tok","items":[{"item_id":"A","quantity":6}]}`))
	rr := do(router, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var v View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, "tok", v.CartID)
	assert.Equal(t, 540.0, v.TotalCartPrice)

	rr = do(router, httptest.NewRequest(http.MethodGet, "/cart/get?cart_id=tok", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"item_price":90`)
}

func TestAddToCartHandlerErrors(t *testing.T) {
	router := newRouter(t)

	rr := do(router, httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{"items":[{"item_id":"A","quantity":1}]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "customer_id, guest_user_id or cart_id is required")

	rr = do(router, httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(router, httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(`{"cart_id":"t","items":[{"item_id":"nope","quantity":1}]}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(router, httptest.NewRequest(http.MethodDelete, "/cart/cart/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSignedInCustomerOverridesBodyIdentity(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/add",
		strings.NewReader(`{"cart_id":"someone-else","items":[{"item_id":"C","quantity":1}]}`))
	ctx := context.WithValue(req.Context(), globals.UserIDKey, "cust-1")
	ctx = context.WithValue(ctx, globals.RoleKey, globals.RoleCustomer)
	rr := do(router, req.WithContext(ctx))
	require.Equal(t, http.StatusCreated, rr.Code)

	var v View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, "cust-1", v.CustomerID)
	assert.NotEqual(t, "someone-else", v.CartID)
}

func TestMergeAndUpdateHandlers(t *testing.T) {
	router := newRouter(t)

	rr := do(router, httptest.NewRequest(http.MethodPost, "/cart/add",
		strings.NewReader(`{"cart_id":"temp","items":[{"item_id":"A","quantity":2}]}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(router, httptest.NewRequest(http.MethodPost, "/cart/cart/merge",
		strings.NewReader(`{"temp_cart_id":"temp","guest_user_id":"guest-1"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	var v View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, "guest-1", v.GuestUserID)

	body := `{"cart_id":"` + v.CartID + `","item_id":"A","quantity":0}`
	rr = do(router, httptest.NewRequest(http.MethodPut, "/cart/update-quantity", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, httptest.NewRequest(http.MethodGet, "/cart/get?guest_user_id=guest-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cart is empty")
}
