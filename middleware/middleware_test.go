package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/auth"
	"storefront/globals"
	"storefront/utils"
)

func setup(t *testing.T) (*Middleware, string, string) {
	t.Helper()
	mgr := auth.NewManager([]byte("v"), []byte("c"), time.Hour)
	vendor, _, err := mgr.Issue(auth.Subject{ID: "v1", Role: globals.RoleVendor})
	require.NoError(t, err)
	customer, _, err := mgr.Issue(auth.Subject{ID: "c1", Role: globals.RoleCustomer})
	require.NoError(t, err)
	return New(mgr, zap.NewNop()), vendor, customer
}

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, _ := SubjectFromRequest(r)
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"id":   utils.GetUserIDFromRequest(r),
		"role": s.Role,
	})
}

func serve(h httprouter.Handle, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h(rr, req, nil)
	return rr
}

func TestAuthenticate(t *testing.T) {
	m, vendor, customer := setup(t)
	h := m.Authenticate(globals.RoleVendor, echoUser)

	rr := serve(h, vendor)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"v1"`)
	assert.Contains(t, rr.Body.String(), `"role":"vendor"`)

	assert.Equal(t, http.StatusForbidden, serve(h, customer).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "garbage").Code)
}

func TestOptionalAuth(t *testing.T) {
	m, vendor, customer := setup(t)
	h := m.OptionalAuth(echoUser)

	assert.Contains(t, serve(h, customer).Body.String(), `"id":"c1"`)
	assert.Contains(t, serve(h, vendor).Body.String(), `"id":""`)
	assert.Equal(t, http.StatusOK, serve(h, "").Code)
}

func TestWebsocketTokenFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/live?token=abc", nil)
	req.Header.Set("Connection", "upgrade")
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, "abc", bearer(req))

	plain := httptest.NewRequest(http.MethodGet, "/live?token=abc", nil)
	assert.Equal(t, "", bearer(plain))
}
