package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestLimitPerIP(t *testing.T) {
	rl := NewRateLimiter(5, 2)
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/otp", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h(rr, req, nil)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"))
}

func TestSweepForgetsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(5, 1)
	base := time.Now()
	rl.now = func() time.Time { return base }
	rl.getLimiter("a")

	rl.now = func() time.Time { return base.Add(11 * time.Minute) }
	rl.getLimiter("b")
	rl.Sweep()

	assert.NotContains(t, rl.visitors, "a")
	assert.Contains(t, rl.visitors, "b")
}
