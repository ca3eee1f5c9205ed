package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"storefront/auth"
	"storefront/globals"
	"storefront/utils"
)

// Verifier is the part of auth.Manager the middleware needs.
type Verifier interface {
	Verify(token, role string) (auth.Subject, error)
}

type Middleware struct {
	verifier Verifier
	log      *zap.Logger
}

func New(v Verifier, log *zap.Logger) *Middleware {
	return &Middleware{verifier: v, log: log}
}

// bearer reads the token from the Authorization header. Browsers cannot set
// headers on websocket upgrades, so those may pass ?token= instead.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) < 8 || h[:7] != "Bearer " {
			return ""
		}
		return h[7:]
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func withSubject(r *http.Request, s auth.Subject) *http.Request {
	ctx := context.WithValue(r.Context(), globals.UserIDKey, s.ID)
	ctx = context.WithValue(ctx, globals.RoleKey, s.Role)
	ctx = context.WithValue(ctx, globals.SubjectKey, s)
	return r.WithContext(ctx)
}

// Authenticate rejects requests without a valid token for role.
func (m *Middleware) Authenticate(role string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearer(r)
		if strings.TrimSpace(token) == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing or malformed token")
			return
		}
		subject, err := m.verifier.Verify(token, role)
		if err != nil {
			utils.RespondWithAppError(w, m.log, err)
			return
		}
		next(w, withSubject(r, subject), ps)
	}
}

// OptionalAuth attaches a customer subject when the request carries a
// valid customer token, and proceeds either way.
func (m *Middleware) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if token := bearer(r); token != "" {
			if subject, err := m.verifier.Verify(token, globals.RoleCustomer); err == nil {
				r = withSubject(r, subject)
			}
		}
		next(w, r, ps)
	}
}

// SubjectFromRequest returns the subject attached by Authenticate or OptionalAuth.
func SubjectFromRequest(r *http.Request) (auth.Subject, bool) {
	s, ok := r.Context().Value(globals.SubjectKey).(auth.Subject)
	return s, ok
}
