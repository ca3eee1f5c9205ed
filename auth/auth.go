// Package auth issues and verifies the bearer tokens carried by customers
// and vendors. Each role signs with its own secret.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/apperr"
	"storefront/globals"
)

// Subject is the caller a verified token speaks for.
type Subject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secrets map[string][]byte
	ttl     time.Duration
	now     func() time.Time
}

func NewManager(vendorSecret, customerSecret []byte, ttl time.Duration) *Manager {
	return &Manager{
		secrets: map[string][]byte{
			globals.RoleVendor:   vendorSecret,
			globals.RoleCustomer: customerSecret,
		},
		ttl: ttl,
		now: time.Now,
	}
}

// Issue signs a token for s, valid for the manager's TTL.
func (m *Manager) Issue(s Subject) (string, time.Time, error) {
	secret, ok := m.secrets[s.Role]
	if !ok {
		return "", time.Time{}, apperr.Validation("unknown role %q", s.Role)
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		UserID: s.ID,
		Email:  s.Email,
		Name:   s.Name,
		Role:   s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify checks token against the secret of role. A token that is valid
// but belongs to another role fails Forbidden; anything else that does not
// verify fails Unauthorized.
func (m *Manager) Verify(token, role string) (Subject, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Subject{}, apperr.Unauthorized("Missing token")
	}

	claims, err := m.parse(token, role)
	if err != nil {
		for other := range m.secrets {
			if other == role {
				continue
			}
			if _, otherErr := m.parse(token, other); otherErr == nil {
				return Subject{}, apperr.Forbidden("Access restricted to %ss", role)
			}
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Subject{}, apperr.Unauthorized("Token expired")
		}
		return Subject{}, apperr.Unauthorized("Invalid token")
	}
	if claims.Role != role {
		return Subject{}, apperr.Forbidden("Access restricted to %ss", role)
	}
	return Subject{ID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}

func (m *Manager) parse(token, role string) (*Claims, error) {
	secret, ok := m.secrets[role]
	if !ok {
		return nil, errors.New("unknown role")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
