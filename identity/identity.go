// Package identity models who owns a cart or an order.
package identity

import (
	"strings"

	"storefront/apperr"
)

type Kind int

const (
	KindNone Kind = iota
	KindAnonymous
	KindGuest
	KindCustomer
)

func (k Kind) String() string {
	switch k {
	case KindAnonymous:
		return "anonymous"
	case KindGuest:
		return "guest"
	case KindCustomer:
		return "customer"
	default:
		return "none"
	}
}

// Owner is exactly one of Customer(id), Guest(id) or Anonymous(cart token).
// The zero value owns nothing and is rejected by every cart and order operation.
type Owner struct {
	kind Kind
	id   string
}

func Customer(id string) Owner { return Owner{kind: KindCustomer, id: id} }
func Guest(id string) Owner { return Owner{kind: KindGuest, id: id} }
func Anonymous(token string) Owner { return Owner{kind: KindAnonymous, id: token} }

func (o Owner) Kind() Kind { return o.kind }
func (o Owner) ID() string { return o.id }
func (o Owner) IsZero() bool { return o.kind == KindNone || o.id == "" }

// Identified reports whether the owner is a customer or a guest, the only
// owners an order can be placed for.
func (o Owner) Identified() bool {
	return !o.IsZero() && (o.kind == KindCustomer || o.kind == KindGuest)
}

func (o Owner) String() string {
	return o.kind.String() + ":" + o.id
}

// Resolve picks one owner from loosely supplied request ids.
// A customer id wins over a guest id, which wins over a cart token.
func Resolve(customerID, guestUserID, cartToken string) (Owner, error) {
	switch {
	case strings.TrimSpace(customerID) != "":
		return Customer(strings.TrimSpace(customerID)), nil
	case strings.TrimSpace(guestUserID) != "":
		return Guest(strings.TrimSpace(guestUserID)), nil
	case strings.TrimSpace(cartToken) != "":
		return Anonymous(strings.TrimSpace(cartToken)), nil
	}
	return Owner{}, apperr.InvalidIdentity("customer_id, guest_user_id or cart_id is required")
}

// ResolveOrderOwner is Resolve without the anonymous form.
func ResolveOrderOwner(userID, guestUserID string) (Owner, error) {
	o, err := Resolve(userID, guestUserID, "")
	if err != nil {
		return Owner{}, apperr.InvalidIdentity("user_id or guest_user_id is required")
	}
	return o, nil
}
