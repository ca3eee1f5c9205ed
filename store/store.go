// Package store defines the persistence contract shared by the Mongo and
// in-memory backends. Every read and write happens inside WithTx.
package store

import (
	"context"
	"errors"

	"storefront/identity"
	"storefront/models"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicate     = errors.New("store: duplicate key")
	// ErrStockConflict is returned by AdjustStock when a decrement would take
	// stock below zero. Nothing is written in that case.
	ErrStockConflict = errors.New("store: insufficient stock")
)

// Store runs fn as one atomic unit. If fn returns an error, none of its
// writes are visible afterwards. The ctx handed to fn must be used for
// every repository call made inside it.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close(ctx context.Context) error
}

type Tx interface {
	Items() Items
	Categories() Categories
	Carts() Carts
	Orders() Orders
	OfflineOrders() OfflineOrders
	Accounts() Accounts
	Guests() Guests
	Addresses() Addresses
}

type Items interface {
	Get(ctx context.Context, id string) (models.Item, error)
	// GetMany returns the items that exist, keyed by id. Missing ids are simply absent.
	GetMany(ctx context.Context, ids []string) (map[string]models.Item, error)
	List(ctx context.Context) ([]models.Item, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Item, error)
	Insert(ctx context.Context, it models.Item) error
	Update(ctx context.Context, it models.Item) error
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta to the item's stock in one conditional write and
	// returns the updated item.
	AdjustStock(ctx context.Context, id string, delta int) (models.Item, error)
}

type Categories interface {
	Get(ctx context.Context, id string) (models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Insert(ctx context.Context, c models.Category) error
	Update(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, id string) error
}

// Carts stores cart lines. Lines of one owner always share a cart token.
type Carts interface {
	// Lines returns the owner's lines ordered by creation time.
	Lines(ctx context.Context, owner identity.Owner) ([]models.CartLine, error)
	Upsert(ctx context.Context, line models.CartLine) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, owner identity.Owner) (int, error)
}

type OrderFilter struct {
	Status      models.OrderStatus
	UserID      string
	GuestUserID string
}

type Orders interface {
	Get(ctx context.Context, id string) (models.Order, error)
	// List returns matching orders, newest first. UserID and GuestUserID
	// match either field when both are set.
	List(ctx context.Context, f OrderFilter) ([]models.Order, error)
	Insert(ctx context.Context, o models.Order) error
	Update(ctx context.Context, o models.Order) error
}

type OfflineOrders interface {
	Get(ctx context.Context, id string) (models.OfflineOrder, error)
	List(ctx context.Context, returnedOnly bool) ([]models.OfflineOrder, error)
	Insert(ctx context.Context, o models.OfflineOrder) error
	Update(ctx context.Context, o models.OfflineOrder) error
}

// Accounts is keyed by role; customers and vendors never share a namespace.
type Accounts interface {
	Get(ctx context.Context, role, id string) (models.Account, error)
	ByEmail(ctx context.Context, role, email string) (models.Account, error)
	List(ctx context.Context, role string) ([]models.Account, error)
	Insert(ctx context.Context, a models.Account) error
	Update(ctx context.Context, a models.Account) error
	Delete(ctx context.Context, role, id string) error
}

type Guests interface {
	Get(ctx context.Context, id string) (models.GuestUser, error)
	ByPhone(ctx context.Context, phone string) (models.GuestUser, error)
	List(ctx context.Context) ([]models.GuestUser, error)
	Insert(ctx context.Context, g models.GuestUser) error
	Update(ctx context.Context, g models.GuestUser) error
}

type Addresses interface {
	Get(ctx context.Context, id string) (models.Address, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Address, error)
	Insert(ctx context.Context, a models.Address) error
	Update(ctx context.Context, a models.Address) error
}
