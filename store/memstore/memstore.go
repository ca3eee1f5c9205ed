// Package memstore is an in-process store.Store. Transactions are serialised
// by one mutex and rolled back by restoring a snapshot taken at the start.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"storefront/globals"
	"storefront/models"
	"storefront/store"
)

type data struct {
	items      map[string]models.Item
	categories map[string]models.Category
	carts      map[string]models.CartLine
	orders     map[string]models.Order
	offline    map[string]models.OfflineOrder
	accounts   map[string]map[string]models.Account // role -> id -> account
	guests     map[string]models.GuestUser
	addresses  map[string]models.Address
}

func newData() *data {
	return &data{
		items:      map[string]models.Item{},
		categories: map[string]models.Category{},
		carts:      map[string]models.CartLine{},
		orders:     map[string]models.Order{},
		offline:    map[string]models.OfflineOrder{},
		accounts: map[string]map[string]models.Account{
			globals.RoleCustomer: {},
			globals.RoleVendor:   {},
		},
		guests:    map[string]models.GuestUser{},
		addresses: map[string]models.Address{},
	}
}

// clone copies every table. Repositories copy slices on the way in and out,
// so rows never share memory and a map copy is a full snapshot.
func (d *data) clone() *data {
	c := &data{
		items:      maps.Clone(d.items),
		categories: maps.Clone(d.categories),
		carts:      maps.Clone(d.carts),
		orders:     maps.Clone(d.orders),
		offline:    maps.Clone(d.offline),
		accounts:   make(map[string]map[string]models.Account, len(d.accounts)),
		guests:     maps.Clone(d.guests),
		addresses:  maps.Clone(d.addresses),
	}
	for role, m := range d.accounts {
		c.accounts[role] = maps.Clone(m)
	}
	return c
}

type Store struct {
	mu sync.Mutex
	d  *data
}

func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := s.d.clone()
	committed := false
	defer func() {
		if !committed {
			s.d = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(ctx, &tx{d: s.d}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) Close(context.Context) error { return nil }

type tx struct{ d *data }

func (t *tx) Items() store.Items                 { return itemRepo{t.d} }
func (t *tx) Categories() store.Categories       { return categoryRepo{t.d} }
func (t *tx) Carts() store.Carts                 { return cartRepo{t.d} }
func (t *tx) Orders() store.Orders               { return orderRepo{t.d} }
func (t *tx) OfflineOrders() store.OfflineOrders { return offlineRepo{t.d} }
func (t *tx) Accounts() store.Accounts           { return accountRepo{t.d} }
func (t *tx) Guests() store.Guests               { return guestRepo{t.d} }
func (t *tx) Addresses() store.Addresses         { return addressRepo{t.d} }

// sortedValues returns m's values ordered by cmp.
func sortedValues[K comparable, V any](m map[K]V, cmp func(a, b V) int) []V {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, cmp)
	return out
}
