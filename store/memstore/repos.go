package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"storefront/identity"
	"storefront/models"
	"storefront/store"
)

func byCreated(at, bt time.Time, aid, bid string) int {
	if c := at.Compare(bt); c != 0 {
		return c
	}
	return strings.Compare(aid, bid)
}

func cloneItem(it models.Item) models.Item {
	if it.Discount != nil {
		d := *it.Discount
		it.Discount = &d
	}
	it.AdditionalImages = slices.Clone(it.AdditionalImages)
	return it
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func cloneOffline(o models.OfflineOrder) models.OfflineOrder {
	o.Items = slices.Clone(o.Items)
	return o
}

// items

type itemRepo struct{ d *data }

func (r itemRepo) Get(_ context.Context, id string) (models.Item, error) {
	it, ok := r.d.items[id]
	if !ok {
		return models.Item{}, store.ErrNotFound
	}
	return cloneItem(it), nil
}

func (r itemRepo) GetMany(_ context.Context, ids []string) (map[string]models.Item, error) {
	out := make(map[string]models.Item, len(ids))
	for _, id := range ids {
		if it, ok := r.d.items[id]; ok {
			out[id] = cloneItem(it)
		}
	}
	return out, nil
}

func (r itemRepo) List(context.Context) ([]models.Item, error) {
	all := sortedValues(r.d.items, func(a, b models.Item) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for i := range all {
		all[i] = cloneItem(all[i])
	}
	return all, nil
}

func (r itemRepo) ListByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	all, _ := r.List(ctx)
	return slices.DeleteFunc(all, func(it models.Item) bool { return it.CategoryID != categoryID }), nil
}

func (r itemRepo) Insert(_ context.Context, it models.Item) error {
	if _, ok := r.d.items[it.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.items[it.ID] = cloneItem(it)
	return nil
}

func (r itemRepo) Update(_ context.Context, it models.Item) error {
	if _, ok := r.d.items[it.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.items[it.ID] = cloneItem(it)
	return nil
}

func (r itemRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.d.items, id)
	return nil
}

func (r itemRepo) AdjustStock(_ context.Context, id string, delta int) (models.Item, error) {
	it, ok := r.d.items[id]
	if !ok {
		return models.Item{}, store.ErrNotFound
	}
	if it.Quantity+delta < 0 {
		return models.Item{}, store.ErrStockConflict
	}
	it.Quantity += delta
	it.UpdatedAt = time.Now().UTC()
	r.d.items[id] = it
	return cloneItem(it), nil
}

// categories

type categoryRepo struct{ d *data }

func (r categoryRepo) Get(_ context.Context, id string) (models.Category, error) {
	c, ok := r.d.categories[id]
	if !ok {
		return models.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (r categoryRepo) List(context.Context) ([]models.Category, error) {
	return sortedValues(r.d.categories, func(a, b models.Category) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (r categoryRepo) Insert(_ context.Context, c models.Category) error {
	if _, ok := r.d.categories[c.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.categories[c.ID] = c
	return nil
}

func (r categoryRepo) Update(_ context.Context, c models.Category) error {
	if _, ok := r.d.categories[c.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.categories[c.ID] = c
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.d.categories, id)
	return nil
}

// carts

type cartRepo struct{ d *data }

func ownedBy(owner identity.Owner) func(models.CartLine) bool {
	id := owner.ID()
	switch owner.Kind() {
	case identity.KindCustomer:
		return func(l models.CartLine) bool { return l.CustomerID == id }
	case identity.KindGuest:
		return func(l models.CartLine) bool { return l.GuestUserID == id }
	case identity.KindAnonymous:
		return func(l models.CartLine) bool { return l.CartID == id }
	}
	return func(models.CartLine) bool { return false }
}

func (r cartRepo) Lines(_ context.Context, owner identity.Owner) ([]models.CartLine, error) {
	if owner.IsZero() {
		return nil, nil
	}
	match := ownedBy(owner)
	var out []models.CartLine
	for _, l := range r.d.carts {
		if match(l) {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b models.CartLine) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r cartRepo) Upsert(_ context.Context, line models.CartLine) error {
	for id, l := range r.d.carts {
		if id != line.ID && l.CartID == line.CartID && l.ItemID == line.ItemID {
			return fmt.Errorf("cart %s item %s: %w", line.CartID, line.ItemID, store.ErrDuplicate)
		}
	}
	r.d.carts[line.ID] = line
	return nil
}

func (r cartRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.d.carts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.d.carts, id)
	return nil
}

func (r cartRepo) DeleteByOwner(_ context.Context, owner identity.Owner) (int, error) {
	if owner.IsZero() {
		return 0, nil
	}
	match := ownedBy(owner)
	n := 0
	for id, l := range r.d.carts {
		if match(l) {
			delete(r.d.carts, id)
			n++
		}
	}
	return n, nil
}

// orders

type orderRepo struct{ d *data }

func (r orderRepo) Get(_ context.Context, id string) (models.Order, error) {
	o, ok := r.d.orders[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r orderRepo) List(_ context.Context, f store.OrderFilter) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.d.orders {
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		if f.UserID != "" || f.GuestUserID != "" {
			mine := (f.UserID != "" && o.UserID == f.UserID) ||
				(f.GuestUserID != "" && o.GuestUserID == f.GuestUserID)
			if !mine {
				continue
			}
		}
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b models.Order) int {
		return byCreated(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	return out, nil
}

func (r orderRepo) Insert(_ context.Context, o models.Order) error {
	if _, ok := r.d.orders[o.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r orderRepo) Update(_ context.Context, o models.Order) error {
	if _, ok := r.d.orders[o.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.orders[o.ID] = cloneOrder(o)
	return nil
}

// offline orders

type offlineRepo struct{ d *data }

func (r offlineRepo) Get(_ context.Context, id string) (models.OfflineOrder, error) {
	o, ok := r.d.offline[id]
	if !ok {
		return models.OfflineOrder{}, store.ErrNotFound
	}
	return cloneOffline(o), nil
}

func (r offlineRepo) List(_ context.Context, returnedOnly bool) ([]models.OfflineOrder, error) {
	var out []models.OfflineOrder
	for _, o := range r.d.offline {
		if returnedOnly && !o.IsReturned {
			continue
		}
		out = append(out, cloneOffline(o))
	}
	slices.SortFunc(out, func(a, b models.OfflineOrder) int {
		return byCreated(b.CreatedAt, a.CreatedAt, b.ID, a.ID)
	})
	return out, nil
}

func (r offlineRepo) Insert(_ context.Context, o models.OfflineOrder) error {
	if _, ok := r.d.offline[o.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.offline[o.ID] = cloneOffline(o)
	return nil
}

func (r offlineRepo) Update(_ context.Context, o models.OfflineOrder) error {
	if _, ok := r.d.offline[o.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.offline[o.ID] = cloneOffline(o)
	return nil
}

// accounts

type accountRepo struct{ d *data }

func (r accountRepo) table(role string) (map[string]models.Account, error) {
	t, ok := r.d.accounts[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q: %w", role, store.ErrNotFound)
	}
	return t, nil
}

func (r accountRepo) Get(_ context.Context, role, id string) (models.Account, error) {
	t, err := r.table(role)
	if err != nil {
		return models.Account{}, err
	}
	a, ok := t[id]
	if !ok {
		return models.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (r accountRepo) ByEmail(_ context.Context, role, email string) (models.Account, error) {
	t, err := r.table(role)
	if err != nil {
		return models.Account{}, err
	}
	for _, a := range t {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return models.Account{}, store.ErrNotFound
}

func (r accountRepo) List(_ context.Context, role string) ([]models.Account, error) {
	t, err := r.table(role)
	if err != nil {
		return nil, err
	}
	return sortedValues(t, func(a, b models.Account) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (r accountRepo) Insert(ctx context.Context, a models.Account) error {
	t, err := r.table(a.Role)
	if err != nil {
		return err
	}
	if _, ok := t[a.ID]; ok {
		return store.ErrDuplicate
	}
	if _, err := r.ByEmail(ctx, a.Role, a.Email); err == nil {
		return store.ErrDuplicate
	}
	t[a.ID] = a
	return nil
}

func (r accountRepo) Update(_ context.Context, a models.Account) error {
	t, err := r.table(a.Role)
	if err != nil {
		return err
	}
	if _, ok := t[a.ID]; !ok {
		return store.ErrNotFound
	}
	t[a.ID] = a
	return nil
}

func (r accountRepo) Delete(_ context.Context, role, id string) error {
	t, err := r.table(role)
	if err != nil {
		return err
	}
	if _, ok := t[id]; !ok {
		return store.ErrNotFound
	}
	delete(t, id)
	return nil
}

// guests

type guestRepo struct{ d *data }

func (r guestRepo) Get(_ context.Context, id string) (models.GuestUser, error) {
	g, ok := r.d.guests[id]
	if !ok {
		return models.GuestUser{}, store.ErrNotFound
	}
	return g, nil
}

func (r guestRepo) ByPhone(_ context.Context, phone string) (models.GuestUser, error) {
	for _, g := range r.d.guests {
		if g.PhoneNumber == phone {
			return g, nil
		}
	}
	return models.GuestUser{}, store.ErrNotFound
}

func (r guestRepo) List(context.Context) ([]models.GuestUser, error) {
	return sortedValues(r.d.guests, func(a, b models.GuestUser) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

func (r guestRepo) Insert(_ context.Context, g models.GuestUser) error {
	if _, ok := r.d.guests[g.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.guests[g.ID] = g
	return nil
}

func (r guestRepo) Update(_ context.Context, g models.GuestUser) error {
	if _, ok := r.d.guests[g.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.guests[g.ID] = g
	return nil
}

// addresses

type addressRepo struct{ d *data }

func (r addressRepo) Get(_ context.Context, id string) (models.Address, error) {
	a, ok := r.d.addresses[id]
	if !ok {
		return models.Address{}, store.ErrNotFound
	}
	return a, nil
}

func (r addressRepo) ListByCustomer(_ context.Context, customerID string) ([]models.Address, error) {
	all := sortedValues(r.d.addresses, func(a, b models.Address) int {
		return byCreated(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return slices.DeleteFunc(all, func(a models.Address) bool { return a.CustomerID != customerID }), nil
}

func (r addressRepo) Insert(_ context.Context, a models.Address) error {
	if _, ok := r.d.addresses[a.ID]; ok {
		return store.ErrDuplicate
	}
	r.d.addresses[a.ID] = a
	return nil
}

func (r addressRepo) Update(_ context.Context, a models.Address) error {
	if _, ok := r.d.addresses[a.ID]; !ok {
		return store.ErrNotFound
	}
	r.d.addresses[a.ID] = a
	return nil
}
