package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/globals"
	"storefront/identity"
	"storefront/models"
	"storefront/store"
)

func seedItem(t *testing.T, s *Store, id string, qty int) {
	t.Helper()
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Items().Insert(ctx, models.Item{ID: id, ItemName: id, ItemPrice: 10, Quantity: qty})
	}))
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	var qty int
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		it, err := tx.Items().Get(ctx, id)
		qty = it.Quantity
		return err
	}))
	return qty
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	seedItem(t, s, "a", 5)

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Items().AdjustStock(ctx, "a", -3); err != nil {
			return err
		}
		if err := tx.Orders().Insert(ctx, models.Order{ID: "o1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 5, stockOf(t, s, "a"))
	_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Orders().Get(ctx, "o1")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	s := New()
	seedItem(t, s, "a", 5)

	assert.Panics(t, func() {
		_ = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			_, _ = tx.Items().AdjustStock(ctx, "a", -5)
			panic("mid-transaction")
		})
	})
	assert.Equal(t, 5, stockOf(t, s, "a"))
}

func TestAdjustStockGuard(t *testing.T) {
	s := New()
	seedItem(t, s, "a", 2)

	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Items().AdjustStock(ctx, "a", -3)
		return err
	})
	assert.ErrorIs(t, err, store.ErrStockConflict)

	err = s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Items().AdjustStock(ctx, "missing", 1)
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 2, stockOf(t, s, "a"))
}

func TestCartQueries(t *testing.T) {
	s := New()
	now := time.Now()
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c := tx.Carts()
		if err := c.Upsert(ctx, models.CartLine{ID: "1", CartID: "tok", CustomerID: "cust", ItemID: "a", CreatedAt: now}); err != nil {
			return err
		}
		if err := c.Upsert(ctx, models.CartLine{ID: "2", CartID: "tok", CustomerID: "cust", ItemID: "b", CreatedAt: now.Add(time.Second)}); err != nil {
			return err
		}
		return c.Upsert(ctx, models.CartLine{ID: "3", CartID: "other", GuestUserID: "g", ItemID: "a", CreatedAt: now})
	}))

	_ = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		err := tx.Carts().Upsert(ctx, models.CartLine{ID: "4", CartID: "tok", ItemID: "a"})
		assert.ErrorIs(t, err, store.ErrDuplicate)

		lines, _ := tx.Carts().Lines(ctx, identity.Customer("cust"))
		require.Len(t, lines, 2)
		assert.Equal(t, "1", lines[0].ID)

		lines, _ = tx.Carts().Lines(ctx, identity.Anonymous("tok"))
		assert.Len(t, lines, 2)

		lines, _ = tx.Carts().Lines(ctx, identity.Guest("g"))
		assert.Len(t, lines, 1)

		n, _ := tx.Carts().DeleteByOwner(ctx, identity.Anonymous("tok"))
		assert.Equal(t, 2, n)
		return nil
	})
}

func TestAccountsUniqueEmailPerRole(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		a := tx.Accounts()
		require.NoError(t, a.Insert(ctx, models.Account{ID: "1", Role: globals.RoleCustomer, Email: "a@x.io"}))
		require.NoError(t, a.Insert(ctx, models.Account{ID: "2", Role: globals.RoleVendor, Email: "a@x.io"}))
		return a.Insert(ctx, models.Account{ID: "3", Role: globals.RoleCustomer, Email: "A@x.io"})
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestOrderListFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o := tx.Orders()
		_ = o.Insert(ctx, models.Order{ID: "1", UserID: "u", OrderStatus: models.StatusPending, CreatedAt: now})
		_ = o.Insert(ctx, models.Order{ID: "2", GuestUserID: "g", OrderStatus: models.StatusAccepted, CreatedAt: now.Add(time.Minute)})
		return o.Insert(ctx, models.Order{ID: "3", UserID: "x", OrderStatus: models.StatusPending, CreatedAt: now.Add(2 * time.Minute)})
	}))

	_ = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		all, _ := tx.Orders().List(ctx, store.OrderFilter{})
		require.Len(t, all, 3)
		assert.Equal(t, "3", all[0].ID)

		pending, _ := tx.Orders().List(ctx, store.OrderFilter{Status: models.StatusPending})
		assert.Len(t, pending, 2)

		mine, _ := tx.Orders().List(ctx, store.OrderFilter{UserID: "u", GuestUserID: "g"})
		assert.Len(t, mine, 2)
		return nil
	})
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().WithTx(ctx, func(context.Context, store.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
