package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/apperr"
	"storefront/models"
	"storefront/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memstore.New(), zap.NewNop())
}

func TestCreateItemDerivesPrices(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	fromDiscount, err := svc.CreateItem(ctx, models.Item{ItemName: "Tea", ItemPrice: 250, Discount: ptr(10.0), Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 225.0, fromDiscount.FinalPrice)
	assert.NotEmpty(t, fromDiscount.ID)
	assert.Equal(t, []string{}, fromDiscount.AdditionalImages)

	fromFinal, err := svc.CreateItem(ctx, models.Item{ItemName: "Rice", ItemPrice: 80, FinalPrice: 60})
	require.NoError(t, err)
	require.NotNil(t, fromFinal.Discount)
	assert.Equal(t, 25.0, *fromFinal.Discount)

	plain, err := svc.CreateItem(ctx, models.Item{ItemName: "Salt", ItemPrice: 20})
	require.NoError(t, err)
	assert.Equal(t, 20.0, plain.FinalPrice)
	assert.Nil(t, plain.Discount)
}

func TestCreateItemValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]models.Item{
		"empty name":      {ItemName: "  ", ItemPrice: 10},
		"zero price":      {ItemName: "x"},
		"discount > 100":  {ItemName: "x", ItemPrice: 10, Discount: ptr(120.0)},
		"negative disc":   {ItemName: "x", ItemPrice: 10, Discount: ptr(-1.0)},
		"final above mrp": {ItemName: "x", ItemPrice: 10, FinalPrice: 11},
		"negative stock":  {ItemName: "x", ItemPrice: 10, Quantity: -1},
		"unknown cat":     {ItemName: "x", ItemPrice: 10, CategoryID: "nope"},
	}
	for name, it := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, it)
			require.Error(t, err)
			assert.Contains(t, []apperr.Kind{apperr.KindValidation, apperr.KindNotFound}, apperr.KindOf(err))
		})
	}
}

func TestUpdateItemRecomputesFinalPrice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	it, err := svc.CreateItem(ctx, models.Item{ItemName: "Tea", ItemPrice: 200, Discount: ptr(10.0)})
	require.NoError(t, err)

	it, err = svc.UpdateItem(ctx, it.ID, models.ItemPatch{ItemPrice: ptr(300.0)})
	require.NoError(t, err)
	assert.Equal(t, 270.0, it.FinalPrice)

	it, err = svc.UpdateItem(ctx, it.ID, models.ItemPatch{Discount: ptr(50.0)})
	require.NoError(t, err)
	assert.Equal(t, 150.0, it.FinalPrice)

	it, err = svc.UpdateItem(ctx, it.ID, models.ItemPatch{FinalPrice: ptr(240.0)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, *it.Discount)

	_, err = svc.UpdateItem(ctx, it.ID, models.ItemPatch{Discount: ptr(101.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateItem(ctx, "missing", models.ItemPatch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCategoriesAndMenu(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	drinks, err := svc.CreateCategory(ctx, "vendor-1", "Drinks")
	require.NoError(t, err)
	snacks, err := svc.CreateCategory(ctx, "vendor-1", "Snacks")
	require.NoError(t, err)

	tea, err := svc.CreateItem(ctx, models.Item{ItemName: "Tea", ItemPrice: 20, CategoryID: drinks.ID})
	require.NoError(t, err)

	items, err := svc.ItemsByCategory(ctx, drinks.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, tea.ID, items[0].ID)

	menu, err := svc.Menu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 2)
	for _, c := range menu {
		if c.ID == snacks.ID {
			assert.Empty(t, c.Items)
			assert.NotNil(t, c.Items)
		}
	}

	err = svc.DeleteCategory(ctx, drinks.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	require.NoError(t, svc.DeleteItem(ctx, tea.ID))
	require.NoError(t, svc.DeleteCategory(ctx, drinks.ID))
	_, err = svc.Category(ctx, drinks.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	renamed, err := svc.UpdateCategory(ctx, snacks.ID, models.CategoryPatch{CategoryName: ptr("Treats")})
	require.NoError(t, err)
	assert.Equal(t, "Treats", renamed.CategoryName)

	_, err = svc.CreateCategory(ctx, "vendor-1", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorIs(t, svc.DeleteItem(ctx, "gone"), apperr.ErrNotFound)
}
