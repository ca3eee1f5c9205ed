package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemPatchWritesOnlySetFields(t *testing.T) {
	d := 5.0
	it := Item{ItemName: "Basmati", ItemPrice: 120, Discount: &d, Quantity: 9}

	name := "Basmati 5kg"
	disc := 12.5
	ItemPatch{ItemName: &name, Discount: &disc}.Apply(&it)

	assert.Equal(t, "Basmati 5kg", it.ItemName)
	assert.Equal(t, 120.0, it.ItemPrice)
	assert.Equal(t, 12.5, it.BaseDiscount())
	assert.Equal(t, 9, it.Quantity)

	disc = 99
	assert.Equal(t, 12.5, it.BaseDiscount(), "patch must not alias caller memory")
}

func TestBaseDiscountNil(t *testing.T) {
	assert.Equal(t, 0.0, Item{}.BaseDiscount())
}

func TestGuestPatch(t *testing.T) {
	g := GuestUser{Name: "Asha", City: "Pune"}
	city := "Mumbai"
	GuestPatch{City: &city}.Apply(&g)

	assert.Equal(t, "Asha", g.Name)
	assert.Equal(t, "Mumbai", g.City)
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, StatusReturned.Valid())
	assert.False(t, OrderStatus("Shipped").Valid())
	assert.True(t, PaymentCOD.Valid())
	assert.False(t, OfflinePaymentMethod("Card").Valid())
}
