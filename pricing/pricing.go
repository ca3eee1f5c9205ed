// Package pricing computes discounted line prices for carts, orders and
// in-store sales. All arithmetic runs on decimals and is rounded to two
// places at the unit-price step and again at the line-total step.
package pricing

import "github.com/shopspring/decimal"

// Policy selects which discounts apply to a line.
type Policy int

const (
	// Stacked compounds the item's base discount with the bulk rate.
	Stacked Policy = iota
	// BaseOnly applies the item's base discount alone.
	BaseOnly
)

const (
	// BulkThreshold is the largest quantity that does not earn the bulk rate.
	BulkThreshold = 5
	// BulkRatePercent is applied on top of the base discount above BulkThreshold.
	BulkRatePercent = 10.0
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Line is the priced result for one item at one quantity.
type Line struct {
	DiscountPercent float64 // effective discount, base and bulk combined
	UnitPrice       float64
	LineTotal       float64
}

// Compute prices quantity units of an item listed at mrp with baseDiscount percent off.
// Inputs are not validated; callers reject mrp <= 0 and quantity <= 0 beforehand.
func Compute(mrp, baseDiscount float64, quantity int, policy Policy) Line {
	bulk := decimal.Zero
	if policy == Stacked && quantity > BulkThreshold {
		bulk = decimal.NewFromFloat(BulkRatePercent)
	}

	factor := one.Sub(decimal.NewFromFloat(baseDiscount).Div(hundred)).
		Mul(one.Sub(bulk.Div(hundred)))

	unit := decimal.NewFromFloat(mrp).Mul(factor).Round(2)
	total := unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	return Line{
		DiscountPercent: one.Sub(factor).Mul(hundred).Round(2).InexactFloat64(),
		UnitPrice:       unit.InexactFloat64(),
		LineTotal:       total.InexactFloat64(),
	}
}

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ApplyPercent returns amount reduced by percent, rounded to two places.
func ApplyPercent(amount, percent float64) float64 {
	d := decimal.NewFromFloat(amount)
	off := d.Mul(decimal.NewFromFloat(percent)).Div(hundred)
	return d.Sub(off).Round(2).InexactFloat64()
}

// Sum adds values exactly and rounds the result to two places.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// FinalPriceFromDiscount derives a catalog final price from its list price and discount.
func FinalPriceFromDiscount(price, discount float64) float64 {
	return ApplyPercent(price, discount)
}

// DiscountFromFinalPrice derives the discount percent that turns price into final.
func DiscountFromFinalPrice(price, final float64) float64 {
	p := decimal.NewFromFloat(price)
	if p.IsZero() {
		return 0
	}
	return one.Sub(decimal.NewFromFloat(final).Div(p)).Mul(hundred).Round(2).InexactFloat64()
}

// Extend returns unit * quantity rounded to two places.
func Extend(unit float64, quantity int) float64 {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

// Diff returns a - b rounded to two places.
func Diff(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}
