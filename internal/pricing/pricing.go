// Package pricing computes the money fields of an order from its lines.
package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	// FreeShippingThreshold is exclusive: an items total must be strictly above it.
	FreeShippingThreshold = 500
	// FlatShippingFee is charged when the items total does not clear the threshold.
	FlatShippingFee = 40
)

// Line is the minimal view of a priced line item.
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Quote holds the four price components of an order.
type Quote struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// ItemsPrice sums unit price times quantity over all lines.
func ItemsPrice(lines []Line) float64 {
	return itemsTotal(lines).InexactFloat64()
}

// ShippingPrice returns 0 above the free-shipping threshold and the flat fee otherwise.
func ShippingPrice(itemsPrice float64) float64 {
	if decimal.NewFromFloat(itemsPrice).GreaterThan(decimal.NewFromInt(FreeShippingThreshold)) {
		return 0
	}
	return FlatShippingFee
}

// Compute builds a quote for the given lines. Tax is always zero.
func Compute(lines []Line) Quote {
	items := itemsTotal(lines)
	shipping := decimal.NewFromFloat(ShippingPrice(items.InexactFloat64()))
	tax := decimal.Zero

	return Quote{
		ItemsPrice:    items.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		TotalPrice:    items.Add(shipping).Add(tax).InexactFloat64(),
	}
}

// Consistent reports whether total equals items + shipping + tax to the cent.
func Consistent(q Quote) bool {
	sum := decimal.NewFromFloat(q.ItemsPrice).
		Add(decimal.NewFromFloat(q.ShippingPrice)).
		Add(decimal.NewFromFloat(q.TaxPrice))
	return Equal(sum.InexactFloat64(), q.TotalPrice)
}

// Equal compares two amounts after rounding both to cents.
func Equal(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

func itemsTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
