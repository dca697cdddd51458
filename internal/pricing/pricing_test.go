package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/velora/internal/pricing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		lines    []pricing.Line
		expected pricing.Quote
	}{
		{
			name:     "above_threshold_ships_free",
			lines:    []pricing.Line{{UnitPrice: 1000, Quantity: 2}, {UnitPrice: 300, Quantity: 1}},
			expected: pricing.Quote{ItemsPrice: 2300, ShippingPrice: 0, TaxPrice: 0, TotalPrice: 2300},
		},
		{
			name:     "exactly_threshold_pays_fee",
			lines:    []pricing.Line{{UnitPrice: 250, Quantity: 2}},
			expected: pricing.Quote{ItemsPrice: 500, ShippingPrice: 40, TaxPrice: 0, TotalPrice: 540},
		},
		{
			name:     "one_above_threshold",
			lines:    []pricing.Line{{UnitPrice: 501, Quantity: 1}},
			expected: pricing.Quote{ItemsPrice: 501, ShippingPrice: 0, TaxPrice: 0, TotalPrice: 501},
		},
		{
			name:     "fractional_prices",
			lines:    []pricing.Line{{UnitPrice: 0.1, Quantity: 3}, {UnitPrice: 0.2, Quantity: 1}},
			expected: pricing.Quote{ItemsPrice: 0.5, ShippingPrice: 40, TaxPrice: 0, TotalPrice: 40.5},
		},
		{
			name:     "no_lines",
			lines:    nil,
			expected: pricing.Quote{ItemsPrice: 0, ShippingPrice: 40, TaxPrice: 0, TotalPrice: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pricing.Compute(tt.lines))
		})
	}
}

func TestShippingPrice_Boundary(t *testing.T) {
	assert.Equal(t, float64(40), pricing.ShippingPrice(500))
	assert.Equal(t, float64(40), pricing.ShippingPrice(499.99))
	assert.Equal(t, float64(0), pricing.ShippingPrice(500.01))
	assert.Equal(t, float64(0), pricing.ShippingPrice(501))
}

func TestConsistent(t *testing.T) {
	assert.True(t, pricing.Consistent(pricing.Quote{ItemsPrice: 2300, TotalPrice: 2300}))
	assert.True(t, pricing.Consistent(pricing.Quote{ItemsPrice: 0.1, ShippingPrice: 0.2, TotalPrice: 0.3}))
	assert.False(t, pricing.Consistent(pricing.Quote{ItemsPrice: 100, ShippingPrice: 40, TotalPrice: 100}))
}
