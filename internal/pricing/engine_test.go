package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/pricing"
	"github.com/noah-isme/pos-admin/internal/product"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSubtotalPerUnitBasis(t *testing.T) {
	cases := []struct {
		name  string
		unit  product.Unit
		price string
		qty   string
		want  string
	}{
		{"each", product.Each, "50", "3", "150"},
		{"kilogram fractional", product.Kilogram, "80", "1.2", "96"},
		{"gram per hundred", product.Gram, "30", "250", "75"},
		{"dozen by piece", product.Dozen, "120", "6", "60"},
		{"dozen full", product.Dozen, "120", "12", "120"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pricing.Subtotal(tc.unit, d(tc.price), d(tc.qty))
			require.True(t, d(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestWireQuantityMatchesSubtotal(t *testing.T) {
	price := d("120")
	for _, unit := range []product.Unit{product.Each, product.Kilogram, product.Gram, product.Dozen} {
		qty := d("24")
		wire := pricing.WireQuantity(unit, qty)
		require.True(t, pricing.Subtotal(unit, price, qty).Equal(price.Mul(wire)), unit.String())
	}
}

func TestInitialQuantity(t *testing.T) {
	require.True(t, pricing.InitialQuantity(product.Each).Equal(decimal.NewFromInt(1)))
	require.True(t, pricing.InitialQuantity(product.Dozen).Equal(decimal.NewFromInt(1)))
	require.True(t, pricing.InitialQuantity(product.Gram).IsZero())
	require.True(t, pricing.InitialQuantity(product.Kilogram).IsZero())
}
