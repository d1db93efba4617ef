// Package pricing converts between the price basis of a unit and the
// quantities entered for it.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/product"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Subtotal returns the price of qty units given a price expressed on the
// unit's basis. Gram prices are per 100 g and dozen prices are per 12 pieces.
// Multiplication happens before division so whole results stay exact.
func Subtotal(unit product.Unit, price, qty decimal.Decimal) decimal.Decimal {
	switch unit {
	case product.Kilogram:
		return price.Mul(qty)
	case product.Gram:
		return price.Mul(qty).Div(hundred)
	case product.Dozen:
		return price.Mul(qty).Div(twelve)
	default:
		return price.Mul(qty)
	}
}

// WireQuantity converts an entered quantity into the quantity the backend
// multiplies by the product price: grams become hundreds of grams and pieces
// become dozens.
func WireQuantity(unit product.Unit, qty decimal.Decimal) decimal.Decimal {
	switch unit {
	case product.Gram:
		return qty.Div(hundred)
	case product.Dozen:
		return qty.Div(twelve)
	default:
		return qty
	}
}

// InitialQuantity is the quantity a freshly added line starts with. Weighed
// units start blank.
func InitialQuantity(unit product.Unit) decimal.Decimal {
	if unit.Discrete() {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Round rounds a monetary amount for presentation.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
