// Package product holds the catalog record that line items are built from.
package product

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the measurement unit a product is sold in.
type Unit int

const (
	// Each is a product sold by the piece. It is also the fallback for unknown units.
	Each Unit = iota
	// Kilogram is priced per kg and entered in kg.
	Kilogram
	// Gram is priced per 100 g and entered in grams.
	Gram
	// Dozen is priced per dozen and entered as individual pieces.
	Dozen
)

var unitWire = map[Unit]string{
	Each:     "unidad",
	Kilogram: "kg",
	Gram:     "g",
	Dozen:    "docena",
}

// String returns the backend wire value of the unit.
func (u Unit) String() string {
	if s, ok := unitWire[u]; ok {
		return s
	}
	return unitWire[Each]
}

// Discrete reports whether quantities of this unit are whole pieces.
func (u Unit) Discrete() bool {
	return u == Each || u == Dozen
}

// PriceBasis describes what one unit of price buys.
func (u Unit) PriceBasis() string {
	if u == Gram {
		return "100g"
	}
	return u.String()
}

// ParseUnit maps a wire value to a Unit. Unknown values report false and
// resolve to Each.
func ParseUnit(s string) (Unit, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for u, w := range unitWire {
		if w == needle {
			return u, true
		}
	}
	return Each, false
}

// MarshalJSON encodes the unit as its wire value.
func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON decodes a wire value, falling back to Each.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unit: %w", err)
	}
	*u, _ = ParseUnit(s)
	return nil
}

// ID identifies a product. The backend issues numeric ids but they are
// treated as opaque.
type ID string

// MarshalJSON emits numeric ids as JSON numbers and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a string.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Product is a sellable catalog entry.
type Product struct {
	ID      ID              `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Unit    Unit            `json:"unit"`
	Active  bool            `json:"active"`
	InStock bool            `json:"inStock"`
}

// Eligible reports whether the product may be added to a composition.
func (p Product) Eligible() bool {
	return p.Active && p.InStock
}

// FilterEligible returns the eligible products, preserving order.
func FilterEligible(items []Product) []Product {
	out := make([]Product, 0, len(items))
	for _, p := range items {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}
