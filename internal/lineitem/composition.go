// Package lineitem models the set of products being assembled into a sale or
// an order before it is submitted.
//
// A Composition is owned by a single editing session and is not safe for
// concurrent use. Its operations never fail: invalid input is ignored or
// normalised so the composition always stays consistent.
package lineitem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/pricing"
	"github.com/noah-isme/pos-admin/internal/product"
)

var (
	// ErrEmpty reports a composition without lines.
	ErrEmpty = errors.New("composition has no lines")
	// ErrInvalidQuantity reports a line whose quantity is not positive.
	ErrInvalidQuantity = errors.New("composition has lines without a valid quantity")
)

// Line is one product in a composition. Name, price and unit are captured
// when the product is added.
type Line struct {
	ProductID   product.ID      `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        product.Unit    `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// Subtotal prices the line on its unit's basis.
func (l Line) Subtotal() decimal.Decimal {
	return pricing.Subtotal(l.Unit, l.UnitPrice, l.Quantity)
}

// WireLine is a line as the backend expects it.
type WireLine struct {
	ProductID product.ID
	Quantity  decimal.Decimal
}

// Composition is an insertion-ordered set of lines keyed by product.
// The zero value is an empty composition ready to use.
type Composition struct {
	lines []Line
}

// New returns an empty composition.
func New() *Composition {
	return &Composition{}
}

// Lines returns a copy of the lines in insertion order.
func (c *Composition) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Composition) Len() int { return len(c.lines) }

// Line looks up the line for a product.
func (c *Composition) Line(id product.ID) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Composition) index(id product.ID) int {
	for i := range c.lines {
		if c.lines[i].ProductID == id {
			return i
		}
	}
	return -1
}

// AddProduct appends a line for p. Products that are inactive or out of
// stock are ignored, as is a product already present. It reports whether a
// line was added.
func (c *Composition) AddProduct(p product.Product) bool {
	if !p.Eligible() || c.index(p.ID) >= 0 {
		return false
	}
	c.lines = append(c.lines, Line{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.Price,
		Unit:        p.Unit,
		Quantity:    pricing.InitialQuantity(p.Unit),
	})
	return true
}

// AdjustQuantity sets the quantity of a line. Negative quantities are
// rejected. A non-positive quantity on a piece-counted line removes it,
// while weighed lines keep zero as a blank entry. It reports whether the
// composition changed.
func (c *Composition) AdjustQuantity(id product.ID, qty decimal.Decimal) bool {
	i := c.index(id)
	if i < 0 || qty.IsNegative() {
		return false
	}
	if c.lines[i].Unit.Discrete() && !qty.IsPositive() {
		c.RemoveProduct(id)
		return true
	}
	c.lines[i].Quantity = qty
	return true
}

// Step adds delta to a line's quantity. Stepping a piece-counted line to
// zero or below removes it.
func (c *Composition) Step(id product.ID, delta decimal.Decimal) bool {
	line, ok := c.Line(id)
	if !ok {
		return false
	}
	next := line.Quantity.Add(delta)
	if line.Unit.Discrete() && !next.IsPositive() {
		c.RemoveProduct(id)
		return true
	}
	return c.AdjustQuantity(id, next)
}

// RemoveProduct drops the line for id if present.
func (c *Composition) RemoveProduct(id product.ID) {
	if i := c.index(id); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Reset clears every line.
func (c *Composition) Reset() {
	c.lines = nil
}

// Total sums the line subtotals. Blank entries contribute zero.
func (c *Composition) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// WirePayload converts the lines into backend quantities, in insertion
// order. Lines without a positive quantity are left out.
func (c *Composition) WirePayload() []WireLine {
	out := make([]WireLine, 0, len(c.lines))
	for _, l := range c.lines {
		qty := pricing.WireQuantity(l.Unit, l.Quantity)
		if !qty.IsPositive() {
			continue
		}
		out = append(out, WireLine{ProductID: l.ProductID, Quantity: qty})
	}
	return out
}

// Validate checks that the composition can be submitted.
func (c *Composition) Validate() error {
	if len(c.lines) == 0 {
		return ErrEmpty
	}
	var blank []string
	for _, l := range c.lines {
		if !l.Quantity.IsPositive() {
			blank = append(blank, l.ProductName)
		}
	}
	if len(blank) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, strings.Join(blank, ", "))
	}
	return nil
}

// MarshalJSON encodes the lines in order.
func (c Composition) MarshalJSON() ([]byte, error) {
	if c.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.lines)
}

// UnmarshalJSON restores lines, dropping duplicates after the first.
func (c *Composition) UnmarshalJSON(data []byte) error {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	c.lines = c.lines[:0]
	for _, l := range lines {
		if c.index(l.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
	return nil
}
