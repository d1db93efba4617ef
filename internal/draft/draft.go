// Package draft keeps the composition being edited at a till between
// requests. Each draft is owned by one editing session and stored in Redis.
package draft

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Kind is what a draft becomes when submitted.
type Kind string

const (
	KindSale  Kind = "sale"
	KindOrder Kind = "order"
)

// DefaultPaymentMethod is preselected on new and reset drafts.
const DefaultPaymentMethod = "Efectivo"

var paymentMethods = map[Kind][]string{
	KindSale:  {"Efectivo", "Débito", "QR"},
	KindOrder: {"Efectivo", "Tarjeta", "Transferencia"},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := paymentMethods[k]
	return ok
}

// PaymentMethods lists the payment methods accepted for the kind.
func (k Kind) PaymentMethods() []string {
	return append([]string(nil), paymentMethods[k]...)
}

// AcceptsPayment reports whether method is allowed for the kind.
func (k Kind) AcceptsPayment(method string) bool {
	for _, m := range paymentMethods[k] {
		if m == method {
			return true
		}
	}
	return false
}

// Customer identifies who an order is for.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Blank reports whether neither name nor address was given.
func (c Customer) Blank() bool {
	return strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Address) == ""
}

// Draft is one editing session.
type Draft struct {
	ID            string               `json:"id"`
	Kind          Kind                 `json:"kind"`
	Lines         lineitem.Composition `json:"lines"`
	PaymentMethod string               `json:"paymentMethod"`
	Customer      Customer             `json:"customer"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// Reset returns the draft to its freshly created state.
func (d *Draft) Reset() {
	d.Lines.Reset()
	d.PaymentMethod = DefaultPaymentMethod
	d.Customer = Customer{}
}

// LineView is a line as shown to the operator.
type LineView struct {
	ProductID      product.ID      `json:"productId"`
	ProductName    string          `json:"productName"`
	Unit           product.Unit    `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Quantity       decimal.Decimal `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	SubtotalLabel  string          `json:"subtotalLabel"`
	ReferenceLabel string          `json:"referenceLabel"`
}

// View is the response body for a draft.
type View struct {
	ID             string          `json:"id"`
	Kind           Kind            `json:"kind"`
	Lines          []LineView      `json:"lines"`
	Total          decimal.Decimal `json:"total"`
	TotalLabel     string          `json:"totalLabel"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentMethods []string        `json:"paymentMethods"`
	Customer       *Customer       `json:"customer,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// View renders the draft for display.
func (d *Draft) View() View {
	lines := d.Lines.Lines()
	v := View{
		ID:             d.ID,
		Kind:           d.Kind,
		Lines:          make([]LineView, 0, len(lines)),
		Total:          d.Lines.Total(),
		PaymentMethod:  d.PaymentMethod,
		PaymentMethods: d.Kind.PaymentMethods(),
		UpdatedAt:      d.UpdatedAt,
	}
	v.TotalLabel = lineitem.Money(v.Total)
	for _, l := range lines {
		sub := l.Subtotal()
		v.Lines = append(v.Lines, LineView{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Unit:           l.Unit,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			Subtotal:       sub,
			SubtotalLabel:  lineitem.Money(sub),
			ReferenceLabel: lineitem.ReferenceLabel(l.Unit, l.UnitPrice),
		})
	}
	if d.Kind == KindOrder {
		c := d.Customer
		v.Customer = &c
	}
	return v
}
