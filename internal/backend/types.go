package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Page is the paginated envelope returned by filter endpoints. Number is
// 0-based.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
	Size          int `json:"size"`
}

// Timestamp decodes backend date-times. Values without a zone are kept as
// wall-clock readings and placed in a location with In.
type Timestamp struct {
	time.Time
	naive bool
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*t = Timestamp{Time: parsed}
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp{Time: parsed, naive: true}
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	if t.naive {
		return json.Marshal(t.Time.Format("2006-01-02T15:04:05"))
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// In returns the instant in loc. Zone-less readings are interpreted as wall
// clock time in loc.
func (t Timestamp) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if !t.naive {
		return t.Time.In(loc)
	}
	tt := t.Time
	return time.Date(tt.Year(), tt.Month(), tt.Day(), tt.Hour(), tt.Minute(), tt.Second(), tt.Nanosecond(), loc)
}

// productDTO tolerates both camelCase and snake_case field names.
type productDTO struct {
	ID            product.ID      `json:"id"`
	Name          string          `json:"nombre"`
	Price         decimal.Decimal `json:"precio"`
	Active        *bool           `json:"activo"`
	InStock       *bool           `json:"enStock"`
	InStockSnake  *bool           `json:"en_stock"`
	UnitName      string          `json:"unidadMedida"`
	UnitNameSnake string          `json:"unidad_medida"`
}

func (d productDTO) toProduct() product.Product {
	unitName := d.UnitName
	if unitName == "" {
		unitName = d.UnitNameSnake
	}
	unit, _ := product.ParseUnit(unitName)
	inStock := d.InStock
	if inStock == nil {
		inStock = d.InStockSnake
	}
	return product.Product{
		ID:      d.ID,
		Name:    d.Name,
		Price:   d.Price,
		Unit:    unit,
		Active:  d.Active == nil || *d.Active,
		InStock: inStock != nil && *inStock,
	}
}

// ProductInput is the body for creating or updating a product.
type ProductInput struct {
	Name    string       `json:"nombre"`
	Price   Number       `json:"precio"`
	InStock bool         `json:"enStock"`
	Unit    product.Unit `json:"unidadMedida"`
}

// Detail is one line of a recorded sale.
type Detail struct {
	ProductName string          `json:"nombreProducto"`
	Quantity    decimal.Decimal `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
}

// Subtotal prices the recorded line. Quantities are already in backend units.
func (d Detail) Subtotal() decimal.Decimal {
	return d.UnitPrice.Mul(d.Quantity)
}

// Sale is a recorded sale.
type Sale struct {
	ID            json.Number     `json:"id"`
	Time          Timestamp       `json:"fechaHora"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"formaPago"`
	Active        bool            `json:"activo"`
	Details       []Detail        `json:"detalles"`
}

// Order is a recorded order. Status carries the backend enum value.
type Order struct {
	ID           json.Number `json:"id"`
	CustomerName string      `json:"nombreCliente"`
	Address      string      `json:"direccion"`
	Status       string      `json:"estado"`
	Time         Timestamp   `json:"fechaHora"`
	Active       bool        `json:"activo"`
	Details      []Detail    `json:"detalles"`
	Sale         *Sale       `json:"venta,omitempty"`
}

// Number renders a decimal as a bare JSON number.
type Number decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

type productRef struct {
	ID product.ID `json:"id"`
}

type saleLine struct {
	Product  productRef `json:"producto"`
	Quantity Number     `json:"cantidad"`
}

// SaleRequest is the body of POST /ventas.
type SaleRequest struct {
	PaymentMethod string     `json:"formaPago"`
	Lines         []saleLine `json:"detalles"`
}

// NewSaleRequest builds a sale body from wire lines.
func NewSaleRequest(paymentMethod string, lines []lineitem.WireLine) SaleRequest {
	out := SaleRequest{PaymentMethod: paymentMethod, Lines: make([]saleLine, 0, len(lines))}
	for _, l := range lines {
		out.Lines = append(out.Lines, saleLine{Product: productRef{ID: l.ProductID}, Quantity: Number(l.Quantity)})
	}
	return out
}

// OrderRequest is the body of POST /pedidos.
type OrderRequest struct {
	CustomerName string      `json:"nombreCliente"`
	Address      string      `json:"direccion"`
	Sale         SaleRequest `json:"venta"`
}
