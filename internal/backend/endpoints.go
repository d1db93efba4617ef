package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/pos-admin/internal/product"
)

// ListProducts returns the whole catalog.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	var dtos []productDTO
	if err := c.call(ctx, http.MethodGet, "/productos", "/productos", nil, nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]product.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toProduct())
	}
	return out, nil
}

// CreateProduct registers a product.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (product.Product, error) {
	var dto productDTO
	if err := c.call(ctx, http.MethodPost, "/productos", "/productos", nil, in, &dto); err != nil {
		return product.Product{}, err
	}
	return dto.toProduct(), nil
}

// UpdateProduct replaces a product's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, id product.ID, in ProductInput) (product.Product, error) {
	var dto productDTO
	if err := c.call(ctx, http.MethodPut, "/productos/{id}", "/productos/"+escape(string(id)), nil, in, &dto); err != nil {
		return product.Product{}, err
	}
	return dto.toProduct(), nil
}

// DeactivateProduct soft-deletes a product.
func (c *Client) DeactivateProduct(ctx context.Context, id product.ID) error {
	return c.call(ctx, http.MethodPatch, "/productos/{id}/baja", "/productos/"+escape(string(id))+"/baja", nil, nil, nil)
}

// ToggleStock flips a product's stock flag.
func (c *Client) ToggleStock(ctx context.Context, id product.ID) error {
	return c.call(ctx, http.MethodPatch, "/productos/{id}/stock", "/productos/"+escape(string(id))+"/stock", nil, nil, nil)
}

// SaleFilter narrows the sales listing. Page is 0-based.
type SaleFilter struct {
	ID   string
	Date string
	Page int
	Size int
}

// CreateSale records a sale.
func (c *Client) CreateSale(ctx context.Context, req SaleRequest) (Sale, error) {
	var sale Sale
	if err := c.call(ctx, http.MethodPost, "/ventas", "/ventas", nil, req, &sale); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// FilterSales lists sales a page at a time.
func (c *Client) FilterSales(ctx context.Context, f SaleFilter) (Page[Sale], error) {
	q := pageQuery(f.Page, f.Size)
	setIf(q, "id", f.ID)
	setIf(q, "fecha", f.Date)
	var page Page[Sale]
	err := c.call(ctx, http.MethodGet, "/ventas/filter", "/ventas/filter", q, nil, &page)
	return page, err
}

// ListSales returns every sale.
func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	var sales []Sale
	err := c.call(ctx, http.MethodGet, "/ventas", "/ventas", nil, nil, &sales)
	return sales, err
}

// DeactivateSale soft-deletes a sale.
func (c *Client) DeactivateSale(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPatch, "/ventas/{id}/baja", "/ventas/"+escape(id)+"/baja", nil, nil, nil)
}

// OrderFilter narrows the orders listing. Status is the backend enum value.
type OrderFilter struct {
	CustomerName string
	Date         string
	Status       string
	Page         int
	Size         int
}

// CreateOrder records an order together with its sale.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var order Order
	if err := c.call(ctx, http.MethodPost, "/pedidos", "/pedidos", nil, req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// FilterOrders lists orders a page at a time.
func (c *Client) FilterOrders(ctx context.Context, f OrderFilter) (Page[Order], error) {
	q := pageQuery(f.Page, f.Size)
	setIf(q, "nombreCliente", f.CustomerName)
	setIf(q, "fecha", f.Date)
	setIf(q, "estado", f.Status)
	var page Page[Order]
	err := c.call(ctx, http.MethodGet, "/pedidos/filter", "/pedidos/filter", q, nil, &page)
	return page, err
}

// ListOrders returns every order.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := c.call(ctx, http.MethodGet, "/pedidos", "/pedidos", nil, nil, &orders)
	return orders, err
}

// AdvanceOrder moves an order to its next status.
func (c *Client) AdvanceOrder(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPatch, "/pedidos/{id}/estado", "/pedidos/"+escape(id)+"/estado", nil, nil, nil)
}

// DeactivateOrder soft-deletes an order.
func (c *Client) DeactivateOrder(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPatch, "/pedidos/{id}/baja", "/pedidos/"+escape(id)+"/baja", nil, nil, nil)
}

func pageQuery(page, size int) url.Values {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

func setIf(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
