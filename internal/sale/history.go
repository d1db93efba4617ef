package sale

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/events"
	"github.com/noah-isme/pos-admin/internal/lineitem"
)

// DetailView is one recorded line.
type DetailView struct {
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// View is a recorded sale as shown in the history.
type View struct {
	ID            string          `json:"id"`
	Time          time.Time       `json:"time"`
	Total         decimal.Decimal `json:"total"`
	TotalLabel    string          `json:"totalLabel"`
	PaymentMethod string          `json:"paymentMethod"`
	Active        bool            `json:"active"`
	Details       []DetailView    `json:"details"`
}

// NewView renders a backend sale in loc.
func NewView(s backend.Sale, loc *time.Location) View {
	v := View{
		ID:            s.ID.String(),
		Time:          s.Time.In(loc),
		Total:         s.Total,
		TotalLabel:    lineitem.Money(s.Total),
		PaymentMethod: s.PaymentMethod,
		Active:        s.Active,
		Details:       make([]DetailView, 0, len(s.Details)),
	}
	for _, dt := range s.Details {
		v.Details = append(v.Details, DetailView{
			ProductName: dt.ProductName,
			Quantity:    dt.Quantity,
			UnitPrice:   dt.UnitPrice,
			Subtotal:    dt.Subtotal(),
		})
	}
	return v
}

func (c *Composer) view(s backend.Sale) View {
	return NewView(s, c.location)
}

// Filter narrows the history. Page is 1-based.
type Filter struct {
	ID    string `json:"id" validate:"omitempty,numeric"`
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Page  int    `json:"page" validate:"gte=1"`
	Limit int    `json:"limit" validate:"gte=1,lte=100"`
}

// Result is one page of history.
type Result struct {
	Items      []View
	Pagination common.Pagination
}

// List returns one page of sales.
func (c *Composer) List(ctx context.Context, f Filter) (Result, error) {
	if err := common.ValidateStruct(&f); err != nil {
		return Result{}, err
	}
	page, err := c.backend.FilterSales(ctx, backend.SaleFilter{
		ID:   strings.TrimSpace(f.ID),
		Date: f.Date,
		Page: f.Page - 1,
		Size: f.Limit,
	})
	if err != nil {
		return Result{}, backend.AsAppError(err, "could not load sales")
	}
	items := make([]View, 0, len(page.Content))
	for _, s := range page.Content {
		items = append(items, c.view(s))
	}
	return Result{Items: items, Pagination: common.NewPagination(f.Page, f.Limit, page.TotalElements)}, nil
}

// Deactivate soft-deletes a sale.
func (c *Composer) Deactivate(ctx context.Context, id string) error {
	if err := c.backend.DeactivateSale(ctx, id); err != nil {
		return backend.AsAppError(err, "could not deactivate the sale")
	}
	c.events.Notify(ctx, events.TopicSaleDeactivated, id, map[string]string{"saleId": id})
	return nil
}
