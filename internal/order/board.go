package order

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/sale"
)

// View is an order row on the board.
type View struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customerName"`
	Address       string            `json:"address"`
	Status        Status            `json:"status"`
	StatusLabel   string            `json:"statusLabel"`
	Time          time.Time         `json:"time"`
	Active        bool              `json:"active"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	Total         decimal.Decimal   `json:"total"`
	TotalLabel    string            `json:"totalLabel"`
	Details       []sale.DetailView `json:"details"`
	Actions       []Action          `json:"actions"`
}

func (c *Composer) view(o backend.Order) View {
	status, ok := ParseStatus(o.Status)
	if !ok && o.Status != "" {
		c.logger.Warn().Str("order_id", o.ID.String()).Str("status", o.Status).Msg("order_status_unknown")
	}
	details := o.Details
	var total decimal.Decimal
	v := View{
		ID:           o.ID.String(),
		CustomerName: o.CustomerName,
		Address:      o.Address,
		Status:       status,
		StatusLabel:  status.String(),
		Time:         o.Time.In(c.location),
		Active:       o.Active,
	}
	if o.Sale != nil {
		v.PaymentMethod = o.Sale.PaymentMethod
		total = o.Sale.Total
		if len(details) == 0 {
			details = o.Sale.Details
		}
		if v.Time.IsZero() {
			v.Time = o.Sale.Time.In(c.location)
		}
	}
	v.Details = make([]sale.DetailView, 0, len(details))
	sum := decimal.Zero
	for _, dt := range details {
		sub := dt.Subtotal()
		sum = sum.Add(sub)
		v.Details = append(v.Details, sale.DetailView{
			ProductName: dt.ProductName,
			Quantity:    dt.Quantity,
			UnitPrice:   dt.UnitPrice,
			Subtotal:    sub,
		})
	}
	if total.IsZero() {
		total = sum
	}
	v.Total = total
	v.TotalLabel = lineitem.Money(total)
	if o.Active {
		v.Actions = status.Actions()
	} else {
		v.Actions = []Action{}
	}
	return v
}

// Filter narrows the board. Page is 1-based; Status accepts the backend
// value or the display label.
type Filter struct {
	CustomerName string `json:"customer" validate:"max=120"`
	Date         string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status       string `json:"status"`
	Page         int    `json:"page" validate:"gte=1"`
	Limit        int    `json:"limit" validate:"gte=1,lte=100"`
}

// Result is one page of the board.
type Result struct {
	Items      []View
	Pagination common.Pagination
}

// List returns one page of active orders.
func (c *Composer) List(ctx context.Context, f Filter) (Result, error) {
	if err := common.ValidateStruct(&f); err != nil {
		return Result{}, err
	}
	var status string
	if raw := strings.TrimSpace(f.Status); raw != "" {
		s, ok := ParseStatus(raw)
		if !ok {
			return Result{}, common.NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusUnprocessableEntity, nil).
				WithDetails(map[string]any{"fields": map[string]string{"status": "oneof=PENDIENTE EN_PROCESO COMPLETADO"}})
		}
		status = s.Wire()
	}
	page, err := c.backend.FilterOrders(ctx, backend.OrderFilter{
		CustomerName: strings.TrimSpace(f.CustomerName),
		Date:         f.Date,
		Status:       status,
		Page:         f.Page - 1,
		Size:         f.Limit,
	})
	if err != nil {
		return Result{}, backend.AsAppError(err, "could not load orders")
	}
	items := make([]View, 0, len(page.Content))
	for _, o := range page.Content {
		if !o.Active {
			continue
		}
		items = append(items, c.view(o))
	}
	return Result{Items: items, Pagination: common.NewPagination(f.Page, f.Limit, page.TotalElements)}, nil
}
