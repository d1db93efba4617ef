// Package order submits order drafts and manages the order board.
package order

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/draft"
	"github.com/noah-isme/pos-admin/internal/events"
	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/obs"
	"github.com/noah-isme/pos-admin/internal/sale"
)

// Backend is the slice of the backend client the composer needs.
type Backend interface {
	CreateOrder(ctx context.Context, req backend.OrderRequest) (backend.Order, error)
	FilterOrders(ctx context.Context, f backend.OrderFilter) (backend.Page[backend.Order], error)
	ListOrders(ctx context.Context) ([]backend.Order, error)
	AdvanceOrder(ctx context.Context, id string) error
	DeactivateOrder(ctx context.Context, id string) error
}

// Composer validates order drafts and drives orders through their stages.
type Composer struct {
	backend  Backend
	events   *events.Bus
	logger   zerolog.Logger
	location *time.Location
}

// ComposerConfig groups Composer dependencies.
type ComposerConfig struct {
	Backend  Backend
	Events   *events.Bus
	Logger   zerolog.Logger
	Location *time.Location
}

// NewComposer constructs a Composer.
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	if cfg.Backend == nil {
		return nil, errors.New("order backend is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{
		backend:  cfg.Backend,
		events:   cfg.Events,
		logger:   cfg.Logger.With().Str("component", "order").Logger(),
		location: loc,
	}, nil
}

// Submit records the draft as a pending order.
func (c *Composer) Submit(ctx context.Context, d *draft.Draft) (any, error) {
	if err := sale.ValidateLines(&d.Lines); err != nil {
		obs.ObserveSubmit("order", "invalid")
		return nil, err
	}
	if err := sale.ValidatePayment(d); err != nil {
		obs.ObserveSubmit("order", "invalid")
		return nil, err
	}
	if d.Customer.Blank() {
		obs.ObserveSubmit("order", "invalid")
		return nil, common.NewAppError("CUSTOMER_REQUIRED", "enter the customer's name or address", http.StatusUnprocessableEntity, nil)
	}
	created, err := c.backend.CreateOrder(ctx, backend.OrderRequest{
		CustomerName: strings.TrimSpace(d.Customer.Name),
		Address:      strings.TrimSpace(d.Customer.Address),
		Sale:         sale.Request(d),
	})
	if err != nil {
		obs.ObserveSubmit("order", "remote_error")
		c.logger.Warn().Err(err).Str("draft_id", d.ID).Msg("order_submit_failed")
		return nil, backend.AsAppError(err, "the order could not be registered")
	}
	obs.ObserveSubmit("order", "ok")
	view := c.view(created)
	if view.Total.IsZero() {
		view.Total = d.Lines.Total()
		view.TotalLabel = lineitem.Money(view.Total)
	}
	c.logger.Info().Str("draft_id", d.ID).Str("order_id", view.ID).Msg("order_created")
	c.events.Notify(ctx, events.TopicOrderCreated, view.ID, view)
	return view, nil
}

// Advance moves an order to its next stage.
func (c *Composer) Advance(ctx context.Context, id string) (View, error) {
	current, err := c.find(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !current.Active {
		return View{}, common.NewAppError("ORDER_INACTIVE", "the order was deactivated", http.StatusConflict, nil)
	}
	next, ok := current.Status.Next()
	if !ok {
		return View{}, common.NewAppError("ORDER_COMPLETED", "the order is already completed", http.StatusConflict, nil)
	}
	if err := c.backend.AdvanceOrder(ctx, id); err != nil {
		return View{}, backend.AsAppError(err, "could not change the order status")
	}
	from := current.Status
	current.Status = next
	current.StatusLabel = next.String()
	current.Actions = next.Actions()
	c.events.Notify(ctx, events.TopicOrderAdvanced, id, map[string]string{
		"orderId": id,
		"from":    from.Wire(),
		"to":      next.Wire(),
	})
	return current, nil
}

// Deactivate soft-deletes an order.
func (c *Composer) Deactivate(ctx context.Context, id string) error {
	if err := c.backend.DeactivateOrder(ctx, id); err != nil {
		return backend.AsAppError(err, "could not deactivate the order")
	}
	c.events.Notify(ctx, events.TopicOrderDeactivated, id, map[string]string{"orderId": id})
	return nil
}

func (c *Composer) find(ctx context.Context, id string) (View, error) {
	all, err := c.backend.ListOrders(ctx)
	if err != nil {
		return View{}, backend.AsAppError(err, "could not load orders")
	}
	for _, o := range all {
		if o.ID.String() == id {
			return c.view(o), nil
		}
	}
	return View{}, common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, nil)
}
