// Package sale submits sale drafts to the backend and serves the sales
// history.
package sale

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
)

// Backend is the slice of the backend client the composer needs.
type Backend interface {
	CreateSale(ctx context.Context, req backend.SaleRequest) (backend.Sale, error)
	FilterSales(ctx context.Context, f backend.SaleFilter) (backend.Page[backend.Sale], error)
	DeactivateSale(ctx context.Context, id string) error
}

// Composer validates sale drafts and records them.
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
		return nil, errors.New("sale backend is required")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{
		backend:  cfg.Backend,
		events:   cfg.Events,
		logger:   cfg.Logger.With().Str("component", "sale").Logger(),
		location: loc,
	}, nil
}

// ValidateLines maps composition problems to API errors.
func ValidateLines(c *lineitem.Composition) error {
	err := c.Validate()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lineitem.ErrEmpty):
		return common.NewAppError("EMPTY_COMPOSITION", "add at least one product", http.StatusUnprocessableEntity, err)
	case errors.Is(err, lineitem.ErrInvalidQuantity):
		return common.NewAppError("INVALID_QUANTITY", "every product needs a quantity greater than zero", http.StatusUnprocessableEntity, err).
			WithDetails(map[string]any{"reason": err.Error()})
	default:
		return common.NewAppError("INVALID_COMPOSITION", err.Error(), http.StatusUnprocessableEntity, err)
	}
}

// ValidatePayment requires a payment method accepted for the draft's kind.
func ValidatePayment(d *draft.Draft) error {
	method := strings.TrimSpace(d.PaymentMethod)
	if method == "" || !d.Kind.AcceptsPayment(method) {
		return common.NewAppError("PAYMENT_METHOD_REQUIRED", "choose a payment method", http.StatusUnprocessableEntity, nil).
			WithDetails(map[string]any{"allowed": d.Kind.PaymentMethods()})
	}
	return nil
}

// Request builds the backend body for the draft without validating it.
func Request(d *draft.Draft) backend.SaleRequest {
	return backend.NewSaleRequest(strings.TrimSpace(d.PaymentMethod), d.Lines.WirePayload())
}

// Submit records the draft as a sale. Validation failures never reach the
// backend, and backend failures are not retried.
func (c *Composer) Submit(ctx context.Context, d *draft.Draft) (any, error) {
	if err := ValidateLines(&d.Lines); err != nil {
		obs.ObserveSubmit("sale", "invalid")
		return nil, err
	}
	if err := ValidatePayment(d); err != nil {
		obs.ObserveSubmit("sale", "invalid")
		return nil, err
	}
	created, err := c.backend.CreateSale(ctx, Request(d))
	if err != nil {
		obs.ObserveSubmit("sale", "remote_error")
		c.logger.Warn().Err(err).Str("draft_id", d.ID).Msg("sale_submit_failed")
		return nil, backend.AsAppError(err, "the sale could not be registered")
	}
	obs.ObserveSubmit("sale", "ok")
	c.logger.Info().Str("draft_id", d.ID).Str("sale_id", created.ID.String()).Msg("sale_registered")

	view := c.view(created)
	if view.Total.IsZero() {
		view.Total = d.Lines.Total()
		view.TotalLabel = lineitem.Money(view.Total)
	}
	c.events.Notify(ctx, events.TopicSaleRegistered, view.ID, view)
	return view, nil
}
