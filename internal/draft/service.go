package draft

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/lock"
	"github.com/noah-isme/pos-admin/internal/obs"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Catalog resolves products that may be added to a draft.
type Catalog interface {
	FindAvailable(ctx context.Context, id product.ID) (product.Product, error)
}

// Submitter turns a draft into a remote record. It must not modify d.
type Submitter interface {
	Submit(ctx context.Context, d *Draft) (any, error)
}

// Service runs draft mutations under a per-draft lock.
type Service struct {
	store         Store
	locker        lock.Locker
	lockTTL       time.Duration
	submitLockTTL time.Duration
	catalog       Catalog
	logger        zerolog.Logger
	now           func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store         Store
	Locker        lock.Locker
	LockTTL       time.Duration
	SubmitLockTTL time.Duration
	Catalog       Catalog
	Logger        zerolog.Logger
	Now           func() time.Time
}

// NewService constructs a draft service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store.R == nil {
		return nil, errors.New("draft store requires redis")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("draft catalog is required")
	}
	if cfg.Locker.R == nil {
		cfg.Locker.R = cfg.Store.R
	}
	if cfg.Locker.MaxWait <= 0 {
		cfg.Locker.MaxWait = 2 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	if cfg.SubmitLockTTL < cfg.LockTTL {
		cfg.SubmitLockTTL = 30 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:         cfg.Store,
		locker:        cfg.Locker,
		lockTTL:       cfg.LockTTL,
		submitLockTTL: cfg.SubmitLockTTL,
		catalog:       cfg.Catalog,
		logger:        cfg.Logger.With().Str("component", "draft").Logger(),
		now:           now,
	}, nil
}

var (
	errUnknownKind   = common.NewAppError("INVALID_KIND", "kind must be sale or order", http.StatusUnprocessableEntity, nil)
	errLineNotFound  = common.NewAppError("LINE_NOT_FOUND", "product is not in the draft", http.StatusNotFound, nil)
	errNegativeQty   = common.NewAppError("INVALID_QUANTITY", "quantity cannot be negative", http.StatusUnprocessableEntity, nil)
	errNotAnOrder    = common.NewAppError("NOT_AN_ORDER", "only order drafts carry a customer", http.StatusUnprocessableEntity, nil)
	errDraftBusy     = common.NewAppError("DRAFT_BUSY", "draft is being modified, try again", http.StatusConflict, lock.ErrBusy)
	errDraftNotFound = common.NewAppError("DRAFT_NOT_FOUND", "draft not found or expired", http.StatusNotFound, ErrNotFound)
)

// Create starts an empty draft.
func (s *Service) Create(ctx context.Context, kind Kind) (*Draft, error) {
	if !kind.Valid() {
		return nil, errUnknownKind
	}
	now := s.now().UTC()
	d := &Draft{
		ID:            uuid.NewString(),
		Kind:          kind,
		PaymentMethod: DefaultPaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	obs.ObserveDraftMutation("create")
	return d, nil
}

// Get loads a draft.
func (s *Service) Get(ctx context.Context, id string) (*Draft, error) {
	d, err := s.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errDraftNotFound
	}
	return d, err
}

// AddProduct appends an available product. Adding a product twice is a no-op.
func (s *Service) AddProduct(ctx context.Context, id string, productID product.ID) (*Draft, error) {
	p, err := s.catalog.FindAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "add_product", func(d *Draft) error {
		d.Lines.AddProduct(p)
		return nil
	})
}

// AdjustQuantity replaces a line's quantity with an operator entry.
func (s *Service) AdjustQuantity(ctx context.Context, id string, productID product.ID, qty decimal.Decimal) (*Draft, error) {
	return s.mutate(ctx, id, "adjust_quantity", func(d *Draft) error {
		if _, ok := d.Lines.Line(productID); !ok {
			return errLineNotFound
		}
		if qty.IsNegative() {
			return errNegativeQty
		}
		d.Lines.AdjustQuantity(productID, qty)
		return nil
	})
}

// Step nudges a line's quantity by delta.
func (s *Service) Step(ctx context.Context, id string, productID product.ID, delta decimal.Decimal) (*Draft, error) {
	return s.mutate(ctx, id, "step", func(d *Draft) error {
		if _, ok := d.Lines.Line(productID); !ok {
			return errLineNotFound
		}
		d.Lines.Step(productID, delta)
		return nil
	})
}

// RemoveProduct drops a line.
func (s *Service) RemoveProduct(ctx context.Context, id string, productID product.ID) (*Draft, error) {
	return s.mutate(ctx, id, "remove_product", func(d *Draft) error {
		d.Lines.RemoveProduct(productID)
		return nil
	})
}

// SetPaymentMethod selects how the draft is paid. A blank method clears it.
func (s *Service) SetPaymentMethod(ctx context.Context, id, method string) (*Draft, error) {
	method = strings.TrimSpace(method)
	return s.mutate(ctx, id, "set_payment", func(d *Draft) error {
		if method != "" && !d.Kind.AcceptsPayment(method) {
			return common.NewAppError("INVALID_PAYMENT_METHOD", "payment method not accepted", http.StatusUnprocessableEntity, nil).
				WithDetails(map[string]any{"allowed": d.Kind.PaymentMethods()})
		}
		d.PaymentMethod = method
		return nil
	})
}

// SetCustomer records who an order draft is for.
func (s *Service) SetCustomer(ctx context.Context, id string, c Customer) (*Draft, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	return s.mutate(ctx, id, "set_customer", func(d *Draft) error {
		if d.Kind != KindOrder {
			return errNotAnOrder
		}
		d.Customer = c
		return nil
	})
}

// Reset clears the lines, payment method and customer.
func (s *Service) Reset(ctx context.Context, id string) (*Draft, error) {
	return s.mutate(ctx, id, "reset", func(d *Draft) error {
		d.Reset()
		return nil
	})
}

// Discard deletes a draft.
func (s *Service) Discard(ctx context.Context, id string) error {
	err := s.withLock(ctx, id, s.lockTTL, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
	if err == nil {
		obs.ObserveDraftMutation("discard")
	}
	return err
}

// Submit hands the draft to sub. On success the draft is reset; on failure it
// is left exactly as it was.
func (s *Service) Submit(ctx context.Context, id string, sub Submitter) (any, *Draft, error) {
	var (
		result any
		after  *Draft
	)
	err := s.withLock(ctx, id, s.submitLockTTL, func(ctx context.Context) error {
		d, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		result, err = sub.Submit(ctx, d)
		if err != nil {
			return err
		}
		d.Reset()
		d.UpdatedAt = s.now().UTC()
		if err := s.store.Save(ctx, d); err != nil {
			s.logger.Error().Err(err).Str("draft_id", id).Msg("draft_reset_failed")
		}
		after = d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	obs.ObserveDraftMutation("submit")
	return result, after, nil
}

func (s *Service) mutate(ctx context.Context, id, op string, fn func(*Draft) error) (*Draft, error) {
	var out *Draft
	err := s.withLock(ctx, id, s.lockTTL, func(ctx context.Context) error {
		d, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = s.now().UTC()
		if err := s.store.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	obs.ObserveDraftMutation(op)
	return out, nil
}

func (s *Service) withLock(ctx context.Context, id string, ttl time.Duration, fn func(context.Context) error) error {
	err := s.locker.WithLock(ctx, s.locker.Key("draft", id), ttl, fn)
	if errors.Is(err, lock.ErrBusy) {
		return errDraftBusy
	}
	return err
}
