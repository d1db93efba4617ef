// Package catalog serves the product list used by the composers and the
// product administration endpoints.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/events"
	"github.com/noah-isme/pos-admin/internal/product"
)

const productsKey = "catalog:products"

// Store is the remote source of products. *backend.Client satisfies it.
type Store interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	CreateProduct(ctx context.Context, in backend.ProductInput) (product.Product, error)
	UpdateProduct(ctx context.Context, id product.ID, in backend.ProductInput) (product.Product, error)
	DeactivateProduct(ctx context.Context, id product.ID) error
	ToggleStock(ctx context.Context, id product.ID) error
}

// Service reads and writes products through the backend, caching the list.
type Service struct {
	store  Store
	cache  *Cache
	events *events.Bus
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Cache  *Cache
	Events *events.Bus
	Logger zerolog.Logger
}

// NewService constructs a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog store is required")
	}
	return &Service{
		store:  cfg.Store,
		cache:  cfg.Cache,
		events: cfg.Events,
		logger: cfg.Logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// ProductRequest is the body accepted by create and update.
type ProductRequest struct {
	Name    string          `json:"name" validate:"required,max=120"`
	Price   decimal.Decimal `json:"price" validate:"gte=0"`
	Unit    string          `json:"unit" validate:"required,oneof=unidad kg g docena"`
	InStock bool            `json:"inStock"`
}

func (r ProductRequest) input() backend.ProductInput {
	unit, _ := product.ParseUnit(r.Unit)
	return backend.ProductInput{
		Name:    strings.TrimSpace(r.Name),
		Price:   backend.Number(r.Price),
		InStock: r.InStock,
		Unit:    unit,
	}
}

// List returns every product, active or not.
func (s *Service) List(ctx context.Context) ([]product.Product, error) {
	var cached []product.Product
	hit, err := s.cache.GetJSON(ctx, productsKey, &cached)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog_cache_read_failed")
	}
	if hit {
		return cached, nil
	}
	items, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, backend.AsAppError(err, "could not load products")
	}
	if err := s.cache.SetJSON(ctx, productsKey, items); err != nil {
		s.logger.Warn().Err(err).Msg("catalog_cache_write_failed")
	}
	return items, nil
}

// Available returns the products that can be added to a composition.
func (s *Service) Available(ctx context.Context) ([]product.Product, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return product.FilterEligible(items), nil
}

// Find returns one product by id.
func (s *Service) Find(ctx context.Context, id product.ID) (product.Product, error) {
	items, err := s.List(ctx)
	if err != nil {
		return product.Product{}, err
	}
	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, nil)
}

// FindAvailable returns a product only if it may be added to a composition.
func (s *Service) FindAvailable(ctx context.Context, id product.ID) (product.Product, error) {
	p, err := s.Find(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	if !p.Eligible() {
		return product.Product{}, common.NewAppError("PRODUCT_UNAVAILABLE", "product is inactive or out of stock", http.StatusUnprocessableEntity, nil).
			WithDetails(map[string]any{"productId": string(id)})
	}
	return p, nil
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, req ProductRequest) (product.Product, error) {
	if err := common.ValidateStruct(&req); err != nil {
		return product.Product{}, err
	}
	p, err := s.store.CreateProduct(ctx, req.input())
	if err != nil {
		return product.Product{}, backend.AsAppError(err, "could not create product")
	}
	s.changed(ctx, p.ID, "created")
	return p, nil
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, id product.ID, req ProductRequest) (product.Product, error) {
	if err := common.ValidateStruct(&req); err != nil {
		return product.Product{}, err
	}
	p, err := s.store.UpdateProduct(ctx, id, req.input())
	if err != nil {
		return product.Product{}, backend.AsAppError(err, "could not update product")
	}
	s.changed(ctx, id, "updated")
	return p, nil
}

// Deactivate soft-deletes a product.
func (s *Service) Deactivate(ctx context.Context, id product.ID) error {
	if err := s.store.DeactivateProduct(ctx, id); err != nil {
		return backend.AsAppError(err, "could not deactivate product")
	}
	s.changed(ctx, id, "deactivated")
	return nil
}

// ToggleStock flips the stock flag of a product.
func (s *Service) ToggleStock(ctx context.Context, id product.ID) error {
	if err := s.store.ToggleStock(ctx, id); err != nil {
		return backend.AsAppError(err, "could not change stock")
	}
	s.changed(ctx, id, "stock_toggled")
	return nil
}

func (s *Service) changed(ctx context.Context, id product.ID, action string) {
	if err := s.cache.Delete(ctx, productsKey); err != nil {
		s.logger.Warn().Err(err).Msg("catalog_cache_invalidate_failed")
	}
	s.events.Notify(ctx, events.TopicProductChanged, string(id), map[string]string{
		"productId": string(id),
		"action":    action,
	})
}
