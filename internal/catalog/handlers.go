package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Handler exposes the product endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// ProductView is a product with its display price label.
type ProductView struct {
	product.Product
	PriceLabel string `json:"priceLabel"`
}

func views(items []product.Product) []ProductView {
	out := make([]ProductView, 0, len(items))
	for _, p := range items {
		out = append(out, view(p))
	}
	return out
}

func view(p product.Product) ProductView {
	return ProductView{Product: p, PriceLabel: lineitem.ReferenceLabel(p.Unit, p.Price)}
}

// Routes mounts the product endpoints. Writes go through the given middleware.
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/", h.Products)
	r.Get("/available", h.Available)
	r.Group(func(w chi.Router) {
		w.Use(writes...)
		w.Post("/", h.Create)
		w.Put("/{id}", h.Update)
		w.Patch("/{id}/deactivate", h.Deactivate)
		w.Patch("/{id}/stock", h.ToggleStock)
	})
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := items[:0:0]
		for _, p := range items {
			if strings.Contains(strings.ToLower(p.Name), q) {
				filtered = append(filtered, p)
			}
		}
		items = filtered
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views(items)})
}

// Available handles GET /api/v1/products/available.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Available(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views(items)})
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view(p)})
}

// Update handles PUT /api/v1/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), productID(r), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view(p)})
}

// Deactivate handles PATCH /api/v1/products/{id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), productID(r)); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleStock handles PATCH /api/v1/products/{id}/stock.
func (h *Handler) ToggleStock(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ToggleStock(r.Context(), productID(r)); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productID(r *http.Request) product.ID {
	return product.ID(strings.TrimSpace(chi.URLParam(r, "id")))
}
