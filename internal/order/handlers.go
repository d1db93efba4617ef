package order

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pos-admin/internal/common"
)

// Handler exposes the order board endpoints.
type Handler struct {
	composer *Composer
	pageSize int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Composer *Composer
	PageSize int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	size := cfg.PageSize
	if size <= 0 {
		size = 10
	}
	return &Handler{composer: cfg.Composer, pageSize: size}
}

// Routes mounts the order endpoints.
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Group(func(w chi.Router) {
		w.Use(writes...)
		w.Patch("/{id}/advance", h.Advance)
		w.Patch("/{id}/deactivate", h.Deactivate)
	})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.pageSize)
	q := r.URL.Query()
	res, err := h.composer.List(r.Context(), Filter{
		CustomerName: q.Get("customer"),
		Date:         strings.TrimSpace(q.Get("date")),
		Status:       q.Get("status"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res.Items, "pagination": res.Pagination})
}

// Advance handles PATCH /api/v1/orders/{id}/advance.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	v, err := h.composer.Advance(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Deactivate handles PATCH /api/v1/orders/{id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.Deactivate(r.Context(), strings.TrimSpace(chi.URLParam(r, "id"))); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
