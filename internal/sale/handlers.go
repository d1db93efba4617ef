package sale

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pos-admin/internal/common"
)

// Handler exposes the sales history endpoints.
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

// Routes mounts the sales endpoints.
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.With(writes...).Patch("/{id}/deactivate", h.Deactivate)
}

// List handles GET /api/v1/sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.pageSize)
	q := r.URL.Query()
	res, err := h.composer.List(r.Context(), Filter{
		ID:    strings.TrimSpace(q.Get("id")),
		Date:  strings.TrimSpace(q.Get("date")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res.Items, "pagination": res.Pagination})
}

// Deactivate handles PATCH /api/v1/sales/{id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.composer.Deactivate(r.Context(), strings.TrimSpace(chi.URLParam(r, "id"))); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
