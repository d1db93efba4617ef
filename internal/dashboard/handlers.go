package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
)

// Handler exposes dashboard read endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the dashboard endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/weekly", h.Weekly)
	r.Get("/top-products", h.TopProducts)
}

// Summary handles GET /api/v1/dashboard/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Summary(r.Context())
	if err != nil {
		common.WriteError(w, backend.AsAppError(err, "could not build the dashboard"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Weekly handles GET /api/v1/dashboard/weekly.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Weekly(r.Context())
	if err != nil {
		common.WriteError(w, backend.AsAppError(err, "could not build the dashboard"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopProducts handles GET /api/v1/dashboard/top-products?limit=n.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 50 {
		limit = 5
	}
	out, err := h.Svc.TopProducts(r.Context(), limit)
	if err != nil {
		common.WriteError(w, backend.AsAppError(err, "could not build the dashboard"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
