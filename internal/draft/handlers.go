package draft

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/product"
)

// Handler exposes the draft endpoints.
type Handler struct {
	service    *Service
	submitters map[Kind]Submitter
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service    *Service
	Submitters map[Kind]Submitter
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, submitters: cfg.Submitters}
}

// Routes mounts the draft endpoints. submit wraps the submit route only.
func (h *Handler) Routes(r chi.Router, submit ...func(http.Handler) http.Handler) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Discard)
		r.Post("/lines", h.AddLine)
		r.Patch("/lines/{productId}", h.AdjustLine)
		r.Post("/lines/{productId}/step", h.StepLine)
		r.Delete("/lines/{productId}", h.RemoveLine)
		r.Put("/payment", h.SetPayment)
		r.Put("/customer", h.SetCustomer)
		r.Post("/reset", h.Reset)
		r.With(submit...).Post("/submit", h.Submit)
	})
}

type createRequest struct {
	Kind Kind `json:"kind" validate:"required,oneof=sale order"`
}

type addLineRequest struct {
	ProductID product.ID `json:"productId" validate:"required"`
}

type quantityRequest struct {
	Quantity lineitem.Entry `json:"quantity"`
}

type stepRequest struct {
	Delta lineitem.Entry `json:"delta"`
}

type paymentRequest struct {
	Method string `json:"method" validate:"max=40"`
}

type customerRequest struct {
	Name    string `json:"name" validate:"max=120"`
	Address string `json:"address" validate:"max=200"`
}

func respond(w http.ResponseWriter, status int, d *Draft) {
	common.JSON(w, status, map[string]any{"data": d.View()})
}

func draftID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func lineID(r *http.Request) product.ID {
	return product.ID(strings.TrimSpace(chi.URLParam(r, "productId")))
}

// Create handles POST /api/v1/drafts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.Create(r.Context(), req.Kind)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusCreated, d)
}

// Get handles GET /api/v1/drafts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), draftID(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// Discard handles DELETE /api/v1/drafts/{id}.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), draftID(r)); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLine handles POST /api/v1/drafts/{id}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.AddProduct(r.Context(), draftID(r), req.ProductID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// AdjustLine handles PATCH /api/v1/drafts/{id}/lines/{productId}.
func (h *Handler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.AdjustQuantity(r.Context(), draftID(r), lineID(r), req.Quantity.Decimal)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// StepLine handles POST /api/v1/drafts/{id}/lines/{productId}/step.
func (h *Handler) StepLine(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.Step(r.Context(), draftID(r), lineID(r), req.Delta.Decimal)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// RemoveLine handles DELETE /api/v1/drafts/{id}/lines/{productId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.RemoveProduct(r.Context(), draftID(r), lineID(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// SetPayment handles PUT /api/v1/drafts/{id}/payment.
func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.SetPaymentMethod(r.Context(), draftID(r), req.Method)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// SetCustomer handles PUT /api/v1/drafts/{id}/customer.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.service.SetCustomer(r.Context(), draftID(r), Customer{Name: req.Name, Address: req.Address})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// Reset handles POST /api/v1/drafts/{id}/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Reset(r.Context(), draftID(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// Submit handles POST /api/v1/drafts/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := draftID(r)
	current, err := h.service.Get(ctx, id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	sub, ok := h.submitters[current.Kind]
	if !ok {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "no composer for draft kind", nil)
		return
	}
	result, d, err := h.service.Submit(ctx, id, sub)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data":  result,
		"draft": d.View(),
	})
}
