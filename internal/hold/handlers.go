package hold

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumapos/backend-pos/internal/common"
	"github.com/lumapos/backend-pos/internal/pricing"
)

// Handler exposes the held-cart endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the held-cart endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts/hold", h.Park)
	r.Get("/carts/held", h.List)
	r.Post("/carts/held/{id}/resume", h.Resume)
	r.Delete("/carts/held/{id}", h.Discard)
}

type parkRequest struct {
	Label string       `json:"label" validate:"max=120"`
	Cart  pricing.Cart `json:"cart" validate:"required"`
}

// Park handles POST /v1/carts/hold.
func (h *Handler) Park(w http.ResponseWriter, r *http.Request) {
	var req parkRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	terminalID, _ := common.TerminalID(r.Context())
	held, err := h.service.Park(r.Context(), terminalID, req.Label, req.Cart)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, held)
}

// List handles GET /v1/carts/held.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	held, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, held)
}

// Resume handles POST /v1/carts/held/{id}/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid held cart id", nil)
		return
	}
	terminalID, _ := common.TerminalID(r.Context())
	held, err := h.service.Resume(r.Context(), id, terminalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, held)
}

// Discard handles DELETE /v1/carts/held/{id}.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid held cart id", nil)
		return
	}
	if err := h.service.Discard(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "held cart not found", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no lines", nil)
	default:
		common.RenderError(w, err)
	}
}
