package loyalty

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumapos/backend-pos/internal/common"
)

// Handler exposes the loyalty endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the loyalty endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/customers", h.Register)
	r.Get("/customers/{id}/loyalty", h.Summary)
	r.Post("/customers/{id}/loyalty/quote", h.Quote)
}

type registerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Register handles POST /v1/customers.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.service.Register(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, c)
}

// Summary handles GET /v1/customers/{id}/loyalty.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	summary, err := h.service.Summarize(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

type quoteRequest struct {
	Points int64 `json:"points" validate:"required,gt=0"`
}

// Quote handles POST /v1/customers/{id}/loyalty/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	discount, err := h.service.Quote(r.Context(), id, req.Points)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, discount)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "customer not found", nil)
	case errors.Is(err, ErrInsufficientPoints):
		common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS", "customer does not have enough points", nil)
	default:
		common.RenderError(w, err)
	}
}
