package sale

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumapos/backend-pos/internal/catalog"
	"github.com/lumapos/backend-pos/internal/common"
	"github.com/lumapos/backend-pos/internal/pricing"
)

// Handler exposes the sale endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the sale endpoints on a chi router. The completion route
// is expected to sit behind the idempotency middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sales", h.Complete)
	r.Post("/sales/quote", h.Quote)
	r.Get("/sales/{id}", h.Get)
	r.Post("/sales/{id}/refunds", h.Refund)
}

type discountPayload struct {
	Kind  string `json:"kind" validate:"required,oneof=percent fixed"`
	Value int64  `json:"value" validate:"required,gt=0"`
}

func (d *discountPayload) toDiscount() *pricing.Discount {
	if d == nil {
		return nil
	}
	return &pricing.Discount{Kind: pricing.DiscountKind(d.Kind), Value: d.Value}
}

type linePayload struct {
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	UnitPrice       *int64           `json:"unit_price"`
	Quantity        int              `json:"qty" validate:"required,gt=0"`
	OverriddenPrice *int64           `json:"overridden_price"`
	Discount        *discountPayload `json:"discount"`
}

type cartPayload struct {
	Lines         []linePayload    `json:"lines" validate:"required,min=1,dive"`
	Global        *discountPayload `json:"global_discount"`
	Promotion     string           `json:"promotion"`
	CustomerID    *uuid.UUID       `json:"customer_id"`
	LoyaltyPoints int64            `json:"loyalty_points" validate:"gte=0"`
}

func (p cartPayload) toInput() (CartInput, error) {
	populated := 0
	if p.Global != nil {
		populated++
	}
	if p.Promotion != "" {
		populated++
	}
	if p.LoyaltyPoints > 0 {
		populated++
	}
	if populated > 1 {
		return CartInput{}, common.Unprocessable("EXCLUSIVE_ADJUSTMENT",
			"global discount, promotion, and loyalty redemption are mutually exclusive", nil)
	}

	input := CartInput{
		Global:        p.Global.toDiscount(),
		Promotion:     pricing.PromotionID(p.Promotion),
		CustomerID:    p.CustomerID,
		LoyaltyPoints: p.LoyaltyPoints,
	}
	for _, l := range p.Lines {
		input.Lines = append(input.Lines, LineInput{
			SKU:             l.SKU,
			Name:            l.Name,
			Category:        l.Category,
			UnitPrice:       l.UnitPrice,
			Quantity:        l.Quantity,
			OverriddenPrice: l.OverriddenPrice,
			Discount:        l.Discount.toDiscount(),
		})
	}
	return input, nil
}

type saleResponse struct {
	Transaction Transaction    `json:"transaction"`
	Totals      pricing.Totals `json:"totals"`
}

// Complete handles POST /v1/sales.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var payload cartPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.RenderError(w, err)
		return
	}
	input, err := payload.toInput()
	if err != nil {
		common.RenderError(w, err)
		return
	}
	terminalID, _ := common.TerminalID(r.Context())
	t, totals, err := h.service.Complete(r.Context(), terminalID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, saleResponse{Transaction: t, Totals: totals})
}

// Quote handles POST /v1/sales/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var payload cartPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.RenderError(w, err)
		return
	}
	input, err := payload.toInput()
	if err != nil {
		common.RenderError(w, err)
		return
	}
	cart, totals, err := h.service.Quote(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"cart": cart, "totals": totals})
}

// Get handles GET /v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid transaction id", nil)
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, t)
}

type refundPayload struct {
	Lines []refundLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type refundLinePayload struct {
	LineID   string `json:"line_id" validate:"required"`
	Quantity int    `json:"qty" validate:"required,gt=0"`
}

// Refund handles POST /v1/sales/{id}/refunds.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid transaction id", nil)
		return
	}
	var payload refundPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.RenderError(w, err)
		return
	}
	requested := make(RefundRequest, len(payload.Lines))
	for _, l := range payload.Lines {
		requested[l.LineID] += l.Quantity
	}
	terminalID, _ := common.TerminalID(r.Context())
	t, err := h.service.Refund(r.Context(), id, terminalID, requested)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, t)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", nil)
	case errors.Is(err, ErrNotASale):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_A_SALE", "refunds must reference a sale", nil)
	case errors.Is(err, ErrNothingToRefund):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOTHING_TO_REFUND", "requested quantities were already returned", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no lines", nil)
	case errors.Is(err, catalog.ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "insufficient stock", nil)
	default:
		common.RenderError(w, err)
	}
}
