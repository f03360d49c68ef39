package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lumapos/backend-pos/internal/common"
)

// Handler exposes the product endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the catalog endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{sku}", h.Detail)
}

// List handles GET /v1/products with filters and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.service.defaultLimit, h.service.maxLimit)
	params := ListParams{
		Query:      r.URL.Query().Get("q"),
		Category:   r.URL.Query().Get("category"),
		OnlyActive: r.URL.Query().Get("include_inactive") != "true",
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}
	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(result.Total)},
	})
}

// Detail handles GET /v1/products/{sku}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if sku == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sku is required", nil)
		return
	}
	p, err := h.service.Get(r.Context(), sku)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

type createProductRequest struct {
	SKU       string `json:"sku" validate:"required,min=1,max=64"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Category  string `json:"category" validate:"required,min=1,max=100"`
	UnitPrice int64  `json:"unit_price" validate:"required,gt=0"`
	Stock     int    `json:"stock" validate:"gte=0"`
	Active    *bool  `json:"active"`
}

// Create handles POST /v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RenderError(w, err)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	p, err := h.service.Create(r.Context(), Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: req.UnitPrice,
		Stock:     req.Stock,
		Active:    active,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, p)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrDuplicateSKU):
		common.JSONError(w, http.StatusConflict, "DUPLICATE_SKU", "sku already exists", nil)
	case errors.Is(err, ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "insufficient stock", nil)
	default:
		common.RenderError(w, err)
	}
}
