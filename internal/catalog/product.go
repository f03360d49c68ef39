package catalog

import (
	"errors"
	"time"

	"github.com/lumapos/backend-pos/internal/pricing"
)

// Product is a sellable item. UnitPrice is the sticker price in minor
// currency units; pricing decisions (overrides, discounts) happen at the
// cart, never here.
type Product struct {
	SKU       string        `json:"sku"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	UnitPrice pricing.Money `json:"unit_price"`
	Stock     int           `json:"stock"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

var (
	// ErrNotFound is returned when a SKU does not exist.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrDuplicateSKU is returned when creating a product whose SKU is taken.
	ErrDuplicateSKU = errors.New("catalog: sku already exists")
	// ErrInsufficientStock is returned when a stock adjustment would go negative.
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// ListParams captures filters for product listing.
type ListParams struct {
	Query      string
	Category   string
	OnlyActive bool
	Limit      int
	Offset     int
}
