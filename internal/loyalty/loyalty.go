// Package loyalty manages customer point balances and their conversion
// into checkout discounts. Points accrue on completed sales and are spent
// as a redemption against the cart total; every movement is recorded in an
// append-only ledger.
package loyalty

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumapos/backend-pos/internal/pricing"
)

// Customer holds the current point balance.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryKind discriminates ledger movements.
type EntryKind string

const (
	EntryEarn   EntryKind = "earn"
	EntryRedeem EntryKind = "redeem"
)

// LedgerEntry is one point movement. Amount is the cent value the points
// corresponded to at the time of the movement.
type LedgerEntry struct {
	ID         uuid.UUID     `json:"id"`
	CustomerID uuid.UUID     `json:"customer_id"`
	Kind       EntryKind     `json:"kind"`
	Points     int64         `json:"points"`
	Amount     pricing.Money `json:"amount"`
	SaleID     *uuid.UUID    `json:"sale_id,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

var (
	// ErrCustomerNotFound is returned for unknown customer ids.
	ErrCustomerNotFound = errors.New("loyalty: customer not found")
	// ErrInsufficientPoints is returned when a redemption exceeds the balance.
	ErrInsufficientPoints = errors.New("loyalty: insufficient points")
)
