// Package sale records completed transactions and computes refunds
// against them. A sale freezes the cart lines and the totals that were
// charged; refunds are separate transactions linked to the original, so
// the sale record itself is never rewritten.
package sale

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumapos/backend-pos/internal/pricing"
)

// Type discriminates sale and refund transactions.
type Type string

const (
	TypeSale   Type = "sale"
	TypeRefund Type = "refund"
)

// Transaction is a persisted sale or refund. Lines are frozen at
// completion time; for refunds they carry the returned quantities and
// LinkedTo points at the original sale.
type Transaction struct {
	ID         uuid.UUID          `json:"id"`
	Type       Type               `json:"type"`
	LinkedTo   *uuid.UUID         `json:"linked_to,omitempty"`
	TerminalID string             `json:"terminal_id,omitempty"`
	CustomerID *uuid.UUID         `json:"customer_id,omitempty"`
	Lines      []pricing.LineItem `json:"lines"`
	Adjustment pricing.Adjustment `json:"adjustment"`
	Subtotal   pricing.Money      `json:"subtotal"`
	Discount   pricing.Money      `json:"discount"`
	Total      pricing.Money      `json:"total"`
	CreatedAt  time.Time          `json:"created_at"`
}

var (
	// ErrNotFound is returned for unknown transaction ids.
	ErrNotFound = errors.New("sale: transaction not found")
	// ErrNotASale is returned when refunding a transaction that is itself a refund.
	ErrNotASale = errors.New("sale: refunds must reference a sale")
	// ErrNothingToRefund is returned when every requested quantity has
	// already been returned.
	ErrNothingToRefund = errors.New("sale: nothing left to refund")
	// ErrEmptyCart is returned when completing a cart with no lines.
	ErrEmptyCart = errors.New("sale: cart has no lines")
)
