package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumapos/backend-pos/internal/catalog"
	"github.com/lumapos/backend-pos/internal/common"
	"github.com/lumapos/backend-pos/internal/obs"
	"github.com/lumapos/backend-pos/internal/pricing"
	"github.com/lumapos/backend-pos/internal/refund"
)

type transactionStore interface {
	Create(ctx context.Context, t Transaction) error
	Get(ctx context.Context, id uuid.UUID) (Transaction, error)
	ListRefunds(ctx context.Context, saleID uuid.UUID) ([]Transaction, error)
}

type productResolver interface {
	Resolve(ctx context.Context, skus []string) (map[string]catalog.Product, error)
	AdjustStock(ctx context.Context, sku string, delta int) error
}

type loyaltyLedger interface {
	Quote(ctx context.Context, customerID uuid.UUID, points int64) (pricing.LoyaltyDiscount, error)
	Redeem(ctx context.Context, customerID uuid.UUID, points int64, saleID uuid.UUID) error
	Accrue(ctx context.Context, customerID uuid.UUID, total pricing.Money, saleID uuid.UUID) (int64, error)
}

// Service completes sales and computes refunds against them.
type Service struct {
	store   transactionStore
	catalog productResolver
	loyalty loyaltyLedger
	log     zerolog.Logger
	now     func() time.Time
}

// ServiceConfig groups Service dependencies. Loyalty is optional; without
// it carts carrying a redemption are rejected.
type ServiceConfig struct {
	Store   transactionStore
	Catalog productResolver
	Loyalty loyaltyLedger
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("sale: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("sale: catalog is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		loyalty: cfg.Loyalty,
		log:     cfg.Logger,
		now:     cfg.Now,
	}, nil
}

// CartInput describes the cart a terminal submits for quoting or
// completion. Lines reference catalog SKUs or carry an ad hoc price.
type CartInput struct {
	Lines      []LineInput
	Global     *pricing.Discount
	Promotion  pricing.PromotionID
	CustomerID *uuid.UUID
	// LoyaltyPoints requests a redemption quoted against the customer's
	// balance at completion time.
	LoyaltyPoints int64
}

// LineInput is one requested cart line.
type LineInput struct {
	SKU             string
	Name            string
	Category        string
	UnitPrice       *pricing.Money
	Quantity        int
	OverriddenPrice *pricing.Money
	Discount        *pricing.Discount
}

// buildCart resolves catalog SKUs, freezes prices, and applies the single
// cart-level adjustment through the cart transitions so exclusivity holds
// no matter what the request carried.
func (s *Service) buildCart(ctx context.Context, input CartInput) (pricing.Cart, error) {
	if len(input.Lines) == 0 {
		return pricing.Cart{}, ErrEmptyCart
	}

	var skus []string
	for _, l := range input.Lines {
		if l.SKU != "" {
			skus = append(skus, l.SKU)
		}
	}
	products, err := s.catalog.Resolve(ctx, skus)
	if err != nil {
		return pricing.Cart{}, err
	}

	var cart pricing.Cart
	for i, l := range input.Lines {
		line := pricing.LineItem{
			ID:              fmt.Sprintf("L%d-%s", i+1, uuid.NewString()[:8]),
			Quantity:        l.Quantity,
			OverriddenPrice: l.OverriddenPrice,
			Discount:        l.Discount,
		}
		if l.SKU != "" {
			p, ok := products[l.SKU]
			if !ok {
				return pricing.Cart{}, common.NotFound(fmt.Sprintf("unknown sku %q", l.SKU))
			}
			if !p.Active {
				return pricing.Cart{}, common.Unprocessable("INACTIVE_PRODUCT", fmt.Sprintf("product %q is inactive", l.SKU), nil)
			}
			line.ProductID = p.SKU
			line.Name = p.Name
			line.Category = p.Category
			line.UnitPrice = p.UnitPrice
		} else {
			if l.UnitPrice == nil || *l.UnitPrice <= 0 || l.Name == "" {
				return pricing.Cart{}, common.BadRequest("ad hoc lines need a name and a positive unit price", nil)
			}
			line.Name = l.Name
			line.Category = l.Category
			line.UnitPrice = *l.UnitPrice
		}
		cart = cart.AddLine(line)
	}

	switch {
	case input.Global != nil:
		cart = cart.WithGlobalDiscount(input.Global)
	case input.Promotion != "":
		if _, ok := pricing.LookupPromotion(input.Promotion); !ok {
			return pricing.Cart{}, common.Unprocessable("UNKNOWN_PROMOTION", fmt.Sprintf("unknown promotion %q", input.Promotion), nil)
		}
		cart = cart.WithPromotion(input.Promotion)
	case input.LoyaltyPoints > 0:
		if s.loyalty == nil || input.CustomerID == nil {
			return pricing.Cart{}, common.Unprocessable("LOYALTY_UNAVAILABLE", "loyalty redemption needs a customer", nil)
		}
		discount, err := s.loyalty.Quote(ctx, *input.CustomerID, input.LoyaltyPoints)
		if err != nil {
			return pricing.Cart{}, err
		}
		cart = cart.WithLoyaltyDiscount(discount)
	}
	return cart, nil
}

// Quote prices a cart without persisting anything.
func (s *Service) Quote(ctx context.Context, input CartInput) (pricing.Cart, pricing.Totals, error) {
	cart, err := s.buildCart(ctx, input)
	if err != nil {
		return pricing.Cart{}, pricing.Totals{}, err
	}
	return cart, pricing.ComputeTotals(cart), nil
}

// Complete prices the cart, persists the transaction, moves stock and
// loyalty points, and returns the stored record.
func (s *Service) Complete(ctx context.Context, terminalID string, input CartInput) (Transaction, pricing.Totals, error) {
	cart, err := s.buildCart(ctx, input)
	if err != nil {
		return Transaction{}, pricing.Totals{}, err
	}
	totals := pricing.ComputeTotals(cart)

	adjustment := cart.Adjustment
	if adjustment.Kind == "" {
		adjustment.Kind = pricing.AdjustNone
	}

	t := Transaction{
		ID:         uuid.New(),
		Type:       TypeSale,
		TerminalID: terminalID,
		CustomerID: input.CustomerID,
		Lines:      cart.Lines,
		Adjustment: adjustment,
		Subtotal:   totals.Subtotal,
		Discount:   totals.TotalDiscount,
		Total:      totals.FinalTotal,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.moveStock(ctx, cart.Lines, -1); err != nil {
		return Transaction{}, pricing.Totals{}, err
	}
	if err := s.store.Create(ctx, t); err != nil {
		// Undo the decrements so an insert failure does not leak stock.
		if restockErr := s.moveStock(ctx, cart.Lines, 1); restockErr != nil {
			s.log.Error().Err(restockErr).Stringer("transaction_id", t.ID).Msg("restock after failed insert")
		}
		return Transaction{}, pricing.Totals{}, err
	}

	if s.loyalty != nil && input.CustomerID != nil {
		if adjustment.Kind == pricing.AdjustLoyalty {
			if err := s.loyalty.Redeem(ctx, *input.CustomerID, int64(adjustment.Loyalty.Points), t.ID); err != nil {
				s.log.Error().Err(err).Stringer("transaction_id", t.ID).Msg("loyalty redemption failed")
			}
		}
		if _, err := s.loyalty.Accrue(ctx, *input.CustomerID, t.Total, t.ID); err != nil {
			s.log.Error().Err(err).Stringer("transaction_id", t.ID).Msg("loyalty accrual failed")
		}
	}

	obs.RecordSale(string(adjustment.Kind), t.Total)
	if adjustment.Kind == pricing.AdjustPromotion {
		obs.RecordPromotion(string(adjustment.Promotion))
	}
	s.log.Info().
		Stringer("transaction_id", t.ID).
		Str("terminal_id", terminalID).
		Int64("total_cents", t.Total).
		Str("adjustment", string(adjustment.Kind)).
		Msg("sale completed")
	return t, totals, nil
}

// Get returns a stored transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	return s.store.Get(ctx, id)
}

// RefundRequest maps original line ids to the quantities being returned.
type RefundRequest map[string]int

// Refund computes and persists a partial refund for a sale. Requested
// quantities are clamped against what previous refunds already returned,
// so repeated requests can never hand back more than was sold.
func (s *Service) Refund(ctx context.Context, saleID uuid.UUID, terminalID string, requested RefundRequest) (Transaction, error) {
	original, err := s.store.Get(ctx, saleID)
	if err != nil {
		obs.RecordRefund("not_found", 0)
		return Transaction{}, err
	}
	if original.Type != TypeSale {
		obs.RecordRefund("rejected", 0)
		return Transaction{}, ErrNotASale
	}

	prior, err := s.store.ListRefunds(ctx, saleID)
	if err != nil {
		return Transaction{}, err
	}
	returned := map[string]int{}
	for _, r := range prior {
		for _, line := range r.Lines {
			returned[line.ID] += line.Quantity
		}
	}

	byID := make(map[string]pricing.LineItem, len(original.Lines))
	for _, line := range original.Lines {
		byID[line.ID] = line
	}

	effective := map[string]int{}
	var refundLines []pricing.LineItem
	for _, line := range original.Lines {
		qty, ok := requested[line.ID]
		if !ok || qty <= 0 {
			continue
		}
		remaining := line.Quantity - returned[line.ID]
		if remaining <= 0 {
			continue
		}
		if qty > remaining {
			qty = remaining
		}
		effective[line.ID] = qty
		frozen := line
		frozen.Quantity = qty
		refundLines = append(refundLines, frozen)
	}
	if len(effective) == 0 {
		obs.RecordRefund("rejected", 0)
		return Transaction{}, ErrNothingToRefund
	}

	amount := refund.Compute(refund.Transaction{Lines: original.Lines, Total: original.Total}, effective)

	t := Transaction{
		ID:         uuid.New(),
		Type:       TypeRefund,
		LinkedTo:   &original.ID,
		TerminalID: terminalID,
		CustomerID: original.CustomerID,
		Lines:      refundLines,
		Adjustment: pricing.Adjustment{Kind: pricing.AdjustNone},
		Total:      amount,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Create(ctx, t); err != nil {
		return Transaction{}, err
	}

	// Returned goods go back on the shelf.
	if err := s.moveStock(ctx, refundLines, 1); err != nil {
		s.log.Error().Err(err).Stringer("transaction_id", t.ID).Msg("restock after refund")
	}

	obs.RecordRefund("ok", amount)
	s.log.Info().
		Stringer("transaction_id", t.ID).
		Stringer("sale_id", original.ID).
		Int64("refund_cents", amount).
		Msg("refund recorded")
	return t, nil
}

func (s *Service) moveStock(ctx context.Context, lines []pricing.LineItem, sign int) error {
	for i, line := range lines {
		if line.ProductID == "" {
			continue
		}
		if err := s.catalog.AdjustStock(ctx, line.ProductID, sign*line.Quantity); err != nil {
			// Roll back the lines already moved.
			for _, done := range lines[:i] {
				if done.ProductID == "" {
					continue
				}
				if undoErr := s.catalog.AdjustStock(ctx, done.ProductID, -sign*done.Quantity); undoErr != nil {
					s.log.Error().Err(undoErr).Str("sku", done.ProductID).Msg("stock rollback failed")
				}
			}
			return err
		}
	}
	return nil
}
