package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumapos/backend-pos/internal/obs"
	"github.com/lumapos/backend-pos/internal/pricing"
)

type ledgerStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error)
	CreateCustomer(ctx context.Context, name string) (Customer, error)
	ListLedger(ctx context.Context, customerID uuid.UUID, limit int) ([]LedgerEntry, error)
	Record(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
}

// Service converts between points and money and records movements.
type Service struct {
	store ledgerStore
	log   zerolog.Logger

	// pointValue is the cent value of one redeemed point.
	pointValue int64
	// earnRate is the cents of sale total that earn one point.
	earnRate int64
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store      ledgerStore
	Logger     zerolog.Logger
	PointValue int64
	EarnRate   int64
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("loyalty: store is required")
	}
	if cfg.PointValue <= 0 || cfg.EarnRate <= 0 {
		return nil, errors.New("loyalty: point value and earn rate must be positive")
	}
	return &Service{
		store:      cfg.Store,
		log:        cfg.Logger,
		pointValue: cfg.PointValue,
		earnRate:   cfg.EarnRate,
	}, nil
}

// Quote converts a point amount into the discount it would grant, capped at
// the customer's current balance.
func (s *Service) Quote(ctx context.Context, customerID uuid.UUID, points int64) (pricing.LoyaltyDiscount, error) {
	if points <= 0 {
		return pricing.LoyaltyDiscount{}, nil
	}
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return pricing.LoyaltyDiscount{}, err
	}
	if points > c.Points {
		return pricing.LoyaltyDiscount{}, ErrInsufficientPoints
	}
	return pricing.LoyaltyDiscount{Amount: points * s.pointValue, Points: int(points)}, nil
}

// Redeem spends points against a completed sale.
func (s *Service) Redeem(ctx context.Context, customerID uuid.UUID, points int64, saleID uuid.UUID) error {
	if points <= 0 {
		return nil
	}
	_, err := s.store.Record(ctx, LedgerEntry{
		CustomerID: customerID,
		Kind:       EntryRedeem,
		Points:     points,
		Amount:     points * s.pointValue,
		SaleID:     &saleID,
	})
	if err != nil {
		return err
	}
	obs.RecordLoyaltyRedemption(points)
	return nil
}

// Accrue grants points for a completed sale. Totals below the earn rate
// earn nothing.
func (s *Service) Accrue(ctx context.Context, customerID uuid.UUID, total pricing.Money, saleID uuid.UUID) (int64, error) {
	if total <= 0 {
		return 0, nil
	}
	points := total / s.earnRate
	if points == 0 {
		return 0, nil
	}
	_, err := s.store.Record(ctx, LedgerEntry{
		CustomerID: customerID,
		Kind:       EntryEarn,
		Points:     points,
		Amount:     total,
		SaleID:     &saleID,
	})
	if err != nil {
		return 0, err
	}
	s.log.Debug().Stringer("customer_id", customerID).Int64("points", points).Msg("loyalty points accrued")
	return points, nil
}

// Summary bundles the balance with recent movements.
type Summary struct {
	Customer Customer      `json:"customer"`
	Ledger   []LedgerEntry `json:"ledger"`
}

// Summarize returns a customer's balance and recent ledger.
func (s *Service) Summarize(ctx context.Context, customerID uuid.UUID) (Summary, error) {
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return Summary{}, err
	}
	entries, err := s.store.ListLedger(ctx, customerID, 20)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Customer: c, Ledger: entries}, nil
}

// Register creates a customer with an empty balance.
func (s *Service) Register(ctx context.Context, name string) (Customer, error) {
	return s.store.CreateCustomer(ctx, name)
}
