package sale

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumapos/backend-pos/internal/pricing"
)

// Store persists transactions in Postgres. The header row and its item
// rows always commit together.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a transaction with its lines.
func (s *Store) Create(ctx context.Context, t Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var promotion *string
	if t.Adjustment.Promotion != "" {
		p := string(t.Adjustment.Promotion)
		promotion = &p
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (
			id, type, linked_to, terminal_id, customer_id,
			adjustment_kind, global_discount_kind, global_discount_value,
			promotion_id, loyalty_amount_cents, loyalty_points,
			subtotal_cents, discount_cents, total_cents, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		t.ID, t.Type, t.LinkedTo, t.TerminalID, t.CustomerID,
		string(t.Adjustment.Kind), nullDiscountKind(t.Adjustment.Global), nullDiscountValue(t.Adjustment.Global),
		promotion, t.Adjustment.Loyalty.Amount, t.Adjustment.Loyalty.Points,
		t.Subtotal, t.Discount, t.Total, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	for i, line := range t.Lines {
		var dKind *string
		var dValue *int64
		if line.Discount != nil {
			k := string(line.Discount.Kind)
			dKind, dValue = &k, &line.Discount.Value
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transaction_items (
				transaction_id, position, line_id, product_sku, name, category,
				unit_price_cents, quantity, overridden_price_cents,
				discount_kind, discount_value
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			t.ID, i, line.ID, line.ProductID, line.Name, line.Category,
			line.UnitPrice, line.Quantity, line.OverriddenPrice, dKind, dValue)
		if err != nil {
			return fmt.Errorf("insert transaction item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Get fetches a transaction with its lines.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, err := s.scanHeader(s.pool.QueryRow(ctx, txHeaderQuery+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}

	lines, err := s.loadLines(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return Transaction{}, err
	}
	t.Lines = lines[t.ID]
	return t, nil
}

// ListRefunds returns the refund transactions linked to a sale.
func (s *Store) ListRefunds(ctx context.Context, saleID uuid.UUID) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, txHeaderQuery+" WHERE linked_to = $1 ORDER BY created_at", saleID)
	if err != nil {
		return nil, fmt.Errorf("list refunds %s: %w", saleID, err)
	}
	defer rows.Close()

	var refunds []Transaction
	var ids []uuid.UUID
	for rows.Next() {
		t, err := s.scanHeader(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(refunds) == 0 {
		return nil, nil
	}

	lines, err := s.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range refunds {
		refunds[i].Lines = lines[refunds[i].ID]
	}
	return refunds, nil
}

const txHeaderQuery = `
	SELECT id, type, linked_to, terminal_id, customer_id,
	       adjustment_kind, global_discount_kind, global_discount_value,
	       promotion_id, loyalty_amount_cents, loyalty_points,
	       subtotal_cents, discount_cents, total_cents, created_at
	FROM transactions`

func (s *Store) scanHeader(row pgx.Row) (Transaction, error) {
	var t Transaction
	var adjKind string
	var gKind *string
	var gValue *int64
	var promotion *string
	var loyaltyAmount int64
	var loyaltyPoints int
	err := row.Scan(&t.ID, &t.Type, &t.LinkedTo, &t.TerminalID, &t.CustomerID,
		&adjKind, &gKind, &gValue,
		&promotion, &loyaltyAmount, &loyaltyPoints,
		&t.Subtotal, &t.Discount, &t.Total, &t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}

	t.Adjustment.Kind = pricing.AdjustmentKind(adjKind)
	if gKind != nil && gValue != nil {
		t.Adjustment.Global = pricing.Discount{Kind: pricing.DiscountKind(*gKind), Value: *gValue}
	}
	if promotion != nil {
		t.Adjustment.Promotion = pricing.PromotionID(*promotion)
	}
	t.Adjustment.Loyalty = pricing.LoyaltyDiscount{Amount: loyaltyAmount, Points: loyaltyPoints}
	return t, nil
}

func (s *Store) loadLines(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]pricing.LineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT transaction_id, line_id, product_sku, name, category,
		       unit_price_cents, quantity, overridden_price_cents,
		       discount_kind, discount_value
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load transaction items: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]pricing.LineItem, len(ids))
	for rows.Next() {
		var txID uuid.UUID
		var line pricing.LineItem
		var dKind *string
		var dValue *int64
		if err := rows.Scan(&txID, &line.ID, &line.ProductID, &line.Name, &line.Category,
			&line.UnitPrice, &line.Quantity, &line.OverriddenPrice, &dKind, &dValue); err != nil {
			return nil, err
		}
		if dKind != nil && dValue != nil {
			line.Discount = &pricing.Discount{Kind: pricing.DiscountKind(*dKind), Value: *dValue}
		}
		out[txID] = append(out[txID], line)
	}
	return out, rows.Err()
}

func nullDiscountKind(d pricing.Discount) *string {
	if d.Value <= 0 {
		return nil
	}
	k := string(d.Kind)
	return &k
}

func nullDiscountValue(d pricing.Discount) *int64 {
	if d.Value <= 0 {
		return nil
	}
	return &d.Value
}
