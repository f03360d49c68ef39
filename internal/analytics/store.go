package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore aggregates transactions directly in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore over a pgx pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// SalesDaily groups transactions per day. Refund totals are reported
// separately so net revenue is gross minus refunds.
func (s *PGStore) SalesDaily(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
			COUNT(*) FILTER (WHERE type = 'sale'),
			COUNT(*) FILTER (WHERE type = 'refund'),
			COALESCE(SUM(subtotal_cents) FILTER (WHERE type = 'sale'), 0)::BIGINT,
			COALESCE(SUM(discount_cents) FILTER (WHERE type = 'sale'), 0)::BIGINT,
			COALESCE(SUM(total_cents) FILTER (WHERE type = 'refund'), 0)::BIGINT,
			(COALESCE(SUM(total_cents) FILTER (WHERE type = 'sale'), 0)
				- COALESCE(SUM(total_cents) FILTER (WHERE type = 'refund'), 0))::BIGINT
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY 1
		ORDER BY 1`, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales daily: %w", err)
	}
	defer rows.Close()

	out := []DailySales{}
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Sales, &d.Refunds, &d.GrossCents, &d.DiscountCents, &d.RefundedCents, &d.NetCents); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProducts ranks catalog products by units sold across sale
// transactions in the window. Ad hoc lines carry no SKU and are skipped.
func (s *PGStore) TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]ProductSales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.product_sku, MAX(i.name),
			SUM(i.quantity)::BIGINT,
			SUM(COALESCE(i.overridden_price_cents, i.unit_price_cents) * i.quantity)::BIGINT
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.type = 'sale' AND t.created_at >= $1 AND t.created_at < $2
			AND i.product_sku <> ''
		GROUP BY i.product_sku
		ORDER BY SUM(i.quantity) DESC, i.product_sku
		LIMIT $3 OFFSET $4`, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	out := []ProductSales{}
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.SKU, &p.Name, &p.QuantitySold, &p.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
