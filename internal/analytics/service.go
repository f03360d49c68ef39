// Package analytics aggregates completed transactions into the closing
// reports a store manager reads: daily sales totals and top-selling
// products. Results are cached in Redis for a short TTL since the
// underlying aggregates only move as fast as the registers do.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumapos/backend-pos/internal/pricing"
)

// DailySales is one day of register activity.
type DailySales struct {
	Day           time.Time     `json:"day"`
	Sales         int64         `json:"sales"`
	Refunds       int64         `json:"refunds"`
	GrossCents    pricing.Money `json:"gross_cents"`
	DiscountCents pricing.Money `json:"discount_cents"`
	RefundedCents pricing.Money `json:"refunded_cents"`
	NetCents      pricing.Money `json:"net_cents"`
}

// ProductSales ranks a product by units sold over the report window.
type ProductSales struct {
	SKU          string        `json:"sku"`
	Name         string        `json:"name"`
	QuantitySold int64         `json:"quantity_sold"`
	RevenueCents pricing.Money `json:"revenue_cents"`
}

// Querier defines the database access required for analytics operations.
type Querier interface {
	SalesDaily(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]ProductSales, error)
}

// Service provides cached access to sales aggregates.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+2)
	formatted = append(formatted, "pos", "an")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns the daily summary between from (inclusive) and to (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []DailySales
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDaily(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best sellers within the window, ordered by units sold.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit, offset int) ([]ProductSales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit, offset)
	var cached []ProductSales
	if s.getCached(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) getCached(ctx context.Context, key string, out any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
