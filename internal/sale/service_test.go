package sale_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lumapos/backend-pos/internal/catalog"
	"github.com/lumapos/backend-pos/internal/pricing"
	"github.com/lumapos/backend-pos/internal/sale"
)

type memoryStore struct {
	transactions map[uuid.UUID]sale.Transaction
}

func newMemoryStore() *memoryStore {
	return &memoryStore{transactions: map[uuid.UUID]sale.Transaction{}}
}

func (m *memoryStore) Create(_ context.Context, t sale.Transaction) error {
	m.transactions[t.ID] = t
	return nil
}

func (m *memoryStore) Get(_ context.Context, id uuid.UUID) (sale.Transaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return sale.Transaction{}, sale.ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) ListRefunds(_ context.Context, saleID uuid.UUID) ([]sale.Transaction, error) {
	var out []sale.Transaction
	for _, t := range m.transactions {
		if t.Type == sale.TypeRefund && t.LinkedTo != nil && *t.LinkedTo == saleID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memoryCatalog struct {
	products map[string]catalog.Product
}

func newMemoryCatalog(products ...catalog.Product) *memoryCatalog {
	m := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		m[p.SKU] = p
	}
	return &memoryCatalog{products: m}
}

func (m *memoryCatalog) Resolve(_ context.Context, skus []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, sku := range skus {
		if p, ok := m.products[sku]; ok {
			out[sku] = p
		}
	}
	return out, nil
}

func (m *memoryCatalog) AdjustStock(_ context.Context, sku string, delta int) error {
	p, ok := m.products[sku]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return catalog.ErrInsufficientStock
	}
	p.Stock += delta
	m.products[sku] = p
	return nil
}

type recordingLoyalty struct {
	balance  int64
	redeemed int64
	accrued  int64
}

func (r *recordingLoyalty) Quote(_ context.Context, _ uuid.UUID, points int64) (pricing.LoyaltyDiscount, error) {
	if points > r.balance {
		return pricing.LoyaltyDiscount{}, catalog.ErrNotFound
	}
	return pricing.LoyaltyDiscount{Amount: points * 100, Points: int(points)}, nil
}

func (r *recordingLoyalty) Redeem(_ context.Context, _ uuid.UUID, points int64, _ uuid.UUID) error {
	r.redeemed += points
	return nil
}

func (r *recordingLoyalty) Accrue(_ context.Context, _ uuid.UUID, total pricing.Money, _ uuid.UUID) (int64, error) {
	points := total / 10_000
	r.accrued += points
	return points, nil
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{SKU: "CAFE-001", Name: "Cafe americano", Category: "Bebidas", UnitPrice: 1000, Stock: 50, Active: true},
		{SKU: "TOSTADO-001", Name: "Tostado", Category: "Comidas", UnitPrice: 2500, Stock: 20, Active: true},
		{SKU: "VIEJO-001", Name: "Descatalogado", Category: "Comidas", UnitPrice: 100, Stock: 5, Active: false},
	}
}

func newTestService(t *testing.T, store *memoryStore, cat *memoryCatalog, loy *recordingLoyalty) *sale.Service {
	t.Helper()
	cfg := sale.ServiceConfig{
		Store:   store,
		Catalog: cat,
		Logger:  zerolog.Nop(),
		Now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	if loy != nil {
		cfg.Loyalty = loy
	}
	svc, err := sale.NewService(cfg)
	require.NoError(t, err)
	return svc
}

func TestCompleteSimpleSale(t *testing.T) {
	store := newMemoryStore()
	cat := newMemoryCatalog(testProducts()...)
	svc := newTestService(t, store, cat, nil)

	tx, totals, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{
			{SKU: "CAFE-001", Quantity: 2},
			{SKU: "TOSTADO-001", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(4500), totals.FinalTotal)
	require.Equal(t, sale.TypeSale, tx.Type)
	require.Equal(t, "caja-1", tx.TerminalID)
	require.Len(t, tx.Lines, 2)

	// Stock moved.
	require.Equal(t, 48, cat.products["CAFE-001"].Stock)
	require.Equal(t, 19, cat.products["TOSTADO-001"].Stock)

	stored, err := svc.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Equal(t, tx.Total, stored.Total)
}

func TestCompleteMergesRepeatedProduct(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)

	tx, _, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{
			{SKU: "CAFE-001", Quantity: 1},
			{SKU: "CAFE-001", Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, tx.Lines, 1)
	require.Equal(t, 3, tx.Lines[0].Quantity)
}

func TestCompleteGlobalDiscount(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)

	tx, totals, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines:  []sale.LineInput{{SKU: "CAFE-001", Quantity: 10}},
		Global: &pricing.Discount{Kind: pricing.DiscountPercent, Value: 1000},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10000), totals.Subtotal)
	require.Equal(t, int64(9000), totals.FinalTotal)
	require.Equal(t, pricing.AdjustGlobal, tx.Adjustment.Kind)
}

func TestCompleteRejectsInactiveAndUnknown(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)

	_, _, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{{SKU: "VIEJO-001", Quantity: 1}},
	})
	require.Error(t, err)

	_, _, err = svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{{SKU: "NOPE", Quantity: 1}},
	})
	require.Error(t, err)
}

func TestCompleteInsufficientStockRollsBack(t *testing.T) {
	store := newMemoryStore()
	cat := newMemoryCatalog(testProducts()...)
	svc := newTestService(t, store, cat, nil)

	_, _, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{
			{SKU: "CAFE-001", Quantity: 2},
			{SKU: "TOSTADO-001", Quantity: 100},
		},
	})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	// First line's decrement was undone.
	require.Equal(t, 50, cat.products["CAFE-001"].Stock)
	require.Empty(t, store.transactions)
}

func TestCompleteLoyaltyFlow(t *testing.T) {
	store := newMemoryStore()
	loy := &recordingLoyalty{balance: 50}
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), loy)
	customer := uuid.New()

	tx, totals, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines:         []sale.LineInput{{SKU: "TOSTADO-001", Quantity: 8}},
		CustomerID:    &customer,
		LoyaltyPoints: 20,
	})
	require.NoError(t, err)
	// 20000 - 2000 redemption.
	require.Equal(t, int64(18000), totals.FinalTotal)
	require.Equal(t, pricing.AdjustLoyalty, tx.Adjustment.Kind)
	require.Equal(t, int64(20), loy.redeemed)
	require.Equal(t, int64(1), loy.accrued)
}

func TestCompleteAdHocLine(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)
	price := pricing.Money(750)

	tx, totals, err := svc.Complete(context.Background(), "caja-1", sale.CartInput{
		Lines: []sale.LineInput{{Name: "Propina", UnitPrice: &price, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(750), totals.FinalTotal)
	require.Empty(t, tx.Lines[0].ProductID)
}

func TestRefundProratesGlobalDiscount(t *testing.T) {
	store := newMemoryStore()
	cat := newMemoryCatalog(testProducts()...)
	svc := newTestService(t, store, cat, nil)
	ctx := context.Background()

	tx, _, err := svc.Complete(ctx, "caja-1", sale.CartInput{
		Lines:  []sale.LineInput{{SKU: "CAFE-001", Quantity: 10}},
		Global: &pricing.Discount{Kind: pricing.DiscountPercent, Value: 1000},
	})
	require.NoError(t, err)

	ref, err := svc.Refund(ctx, tx.ID, "caja-2", sale.RefundRequest{tx.Lines[0].ID: 5})
	require.NoError(t, err)
	// Half the goods at the discounted rate: 5000 * 9000/10000.
	require.Equal(t, int64(4500), ref.Total)
	require.Equal(t, sale.TypeRefund, ref.Type)
	require.Equal(t, tx.ID, *ref.LinkedTo)
	// Returned units went back to stock (50 - 10 + 5).
	require.Equal(t, 45, cat.products["CAFE-001"].Stock)
}

func TestRefundCumulativeGuard(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)
	ctx := context.Background()

	tx, _, err := svc.Complete(ctx, "caja-1", sale.CartInput{
		Lines: []sale.LineInput{{SKU: "CAFE-001", Quantity: 4}},
	})
	require.NoError(t, err)
	lineID := tx.Lines[0].ID

	first, err := svc.Refund(ctx, tx.ID, "caja-1", sale.RefundRequest{lineID: 3})
	require.NoError(t, err)
	require.Equal(t, int64(3000), first.Total)

	// Only one unit remains regardless of what is requested.
	second, err := svc.Refund(ctx, tx.ID, "caja-1", sale.RefundRequest{lineID: 4})
	require.NoError(t, err)
	require.Equal(t, int64(1000), second.Total)

	_, err = svc.Refund(ctx, tx.ID, "caja-1", sale.RefundRequest{lineID: 1})
	require.ErrorIs(t, err, sale.ErrNothingToRefund)
}

func TestRefundOfRefundRejected(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store, newMemoryCatalog(testProducts()...), nil)
	ctx := context.Background()

	tx, _, err := svc.Complete(ctx, "caja-1", sale.CartInput{
		Lines: []sale.LineInput{{SKU: "CAFE-001", Quantity: 1}},
	})
	require.NoError(t, err)

	ref, err := svc.Refund(ctx, tx.ID, "caja-1", sale.RefundRequest{tx.Lines[0].ID: 1})
	require.NoError(t, err)

	_, err = svc.Refund(ctx, ref.ID, "caja-1", sale.RefundRequest{tx.Lines[0].ID: 1})
	require.ErrorIs(t, err, sale.ErrNotASale)
}

func TestQuoteDoesNotPersistOrMoveStock(t *testing.T) {
	store := newMemoryStore()
	cat := newMemoryCatalog(testProducts()...)
	svc := newTestService(t, store, cat, nil)

	_, totals, err := svc.Quote(context.Background(), sale.CartInput{
		Lines:     []sale.LineInput{{SKU: "CAFE-001", Quantity: 3}},
		Promotion: pricing.PromoBebidas,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2700), totals.FinalTotal)
	require.Empty(t, store.transactions)
	require.Equal(t, 50, cat.products["CAFE-001"].Stock)
}
