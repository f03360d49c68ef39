package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists customers and the point ledger in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetCustomer fetches a customer with its current balance.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, points, created_at FROM customers WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Points, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %s: %w", id, err)
	}
	return c, nil
}

// CreateCustomer inserts a customer with a zero balance.
func (s *Store) CreateCustomer(ctx context.Context, name string) (Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, name, points)
		VALUES ($1, $2, 0)
		RETURNING id, name, points, created_at`, uuid.New(), name).
		Scan(&c.ID, &c.Name, &c.Points, &c.CreatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// ListLedger returns the most recent point movements for a customer.
func (s *Store) ListLedger(ctx context.Context, customerID uuid.UUID, limit int) ([]LedgerEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, kind, points, amount_cents, sale_id, created_at
		FROM loyalty_ledger
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger %s: %w", customerID, err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Kind, &e.Points, &e.Amount, &e.SaleID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Record applies a point movement: the balance update and the ledger insert
// commit together. Redemptions that would overdraw the balance fail with
// ErrInsufficientPoints.
func (s *Store) Record(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delta := entry.Points
	if entry.Kind == EntryRedeem {
		delta = -entry.Points
	}
	tag, err := tx.Exec(ctx,
		"UPDATE customers SET points = points + $2 WHERE id = $1 AND points + $2 >= 0",
		entry.CustomerID, delta)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", entry.CustomerID).Scan(&exists); err != nil {
			return LedgerEntry{}, err
		}
		if !exists {
			return LedgerEntry{}, ErrCustomerNotFound
		}
		return LedgerEntry{}, ErrInsufficientPoints
	}

	entry.ID = uuid.New()
	err = tx.QueryRow(ctx, `
		INSERT INTO loyalty_ledger (id, customer_id, kind, points, amount_cents, sale_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		entry.ID, entry.CustomerID, entry.Kind, entry.Points, entry.Amount, entry.SaleID).
		Scan(&entry.CreatedAt)
	if err != nil {
		return LedgerEntry{}, fmt.Errorf("insert ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return LedgerEntry{}, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}
