package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists products in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = `sku, name, category, unit_price_cents, stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.SKU, &p.Name, &p.Category, &p.UnitPrice, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns products matching params plus the unfiltered-by-paging total.
func (s *Store) List(ctx context.Context, params ListParams) ([]Product, int64, error) {
	conds := []string{"TRUE"}
	args := []any{}
	if params.OnlyActive {
		conds = append(conds, "active = TRUE")
	}
	if params.Category != "" {
		args = append(args, params.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if params.Query != "" {
		args = append(args, "%"+params.Query+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY category, name LIMIT $%d OFFSET $%d",
		productColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Get fetches a single product by SKU.
func (s *Store) Get(ctx context.Context, sku string) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE sku = $1", sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", sku, err)
	}
	return p, nil
}

// GetMany fetches products for a set of SKUs, keyed by SKU. Missing SKUs
// are simply absent from the result.
func (s *Store) GetMany(ctx context.Context, skus []string) (map[string]Product, error) {
	if len(skus) == 0 {
		return map[string]Product{}, nil
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE sku = ANY($1)", skus)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Product, len(skus))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.SKU] = p
	}
	return out, rows.Err()
}

// Create inserts a product. A SKU collision maps to ErrDuplicateSKU.
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	created, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, category, unit_price_cents, stock, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		p.SKU, p.Name, p.Category, p.UnitPrice, p.Stock, p.Active))
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// AdjustStock applies a signed delta to a product's stock. Negative deltas
// fail with ErrInsufficientStock rather than driving stock below zero.
func (s *Store) AdjustStock(ctx context.Context, sku string, delta int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE sku = $1 AND stock + $2 >= 0`, sku, delta)
	if err != nil {
		return fmt.Errorf("adjust stock %s: %w", sku, err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.exists(ctx, sku)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (s *Store) exists(ctx context.Context, sku string) (bool, error) {
	var found bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)", sku).Scan(&found)
	return found, err
}
