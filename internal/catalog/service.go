package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

type productStore interface {
	List(ctx context.Context, params ListParams) ([]Product, int64, error)
	Get(ctx context.Context, sku string) (Product, error)
	GetMany(ctx context.Context, skus []string) (map[string]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	AdjustStock(ctx context.Context, sku string, delta int) error
}

// Service orchestrates product lookups and the read-side cache.
type Service struct {
	store        productStore
	cache        *Cache
	log          zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        productStore
	Cache        *Cache
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		log:          cfg.Logger,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}, nil
}

// ListResult pairs a page of products with the total row count.
type ListResult struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
}

// List returns a page of products, served from cache when possible.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	if params.Limit <= 0 {
		params.Limit = s.defaultLimit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	key := listKey(params)
	var cached ListResult
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if ok {
		return cached, nil
	}

	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total}
	if err := s.cache.SetJSON(ctx, key, result); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return result, nil
}

// Get fetches a product by SKU, served from cache when possible.
func (s *Service) Get(ctx context.Context, sku string) (Product, error) {
	key := productKey(sku)
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if ok {
		return cached, nil
	}

	p, err := s.store.Get(ctx, sku)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, key, p); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return p, nil
}

// Resolve fetches products for a set of SKUs straight from the store;
// checkout paths must not see stale prices.
func (s *Service) Resolve(ctx context.Context, skus []string) (map[string]Product, error) {
	return s.store.GetMany(ctx, skus)
}

// Create inserts a product and drops stale cache entries.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	created, err := s.store.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.Invalidate(ctx, created.SKU); err != nil {
		s.log.Warn().Err(err).Str("sku", created.SKU).Msg("catalog cache invalidation failed")
	}
	return created, nil
}

// AdjustStock applies a stock delta and drops stale cache entries.
func (s *Service) AdjustStock(ctx context.Context, sku string, delta int) error {
	if err := s.store.AdjustStock(ctx, sku, delta); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, sku); err != nil {
		s.log.Warn().Err(err).Str("sku", sku).Msg("catalog cache invalidation failed")
	}
	return nil
}
