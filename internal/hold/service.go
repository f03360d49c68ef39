// Package hold parks open carts in Redis so a register can suspend a sale
// and any terminal can pick it up later. Snapshots live under TTL'd keys;
// resuming takes a short lock so two terminals cannot claim the same
// parked cart.
package hold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumapos/backend-pos/internal/lock"
	"github.com/lumapos/backend-pos/internal/obs"
	"github.com/lumapos/backend-pos/internal/pricing"
)

const (
	cartKeyPrefix = "pos:hold:cart:"
	lockKeyPrefix = "pos:hold:lock:"
)

// HeldCart is a parked cart snapshot.
type HeldCart struct {
	ID         uuid.UUID    `json:"id"`
	Label      string       `json:"label,omitempty"`
	TerminalID string       `json:"terminal_id,omitempty"`
	Cart       pricing.Cart `json:"cart"`
	CreatedAt  time.Time    `json:"created_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

var (
	// ErrNotFound is returned when a held cart expired or was already
	// resumed or discarded.
	ErrNotFound = errors.New("hold: held cart not found")
	// ErrEmptyCart is returned when parking a cart with no lines.
	ErrEmptyCart = errors.New("hold: cart has no lines")
)

// Service stores and retrieves parked carts.
type Service struct {
	client *redis.Client
	locker lock.Locker
	log    zerolog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Client *redis.Client
	Logger zerolog.Logger
	TTL    time.Duration
	Now    func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("hold: redis client is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		client: cfg.Client,
		locker: lock.Locker{R: cfg.Client},
		log:    cfg.Logger,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// Park stores a cart snapshot and clears it from the terminal's hands.
func (s *Service) Park(ctx context.Context, terminalID, label string, cart pricing.Cart) (HeldCart, error) {
	if len(cart.Lines) == 0 {
		return HeldCart{}, ErrEmptyCart
	}
	now := s.now().UTC()
	held := HeldCart{
		ID:         uuid.New(),
		Label:      label,
		TerminalID: terminalID,
		Cart:       cart,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	data, err := json.Marshal(held)
	if err != nil {
		return HeldCart{}, fmt.Errorf("marshal held cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+held.ID.String(), data, s.ttl).Err(); err != nil {
		return HeldCart{}, fmt.Errorf("store held cart: %w", err)
	}
	obs.RecordHeldCartOp("park")
	return held, nil
}

// List returns the currently parked carts, oldest first.
func (s *Service) List(ctx context.Context) ([]HeldCart, error) {
	iter := s.client.Scan(ctx, 0, cartKeyPrefix+"*", 100).Iterator()
	var held []HeldCart
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("read held cart: %w", err)
		}
		var h HeldCart
		if err := json.Unmarshal(data, &h); err != nil {
			s.log.Warn().Err(err).Str("key", iter.Val()).Msg("dropping undecodable held cart")
			continue
		}
		held = append(held, h)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(held, func(i, j int) bool { return held[i].CreatedAt.Before(held[j].CreatedAt) })
	return held, nil
}

// Resume removes a parked cart and hands its snapshot back. The delete is
// guarded by a lock so concurrent resumes see exactly one winner.
func (s *Service) Resume(ctx context.Context, id uuid.UUID, terminalID string) (HeldCart, error) {
	var held HeldCart
	key := cartKeyPrefix + id.String()
	err := s.locker.WithLock(ctx, lockKeyPrefix+id.String(), 5*time.Second, func(ctx context.Context) error {
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read held cart: %w", err)
		}
		if err := json.Unmarshal(data, &held); err != nil {
			return fmt.Errorf("decode held cart: %w", err)
		}
		return s.client.Del(ctx, key).Err()
	})
	if err != nil {
		return HeldCart{}, err
	}
	obs.RecordHeldCartOp("resume")
	s.log.Info().Stringer("held_cart_id", id).Str("terminal_id", terminalID).Msg("held cart resumed")
	return held, nil
}

// Discard drops a parked cart without resuming it.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	removed, err := s.client.Del(ctx, cartKeyPrefix+id.String()).Result()
	if err != nil {
		return fmt.Errorf("discard held cart: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	obs.RecordHeldCartOp("discard")
	return nil
}
