// Package ratelimit throttles register traffic with a Redis sliding
// window. Limits are keyed per terminal so one misbehaving register (a
// stuck barcode scanner hammering product lookups, a retry loop on a
// flaky link) cannot starve the other lanes.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces limiter keys alongside the other pos:* keys.
const DefaultPrefix = "pos:rl"

// Limiter is a sliding window rate limiter over Redis sorted sets: each
// request is a member scored by its nanosecond timestamp, and the window
// is whatever survives pruning everything older than one window ago.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

func (l Limiter) key(key string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + key
}

// Allow records one event for key and reports whether it stays within
// max events per window. A nil client or non-positive limit disables
// enforcement rather than locking the registers out.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}

	now := time.Now()
	until := now.Add(window)
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	redisKey := l.key(key)
	member := key + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, until, err
	}

	current := int(countCmd.Val())
	remaining = max - current
	if remaining < 0 {
		remaining = 0
	}
	return current <= max, remaining, until, nil
}
