package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second
	maxRefreshDelay     = time.Second
)

// addTTLJitter spreads expiry by up to ±10% so snapshots written together do
// not expire together.
func addTTLJitter(ttl time.Duration) time.Duration {
	spread := int64(ttl / 5)
	if ttl <= 0 || spread <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(spread)-spread/2)
}

// refreshGate lets at most one refresh-ahead per key start within half a TTL.
type refreshGate struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func (g *refreshGate) allow(key string, ttl time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if g.last == nil {
		g.last = make(map[string]time.Time)
	}
	if t, ok := g.last[key]; ok && now.Sub(t) < ttl/2 {
		return false
	}
	g.last[key] = now
	return true
}

// storeSnapshot writes value under key with a jittered TTL. Failures are only
// logged; the caller already has the value.
func storeSnapshot(c Cacher, key string, value any, ttl time.Duration, logger *zap.Logger, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttl = addTTLJitter(ttl)
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("snapshot not cached",
			zap.String("key", key),
			zap.String("reason", reason),
			zap.Error(err))
		return
	}
	logger.Debug("snapshot cached",
		zap.String("key", key),
		zap.String("reason", reason),
		zap.Duration("ttl", ttl))
}

// refreshAhead reloads a snapshot after a short random delay while the cached
// copy keeps serving readers.
func refreshAhead[T any](c Cacher, sf *singleflight.Group, key string, ttl time.Duration, logger *zap.Logger, fn FetchFunc[T]) {
	go func() {
		time.Sleep(time.Duration(rand.Int63n(int64(maxRefreshDelay))))

		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				logger.Warn("snapshot refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}
			storeSnapshot(c, key, value, ttl, logger, "refresh")
			return value, nil
		})
	}()
}

// FindAndCache returns the snapshot stored under key, loading it with fn on a
// miss. Concurrent misses share one load. A nil gate disables refresh-ahead.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	gate *refreshGate,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	var cached T
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		logger.Debug("cache hit", zap.String("key", key))
		if gate != nil && gate.allow(key, ttl) {
			refreshAhead(c, sf, key, ttl, logger, fn)
		}
		return cached, nil
	case errors.Is(err, redis.Nil):
		logger.Debug("cache miss", zap.String("key", key))
	default:
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			logger.Error("snapshot load failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		go storeSnapshot(c, key, value, ttl, logger, "miss")
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return value, nil
}
