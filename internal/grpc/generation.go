package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Snapshot keys carry a generation number. Bumping the generation orphans every
// entry written under the previous one, including refreshes still in flight.

func generationKey(prefix CacheKeyType) string {
	return string(prefix) + ":generation"
}

func (s *GRPCHandlers) snapshotKey(ctx context.Context, prefix CacheKeyType) string {
	var gen int64
	if err := s.cache.Get(ctx, generationKey(prefix), &gen); err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("cache generation unavailable",
			zap.String("key", generationKey(prefix)),
			zap.Error(err))
	}
	return fmt.Sprintf("%s:v%d", prefix, gen)
}

func (s *GRPCHandlers) invalidate(ctx context.Context, prefix CacheKeyType) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultSetTimeout)
	defer cancel()

	gen, err := s.cache.Incr(ctx, generationKey(prefix))
	if err != nil {
		s.logger.Error("cache invalidation failed",
			zap.String("key", generationKey(prefix)),
			zap.Error(err))
		return
	}
	s.logger.Debug("cache invalidated",
		zap.String("key", generationKey(prefix)),
		zap.Int64("generation", gen))
}
