package baseline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/metrics"
)

// DefaultRedisKey is shared by every replica.
const DefaultRedisKey = "discovery:baseline:acceptance"

// missingMarker is cached when the store has no baseline row.
const missingMarker = "none"

// RedisSource shares one baseline read across replicas. Redis errors are
// logged and fall through to the inner source.
type RedisSource struct {
	inner  Source
	redis  *redis.Client
	key    string
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisSource(inner Source, client *redis.Client, ttl time.Duration, log logger.Logger) *RedisSource {
	return &RedisSource{
		inner:  inner,
		redis:  client,
		key:    DefaultRedisKey,
		ttl:    ttl,
		logger: log,
	}
}

func (s *RedisSource) AcceptanceBaseline(ctx context.Context) (float64, bool, error) {
	val, err := s.redis.Get(ctx, s.key).Result()
	switch {
	case err == nil:
		if val == missingMarker {
			metrics.BaselineCache.WithLabelValues("redis", "hit").Inc()
			return 0, false, nil
		}
		if f, parseErr := strconv.ParseFloat(val, 64); parseErr == nil {
			metrics.BaselineCache.WithLabelValues("redis", "hit").Inc()
			return f, true, nil
		}
		s.logger.Warn("ignoring malformed cached baseline", map[string]interface{}{"key": s.key, "value": val})
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("redis baseline lookup failed", map[string]interface{}{"key": s.key, "error": err.Error()})
	}
	metrics.BaselineCache.WithLabelValues("redis", "miss").Inc()

	value, found, err := s.inner.AcceptanceBaseline(ctx)
	if err != nil {
		return 0, false, err
	}

	cached := missingMarker
	if found {
		cached = strconv.FormatFloat(value, 'f', -1, 64)
	}
	if err := s.redis.Set(ctx, s.key, cached, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to cache baseline", map[string]interface{}{"key": s.key, "error": err.Error()})
	}
	return value, found, nil
}
