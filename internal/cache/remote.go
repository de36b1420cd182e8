package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RemoteStore is the shared tier behind the in-memory cache. Values travel as
// encoded JSON documents.
// Implemented by RedisStore (prod) and wrapped by the logging decorator.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Remote backends.
const (
	RemoteNone  = "none"
	RemoteRedis = "redis"
)

type RemoteConfig struct {
	Backend string
	Prefix  string
}

// NewRemote returns the configured remote tier, or nil when none is wanted.
func NewRemote(cfg RemoteConfig, redisClient *redis.Client) RemoteStore {
	switch cfg.Backend {
	case RemoteRedis:
		if redisClient == nil {
			return nil
		}
		return NewLoggingRemote(NewRedisStore(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		}))
	default:
		return nil
	}
}
