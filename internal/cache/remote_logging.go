package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
	"github.com/ejmockler/indra-cogex-mcp-sub002/pkg/logging/logging"
)

// LoggingRemote wraps a RemoteStore with logging + metrics.
type LoggingRemote struct {
	inner RemoteStore
}

// NewLoggingRemote returns a remote tier that logs and records metrics.
func NewLoggingRemote(inner RemoteStore) RemoteStore {
	return &LoggingRemote{inner: inner}
}

func (c *LoggingRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
	}
	metrics.CacheRemoteRequestsTotal.WithLabelValues("get", result).Inc()

	fields := append(keyFields(key, start), zap.String("cache_result", result))
	if err != nil {
		logging.L(ctx).Warn("remote_cache_get", append(fields, zap.Error(err))...)
	} else {
		logging.L(ctx).Debug("remote_cache_get", fields...)
	}
	return value, ok, err
}

func (c *LoggingRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.CacheRemoteRequestsTotal.WithLabelValues("set", result).Inc()

	fields := append(keyFields(key, start), zap.Int("value_bytes", len(value)), zap.Duration("ttl", ttl))
	if err != nil {
		logging.L(ctx).Warn("remote_cache_set", append(fields, zap.Error(err))...)
	} else {
		logging.L(ctx).Debug("remote_cache_set", fields...)
	}
	return err
}

func (c *LoggingRemote) Delete(ctx context.Context, key string) error {
	err := c.inner.Delete(ctx, key)

	result := "ok"
	if err != nil {
		result = "error"
		logging.L(ctx).Warn("remote_cache_delete", zap.String("cache_key", key), zap.Error(err))
	}
	metrics.CacheRemoteRequestsTotal.WithLabelValues("delete", result).Inc()
	return err
}

func keyFields(key string, start time.Time) []zap.Field {
	fields := []zap.Field{
		zap.String("cache_tier", "remote"),
		zap.String("cache_key", key),
		zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
	}
	if parts, ok := parseToolKey(key); ok {
		fields = append(fields,
			zap.String("tool", parts.tool),
			zap.String("mode", parts.mode),
			zap.String("entity", parts.entity),
		)
	}
	return fields
}

type toolKeyParts struct {
	tool   string
	mode   string
	entity string
}

// Expecting: <tool>|<mode>|<entity>[|...]
func parseToolKey(key string) (toolKeyParts, bool) {
	parts := strings.SplitN(key, KeySeparator, 3)
	if len(parts) != 3 {
		return toolKeyParts{}, false
	}
	return toolKeyParts{tool: parts[0], mode: parts[1], entity: parts[2]}, true
}
