package cache

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/document"
)

// Factory computes the value for a missing key.
type Factory func(ctx context.Context) (any, error)

// GetOrSet returns the live value under key or computes, stores and returns
// it. Concurrent misses for one key share a single factory call, and every
// caller sees that call's value or error. Errors are never cached.
//
// When ctx ends first the caller gets ctx.Err(); the factory keeps running
// detached from that cancellation so the other waiters and the cache still
// get its result. With the cache disabled the factory runs on every call.
func (s *Service) GetOrSet(ctx context.Context, key string, factory Factory) (any, error) {
	if !s.Enabled() {
		return call(ctx, factory)
	}
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	fillCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fill(fillCtx, key, factory)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) fill(ctx context.Context, key string, factory Factory) (any, error) {
	// a flight that finished just before ours may already have stored it
	if v, ok := s.peek(key); ok {
		return v, nil
	}

	if v, ok := s.remoteGet(ctx, key); ok {
		s.Set(key, v)
		return v, nil
	}

	v, err := call(ctx, factory)
	if err != nil {
		return nil, err
	}
	s.Set(key, v)
	s.remoteSet(ctx, key, v)
	return v, nil
}

// call runs factory and turns a panic into an error. A panic inside a
// singleflight goroutine cannot be recovered by any caller.
func call(ctx context.Context, factory Factory) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, errors.Newf("cache: factory panicked: %v", r)
		}
	}()
	return factory(ctx)
}

// remoteGet decodes a value from the remote tier. Remote errors are misses.
func (s *Service) remoteGet(ctx context.Context, key string) (any, bool) {
	if s.remote == nil {
		return nil, false
	}
	raw, ok, err := s.remote.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	v, err := document.Decode(raw)
	if err != nil {
		s.logger.Warn("undecodable remote cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	s.mu.Lock()
	s.remoteHits++
	s.mu.Unlock()
	return v, true
}

func (s *Service) remoteSet(ctx context.Context, key string, v any) {
	if s.remote == nil {
		return
	}
	raw, err := document.Encode(v)
	if err != nil {
		s.logger.Debug("value not stored remotely", zap.String("key", key), zap.Error(err))
		return
	}
	// failures are logged by the store decorator; the in-memory tier already has the value
	_ = s.remote.Set(ctx, key, raw, s.cfg.TTL)
}

// Load is the typed form of GetOrSet. A stored nil yields the zero T. Values
// served from the remote tier come back as decoded documents, so T should be
// a document shape (any, *document.Record, []any) when a remote is configured.
func Load[T any](ctx context.Context, s *Service, key string, factory func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.GetOrSet(ctx, key, func(ctx context.Context) (any, error) {
		return factory(ctx)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Newf("cache: value under %q is %T, want %T", key, v, zero)
	}
	return t, nil
}
