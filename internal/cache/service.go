// Package cache is the process-wide result cache used by the tool handlers.
//
// Service combines a capacity-bounded LRU with a fixed TTL per entry and keeps
// hit/miss/eviction/expiration accounting for observability. Capacity
// eviction picks the least recently used surviving entry; reads refresh
// recency but never the TTL. A disabled Service turns every operation into a
// no-op and always misses.
//
// Concurrent misses for the same key in GetOrSet share a single factory
// invocation. An optional RemoteStore (Redis) sits behind the in-memory tier.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
)

// DefaultRecentWindow is the number of lookups behind the rolling hit rate.
const DefaultRecentWindow = 1000

// Config holds the construction parameters. They cannot change for the life
// of a Service; build a new one instead.
type Config struct {
	Enabled bool
	MaxSize int
	TTL     time.Duration
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithLogger sets the logger used for debug events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("cache")
		}
	}
}

// WithRemote puts a shared remote tier behind the in-memory cache.
func WithRemote(r RemoteStore) Option {
	return func(s *Service) { s.remote = r }
}

// WithRecentWindow sets how many lookups the rolling hit rate covers.
func WithRecentWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = newHitWindow(n)
		}
	}
}

type entrySize struct {
	key   int
	value int
}

// Service is safe for concurrent use.
type Service struct {
	cfg    Config
	logger *zap.Logger
	remote RemoteStore
	group  singleflight.Group

	mu          sync.Mutex
	lru         *expirable.LRU[string, any]
	closed      bool
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
	remoteHits  uint64
	window      *hitWindow
	access      map[string]uint64
	sizes       map[string]entrySize
}

// New builds a Service. MaxSize and TTL must be positive when the cache is
// enabled.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Enabled {
		if cfg.MaxSize <= 0 {
			return nil, errors.Newf("cache: max size must be positive, got %d", cfg.MaxSize)
		}
		if cfg.TTL <= 0 {
			return nil, errors.Newf("cache: ttl must be positive, got %s", cfg.TTL)
		}
	}

	s := &Service{
		cfg:    cfg,
		logger: zap.NewNop(),
		window: newHitWindow(DefaultRecentWindow),
		access: make(map[string]uint64),
		sizes:  make(map[string]entrySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Enabled {
		s.lru = expirable.NewLRU[string, any](cfg.MaxSize, nil, cfg.TTL)
	}
	return s, nil
}

// Config returns the construction parameters.
func (s *Service) Config() Config { return s.cfg }

func (s *Service) active() bool {
	return s.cfg.Enabled && !s.closed
}

// Enabled reports whether the cache currently stores anything.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active()
}

// Get returns the live value stored under key. A hit marks the key most
// recently used without extending its TTL. The value is returned as stored,
// not copied.
func (s *Service) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return nil, false
	}

	if v, ok := s.lru.Get(key); ok {
		s.hits++
		s.window.record(true)
		s.access[key]++
		metrics.CacheHitsTotal.Inc()
		return v, true
	}

	s.misses++
	s.window.record(false)
	metrics.CacheMissesTotal.Inc()

	// Still tracked means it was stored, never evicted or deleted: its TTL ran out.
	if _, tracked := s.sizes[key]; tracked {
		s.expirations++
		metrics.CacheExpirationsTotal.Inc()
		s.forget(key)
		s.lru.Remove(key)
		metrics.CacheEntries.Set(float64(s.lru.Len()))
	}
	return nil, false
}

// peek reads without touching statistics or recency.
func (s *Service) peek(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active() {
		return nil, false
	}
	return s.lru.Peek(key)
}

// Set stores value under key with a fresh TTL. Inserting a new key into a
// full cache evicts the least recently used entry.
func (s *Service) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}

	var (
		victim    string
		hasVictim bool
	)
	if !s.lru.Contains(key) {
		victim, _, hasVictim = s.lru.GetOldest()
	}

	if evicted := s.lru.Add(key, value); evicted {
		s.evictions++
		metrics.CacheEvictionsTotal.Inc()
		if hasVictim {
			s.forget(victim)
			s.logger.Debug("cache eviction", zap.String("evicted_key", victim), zap.String("key", key))
		}
	}

	s.sizes[key] = entrySize{key: len(key), value: estimateSize(value)}
	if len(s.sizes) > 2*s.cfg.MaxSize {
		s.reconcile()
	}
	metrics.CacheEntries.Set(float64(s.lru.Len()))
}

// Delete removes key from memory and from the remote tier, if one is set.
// Remote failures are logged by the store decorator and otherwise ignored.
func (s *Service) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	if !s.active() {
		s.mu.Unlock()
		return
	}
	s.lru.Remove(key)
	s.forget(key)
	metrics.CacheEntries.Set(float64(s.lru.Len()))
	s.mu.Unlock()

	if s.remote != nil {
		_ = s.remote.Delete(ctx, key)
	}
}

// Clear drops every in-memory entry. The remote tier is shared with other
// processes and is left alone. Statistics are kept.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}
	s.purge()
}

// Len returns the number of live entries.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLen()
}

// Close drops every entry; afterwards the Service behaves as disabled.
// The LRU's expiry goroutine has no stop hook and keeps ticking over the
// empty store until the process exits.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		s.closed = true
		return nil
	}
	s.purge()
	s.closed = true
	s.logger.Debug("cache closed",
		zap.Uint64("hits", s.hits),
		zap.Uint64("misses", s.misses),
		zap.Uint64("evictions", s.evictions),
	)
	return nil
}

func (s *Service) purge() {
	s.lru.Purge()
	s.sizes = make(map[string]entrySize)
	s.access = make(map[string]uint64)
	metrics.CacheEntries.Set(0)
}

func (s *Service) liveLen() int {
	if !s.active() {
		return 0
	}
	return len(s.lru.Keys())
}

// forget drops the per-key bookkeeping of an entry that left the store.
func (s *Service) forget(key string) {
	delete(s.sizes, key)
	delete(s.access, key)
}

// reconcile drops bookkeeping for entries the LRU purged on its own after
// their TTL ran out. Those count as expirations.
func (s *Service) reconcile() {
	for key := range s.sizes {
		if !s.lru.Contains(key) {
			s.forget(key)
			s.expirations++
			metrics.CacheExpirationsTotal.Inc()
		}
	}
}
