package cache

import (
	"sort"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of the primary counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	HitRate   float64 `json:"hit_rate"`
}

// KeyAccess is one entry of the hot key ranking.
type KeyAccess struct {
	Key      string `json:"key"`
	Accesses uint64 `json:"accesses"`
}

// DetailedStats extends Stats with derived telemetry.
type DetailedStats struct {
	Stats
	Enabled        bool        `json:"enabled"`
	TTL            string      `json:"ttl"`
	HitRatePercent float64     `json:"hit_rate_percent"`
	RecentHitRate  float64     `json:"recent_hit_rate"`
	RecentWindow   int         `json:"recent_window"`
	Expirations    uint64      `json:"ttl_expirations"`
	RemoteHits     uint64      `json:"remote_hits"`
	HotKeys        []KeyAccess `json:"hot_keys"`
	AvgKeyBytes    float64     `json:"avg_key_bytes"`
	AvgValueBytes  float64     `json:"avg_value_bytes"`
	MemoryBytes    int         `json:"memory_bytes"`
	Memory         string      `json:"memory"`
	Utilization    float64     `json:"utilization_percent"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Stats returns the primary counters; HitRate is computed on read.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Service) statsLocked() Stats {
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      s.liveLen(),
		MaxSize:   s.cfg.MaxSize,
		HitRate:   hitRate(s.hits, s.misses),
	}
}

// DetailedStats returns Stats plus rolling hit rate, the topN most accessed
// live keys, TTL expirations and memory estimates.
func (s *Service) DetailedStats(topN int) DetailedStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.statsLocked()
	d := DetailedStats{
		Stats:          base,
		Enabled:        s.active(),
		TTL:            s.cfg.TTL.String(),
		HitRatePercent: base.HitRate * 100,
		RecentHitRate:  s.window.rate(),
		RecentWindow:   s.window.filled,
		Expirations:    s.expirations,
		RemoteHits:     s.remoteHits,
		HotKeys:        s.hotKeys(topN),
	}

	var keyBytes, valueBytes int
	for _, sz := range s.sizes {
		keyBytes += sz.key
		valueBytes += sz.value
	}
	if n := len(s.sizes); n > 0 {
		d.AvgKeyBytes = float64(keyBytes) / float64(n)
		d.AvgValueBytes = float64(valueBytes) / float64(n)
	}
	d.MemoryBytes = keyBytes + valueBytes
	d.Memory = humanize.Bytes(uint64(d.MemoryBytes))
	if s.cfg.MaxSize > 0 {
		d.Utilization = float64(base.Size) / float64(s.cfg.MaxSize) * 100
	}
	return d
}

func (s *Service) hotKeys(n int) []KeyAccess {
	out := make([]KeyAccess, 0, len(s.access))
	for k, c := range s.access {
		out = append(out, KeyAccess{Key: k, Accesses: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accesses != out[j].Accesses {
			return out[i].Accesses > out[j].Accesses
		}
		return out[i].Key < out[j].Key
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ResetStats zeroes every counter, the rolling window and the per-key access
// counts. Stored entries are untouched.
func (s *Service) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits = 0
	s.misses = 0
	s.evictions = 0
	s.expirations = 0
	s.remoteHits = 0
	s.window.reset()
	s.access = make(map[string]uint64)
}

// hitWindow is a ring buffer over the most recent lookups.
type hitWindow struct {
	buf    []bool
	next   int
	filled int
	hits   int
}

func newHitWindow(n int) *hitWindow {
	return &hitWindow{buf: make([]bool, n)}
}

func (w *hitWindow) record(hit bool) {
	if w.filled == len(w.buf) {
		if w.buf[w.next] {
			w.hits--
		}
	} else {
		w.filled++
	}
	w.buf[w.next] = hit
	if hit {
		w.hits++
	}
	w.next = (w.next + 1) % len(w.buf)
}

func (w *hitWindow) rate() float64 {
	if w.filled == 0 {
		return 0
	}
	return float64(w.hits) / float64(w.filled)
}

func (w *hitWindow) reset() {
	w.buf = make([]bool, len(w.buf))
	w.next = 0
	w.filled = 0
	w.hits = 0
}

