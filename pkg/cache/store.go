package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found or is stale
	ErrCacheMiss = errors.New("cache miss")
)

// Stats is a point-in-time view of the cache store.
type Stats struct {
	Entries      int       `json:"entries"`
	ValidEntries int       `json:"valid_entries"`
	Hits         uint64    `json:"hits"`
	Misses       uint64    `json:"misses"`
	HitRate      float64   `json:"hit_rate"`
	Evictions    uint64    `json:"evictions"`
	Keys         []string  `json:"keys"`
	OldestEntry  time.Time `json:"oldest_entry,omitempty"`
}

// Store holds recently fetched payloads keyed by resource key.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	clock  clock.Clock
	logger zerolog.Logger
}

// NewStore creates an empty cache store. A nil clock uses real time.
func NewStore(clk clock.Clock, logger zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]*Entry),
		clock:   clock.OrReal(clk),
		logger:  logger,
	}
}

// Get returns the payload stored under key if it is still valid.
// A hit never extends the entry's life.
func (s *Store) Get(key string) (any, bool) {
	entry, err := s.Lookup(key)
	if err != nil {
		return nil, false
	}
	return entry.Data, true
}

// Lookup returns a copy of the entry stored under key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is stale.
func (s *Store) Lookup(key string) (*Entry, error) {
	now := s.clock.Now()

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !entry.IsValid(now) {
		s.misses.Add(1)
		CacheMisses.Inc()
		s.logger.Debug().Str("resource", key).Bool("present", ok).Msg("Cache miss")
		return nil, ErrCacheMiss
	}

	s.hits.Add(1)
	CacheHits.Inc()
	s.logger.Debug().
		Str("resource", key).
		Dur("ttl", entry.Remaining(now)).
		Msg("Cache hit")

	copied := *entry
	return &copied, nil
}

// Put stores data under key for ttl, replacing any previous entry.
// A non-positive ttl is ignored.
func (s *Store) Put(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	entry := &Entry{
		Data:      data,
		CreatedAt: s.clock.Now(),
		TTL:       ttl,
	}

	s.mu.Lock()
	s.entries[key] = entry
	size := len(s.entries)
	s.mu.Unlock()

	CacheEntries.Set(float64(size))
	s.logger.Debug().Str("resource", key).Dur("ttl", ttl).Msg("Cached payload")
}

// Delete removes the entry stored under key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	size := len(s.entries)
	s.mu.Unlock()

	CacheEntries.Set(float64(size))
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	CacheEntries.Set(0)
}

// Len returns the number of stored entries, stale ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes every stale entry and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	removed := 0
	for key, entry := range s.entries {
		if !entry.IsValid(now) {
			delete(s.entries, key)
			removed++
		}
	}
	size := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.evictions.Add(uint64(removed))
		CacheEvictions.Add(float64(removed))
		s.logger.Debug().Int("removed", removed).Int("remaining", size).Msg("Cache sweep")
	}
	CacheEntries.Set(float64(size))

	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Stats returns a snapshot of the store.
func (s *Store) Stats() Stats {
	now := s.clock.Now()

	s.mu.RLock()
	stats := Stats{
		Entries: len(s.entries),
		Keys:    make([]string, 0, len(s.entries)),
	}
	for key, entry := range s.entries {
		stats.Keys = append(stats.Keys, key)
		if entry.IsValid(now) {
			stats.ValidEntries++
		}
		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
	}
	s.mu.RUnlock()

	sort.Strings(stats.Keys)

	stats.Hits = s.hits.Load()
	stats.Misses = s.misses.Load()
	stats.Evictions = s.evictions.Load()
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats
}
