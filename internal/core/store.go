package core

// store.go holds uploaded workbook bytes between the preview request and
// later page/export requests.
//
// The in-memory implementation is bounded two ways:
//   - Capacity: an insert into a full store first evicts a fixed batch of the
//     entries with the oldest last-touch time (batch eviction, not strict LRU)
//   - TTL: a lookup that finds an entry idle for longer than TTL removes it
//     and reports ErrTokenExpired; every successful lookup resets the clock
//
// Expired entries are only removed lazily, by lookups or by eviction.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store defaults.
const (
	DefaultStoreCapacity   = 32
	DefaultStoreTTL        = 15 * time.Minute
	DefaultStoreEvictBatch = 4

	// tokenBytes is the entropy behind each token (22 URL-safe characters).
	tokenBytes = 16
)

// WorkbookStore maps opaque tokens to immutable uploaded bytes.
// Implementations must be safe for concurrent use. Callers must not modify
// the returned slice.
type WorkbookStore interface {
	// Put stores data and returns a new unguessable token for it.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the bytes for token, refreshing its idle timer.
	// Returns ErrTokenNotFound or ErrTokenExpired.
	Get(ctx context.Context, token string) ([]byte, error)
}

// StoreConfig bounds a MemoryStore.
type StoreConfig struct {
	Capacity   int           // Maximum entries held (default: 32)
	TTL        time.Duration // Maximum idle time since last touch (default: 15m)
	EvictBatch int           // Entries evicted when an insert finds the store full (default: 4)
}

// StoreStats is a snapshot of a MemoryStore for monitoring.
type StoreStats struct {
	Entries      int    `json:"entries"`
	Capacity     int    `json:"capacity"`
	TTLSeconds   int64  `json:"ttl_seconds"`
	EvictBatch   int    `json:"evict_batch"`
	EvictedTotal uint64 `json:"evicted_total"`
	ExpiredTotal uint64 `json:"expired_total"`
}

type storedWorkbook struct {
	data          []byte
	insertedAt    time.Time
	lastTouchedAt time.Time
}

// MemoryStore is the process-local WorkbookStore.
type MemoryStore struct {
	cfg StoreConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*storedWorkbook
	evicted uint64
	expired uint64
}

// NewMemoryStore creates a store; zero config values take the defaults.
func NewMemoryStore(cfg StoreConfig) *MemoryStore {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultStoreCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultStoreTTL
	}
	if cfg.EvictBatch <= 0 {
		cfg.EvictBatch = DefaultStoreEvictBatch
	}
	return &MemoryStore{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*storedWorkbook, cfg.Capacity),
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Put implements WorkbookStore.
func (s *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if _, taken := s.entries[token]; !taken {
			break
		}
		// Regenerating under the lock is fine: a collision needs 2^64 tokens.
		if token, err = newToken(); err != nil {
			return "", err
		}
	}

	if len(s.entries) >= s.cfg.Capacity {
		s.evictOldestLocked()
	}

	now := s.now()
	s.entries[token] = &storedWorkbook{
		data:          data,
		insertedAt:    now,
		lastTouchedAt: now,
	}
	return token, nil
}

// Get implements WorkbookStore.
func (s *MemoryStore) Get(ctx context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, ErrTokenNotFound
	}

	now := s.now()
	if now.Sub(entry.lastTouchedAt) > s.cfg.TTL {
		delete(s.entries, token)
		s.expired++
		return nil, ErrTokenExpired
	}

	entry.lastTouchedAt = now
	return entry.data, nil
}

// Len returns the number of entries, including idle ones not yet removed.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a snapshot of the store.
func (s *MemoryStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreStats{
		Entries:      len(s.entries),
		Capacity:     s.cfg.Capacity,
		TTLSeconds:   int64(s.cfg.TTL / time.Second),
		EvictBatch:   s.cfg.EvictBatch,
		EvictedTotal: s.evicted,
		ExpiredTotal: s.expired,
	}
}

// evictOldestLocked removes the EvictBatch entries touched longest ago.
// Must be called with lock held.
func (s *MemoryStore) evictOldestLocked() {
	type keyTouched struct {
		token    string
		touched  time.Time
		inserted time.Time
	}
	entries := make([]keyTouched, 0, len(s.entries))
	for token, e := range s.entries {
		entries = append(entries, keyTouched{token, e.lastTouchedAt, e.insertedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].touched.Equal(entries[j].touched) {
			return entries[i].inserted.Before(entries[j].inserted)
		}
		return entries[i].touched.Before(entries[j].touched)
	})

	n := min(s.cfg.EvictBatch, len(entries))
	for i := range n {
		delete(s.entries, entries[i].token)
	}
	s.evicted += uint64(n)
}

// newToken returns 16 random bytes as unpadded URL-safe base64.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
