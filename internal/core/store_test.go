package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(StoreConfig{})

	data := []byte("workbook bytes")
	token, err := s.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// 16 bytes, unpadded URL-safe base64.
	if len(token) != 22 {
		t.Errorf("token length = %d, want 22", len(token))
	}
	for _, r := range token {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
		if !ok {
			t.Fatalf("token %q has non URL-safe rune %q", token, r)
		}
	}

	got, err := s.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	s := NewMemoryStore(StoreConfig{})

	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrTokenNotFound", err)
	}
}

func TestMemoryStore_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(StoreConfig{Capacity: 1000})

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		token, err := s.Put(ctx, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q after %d puts", token, i)
		}
		seen[token] = true
	}
}

func TestMemoryStore_Defaults(t *testing.T) {
	stats := NewMemoryStore(StoreConfig{}).Stats()

	if stats.Capacity != DefaultStoreCapacity {
		t.Errorf("Capacity = %d, want %d", stats.Capacity, DefaultStoreCapacity)
	}
	if stats.TTLSeconds != int64(DefaultStoreTTL/time.Second) {
		t.Errorf("TTLSeconds = %d, want %d", stats.TTLSeconds, int64(DefaultStoreTTL/time.Second))
	}
	if stats.EvictBatch != DefaultStoreEvictBatch {
		t.Errorf("EvictBatch = %d, want %d", stats.EvictBatch, DefaultStoreEvictBatch)
	}
}

func TestMemoryStore_EvictsOldestBatch(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(StoreConfig{Capacity: 32, EvictBatch: 4}).WithClock(clock.Now)

	tokens := make([]string, 32)
	for i := range tokens {
		token, err := s.Put(ctx, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		tokens[i] = token
		clock.Advance(time.Second)
	}

	// Touch the oldest entry so it is no longer among the least recent.
	if _, err := s.Get(ctx, tokens[0]); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, err := s.Put(ctx, []byte("33rd")); err != nil {
		t.Fatalf("Put 33rd: %v", err)
	}

	if got := s.Len(); got != 29 {
		t.Fatalf("Len = %d, want 29", got)
	}

	// Entries 1..4 had the oldest last-touch times.
	for i := 1; i <= 4; i++ {
		if _, err := s.Get(ctx, tokens[i]); !errors.Is(err, ErrTokenNotFound) {
			t.Errorf("token %d: Get = %v, want ErrTokenNotFound", i, err)
		}
	}
	for _, i := range []int{0, 5, 31} {
		if _, err := s.Get(ctx, tokens[i]); err != nil {
			t.Errorf("token %d: Get = %v, want hit", i, err)
		}
	}

	if got := s.Stats().EvictedTotal; got != 4 {
		t.Errorf("EvictedTotal = %d, want 4", got)
	}
}

func TestMemoryStore_NeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(StoreConfig{Capacity: 5, EvictBatch: 2})

	for i := 0; i < 50; i++ {
		if _, err := s.Put(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if got := s.Len(); got > 5 {
			t.Fatalf("after %d puts Len = %d, exceeds capacity 5", i+1, got)
		}
	}
}

func TestMemoryStore_EvictBatchLargerThanStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(StoreConfig{Capacity: 2, EvictBatch: 10})

	for i := 0; i < 3; i++ {
		if _, err := s.Put(ctx, []byte{byte(i)}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if got := s.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStore(StoreConfig{TTL: 15 * time.Minute}).WithClock(clock.Now)

	token, err := s.Put(ctx, []byte("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Exactly TTL idle is still live.
	clock.Advance(15 * time.Minute)
	if _, err := s.Get(ctx, token); err != nil {
		t.Fatalf("Get at TTL: %v", err)
	}

	// Each hit resets the idle clock.
	clock.Advance(10 * time.Minute)
	if _, err := s.Get(ctx, token); err != nil {
		t.Fatalf("Get after sliding: %v", err)
	}

	clock.Advance(15*time.Minute + time.Second)
	if _, err := s.Get(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Get past TTL = %v, want ErrTokenExpired", err)
	}

	// The expired entry was removed by the lookup that found it.
	if _, err := s.Get(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Get after expiry = %v, want ErrTokenNotFound", err)
	}

	stats := s.Stats()
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}
	if stats.ExpiredTotal != 1 {
		t.Errorf("ExpiredTotal = %d, want 1", stats.ExpiredTotal)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(StoreConfig{Capacity: 8, EvictBatch: 2})

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				token, err := s.Put(ctx, []byte{byte(g), byte(i)})
				if err != nil {
					t.Errorf("Put: %v", err)
					return
				}
				// Another goroutine may have evicted it already.
				if _, err := s.Get(ctx, token); err != nil && !errors.Is(err, ErrTokenNotFound) {
					t.Errorf("Get: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if got := s.Len(); got > 8 {
		t.Errorf("Len = %d, exceeds capacity 8", got)
	}
}
