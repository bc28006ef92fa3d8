package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryStore() (*Memory, *stubClock) {
	clk := &stubClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemory(clk), clk
}

func TestMemorySetGet(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected v, got %q", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	store, clk := newMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clk.Advance(59 * time.Second)
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("expected live entry, got %v", err)
	}

	clk.Advance(time.Second)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestMemorySetNX(t *testing.T) {
	store, clk := newMemoryStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", "first", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, got ok=%v err=%v", ok, err)
	}

	ok, err = store.SetNX(ctx, "k", "second", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, got ok=%v err=%v", ok, err)
	}

	got, _ := store.Get(ctx, "k")
	if got != "first" {
		t.Fatalf("expected first value kept, got %q", got)
	}

	// The key becomes claimable again once it expires.
	clk.Advance(time.Minute)
	ok, err = store.SetNX(ctx, "k", "third", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected SetNX after expiry to win, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryIncr(t *testing.T) {
	store, clk := newMemoryStore()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := store.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != want {
			t.Fatalf("expected %d, got %d", want, n)
		}
	}

	// Incrementing preserves a TTL set on the counter.
	if _, err := store.ExpireNX(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Incr(ctx, "counter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ttl, err := store.TTL(ctx, "counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != time.Minute {
		t.Fatalf("expected ttl preserved at 1m, got %v", ttl)
	}

	clk.Advance(time.Minute)
	n, err := store.Incr(ctx, "counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected counter restart after expiry, got %d", n)
	}
}

func TestMemoryExpireNX(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()

	if _, err := store.ExpireNX(ctx, "missing", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := store.ExpireNX(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first ExpireNX to set, got ok=%v err=%v", ok, err)
	}

	// A key with an expiry keeps the original deadline.
	ok, err = store.ExpireNX(ctx, "k", time.Hour)
	if err != nil || ok {
		t.Fatalf("expected second ExpireNX to be a no-op, got ok=%v err=%v", ok, err)
	}

	ttl, err := store.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}
}

func TestMemoryTTL(t *testing.T) {
	store, clk := newMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "forever", "v", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ttl, err := store.TTL(ctx, "forever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 0 {
		t.Fatalf("expected 0 for a key without expiry, got %v", ttl)
	}

	if err := store.Set(ctx, "k", "v", 10*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clk.Advance(4 * time.Minute)
	ttl, err = store.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 6*time.Minute {
		t.Fatalf("expected remaining 6m, got %v", ttl)
	}

	if _, err := store.TTL(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryDel(t *testing.T) {
	store, _ := newMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "a", "1", 0)
	_ = store.Set(ctx, "b", "2", 0)

	if err := store.Del(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a deleted, got %v", err)
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected b deleted, got %v", err)
	}
}
