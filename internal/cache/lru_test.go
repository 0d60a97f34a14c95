package cache

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(t *testing.T, size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, 4, time.Minute)
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry returned")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry not removed on read")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // a becomes most recent
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used entry evicted")
	}
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	c, clock := newTestCache(t, 2, time.Minute)
	calls := 0
	load := func() (string, error) {
		calls++
		return "doc", nil
	}

	for i := 0; i < 3; i++ {
		if v, err := c.GetOrLoad("k", load); err != nil || v != "doc" {
			t.Fatalf("GetOrLoad = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times, want 1", calls)
	}

	clock.t = clock.t.Add(time.Hour)
	if _, err := c.GetOrLoad("k", load); err != nil || calls != 2 {
		t.Fatalf("expired entry should reload: calls=%d err=%v", calls, err)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("x", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := c.Get("x"); ok {
		t.Fatalf("failed load was cached")
	}
}

func TestManager_CleanNow(t *testing.T) {
	c, clock := newTestCache(t, 4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clock.t = clock.t.Add(time.Hour)
	c.Set("c", "3")

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("CleanNow() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
