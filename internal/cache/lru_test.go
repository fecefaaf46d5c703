// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

type adventure struct {
	Slug  string
	Price float64
}

// fakeClock is advanced by tests instead of sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func newTestCache(capacity int, ttl time.Duration) (*LRUCache[*adventure], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := NewLRUCache[*adventure]("test", capacity, ttl)
	c.SetClockForTesting(clock.Now)
	return c, clock
}

func TestLRUCache_BasicOperations(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)

	c.Add("the-forest-hiker", &adventure{Slug: "the-forest-hiker", Price: 397})
	c.Add("the-sea-explorer", &adventure{Slug: "the-sea-explorer", Price: 497})

	got, found := c.Get("the-forest-hiker")
	if !found {
		t.Fatal("Expected to find the-forest-hiker")
	}
	if got.Price != 397 {
		t.Errorf("Price = %v, want 397", got.Price)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)

	c.Add("a", &adventure{})
	c.Add("b", &adventure{})
	c.Add("c", &adventure{})

	// Touch 'a' so 'b' becomes least recently used.
	c.Get("a")
	c.Add("d", &adventure{})

	if _, found := c.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := c.Get(key); !found {
			t.Errorf("Expected %q to be present", key)
		}
	}
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Add("a", &adventure{})
	if _, found := c.Get("a"); !found {
		t.Error("Expected to find 'a' immediately")
	}

	clock.Advance(time.Minute + time.Second)

	if _, found := c.Get("a"); found {
		t.Error("Expected 'a' to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, expired entry not removed", c.Len())
	}
}

func TestLRUCache_Remove(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	c.Add("a", &adventure{})
	c.Add("b", &adventure{})

	if !c.Remove("a") {
		t.Error("Remove() = false for existing key")
	}
	if c.Remove("a") {
		t.Error("Remove() = true for missing key")
	}
	if _, found := c.Get("b"); !found {
		t.Error("Expected 'b' to still be present")
	}
}

func TestLRUCache_Purge(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	c.Add("a", &adventure{})
	c.Add("b", &adventure{})
	c.Get("a")

	c.Purge()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge", c.Len())
	}
	if _, found := c.Get("a"); found {
		t.Error("Expected no items after Purge")
	}
	if hits, _, _ := c.Stats(); hits != 1 {
		t.Errorf("hits = %d, Purge must keep stats", hits)
	}

	// The list must still work after a purge.
	c.Add("c", &adventure{})
	if _, found := c.Get("c"); !found {
		t.Error("Add after Purge failed")
	}
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Add("a", &adventure{})
	c.Add("b", &adventure{})
	c.Add("c", &adventure{})
	clock.Advance(2 * time.Minute)
	c.Add("d", &adventure{})

	if removed := c.CleanupExpired(); removed != 3 {
		t.Errorf("CleanupExpired() = %d, want 3", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	c.Add("a", &adventure{})
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d/%d/%d, want 2/1/1", hits, misses, size)
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c, _ := newTestCache(3, time.Minute)

	c.Add("a", &adventure{Price: 1})
	c.Add("a", &adventure{Price: 2})

	if c.Len() != 1 {
		t.Errorf("Len() = %d after update, want 1", c.Len())
	}
	if got, found := c.Get("a"); !found || got.Price != 2 {
		t.Errorf("Get() = %v, %v, want updated value", got, found)
	}
}

func TestLRUCache_Defaults(t *testing.T) {
	c := NewLRUCache[[]string]("defaults", 0, 0)
	if c.capacity != 1000 || c.ttl != 5*time.Minute {
		t.Errorf("defaults = %d/%v", c.capacity, c.ttl)
	}
	if _, found := c.Get("nothing"); found {
		t.Error("empty cache reported a hit")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int]("concurrent", 100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := strconv.Itoa((id + j) % 150)
				c.Add(key, j)
				c.Get(key)
				if j%25 == 0 {
					c.Purge()
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

func BenchmarkLRUCache_Get(b *testing.B) {
	c := NewLRUCache[int]("bench", 10000, time.Minute)
	for i := 0; i < 1000; i++ {
		c.Add(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(strconv.Itoa(i % 1000))
	}
}
