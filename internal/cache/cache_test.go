package cache

import (
	"testing"
	"time"
)

func TestGetSetAndUpdate(t *testing.T) {
	c := NewLRU[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after updating the same key", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // b is now the oldest
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
}

func TestExpiredEntriesDropOnRead(t *testing.T) {
	c := NewLRU[int](10, -time.Second)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after expiry read", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry returned")
	}
}
