package api

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := newCache(time.Minute)

	c.set("key", "value")

	got, ok := c.get("key")
	if !ok {
		t.Fatal("Expected cache hit, got miss")
	}
	if got != "value" {
		t.Errorf("Expected value, got %v", got)
	}

	if _, ok := c.get("absent"); ok {
		t.Error("Expected cache miss for absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newCache(10 * time.Millisecond)

	c.set("key", "value")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.get("key"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := newCache(time.Minute)

	c.set("key", "old")
	c.set("key", "new")

	got, _ := c.get("key")
	if got != "new" {
		t.Errorf("Expected new, got %v", got)
	}
}
