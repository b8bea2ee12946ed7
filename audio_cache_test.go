package main

import (
	"fmt"
	"testing"
)

func TestWorkingAudioCacheBound(t *testing.T) {
	c, err := NewWorkingAudioCache(10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 11; i++ {
		c.Put(fmt.Sprintf("id-%d", i), []byte{byte(i)})
	}
	if c.Len() != 10 {
		t.Fatalf("cache size %d, want 10", c.Len())
	}
	if c.Contains("id-0") {
		t.Error("least-recently-used id-0 should have been evicted")
	}
	if !c.Contains("id-10") {
		t.Error("latest insert should survive")
	}
}

func TestWorkingAudioCacheRecency(t *testing.T) {
	c, err := NewWorkingAudioCache(2)
	if err != nil {
		t.Fatal(err)
	}
	c.Put("a", []byte("a"))
	c.Put("b", []byte("b"))
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Put("c", []byte("c"))
	if c.Contains("b") {
		t.Error("b was least recently used and should be gone")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Error("a and c should survive")
	}
}
