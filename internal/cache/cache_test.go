package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(true)
	defer c.Close()

	etag := c.Set("history:50", []byte(`[]`), time.Minute)
	data, got, ok := c.Get("history:50")
	if !ok || string(data) != "[]" || got != etag {
		t.Fatalf("Get = %q %q %v", data, got, ok)
	}
}

func TestExpiredEntryMisses(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("k", []byte("v"), -time.Second)
	if _, _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	if etag == "" {
		t.Error("disabled cache should still compute an etag")
	}
	if _, _, ok := c.Get("k"); ok {
		t.Error("disabled cache should never hit")
	}
}

func TestPurgeByPrefix(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("alerts:user:ABC123", []byte("a"), time.Minute)
	c.Set("alerts:user:DEF456", []byte("b"), time.Minute)
	c.Set("history:50", []byte("c"), time.Minute)
	c.Set("devices", []byte("d"), time.Minute)

	if n := c.Purge("alerts:", "history:"); n != 3 {
		t.Errorf("purged %d, want 3", n)
	}
	if _, _, ok := c.Get("devices"); !ok {
		t.Error("unrelated key should survive")
	}
	if _, _, ok := c.Get("history:50"); ok {
		t.Error("history key should be gone")
	}
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{`W/"other", ` + etag, true},
		{`W/"other"`, false},
	}
	for _, tt := range tests {
		if got := CheckETagMatch(tt.header, etag); got != tt.want {
			t.Errorf("CheckETagMatch(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestSetIfCurrentSkipsAfterPurge(t *testing.T) {
	c := New(true)
	defer c.Close()

	gen := c.Generation()
	c.Purge("alerts:")
	etag := c.SetIfCurrent("alerts:user:ABC123", []byte("stale"), time.Minute, gen)
	if etag != ComputeETag([]byte("stale")) {
		t.Errorf("etag = %q", etag)
	}
	if _, _, ok := c.Get("alerts:user:ABC123"); ok {
		t.Error("load started before purge must not be cached")
	}

	gen = c.Generation()
	c.SetIfCurrent("alerts:user:ABC123", []byte("fresh"), time.Minute, gen)
	if data, _, ok := c.Get("alerts:user:ABC123"); !ok || string(data) != "fresh" {
		t.Errorf("Get = %q %v", data, ok)
	}
}
