package canvas

import (
	"testing"
	"time"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestEncodedCacheSetThenGet(t *testing.T) {
	cache := NewEncodedCache()
	coord := wire.Coord{X: 0, Y: 0}
	cache.Set(coord, &EncodedChunk{PNG: []byte("png-bytes")})

	got, ok := cache.Get(coord)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if string(got.PNG) != "png-bytes" {
		t.Fatalf("got.PNG = %q, want %q", got.PNG, "png-bytes")
	}
}

func TestEncodedCacheInvalidateRemovesEntry(t *testing.T) {
	cache := NewEncodedCache()
	coord := wire.Coord{X: 2, Y: 3}
	cache.Set(coord, &EncodedChunk{PNG: []byte("x")})
	cache.Invalidate(coord)

	if _, ok := cache.Get(coord); ok {
		t.Fatal("expected a miss after Invalidate")
	}
}

func TestEncodedCacheSweepEvictsStaleEntriesOnly(t *testing.T) {
	cache := NewEncodedCache()
	stale := wire.Coord{X: 1, Y: 1}
	fresh := wire.Coord{X: 2, Y: 2}
	cache.Set(stale, &EncodedChunk{PNG: []byte("stale")})
	cache.Set(fresh, &EncodedChunk{PNG: []byte("fresh")})

	// Backdate the stale entry's last-touch time past the TTL directly,
	// since Sweep is driven by wall-clock comparisons.
	cache.mu.Lock()
	cache.touched[stale] = time.Now().Add(-EncodedCacheTTL - time.Second)
	cache.mu.Unlock()

	evicted := cache.Sweep()
	if evicted != 1 {
		t.Fatalf("Sweep() evicted %d entries, want 1", evicted)
	}
	if _, ok := cache.Get(stale); ok {
		t.Fatal("stale entry should have been evicted")
	}
	if _, ok := cache.Get(fresh); !ok {
		t.Fatal("fresh entry should have survived the sweep")
	}
}

func TestEncodedCacheLenReflectsEntryCount(t *testing.T) {
	cache := NewEncodedCache()
	if cache.Len() != 0 {
		t.Fatalf("Len() on an empty cache = %d, want 0", cache.Len())
	}
	cache.Set(wire.Coord{X: 0, Y: 0}, &EncodedChunk{PNG: []byte("a")})
	cache.Set(wire.Coord{X: 1, Y: 0}, &EncodedChunk{PNG: []byte("b")})
	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}
}
