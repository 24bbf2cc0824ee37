package canvas

import (
	"sync"
	"time"

	"github.com/quantarax/netcanv/internal/imagecodec"
	"github.com/quantarax/netcanv/internal/wire"
)

// EncodedCacheTTL is how long an encoded chunk's bytes are kept in
// memory after their last access before being dropped. Matches the
// original implementation's CacheLayer::CHUNK_CACHE_DURATION.
const EncodedCacheTTL = 5 * time.Minute

// EncodedChunk is an alias for imagecodec's wire representation, kept
// under this name since it's the cache's unit of storage.
type EncodedChunk = imagecodec.EncodedChunk

// EncodedCache caches chunks' encoded bytes, evicting entries whose
// last access exceeds EncodedCacheTTL. Grounded directly on
// paint_canvas/cache_layer.rs's CacheLayer: a chunk map plus a
// parallel last-access-timer map, swept on demand rather than by a
// background goroutine, so the caller controls when sweeps happen
// (once per tick, per SPEC_FULL.md §4.5).
type EncodedCache struct {
	mu      sync.Mutex
	entries map[wire.Coord]*EncodedChunk
	touched map[wire.Coord]time.Time
}

// NewEncodedCache creates an empty encoded-chunk cache.
func NewEncodedCache() *EncodedCache {
	return &EncodedCache{
		entries: make(map[wire.Coord]*EncodedChunk),
		touched: make(map[wire.Coord]time.Time),
	}
}

// Get returns a chunk's cached encoded bytes, if present, and refreshes
// its last-access time.
func (c *EncodedCache) Get(coord wire.Coord) (*EncodedChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[coord]
	if ok {
		c.touched[coord] = time.Now()
	}
	return entry, ok
}

// Set stores a chunk's encoded bytes and resets its last-access time.
func (c *EncodedCache) Set(coord wire.Coord, encoded *EncodedChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[coord] = encoded
	c.touched[coord] = time.Now()
}

// Invalidate removes a chunk's cached encoding, e.g. because the chunk
// was redrawn.
func (c *EncodedCache) Invalidate(coord wire.Coord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, coord)
	delete(c.touched, coord)
}

// Sweep drops every entry whose last access is older than
// EncodedCacheTTL and returns how many entries were evicted.
func (c *EncodedCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	now := time.Now()
	for coord, last := range c.touched {
		if now.Sub(last) > EncodedCacheTTL {
			delete(c.entries, coord)
			delete(c.touched, coord)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries currently cached.
func (c *EncodedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
