// Package canvas implements the infinite, chunked paint surface: a
// sparse map of 256x256 tiles, lazily allocated, each tracking its own
// dirty flag and an encoded-bytes cache for network transmission.
package canvas

import (
	"image"
	"image/color"
	"sync"

	"github.com/quantarax/netcanv/internal/wire"
)

// ChunkSize is the width and height, in pixels, of a single chunk
// tile. Matches the original implementation's Chunk::SIZE.
const ChunkSize = 256

// Chunk is a single 256x256 tile of the canvas. Grounded on
// paint_canvas/chunk.rs's Chunk type, with the GPU framebuffer
// replaced by a plain image.RGBA since this server-side
// implementation never renders.
type Chunk struct {
	mu    sync.RWMutex
	image *image.RGBA
	dirty bool
}

func newChunk() *Chunk {
	return &Chunk{image: image.NewRGBA(image.Rect(0, 0, ChunkSize, ChunkSize))}
}

// Image returns a snapshot copy of the chunk's pixels.
func (c *Chunk) Image() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dup := image.NewRGBA(c.image.Bounds())
	copy(dup.Pix, c.image.Pix)
	return dup
}

// SetPixel sets a single pixel, in chunk-local coordinates, and marks
// the chunk dirty.
func (c *Chunk) SetPixel(x, y int, col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image.Set(x, y, col)
	c.dirty = true
}

// At returns a single pixel's color, in chunk-local coordinates.
func (c *Chunk) At(x, y int) color.Color {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.image.At(x, y)
}

// ReplaceImage overwrites the chunk's entire pixel buffer, e.g. after
// a local edit replaces it wholesale, and marks it dirty. It does not
// touch the canvas's encoded cache.
func (c *Chunk) ReplaceImage(img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = img
	c.dirty = true
}

// ReplaceImageClean overwrites the chunk's entire pixel buffer and
// leaves it clean, for installing data just received over the network:
// it is already-authoritative, not a local edit awaiting re-encode and
// re-broadcast.
func (c *Chunk) ReplaceImageClean(img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = img
	c.dirty = false
}

// Dirty reports whether the chunk has been modified since it was last
// marked saved.
func (c *Chunk) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// MarkSaved clears the dirty flag, e.g. once the chunk's encoded bytes
// have been (re)cached.
func (c *Chunk) MarkSaved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

// IsEmpty reports whether every pixel in the chunk is fully
// transparent, mirroring Chunk::image_is_empty. Empty chunks are
// elided from network encoding entirely.
func (c *Chunk) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.image.Pix {
		if b != 0 {
			return false
		}
	}
	return true
}

// Store is the sparse, lazily-populated map of chunk coordinates to
// chunks, grounded on the D3pixelbot canvas's RWMutex-guarded
// coordinate map (getChunk/getChunks/getAllChunks), simplified from
// its event-broadcasting design since this implementation has no
// renderer to notify — callers poll ChunkPositions/NetworkData
// instead.
type Store struct {
	mu     sync.RWMutex
	chunks map[wire.Coord]*Chunk
}

// NewStore creates an empty chunk store.
func NewStore() *Store {
	return &Store{chunks: make(map[wire.Coord]*Chunk)}
}

// GetOrCreate returns the chunk at coord, allocating it on first
// access.
func (s *Store) GetOrCreate(coord wire.Coord) *Chunk {
	s.mu.RLock()
	c, ok := s.chunks[coord]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chunks[coord]; ok {
		return c
	}
	c = newChunk()
	s.chunks[coord] = c
	return c
}

// Get returns the chunk at coord if it has been allocated.
func (s *Store) Get(coord wire.Coord) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[coord]
	return c, ok
}

// Positions returns every allocated chunk coordinate.
func (s *Store) Positions() []wire.Coord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]wire.Coord, 0, len(s.chunks))
	for coord := range s.chunks {
		out = append(out, coord)
	}
	return out
}
