package canvas

import (
	"image"
	"image/color"

	"github.com/quantarax/netcanv/internal/imagecodec"
	"github.com/quantarax/netcanv/internal/wire"
)

// Canvas ties the chunk store and the encoded-bytes cache together
// into the facade used by the session layer: draw locally, answer
// ChunkPositions/GetChunks requests, and produce or consume the
// over-the-wire encoded form of a chunk on demand.
type Canvas struct {
	store *Store
	cache *EncodedCache
}

// New creates an empty canvas.
func New() *Canvas {
	return &Canvas{store: NewStore(), cache: NewEncodedCache()}
}

// SetPixel paints a single pixel at absolute canvas coordinates,
// allocating the containing chunk if needed and invalidating its
// cached encoding.
func (c *Canvas) SetPixel(x, y int, col color.Color) {
	coord, lx, ly := wire.CoordForPixel(x, y, ChunkSize)
	chunk := c.store.GetOrCreate(coord)
	chunk.SetPixel(lx, ly, col)
	c.cache.Invalidate(coord)
}

// GetPixel reads a single pixel at absolute canvas coordinates. Pixels
// in unallocated chunks are fully transparent.
func (c *Canvas) GetPixel(x, y int) color.Color {
	coord, lx, ly := wire.CoordForPixel(x, y, ChunkSize)
	chunk, ok := c.store.Get(coord)
	if !ok {
		return color.RGBA{}
	}
	return chunk.At(lx, ly)
}

// ChunkPositions returns the coordinates of every chunk that has ever
// been allocated, for answering a mate's ChunkPositions query.
func (c *Canvas) ChunkPositions() []wire.Coord {
	return c.store.Positions()
}

// NetworkData returns the encoded network representation of the chunk
// at coord, encoding and caching it on first request. The bool is false
// for empty chunks so the caller can skip sending them: a chunk that was
// never allocated yields (nil, false), an allocated but empty one an
// empty EncodedChunk and false.
func (c *Canvas) NetworkData(coord wire.Coord) (*EncodedChunk, bool, error) {
	if encoded, ok := c.cache.Get(coord); ok {
		return encoded, !encoded.Empty(), nil
	}

	chunk, ok := c.store.Get(coord)
	if !ok {
		return nil, false, nil
	}

	encoded, err := imagecodec.EncodeNetworkChunk(chunk.Image())
	if err != nil {
		return nil, false, err
	}
	if !encoded.Empty() {
		c.cache.Set(coord, encoded)
	}
	chunk.MarkSaved()
	return encoded, !encoded.Empty(), nil
}

// DecodeNetworkData decodes a chunk received from a mate and installs
// it at coord, replacing any local contents. The installed data is
// already-authoritative network state, not a local edit, so the chunk
// is left clean rather than queued for re-encode and re-broadcast.
func (c *Canvas) DecodeNetworkData(coord wire.Coord, data []byte) error {
	img, err := imagecodec.DecodeNetworkChunk(data, ChunkSize)
	if err != nil {
		return err
	}
	chunk := c.store.GetOrCreate(coord)
	chunk.ReplaceImageClean(img)
	c.cache.Invalidate(coord)
	return nil
}

// SweepCache evicts stale encoded-chunk cache entries. client.Runner
// calls it on every flush tick while the session is in a room.
func (c *Canvas) SweepCache() int {
	return c.cache.Sweep()
}

// CachedNetworkData returns a chunk's encoding if it is already
// cached, without triggering an encode. Used by callers that route the
// encode itself through an imagecodec.Pool and only want to fall back
// to a background job on a cache miss.
func (c *Canvas) CachedNetworkData(coord wire.Coord) (*EncodedChunk, bool) {
	return c.cache.Get(coord)
}

// ImageForEncode returns a snapshot of a chunk's pixels for encoding
// off the caller's own goroutine, and whether the chunk exists at all.
func (c *Canvas) ImageForEncode(coord wire.Coord) (*image.RGBA, bool) {
	chunk, ok := c.store.Get(coord)
	if !ok {
		return nil, false
	}
	return chunk.Image(), true
}

// CacheEncoded records a chunk's encoding once it has finished, e.g. on
// an imagecodec.Pool completion, following NetworkData's own elision
// rule: a fully-elided (empty) encoding is never cached.
func (c *Canvas) CacheEncoded(coord wire.Coord, encoded *EncodedChunk) {
	if !encoded.Empty() {
		c.cache.Set(coord, encoded)
	}
	if chunk, ok := c.store.Get(coord); ok {
		chunk.MarkSaved()
	}
}

// InstallDecodedChunk installs an already-decoded image at coord as
// authoritative network state, e.g. once a background
// imagecodec.Pool decode job completes. Equivalent to
// DecodeNetworkData minus the decode step itself.
func (c *Canvas) InstallDecodedChunk(coord wire.Coord, img *image.RGBA) {
	chunk := c.store.GetOrCreate(coord)
	chunk.ReplaceImageClean(img)
	c.cache.Invalidate(coord)
}
