package canvas

import (
	"image/color"
	"testing"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestNewChunkIsEmptyAndNotDirty(t *testing.T) {
	c := newChunk()
	if !c.IsEmpty() {
		t.Fatal("a freshly allocated chunk should be empty")
	}
	if c.Dirty() {
		t.Fatal("a freshly allocated chunk should not be dirty")
	}
}

func TestSetPixelMarksDirtyAndClearsEmpty(t *testing.T) {
	c := newChunk()
	c.SetPixel(5, 5, color.RGBA{R: 255, A: 255})
	if !c.Dirty() {
		t.Fatal("SetPixel should mark the chunk dirty")
	}
	if c.IsEmpty() {
		t.Fatal("a chunk with a painted pixel should not be empty")
	}
	if got := c.At(5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("At(5,5) = %v, want opaque red", got)
	}
}

func TestMarkSavedClearsDirtyFlag(t *testing.T) {
	c := newChunk()
	c.SetPixel(0, 0, color.RGBA{B: 255, A: 255})
	c.MarkSaved()
	if c.Dirty() {
		t.Fatal("MarkSaved should clear the dirty flag")
	}
}

func TestImageReturnsDefensiveCopy(t *testing.T) {
	c := newChunk()
	snapshot := c.Image()
	c.SetPixel(0, 0, color.RGBA{R: 255, A: 255})
	if snapshot.RGBAAt(0, 0) != (color.RGBA{}) {
		t.Fatal("mutating the chunk after taking a snapshot should not affect the snapshot")
	}
}

func TestStoreGetOrCreateIsIdempotent(t *testing.T) {
	s := NewStore()
	coord := wire.Coord{X: 1, Y: -2}
	first := s.GetOrCreate(coord)
	second := s.GetOrCreate(coord)
	if first != second {
		t.Fatal("GetOrCreate should return the same chunk for the same coordinate")
	}
}

func TestStoreGetReportsMissingChunks(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get(wire.Coord{X: 9, Y: 9}); ok {
		t.Fatal("Get should report false for an unallocated chunk")
	}
}

func TestStorePositionsListsAllocatedChunks(t *testing.T) {
	s := NewStore()
	s.GetOrCreate(wire.Coord{X: 0, Y: 0})
	s.GetOrCreate(wire.Coord{X: 1, Y: 0})

	positions := s.Positions()
	if len(positions) != 2 {
		t.Fatalf("Positions() returned %d entries, want 2", len(positions))
	}
}
