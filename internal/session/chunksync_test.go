package session

import (
	"testing"
	"time"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestChunkSyncTickReturnsNilBeforeIntervalPasses(t *testing.T) {
	cs := NewChunkSync(50 * time.Millisecond)
	cs.Observe([]wire.Coord{{X: 0, Y: 0}})
	if got := cs.Tick(); got != nil {
		t.Fatalf("Tick() = %v, want nil before the interval passes", got)
	}
}

func TestChunkSyncTickFlushesQueuedCoordsAfterInterval(t *testing.T) {
	cs := NewChunkSync(10 * time.Millisecond)
	cs.Observe([]wire.Coord{{X: 1, Y: 1}, {X: 2, Y: 2}})
	cs.timer.lastTick = time.Now().Add(-20 * time.Millisecond)

	batch := cs.Tick()
	if len(batch) != 2 {
		t.Fatalf("Tick() returned %d coords, want 2", len(batch))
	}
	if cs.State(wire.Coord{X: 1, Y: 1}) != Requested {
		t.Fatal("expected flushed coordinates to be marked Requested")
	}
}

func TestChunkSyncObserveIgnoresAlreadyKnownCoords(t *testing.T) {
	cs := NewChunkSync(10 * time.Millisecond)
	coord := wire.Coord{X: 0, Y: 0}
	cs.Observe([]wire.Coord{coord})
	cs.MarkDownloaded(coord)
	cs.Observe([]wire.Coord{coord})

	cs.timer.lastTick = time.Now().Add(-20 * time.Millisecond)
	if batch := cs.Tick(); batch != nil {
		t.Fatalf("Tick() = %v, want nil since the coord was already Downloaded", batch)
	}
}

func TestChunkSyncMarkDownloaded(t *testing.T) {
	cs := NewChunkSync(10 * time.Millisecond)
	coord := wire.Coord{X: 5, Y: 5}
	cs.MarkDownloaded(coord)
	if cs.State(coord) != Downloaded {
		t.Fatalf("State() = %v, want Downloaded", cs.State(coord))
	}
}
