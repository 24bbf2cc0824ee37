package session

import (
	"sync"
	"time"

	"github.com/quantarax/netcanv/internal/tick"
	"github.com/quantarax/netcanv/internal/wire"
)

// DownloadState is a chunk's position in the synchronization pipeline.
type DownloadState int

const (
	// NotRequested chunks have been seen (via ChunkPositions) but not
	// yet asked for.
	NotRequested DownloadState = iota
	// Requested chunks are part of an outstanding GetChunks batch.
	Requested
	// Downloaded chunks have had their bytes applied locally.
	Downloaded
)

// DefaultSyncInterval is the tick cadence at which queued chunk
// requests are flushed into a GetChunks packet, batching many
// individually-discovered coordinates into one round trip.
const DefaultSyncInterval = 50 * time.Millisecond

// ChunkSync tracks which chunks are known, requested, or already
// downloaded, and batches newly-discovered coordinates onto
// DefaultSyncInterval-spaced GetChunks requests via internal/tick.
type ChunkSync struct {
	mu      sync.Mutex
	state   map[wire.Coord]DownloadState
	pending []wire.Coord
	timer   *tick.Timer
}

// NewChunkSync creates a chunk synchronizer batching requests on the
// given interval.
func NewChunkSync(interval time.Duration) *ChunkSync {
	return &ChunkSync{
		state: make(map[wire.Coord]DownloadState),
		timer: tick.NewTimer(interval),
	}
}

// Observe records that a coordinate exists (e.g. from a mate's
// ChunkPositions packet), queuing it for download if it isn't already
// requested or downloaded.
func (cs *ChunkSync) Observe(coords []wire.Coord) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, c := range coords {
		if _, known := cs.state[c]; known {
			continue
		}
		cs.state[c] = NotRequested
		cs.pending = append(cs.pending, c)
	}
}

// Tick advances the synchronizer's timer and, once at least one
// interval has elapsed and there is pending work, drains the queued
// coordinates into a single GetChunks batch, marking them Requested.
// It returns nil when there is nothing to send this call.
func (cs *ChunkSync) Tick() []wire.Coord {
	if cs.timer.Elapsed() == 0 {
		return nil
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.pending) == 0 {
		return nil
	}

	batch := cs.pending
	cs.pending = nil
	for _, c := range batch {
		cs.state[c] = Requested
	}
	return batch
}

// MarkDownloaded records that a chunk's bytes have arrived and been
// applied to the canvas.
func (cs *ChunkSync) MarkDownloaded(coord wire.Coord) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.state[coord] = Downloaded
}

// State returns a coordinate's current download state.
func (cs *ChunkSync) State(coord wire.Coord) DownloadState {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state[coord]
}
