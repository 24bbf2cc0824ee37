package imagecodec

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

type jobKind int

const (
	jobEncode jobKind = iota
	jobDecode
)

// Job is a unit of background encode/decode work submitted to a Pool.
// ID is caller-defined and round-trips unchanged into the matching
// Result, so a caller can correlate a finished job with whatever it
// cares about (a chunk coordinate, a pending request) without this
// package needing to know anything about the rest of the protocol.
type Job struct {
	ID   any
	kind jobKind

	image     *image.RGBA
	data      []byte
	chunkSize int
}

// EncodeJob builds a Job that runs EncodeNetworkChunk on img in the
// background.
func EncodeJob(id any, img *image.RGBA) Job {
	return Job{ID: id, kind: jobEncode, image: img}
}

// DecodeJob builds a Job that runs DecodeNetworkChunk on data in the
// background.
func DecodeJob(id any, data []byte, chunkSize int) Job {
	return Job{ID: id, kind: jobDecode, data: data, chunkSize: chunkSize}
}

// Result is what a Pool posts to its Completions channel once a Job
// finishes. Exactly one of Encoded/Decoded is populated, matching
// whichever of EncodeJob/DecodeJob produced the Job.
type Result struct {
	ID  any
	Err error

	Encoded *EncodedChunk
	Decoded *image.RGBA
}

// Pool runs a fixed number of worker goroutines draining a job queue,
// so PNG/JPEG encode and decode work never blocks whichever goroutine
// also reads the control stream and drives the session tick loop.
// Grounded on the errgroup.WithContext worker-pool idiom used by the
// teacher pack's own background disk/piece workers.
type Pool struct {
	jobs        chan Job
	completions chan Result
	group       *errgroup.Group
}

// NewPool starts workers goroutines pulling Jobs off an internal
// queue. Completions must be drained by the caller for the pool to
// make progress; Close stops accepting new jobs, waits for in-flight
// work to finish, and closes Completions.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	p := &Pool{
		jobs:        make(chan Job, workers*2),
		completions: make(chan Result, workers*2),
		group:       g,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p.drain(gctx)
			return nil
		})
	}
	return p
}

func (p *Pool) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.completions <- p.run(job):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) run(job Job) Result {
	switch job.kind {
	case jobEncode:
		enc, err := EncodeNetworkChunk(job.image)
		return Result{ID: job.ID, Encoded: enc, Err: err}
	case jobDecode:
		img, err := DecodeNetworkChunk(job.data, job.chunkSize)
		return Result{ID: job.ID, Decoded: img, Err: err}
	default:
		return Result{ID: job.ID, Err: fmt.Errorf("imagecodec: unknown job kind %d", job.kind)}
	}
}

// Submit queues a job for background processing. It blocks once the
// queue is full, so callers on a tick loop should keep request batches
// small relative to the pool's worker count.
func (p *Pool) Submit(job Job) {
	p.jobs <- job
}

// Completions is the channel a caller should select on alongside its
// other event sources to receive finished Results, in arbitrary order.
func (p *Pool) Completions() <-chan Result {
	return p.completions
}

// Close stops accepting new jobs, waits for in-flight work to drain,
// and closes Completions.
func (p *Pool) Close() error {
	close(p.jobs)
	err := p.group.Wait()
	close(p.completions)
	return err
}
