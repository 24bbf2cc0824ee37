package client

import (
	"context"
	"fmt"
	"time"

	"github.com/quantarax/netcanv/internal/imagecodec"
	"github.com/quantarax/netcanv/internal/observability"
	"github.com/quantarax/netcanv/internal/session"
	"github.com/quantarax/netcanv/internal/wire"
)

// DefaultTickInterval is how often the runner flushes tool output,
// requests missing chunks, and re-announces chunk positions, matching session.DefaultSyncInterval's cadence.
const DefaultTickInterval = 50 * time.Millisecond

// Runner ties a Client's control stream to a session.Session,
// interleaving inbound RelayPackets, the session's codec pool
// completions, and periodic outbound flushes. Grounded on
// daemon/main.go's handleConnection orchestration loop, generalized
// from one-shot file transfer to a long-lived peer.
type Runner struct {
	client  *Client
	session *session.Session
	log     *observability.Logger

	tickInterval time.Duration
	greeted      bool

	nextRequestID uint64
	pending       map[uint64]*pendingChunkRequest
}

// pendingChunkRequest accumulates the chunks answering one mate's
// GetChunks request as their background encode jobs complete, so they
// can still be sent out as one (or, once large, several) batched
// Chunks packets instead of one packet per chunk.
type pendingChunkRequest struct {
	to        wire.PeerID
	remaining int
	chunks    []wire.ChunkBytes
}

// encodeJobID tags a background chunk-encode job submitted while
// answering a GetChunks request, so a Pool completion can be routed
// back to the pendingChunkRequest it belongs to.
type encodeJobID struct {
	requestID uint64
	coord     wire.Coord
}

// NewRunner builds a runner over an already-dialed Client.
func NewRunner(c *Client, s *session.Session, log *observability.Logger) *Runner {
	return &Runner{
		client:       c,
		session:      s,
		log:          log,
		tickInterval: DefaultTickInterval,
		pending:      make(map[uint64]*pendingChunkRequest),
	}
}

// Host requests a new room from the relay and runs the peer loop.
func (r *Runner) Host(ctx context.Context) error {
	if err := r.session.BeginHost(); err != nil {
		return fmt.Errorf("client: begin host: %w", err)
	}
	if err := r.client.Send(&wire.RelayPacket{Kind: wire.KindHost}); err != nil {
		return fmt.Errorf("client: send host request: %w", err)
	}
	return r.loop(ctx)
}

// Join requests to join an existing room and runs the peer loop.
func (r *Runner) Join(ctx context.Context, roomID wire.RoomID) error {
	if err := r.session.BeginJoin(roomID); err != nil {
		return fmt.Errorf("client: begin join: %w", err)
	}
	if err := r.client.Send(&wire.RelayPacket{Kind: wire.KindJoin, JoinRoom: roomID}); err != nil {
		return fmt.Errorf("client: send join request: %w", err)
	}
	return r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) error {
	incoming := make(chan *wire.RelayPacket, 32)
	readErr := make(chan error, 1)
	go r.readLoop(incoming, readErr)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("client: control stream closed: %w", err)

		case pkt, ok := <-incoming:
			if !ok {
				return nil
			}
			if err := r.handlePacket(pkt); err != nil {
				return err
			}

		case res, ok := <-r.session.Pool.Completions():
			if !ok {
				return nil
			}
			if err := r.handleCodecResult(res); err != nil {
				return err
			}

		case <-ticker.C:
			if err := r.flush(); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) readLoop(out chan<- *wire.RelayPacket, errCh chan<- error) {
	for {
		pkt, err := r.client.Recv()
		if err != nil {
			errCh <- err
			return
		}
		out <- pkt
	}
}

func (r *Runner) handlePacket(pkt *wire.RelayPacket) error {
	if pkt.Kind == wire.KindRelayed {
		if err := r.handleRelayed(pkt); err != nil {
			return err
		}
	} else if err := r.session.HandleRelayPacket(pkt); err != nil {
		return fmt.Errorf("client: handle relay packet: %w", err)
	}

	if !r.greeted && r.session.State() == session.StateInRoom {
		r.greeted = true
		if r.log != nil {
			r.log.Info(fmt.Sprintf("in room %s, announcing as %q", r.session.RoomID, r.session.Nickname))
		}
		return r.announce()
	}
	return nil
}

// handleRelayed unwraps a Relayed packet's ClientPacket payload. Every
// kind except GetChunks is handed to the session directly; GetChunks is
// intercepted here because answering it means producing an outbound
// Chunks packet, which needs the Canvas and the send path the session
// itself doesn't own.
func (r *Runner) handleRelayed(pkt *wire.RelayPacket) error {
	cp, err := wire.UnmarshalClientPacket(pkt.Payload)
	if err != nil {
		if r.log != nil {
			r.log.Error(err, "malformed client packet from mate")
		}
		r.session.Messages.Push("received a malformed packet from a mate")
		return nil
	}
	if cp.Kind == wire.KindGetChunks {
		return r.sendRequestedChunks(pkt.Sender, cp.Coords)
	}
	return r.session.HandleClientPacket(pkt.Sender, cp)
}

// sendRequestedChunks answers a GetChunks request. Chunks already
// cached are collected immediately; anything else is encoded in the
// background on the session's codec pool so this goroutine never
// blocks on PNG/JPEG work, with the answer assembled once every
// requested coordinate has resolved one way or the other.
func (r *Runner) sendRequestedChunks(to wire.PeerID, coords []wire.Coord) error {
	if len(coords) == 0 {
		return nil
	}

	r.nextRequestID++
	reqID := r.nextRequestID
	pending := &pendingChunkRequest{to: to}

	for _, coord := range coords {
		if cached, ok := r.session.Canvas.CachedNetworkData(coord); ok {
			if !cached.Empty() {
				pending.chunks = append(pending.chunks, wire.ChunkBytes{Coord: coord, Data: chunkPayload(cached)})
			}
			continue
		}
		img, ok := r.session.Canvas.ImageForEncode(coord)
		if !ok {
			continue
		}
		pending.remaining++
		r.session.Pool.Submit(imagecodec.EncodeJob(encodeJobID{requestID: reqID, coord: coord}, img))
	}

	if pending.remaining == 0 {
		return r.flushChunkBatch(pending)
	}
	r.pending[reqID] = pending
	return nil
}

// handleCodecResult routes one of the session's Pool completions: a
// decode completion belongs to the session itself (installing received
// network data), while an encode completion belongs to a pending
// GetChunks answer this runner is assembling.
func (r *Runner) handleCodecResult(res imagecodec.Result) error {
	if r.session.HandleCodecResult(res) {
		return nil
	}

	id, ok := res.ID.(encodeJobID)
	if !ok {
		return nil
	}
	pending, ok := r.pending[id.requestID]
	if !ok {
		return nil
	}
	if res.Err == nil && !res.Encoded.Empty() {
		r.session.Canvas.CacheEncoded(id.coord, res.Encoded)
		pending.chunks = append(pending.chunks, wire.ChunkBytes{Coord: id.coord, Data: chunkPayload(res.Encoded)})
	}
	pending.remaining--
	if pending.remaining > 0 {
		return nil
	}
	delete(r.pending, id.requestID)
	return r.flushChunkBatch(pending)
}

// flushChunkBatch sends a fully-resolved pendingChunkRequest's chunks,
// splitting into multiple Chunks packets whenever the accumulated
// payload would exceed wire.MaxChunksPayload rather than ever sending
// a single unbounded packet.
func (r *Runner) flushChunkBatch(pending *pendingChunkRequest) error {
	var batch []wire.ChunkBytes
	var batchBytes int

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.sendClientPacket(pending.to, &wire.ClientPacket{Kind: wire.KindChunks, Chunks: batch})
		batch = nil
		batchBytes = 0
		return err
	}

	for _, cb := range pending.chunks {
		if batchBytes+len(cb.Data) > wire.MaxChunksPayload {
			if err := flush(); err != nil {
				return err
			}
		}
		batch = append(batch, cb)
		batchBytes += len(cb.Data)
	}
	return flush()
}

func chunkPayload(enc *imagecodec.EncodedChunk) []byte {
	if enc.Lossy != nil {
		return enc.Lossy
	}
	return enc.PNG
}

// announce introduces this peer to its new mates once the session has
// reached StateInRoom for the first time.
func (r *Runner) announce() error {
	if err := r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{
		Kind:     wire.KindHello,
		Nickname: r.session.Nickname,
	}); err != nil {
		return err
	}
	return r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{
		Kind:            wire.KindVersion,
		ProtocolVersion: wire.ClientProtocolVersion,
	})
}

// flush broadcasts whatever tool state has accumulated since the last
// tick, requests chunks queued by ChunkSync, and advertises our own
// chunk positions so mates know what we already have.
func (r *Runner) flush() error {
	if r.session.State() != session.StateInRoom {
		return nil
	}

	r.session.Canvas.SweepCache()

	for _, name := range r.session.Tools.Names() {
		t, ok := r.session.Tools.Get(name)
		if !ok {
			continue
		}
		payload, has := t.NetworkSend()
		if !has {
			continue
		}
		if err := r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{
			Kind: wire.KindTool, ToolName: name, ToolPayload: payload,
		}); err != nil {
			return err
		}
	}

	if coords := r.session.ChunkSync.Tick(); len(coords) > 0 {
		if err := r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{
			Kind: wire.KindGetChunks, Coords: coords,
		}); err != nil {
			return err
		}
	}

	if positions := r.session.Canvas.ChunkPositions(); len(positions) > 0 {
		if err := r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{
			Kind: wire.KindChunkPositions, Coords: positions,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) sendClientPacket(to wire.PeerID, cp *wire.ClientPacket) error {
	payload, err := cp.MarshalBinary()
	if err != nil {
		return fmt.Errorf("client: marshal client packet: %w", err)
	}
	return r.client.Send(&wire.RelayPacket{Kind: wire.KindRelay, Target: to, Payload: payload})
}

// SelectTool broadcasts a SelectTool packet announcing which tool this
// peer is about to use, so mates attribute subsequent Tool packets
// correctly.
func (r *Runner) SelectTool(name string) error {
	return r.sendClientPacket(wire.BroadcastPeerID, &wire.ClientPacket{Kind: wire.KindSelectTool, ToolName: name})
}
