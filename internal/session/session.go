package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantarax/netcanv/internal/canvas"
	"github.com/quantarax/netcanv/internal/imagecodec"
	"github.com/quantarax/netcanv/internal/observability"
	"github.com/quantarax/netcanv/internal/tool"
	"github.com/quantarax/netcanv/internal/wire"
)

// CodecPoolWorkers is the number of background goroutines a Session
// dedicates to PNG/JPEG encode and decode work, keeping that CPU-bound
// work off the goroutine that reads the control stream and drives the
// tick loop (SPEC_FULL.md §5).
const CodecPoolWorkers = 4

// Session is the peer-side view of a single room membership: the
// connection state machine, the mate roster, chunk synchronization,
// the fading message feed, and the local canvas. Grounded on
// daemon/manager/session.go's Session type and on the teacher's
// handleConnection orchestration in daemon/main.go, generalized from
// "drive one file transfer" to "interleave inbound relay packets, tool
// ticks, and image codec completions" (SPEC_FULL.md §4.3, §5).
type Session struct {
	*machine

	// CorrelationID ties every log line for this session's lifetime
	// together, independent of the room/peer ids the relay assigns
	// (which don't exist yet during StateConnecting).
	CorrelationID uuid.UUID

	Nickname string

	RoomID     wire.RoomID
	OwnPeerID  wire.PeerID
	HostPeerID wire.PeerID

	Mates     *Mates
	ChunkSync *ChunkSync
	Messages  *Messages
	Canvas    *canvas.Canvas
	Tools     *tool.Registry
	Pool      *imagecodec.Pool

	log     *observability.Logger
	metrics *observability.Metrics
}

// New creates a session in StateConnecting, with the brush and
// selection tools registered against its canvas.
func New(nickname string, log *observability.Logger, metrics *observability.Metrics) *Session {
	c := canvas.New()
	tools := tool.NewRegistry()
	tools.Register(tool.NewBrush(c))
	tools.Register(tool.NewSelection())

	return &Session{
		machine:       newMachine(),
		CorrelationID: uuid.New(),
		Nickname:      nickname,
		Mates:         NewMates(),
		ChunkSync:     NewChunkSync(DefaultSyncInterval),
		Messages:      NewMessages(),
		Canvas:        c,
		Tools:         tools,
		Pool:          imagecodec.NewPool(context.Background(), CodecPoolWorkers),
		log:           log,
		metrics:       metrics,
	}
}

// BeginHost transitions a session into StateHosting, to be followed by
// StateInRoom once the relay confirms room creation.
func (s *Session) BeginHost() error {
	if err := s.TransitionTo(StateVersionHandshake); err != nil {
		return err
	}
	return s.TransitionTo(StateHosting)
}

// BeginJoin transitions a session into StateJoining for the given
// room code.
func (s *Session) BeginJoin(roomID wire.RoomID) error {
	if err := s.TransitionTo(StateVersionHandshake); err != nil {
		return err
	}
	if err := s.TransitionTo(StateJoining); err != nil {
		return err
	}
	s.RoomID = roomID
	return nil
}

// HandleRelayPacket applies a packet received from the relay to the
// session's state: room assignment, mate roster, and host succession.
// Relayed packets carrying opaque ClientPacket payloads are unwrapped
// and handed to HandleClientPacket.
func (s *Session) HandleRelayPacket(pkt *wire.RelayPacket) error {
	switch pkt.Kind {
	case wire.KindRoomCreated:
		s.RoomID = pkt.Room
		s.OwnPeerID = pkt.Host
		s.HostPeerID = pkt.Host
		if err := s.TransitionTo(StateInRoom); err != nil {
			return err
		}
		s.logEvent("room created, now hosting %s", s.RoomID)

	case wire.KindJoined:
		s.OwnPeerID = pkt.OwnPeerID
		s.HostPeerID = pkt.HostPeerID
		if err := s.TransitionTo(StateInRoom); err != nil {
			return err
		}
		s.logEvent("joined room %s, host is %s", s.RoomID, pkt.HostPeerID)

	case wire.KindHostTransfer:
		s.HostPeerID = pkt.NewHost
		s.logEvent("host transferred to %s", pkt.NewHost)

	case wire.KindDisconnected:
		if mate, ok := s.Mates.Get(pkt.Departed); ok && mate.Tool != "" {
			if t, ok := s.Tools.Get(mate.Tool); ok {
				t.PeerDeactivated(pkt.Departed)
			}
		}
		s.Mates.Remove(pkt.Departed)
		s.Messages.Push("a mate disconnected")

	case wire.KindRelayed:
		client, err := wire.UnmarshalClientPacket(pkt.Payload)
		if err != nil {
			s.Messages.Push("received a malformed packet from a mate")
			return nil
		}
		return s.HandleClientPacket(pkt.Sender, client)

	case wire.KindError:
		s.Messages.Push(fmt.Sprintf("relay error: %s", pkt.ErrorKind))

	case wire.KindHost, wire.KindJoin, wire.KindRelay:
		// client->server only, never received.
	}
	return nil
}

// HandleClientPacket processes an unwrapped tool-protocol packet from
// a specific mate, enforcing the version-compatibility quarantine rule
// (DESIGN.md Open Question #1) before dispatching to a tool handler.
func (s *Session) HandleClientPacket(from wire.PeerID, pkt *wire.ClientPacket) error {
	switch pkt.Kind {
	case wire.KindHello, wire.KindHiThere:
		s.Mates.Add(&Mate{PeerID: from, Nickname: pkt.Nickname})

	case wire.KindVersion:
		if !wire.Compatible(pkt.ProtocolVersion, wire.ClientProtocolVersion) {
			s.Mates.MarkIncompatible(from)
			if s.log != nil {
				s.log.MateQuarantined(from.String(), pkt.ProtocolVersion, wire.ClientProtocolVersion)
			}
			if s.metrics != nil {
				s.metrics.RecordQuarantinedMate()
			}
			s.Messages.Push("a mate is running an incompatible version and has been isolated")
		}

	case wire.KindChunkPositions:
		s.ChunkSync.Observe(pkt.Coords)

	case wire.KindGetChunks:
		// Handled by the caller: it owns the Canvas and the send path,
		// since answering requires producing a Relay packet back out.
		return nil

	case wire.KindChunks:
		for _, cb := range pkt.Chunks {
			if s.Pool == nil {
				if err := s.Canvas.DecodeNetworkData(cb.Coord, cb.Data); err != nil {
					s.Messages.Push("received an unreadable chunk from a mate")
					continue
				}
				s.ChunkSync.MarkDownloaded(cb.Coord)
				continue
			}
			s.Pool.Submit(imagecodec.DecodeJob(DecodeJobID{Coord: cb.Coord}, cb.Data, canvas.ChunkSize))
		}

	case wire.KindTool, wire.KindSelectTool:
		if mate, ok := s.Mates.Get(from); ok && mate.Incompatible {
			return nil
		}
		return s.dispatchTool(from, pkt)
	}
	return nil
}

func (s *Session) dispatchTool(from wire.PeerID, pkt *wire.ClientPacket) error {
	t, ok := s.Tools.Get(pkt.ToolName)
	if !ok {
		return nil // unknown tool names are dropped silently, per spec
	}
	if pkt.Kind == wire.KindSelectTool {
		if mate, ok := s.Mates.Get(from); ok && mate.Tool != "" && mate.Tool != pkt.ToolName {
			if old, ok := s.Tools.Get(mate.Tool); ok {
				old.PeerDeactivated(from)
			}
		}
		s.Mates.SetTool(from, pkt.ToolName)
		t.PeerActivated(from)
		return nil
	}
	return t.NetworkReceive(from, pkt.ToolPayload)
}

// DecodeJobID tags a background chunk-decode job submitted to a
// Session's Pool, so whoever drains Pool.Completions() can route a
// finished decode back to HandleCodecResult.
type DecodeJobID struct {
	Coord wire.Coord
}

// HandleCodecResult installs a finished background chunk decode (or
// reports a decode failure), and reports whether res was one of this
// session's own decode jobs. A caller draining a shared Pool's
// completions should try any of its own job kinds first and fall
// through to this only once it has ruled out handling res itself.
func (s *Session) HandleCodecResult(res imagecodec.Result) bool {
	id, ok := res.ID.(DecodeJobID)
	if !ok {
		return false
	}
	if res.Err != nil {
		s.Messages.Push("received an unreadable chunk from a mate")
		return true
	}
	s.Canvas.InstallDecodedChunk(id.Coord, res.Decoded)
	s.ChunkSync.MarkDownloaded(id.Coord)
	return true
}

func (s *Session) logEvent(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.Info(fmt.Sprintf(format, args...))
}

// Close transitions the session to StateClosed and stops its codec
// pool.
func (s *Session) Close() {
	_ = s.TransitionTo(StateClosed)
	if s.Pool != nil {
		_ = s.Pool.Close()
	}
}

// Uptime returns how long the session has held its current state.
func (s *Session) Uptime() time.Duration { return s.TimeInState() }
