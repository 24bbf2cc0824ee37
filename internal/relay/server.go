package relay

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/quantarax/netcanv/internal/observability"
	"github.com/quantarax/netcanv/internal/quicutil"
	"github.com/quantarax/netcanv/internal/ratelimit"
	"github.com/quantarax/netcanv/internal/wire"
)

// Config holds relay server configuration.
type Config struct {
	ListenAddr      string
	MaxConnections  int
	MaxIdleTimeout  time.Duration
	KeepAlivePeriod time.Duration
	ConnRatePerSec  float64
	ConnBurst       int
}

// DefaultConfig returns sane defaults for a standalone relay.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":62137",
		MaxConnections:  4096,
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 5 * time.Second,
		ConnRatePerSec:  200,
		ConnBurst:       400,
	}
}

// Server is the relay's QUIC accept loop and connection dispatcher. One
// goroutine per connection reads RelayPackets off the control stream and
// mutates the shared room/peer tables; replies and relayed traffic are
// written back through the per-peer Send closure.
type Server struct {
	config Config
	rooms  *Rooms
	peers  *Peers

	log     *observability.Logger
	metrics *observability.Metrics

	activeConns int64
}

// NewServer constructs a relay server. log and metrics may be nil, in
// which case observability is a no-op.
func NewServer(config Config, log *observability.Logger, metrics *observability.Metrics) *Server {
	return &Server{
		config:  config,
		rooms:   NewRooms(),
		peers:   NewPeers(),
		log:     log,
		metrics: metrics,
	}
}

// Rooms exposes the room table for health/metrics reporting.
func (s *Server) Rooms() *Rooms { return s.rooms }

// Run listens for QUIC connections and serves them until ctx is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	certPEM, keyPEM, err := quicutil.GenerateSelfSignedCert()
	if err != nil {
		return fmt.Errorf("relay: generate cert: %w", err)
	}
	tlsConfig, err := quicutil.MakeTLSConfig(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("relay: build tls config: %w", err)
	}
	tlsConfig.NextProtos = []string{"netcanv-relay"}

	quicConfig := &quic.Config{
		MaxIdleTimeout:  s.config.MaxIdleTimeout,
		KeepAlivePeriod: s.config.KeepAlivePeriod,
	}

	listener, err := quic.ListenAddr(s.config.ListenAddr, tlsConfig, quicConfig)
	if err != nil {
		return fmt.Errorf("relay: listen %s: %w", s.config.ListenAddr, err)
	}
	defer listener.Close()

	connLimiter := ratelimit.NewTokenBucket(s.config.ConnRatePerSec, s.config.ConnBurst)

	if s.log != nil {
		s.log.Info(fmt.Sprintf("relay listening on %s", s.config.ListenAddr))
	}

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if s.log != nil {
				s.log.Error(err, "accept failed")
			}
			continue
		}

		active := atomic.LoadInt64(&s.activeConns)
		if active >= int64(s.config.MaxConnections) {
			conn.CloseWithError(1, "relay at capacity")
			continue
		}
		if !connLimiter.Allow(1) {
			conn.CloseWithError(0, "rate limited")
			continue
		}

		atomic.AddInt64(&s.activeConns, 1)
		if s.metrics != nil {
			s.metrics.RecordQUICConnection(true)
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn *quic.Conn) {
	start := time.Now()
	defer func() {
		atomic.AddInt64(&s.activeConns, -1)
		if s.metrics != nil {
			s.metrics.RecordQUICConnectionClose(time.Since(start).Seconds())
		}
		conn.CloseWithError(0, "relay closing")
	}()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Error(err, "accept control stream failed")
		}
		return
	}

	sess := newConnSession(s, stream)
	sess.run(ctx)
}

// controlStream is the subset of *quic.Stream the relay's per-connection
// loop needs; narrowing to an interface keeps connSession exercisable
// with an in-memory pipe in tests.
type controlStream interface {
	io.Reader
	io.Writer
}

// connSession is the per-connection state for one relay client: its
// control stream, its eventual Peer identity, and the room it belongs
// to once one is assigned.
type connSession struct {
	srv    *Server
	stream controlStream

	peer *Peer
	room *Room
}

func newConnSession(srv *Server, stream controlStream) *connSession {
	return &connSession{srv: srv, stream: stream}
}

func (c *connSession) send(pkt *wire.RelayPacket) error {
	data, err := pkt.MarshalBinary()
	if err != nil {
		return err
	}
	return wire.WriteFrame(c.stream, data)
}

func (c *connSession) run(ctx context.Context) {
	defer c.teardown()

	for {
		data, err := wire.ReadFrame(c.stream)
		if err != nil {
			if err != io.EOF && c.srv.log != nil {
				c.srv.log.Debug(fmt.Sprintf("control stream closed: %v", err))
			}
			return
		}
		pkt, err := wire.UnmarshalRelayPacket(data)
		if err != nil {
			if c.srv.log != nil {
				c.srv.log.Error(err, "malformed relay packet")
			}
			return
		}
		if err := c.handlePacket(pkt); err != nil {
			if c.srv.log != nil {
				c.srv.log.Error(err, "handling relay packet failed")
			}
			return
		}
	}
}

func (c *connSession) handlePacket(pkt *wire.RelayPacket) error {
	switch pkt.Kind {
	case wire.KindHost:
		return c.handleHost()
	case wire.KindJoin:
		return c.handleJoin(pkt.JoinRoom)
	case wire.KindRelay:
		return c.handleRelay(pkt)
	default:
		return c.sendError(wire.ErrKindRoomDoesNotExist, 0)
	}
}

func (c *connSession) handleHost() error {
	peer, err := c.srv.peers.Register(func(id wire.PeerID) *Peer {
		return &Peer{ID: id, Send: c.send, joined: time.Now()}
	})
	if err != nil {
		if c.srv.metrics != nil {
			c.srv.metrics.RecordRelayError("no_free_peer_ids")
		}
		return c.sendError(wire.ErrKindNoFreePeerIDs, 0)
	}

	room, err := c.srv.rooms.Create(peer)
	if err != nil {
		c.srv.peers.Delete(peer.ID)
		if c.srv.metrics != nil {
			c.srv.metrics.RecordRelayError("no_free_rooms")
		}
		return c.sendError(wire.ErrKindNoFreeRooms, 0)
	}
	peer.Room = room.ID
	c.peer = peer
	c.room = room

	if c.srv.metrics != nil {
		c.srv.metrics.RecordRoomCreated()
		c.srv.metrics.RecordPeerJoin(true)
	}
	if c.srv.log != nil {
		c.srv.log.RoomCreated(room.ID.String(), peer.ID.String())
	}

	return c.send(&wire.RelayPacket{Kind: wire.KindRoomCreated, Room: room.ID, Host: peer.ID})
}

func (c *connSession) handleJoin(roomID wire.RoomID) error {
	room, err := c.srv.rooms.Get(roomID)
	if err != nil {
		if c.srv.metrics != nil {
			c.srv.metrics.RecordPeerJoin(false)
		}
		return c.sendError(wire.ErrKindRoomDoesNotExist, 0)
	}

	peer, err := c.srv.peers.Register(func(id wire.PeerID) *Peer {
		return &Peer{ID: id, Send: c.send, Room: roomID, joined: time.Now()}
	})
	if err != nil {
		if c.srv.metrics != nil {
			c.srv.metrics.RecordRelayError("no_free_peer_ids")
		}
		return c.sendError(wire.ErrKindNoFreePeerIDs, 0)
	}
	room.addPeer(peer)
	c.peer = peer
	c.room = room

	if c.srv.metrics != nil {
		c.srv.metrics.RecordPeerJoin(true)
	}
	if c.srv.log != nil {
		c.srv.log.PeerJoined(room.ID.String(), peer.ID.String(), peer.Nickname, room.PeerCount())
	}

	// Mates discover the new arrival through the session layer's own
	// Hello/HiThere exchange, carried as opaque Relay payloads; the
	// relay itself only needs to hand the new peer its identity.
	return c.send(&wire.RelayPacket{Kind: wire.KindJoined, OwnPeerID: peer.ID, HostPeerID: room.HostID})
}

func (c *connSession) handleRelay(pkt *wire.RelayPacket) error {
	if c.room == nil || c.peer == nil {
		return c.sendError(wire.ErrKindRoomDoesNotExist, 0)
	}

	if c.srv.metrics != nil {
		c.srv.metrics.RecordRelayed("relay", len(pkt.Payload))
	}

	if pkt.Target == wire.BroadcastPeerID {
		for _, mate := range c.room.Peers() {
			if mate.ID == c.peer.ID {
				continue
			}
			_ = mate.SendLocked(&wire.RelayPacket{Kind: wire.KindRelayed, Sender: c.peer.ID, Payload: pkt.Payload})
		}
		return nil
	}

	target, ok := c.room.getPeer(pkt.Target)
	if !ok {
		if c.srv.metrics != nil {
			c.srv.metrics.RecordRelayError("no_such_peer")
		}
		return c.sendError(wire.ErrKindNoSuchPeer, pkt.Target)
	}
	return target.SendLocked(&wire.RelayPacket{Kind: wire.KindRelayed, Sender: c.peer.ID, Payload: pkt.Payload})
}

func (c *connSession) sendError(kind wire.RelayErrorKind, target wire.PeerID) error {
	return c.send(&wire.RelayPacket{Kind: wire.KindError, ErrorKind: kind, ErrorTarget: target})
}

func (c *connSession) teardown() {
	if c.peer == nil || c.room == nil {
		return
	}

	wasHost := c.room.HostID == c.peer.ID
	newHost, transferred, empty := c.room.removePeer(c.peer.ID)
	c.srv.peers.Delete(c.peer.ID)

	if c.srv.metrics != nil {
		c.srv.metrics.RecordPeerLeave()
	}
	if c.srv.log != nil {
		c.srv.log.PeerLeft(c.room.ID.String(), c.peer.ID.String(), wasHost)
	}

	if empty {
		c.srv.rooms.Delete(c.room.ID)
		if c.srv.metrics != nil {
			c.srv.metrics.RecordRoomClosed()
		}
		if c.srv.log != nil {
			c.srv.log.RoomClosed(c.room.ID.String(), time.Since(c.room.CreatedAt))
		}
		return
	}

	for _, mate := range c.room.Peers() {
		_ = mate.SendLocked(&wire.RelayPacket{Kind: wire.KindDisconnected, Departed: c.peer.ID})
	}

	if transferred {
		if c.srv.metrics != nil {
			c.srv.metrics.RecordHostTransfer()
		}
		if c.srv.log != nil {
			c.srv.log.HostTransferred(c.room.ID.String(), c.peer.ID.String(), newHost.String())
		}
		for _, mate := range c.room.Peers() {
			_ = mate.SendLocked(&wire.RelayPacket{Kind: wire.KindHostTransfer, NewHost: newHost})
		}
	}
}
