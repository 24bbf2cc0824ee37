// Package client implements the peer side of the relay wire protocol:
// dialing the relay over QUIC, framing RelayPackets on the resulting
// control stream, and driving a session.Session from what comes back.
// Grounded on internal/relay/server.go's connSession, mirrored for the
// dialing side instead of the accepting side, and on
// cmd/quic_send/main.go's quic.DialAddr + client TLS config pattern.
package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/quantarax/netcanv/internal/quicutil"
	"github.com/quantarax/netcanv/internal/wire"
)

// controlStream is the subset of *quic.Stream the runner needs;
// narrowing to an interface keeps Client exercisable with an in-memory
// pipe in tests, mirroring internal/relay/server.go's controlStream.
type controlStream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Client is one QUIC connection to the relay and its control stream.
type Client struct {
	conn   *quic.Conn
	stream controlStream
}

// Dial connects to a relay at addr and opens its control stream.
func Dial(ctx context.Context, addr string) (*Client, error) {
	tlsConfig := quicutil.MakeClientTLSConfig()
	tlsConfig.NextProtos = []string{"netcanv-relay"}

	quicConfig := &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}

	conn, err := quic.DialAddr(ctx, addr, tlsConfig, quicConfig)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "failed to open control stream")
		return nil, fmt.Errorf("client: open control stream: %w", err)
	}

	return &Client{conn: conn, stream: stream}, nil
}

// newClient wraps an arbitrary controlStream directly, bypassing QUIC
// dialing. Used by tests to drive a Client over an in-memory pipe.
func newClient(stream controlStream) *Client {
	return &Client{stream: stream}
}

// Send frames and writes one RelayPacket to the control stream.
func (c *Client) Send(pkt *wire.RelayPacket) error {
	data, err := pkt.MarshalBinary()
	if err != nil {
		return fmt.Errorf("client: marshal relay packet: %w", err)
	}
	return wire.WriteFrame(c.stream, data)
}

// Recv blocks for the next RelayPacket frame off the control stream.
func (c *Client) Recv() (*wire.RelayPacket, error) {
	data, err := wire.ReadFrame(c.stream)
	if err != nil {
		return nil, err
	}
	return wire.UnmarshalRelayPacket(data)
}

// Close tears down the control stream and the underlying connection.
func (c *Client) Close() error {
	c.stream.Close()
	if c.conn != nil {
		return c.conn.CloseWithError(0, "client closing")
	}
	return nil
}
