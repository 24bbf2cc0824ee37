package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// WithRoom adds room_id context to logger.
func (l *Logger) WithRoom(roomID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("room_id", roomID).Logger(),
	}
}

// WithPeer adds peer_id context to logger.
func (l *Logger) WithPeer(peerID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("peer_id", peerID).Logger(),
	}
}

// WithChunk adds chunk coordinate context to logger.
func (l *Logger) WithChunk(x, y int32) *Logger {
	return &Logger{
		logger: l.logger.With().Int32("chunk_x", x).Int32("chunk_y", y).Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// RoomCreated logs room creation.
func (l *Logger) RoomCreated(roomID, hostPeerID string) {
	l.logger.Info().
		Str("room_id", roomID).
		Str("host_peer_id", hostPeerID).
		Msg("room created")
}

// PeerJoined logs a peer joining a room.
func (l *Logger) PeerJoined(roomID, peerID, nickname string, peerCount int) {
	l.logger.Info().
		Str("room_id", roomID).
		Str("peer_id", peerID).
		Str("nickname", nickname).
		Int("peer_count", peerCount).
		Msg("peer joined room")
}

// PeerLeft logs a peer leaving a room.
func (l *Logger) PeerLeft(roomID, peerID string, wasHost bool) {
	l.logger.Info().
		Str("room_id", roomID).
		Str("peer_id", peerID).
		Bool("was_host", wasHost).
		Msg("peer left room")
}

// HostTransferred logs a host succession.
func (l *Logger) HostTransferred(roomID, oldHostID, newHostID string) {
	l.logger.Info().
		Str("room_id", roomID).
		Str("old_host_id", oldHostID).
		Str("new_host_id", newHostID).
		Msg("host transferred")
}

// RoomClosed logs a room being torn down once empty.
func (l *Logger) RoomClosed(roomID string, lifetime time.Duration) {
	l.logger.Info().
		Str("room_id", roomID).
		Float64("lifetime_seconds", lifetime.Seconds()).
		Msg("room closed")
}

// ChunkEncoded logs a chunk encode event.
func (l *Logger) ChunkEncoded(x, y int32, encodedBytes int, lossy bool) {
	l.logger.Debug().
		Int32("chunk_x", x).
		Int32("chunk_y", y).
		Int("encoded_bytes", encodedBytes).
		Bool("lossy", lossy).
		Msg("chunk encoded")
}

// MateQuarantined logs a peer being quarantined for protocol incompatibility.
func (l *Logger) MateQuarantined(peerID string, peerVersion, ownVersion uint32) {
	l.logger.Warn().
		Str("peer_id", peerID).
		Uint32("peer_version", peerVersion).
		Uint32("own_version", ownVersion).
		Msg("mate quarantined: incompatible protocol version")
}

// ConnectionEstablished logs connection establishment.
func (l *Logger) ConnectionEstablished(remoteAddr string, connectionID string) {
	l.logger.Info().
		Str("remote_addr", remoteAddr).
		Str("connection_id", connectionID).
		Msg("QUIC connection established")
}

// ConnectionFailed logs connection failure.
func (l *Logger) ConnectionFailed(remoteAddr string, err error) {
	l.logger.Error().
		Str("remote_addr", remoteAddr).
		Err(err).
		Msg("QUIC connection failed")
}

// Helper function to get hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
