// Package wire implements the length-delimited binary framing and tagged
// packet encoding shared by the relay and client protocols.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload the relay transport will send or
// accept. A peer that attempts to exceed it must be disconnected.
const MaxFrameSize = 4 << 20 // 4 MiB

// ProtocolVersion is the relay transport version, encoded as a 4-byte
// little-endian preamble by WriteVersionPreamble and ReadVersionPreamble.
// The relay server and client in this repository do not exchange the
// preamble: neither side writes or reads it on a new connection, so a
// version mismatch is not detected.
const ProtocolVersion uint32 = 1

var (
	// ErrFrameTooLarge is returned by ReadFrame when the declared length
	// exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")
)

// WriteVersionPreamble writes the 4-byte little-endian protocol version.
func WriteVersionPreamble(w io.Writer, version uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], version)
	_, err := w.Write(buf[:])
	return err
}

// ReadVersionPreamble reads the 4-byte little-endian protocol version.
func ReadVersionPreamble(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteFrame writes a length-delimited frame: a 4-byte little-endian
// length prefix followed by payload. It rejects payloads over
// MaxFrameSize without writing anything.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-delimited frame. A declared length over
// MaxFrameSize is a protocol violation; the caller must close the
// connection rather than keep reading, since the peer is free to lie
// about the length of a payload it never intends to finish sending.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame body: %w", err)
	}
	return payload, nil
}
