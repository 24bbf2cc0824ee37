package wire

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// RoomIDAlphabet is the 33-character unambiguous alphabet room ids are
// drawn from. 0, O and I are omitted to avoid visual confusion.
const RoomIDAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// RoomIDLength is the fixed length of a room id, in characters/bytes.
const RoomIDLength = 6

// RoomID is a 6-character room identifier drawn from RoomIDAlphabet.
type RoomID [RoomIDLength]byte

// String renders the room id as its 6-character ASCII form.
func (r RoomID) String() string {
	return string(r[:])
}

// ParseRoomID validates and converts a 6-character string into a RoomID.
func ParseRoomID(s string) (RoomID, error) {
	var id RoomID
	if len(s) != RoomIDLength {
		return id, fmt.Errorf("wire: room id must be %d characters, got %d", RoomIDLength, len(s))
	}
	for i := 0; i < RoomIDLength; i++ {
		c := s[i]
		if indexInAlphabet(c) < 0 {
			return id, fmt.Errorf("wire: room id contains invalid character %q", c)
		}
		id[i] = c
	}
	return id, nil
}

// RandomRoomID draws a uniformly random room id from RoomIDAlphabet using
// a cryptographically secure source.
func RandomRoomID() (RoomID, error) {
	var id RoomID
	// Bytes at or above the largest multiple of the alphabet size are
	// redrawn so that every character is equally likely.
	limit := 256 - 256%len(RoomIDAlphabet)
	var b [1]byte
	for i := 0; i < RoomIDLength; {
		if _, err := rand.Read(b[:]); err != nil {
			return id, fmt.Errorf("wire: generate random room id: %w", err)
		}
		if int(b[0]) >= limit {
			continue
		}
		id[i] = RoomIDAlphabet[int(b[0])%len(RoomIDAlphabet)]
		i++
	}
	return id, nil
}

func indexInAlphabet(c byte) int {
	for i := 0; i < len(RoomIDAlphabet); i++ {
		if RoomIDAlphabet[i] == c {
			return i
		}
	}
	return -1
}

// PeerID is the relay-assigned peer identifier. The zero value is the
// broadcast sentinel and is never assigned to a real peer.
type PeerID uint64

// String renders a peer id in hex, as used in logs.
func (id PeerID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// BroadcastPeerID is the routing sentinel meaning "every other member of
// the room".
const BroadcastPeerID PeerID = 0

// RandomPeerID draws a uniformly random non-zero 64-bit peer id.
func RandomPeerID() (PeerID, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("wire: generate random peer id: %w", err)
		}
		id := PeerID(binary.LittleEndian.Uint64(buf[:]))
		if id != BroadcastPeerID {
			return id, nil
		}
	}
}
