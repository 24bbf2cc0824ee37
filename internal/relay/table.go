// Package relay implements the in-memory room/peer registry and the QUIC
// accept loop of the NetCanv relay server.
package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/quantarax/netcanv/internal/wire"
)

var (
	ErrRoomNotFound      = errors.New("relay: room not found")
	ErrRoomAlreadyExists = errors.New("relay: room already exists")
	ErrPeerNotFound      = errors.New("relay: peer not found")
	ErrPeerAlreadyExists = errors.New("relay: peer already exists")
	ErrNoFreeRoomIDs     = errors.New("relay: no free room ids")
	ErrNoFreePeerIDs     = errors.New("relay: no free peer ids")
)

// maxIDAllocAttempts bounds the retry loop used to find an unused random
// room or peer id before giving up and reporting exhaustion to the
// caller. 50 attempts against a keyspace this large (33^6 room codes,
// 2^64-1 peer ids) only ever triggers under a pathologically small test
// room table.
const maxIDAllocAttempts = 50

// Room is a single drawing session: a host, zero or more mates, and the
// order in which mates arrived (used to pick the next host on
// disconnect).
type Room struct {
	ID        wire.RoomID
	HostID    wire.PeerID
	CreatedAt time.Time

	mu    sync.RWMutex
	peers map[wire.PeerID]*Peer
	// arrival is peers in join order, oldest first; the room's creator is
	// never in it, and a promoted host keeps its place at the front. The
	// front of this queue becomes the new host when the current host
	// disconnects.
	arrival []wire.PeerID
}

func newRoom(id wire.RoomID, host *Peer) *Room {
	return &Room{
		ID:        id,
		HostID:    host.ID,
		CreatedAt: time.Now(),
		peers:     map[wire.PeerID]*Peer{host.ID: host},
	}
}

// Peers returns a snapshot of the peers currently in the room.
func (r *Room) Peers() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}

// PeerCount returns the number of peers currently in the room.
func (r *Room) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Room) addPeer(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.ID] = p
	r.arrival = append(r.arrival, p.ID)
}

// removePeer deletes a peer from the room and, if it was the host,
// promotes the oldest remaining arrival to host. It reports the new
// host id (zero if the room is now empty) and whether a transfer
// occurred.
func (r *Room) removePeer(id wire.PeerID) (newHost wire.PeerID, transferred bool, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.peers, id)
	for i, a := range r.arrival {
		if a == id {
			r.arrival = append(r.arrival[:i], r.arrival[i+1:]...)
			break
		}
	}

	if len(r.peers) == 0 {
		return 0, false, true
	}

	if r.HostID != id {
		return r.HostID, false, false
	}

	// Host left: promote the longest-waiting mate.
	for len(r.arrival) > 0 {
		candidate := r.arrival[0]
		if _, ok := r.peers[candidate]; ok {
			r.HostID = candidate
			return candidate, true, false
		}
		r.arrival = r.arrival[1:]
	}
	return 0, false, true
}

func (r *Room) getPeer(id wire.PeerID) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Peer is a single connected client, identified relay-wide by PeerID and
// attached to at most one room.
type Peer struct {
	ID       wire.PeerID
	Nickname string

	mu     sync.Mutex // serializes writes to Send
	Send   func(*wire.RelayPacket) error
	Room   wire.RoomID
	joined time.Time
}

// SendLocked serializes concurrent writers onto a single peer's
// outbound stream, mirroring the teacher's per-connection writer mutex.
func (p *Peer) SendLocked(pkt *wire.RelayPacket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Send(pkt)
}

// Rooms is the relay-wide room table: a thread-safe map keyed by
// RoomID, grounded on the teacher's SessionStore pattern (RWMutex +
// sentinel errors) generalized from session ids to room codes.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[wire.RoomID]*Room
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[wire.RoomID]*Room)}
}

// Create allocates a fresh random room id and registers a new room
// hosted by the given peer. Retries on collision up to
// maxIDAllocAttempts times before returning ErrNoFreeRoomIDs.
func (t *Rooms) Create(host *Peer) (*Room, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for attempt := 0; attempt < maxIDAllocAttempts; attempt++ {
		id, err := wire.RandomRoomID()
		if err != nil {
			return nil, err
		}
		if _, exists := t.rooms[id]; exists {
			continue
		}
		room := newRoom(id, host)
		t.rooms[id] = room
		return room, nil
	}
	return nil, ErrNoFreeRoomIDs
}

// Get looks up a room by id.
func (t *Rooms) Get(id wire.RoomID) (*Room, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete removes a room from the table (called once it has become
// empty).
func (t *Rooms) Delete(id wire.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rooms, id)
}

// Count returns the number of active rooms.
func (t *Rooms) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

// Peers is the relay-wide peer table, independent of room membership: it
// allocates peer ids and tracks every registered peer. Relay routing
// looks targets up in the sender's Room, not here.
type Peers struct {
	mu    sync.RWMutex
	peers map[wire.PeerID]*Peer
}

func NewPeers() *Peers {
	return &Peers{peers: make(map[wire.PeerID]*Peer)}
}

// Register allocates a fresh random, nonzero peer id and adds the peer
// to the table. Retries on collision up to maxIDAllocAttempts times.
func (t *Peers) Register(newPeer func(id wire.PeerID) *Peer) (*Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for attempt := 0; attempt < maxIDAllocAttempts; attempt++ {
		id, err := wire.RandomPeerID()
		if err != nil {
			return nil, err
		}
		if _, exists := t.peers[id]; exists {
			continue
		}
		p := newPeer(id)
		t.peers[id] = p
		return p, nil
	}
	return nil, ErrNoFreePeerIDs
}

func (t *Peers) Get(id wire.PeerID) (*Peer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[id]
	if !ok {
		return nil, ErrPeerNotFound
	}
	return p, nil
}

func (t *Peers) Delete(id wire.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
}

func (t *Peers) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}
