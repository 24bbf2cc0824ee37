package session

import (
	"sync"

	"github.com/quantarax/netcanv/internal/wire"
)

// Mate is what a session knows about one other peer in the room.
type Mate struct {
	PeerID   wire.PeerID
	Nickname string
	Tool     string // name of the tool this mate currently has selected

	// Incompatible marks a mate whose client protocol version's major
	// component doesn't match our own. Per the quarantine decision
	// (DESIGN.md Open Question #1), an incompatible mate is kept in the
	// roster and its packets are still relayed, but the tool dispatcher
	// refuses to invoke handlers for anything it sends.
	Incompatible bool
}

// Mates is the PeerID -> Mate roster for the room a session is
// currently in, grounded on the same RWMutex-guarded-map idiom as
// daemon/manager/store.go's SessionStore.
type Mates struct {
	mu    sync.RWMutex
	mates map[wire.PeerID]*Mate
}

// NewMates creates an empty roster.
func NewMates() *Mates {
	return &Mates{mates: make(map[wire.PeerID]*Mate)}
}

// Add inserts or replaces a mate's entry.
func (m *Mates) Add(mate *Mate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mates[mate.PeerID] = mate
}

// Remove deletes a mate from the roster, e.g. on Disconnected.
func (m *Mates) Remove(id wire.PeerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mates, id)
}

// Get returns a mate's entry, if known.
func (m *Mates) Get(id wire.PeerID) (*Mate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mate, ok := m.mates[id]
	return mate, ok
}

// SetTool records the tool a mate has selected.
func (m *Mates) SetTool(id wire.PeerID, tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mate, ok := m.mates[id]; ok {
		mate.Tool = tool
	}
}

// MarkIncompatible quarantines a mate whose protocol version doesn't
// match ours.
func (m *Mates) MarkIncompatible(id wire.PeerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mate, ok := m.mates[id]; ok {
		mate.Incompatible = true
	}
}

// All returns a snapshot of every known mate.
func (m *Mates) All() []*Mate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Mate, 0, len(m.mates))
	for _, mate := range m.mates {
		out = append(out, mate)
	}
	return out
}

// Count returns the number of known mates.
func (m *Mates) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mates)
}
