package tool

import (
	"sync"

	"github.com/quantarax/netcanv/internal/wire"
)

// MaxSelectionSize caps a selection rectangle's width/height, mirroring
// the original implementation's Selection::MAX_SIZE.
const MaxSelectionSize = 4096

// Rect is an axis-aligned selection rectangle in canvas space.
type Rect struct {
	X, Y, Width, Height float32
}

const (
	selectionPacketRect     uint8 = 1
	selectionPacketDeselect uint8 = 2
)

// Selection tracks the local selection rectangle and, for each active
// mate, their most recently received one. Grounded on
// original_source/src/app/paint/tools/selection.rs's SelectionTool,
// reduced to its Rect/Deselect packets: Capture/Paste/Update rely on
// clipboard and renderer access this headless session model doesn't
// have, so they're left out (see DESIGN.md).
type Selection struct {
	mu    sync.Mutex
	mates map[wire.PeerID]Rect
	own   *Rect
	dirty bool
}

// NewSelection creates a selection tool with no active rectangle.
func NewSelection() *Selection {
	return &Selection{mates: make(map[wire.PeerID]Rect)}
}

func (s *Selection) Name() string { return "selection" }

// SetRect sets the local selection rectangle, clamped to
// MaxSelectionSize, and queues it for the next network flush.
func (s *Selection) SetRect(r Rect) {
	if r.Width > MaxSelectionSize {
		r.Width = MaxSelectionSize
	}
	if r.Height > MaxSelectionSize {
		r.Height = MaxSelectionSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own = &r
	s.dirty = true
}

// Deselect clears the local selection.
func (s *Selection) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.own = nil
	s.dirty = true
}

// RectOf returns a mate's most recently received selection rectangle,
// if any.
func (s *Selection) RectOf(peer wire.PeerID) (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.mates[peer]
	return r, ok
}

func (s *Selection) NetworkSend() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil, false
	}
	s.dirty = false

	w := &wire.Writer{}
	if s.own == nil {
		w.WriteUint8(selectionPacketDeselect)
	} else {
		w.WriteUint8(selectionPacketRect)
		w.WriteFloat32(s.own.X)
		w.WriteFloat32(s.own.Y)
		w.WriteFloat32(s.own.Width)
		w.WriteFloat32(s.own.Height)
	}
	return w.Bytes(), true
}

func (s *Selection) NetworkReceive(sender wire.PeerID, payload []byte) error {
	r := wire.NewReader(payload)
	kind := r.ReadUint8()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case selectionPacketDeselect:
		delete(s.mates, sender)
	case selectionPacketRect:
		rect := Rect{X: r.ReadFloat32(), Y: r.ReadFloat32(), Width: r.ReadFloat32(), Height: r.ReadFloat32()}
		if err := r.Err(); err != nil {
			return err
		}
		if rect.Width > MaxSelectionSize {
			rect.Width = MaxSelectionSize
		}
		if rect.Height > MaxSelectionSize {
			rect.Height = MaxSelectionSize
		}
		s.mates[sender] = rect
	}
	return r.Err()
}

func (s *Selection) PeerActivated(peer wire.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mates[peer]; !ok {
		s.mates[peer] = Rect{}
	}
}

func (s *Selection) PeerDeactivated(peer wire.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mates, peer)
}
