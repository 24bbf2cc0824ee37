package tool

import (
	"testing"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestSelectionNetworkSendEmptyUntilSet(t *testing.T) {
	s := NewSelection()
	if _, ok := s.NetworkSend(); ok {
		t.Fatal("NetworkSend should report false before any rect is set")
	}
}

func TestSelectionSetRectRoundTripsOverNetwork(t *testing.T) {
	local := NewSelection()
	local.SetRect(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	payload, ok := local.NetworkSend()
	if !ok {
		t.Fatal("expected NetworkSend to report a queued rect")
	}

	remote := NewSelection()
	sender := wire.PeerID(7)
	if err := remote.NetworkReceive(sender, payload); err != nil {
		t.Fatalf("NetworkReceive: %v", err)
	}
	got, ok := remote.RectOf(sender)
	if !ok {
		t.Fatal("expected a rect recorded for the sender")
	}
	if got != (Rect{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Fatalf("RectOf(sender) = %+v, want {1,2,3,4}", got)
	}
}

func TestSelectionDeselectClearsRemoteRect(t *testing.T) {
	local := NewSelection()
	local.SetRect(Rect{Width: 10, Height: 10})
	payload, _ := local.NetworkSend()

	remote := NewSelection()
	sender := wire.PeerID(3)
	_ = remote.NetworkReceive(sender, payload)

	local.Deselect()
	deselectPayload, ok := local.NetworkSend()
	if !ok {
		t.Fatal("expected Deselect to queue a packet")
	}
	if err := remote.NetworkReceive(sender, deselectPayload); err != nil {
		t.Fatalf("NetworkReceive: %v", err)
	}
	if _, ok := remote.RectOf(sender); ok {
		t.Fatal("expected the sender's rect to be cleared after Deselect")
	}
}

func TestSelectionSetRectClampsToMaxSize(t *testing.T) {
	s := NewSelection()
	s.SetRect(Rect{Width: MaxSelectionSize * 2, Height: MaxSelectionSize * 2})
	payload, _ := s.NetworkSend()

	remote := NewSelection()
	sender := wire.PeerID(1)
	_ = remote.NetworkReceive(sender, payload)
	got, _ := remote.RectOf(sender)
	if got.Width != MaxSelectionSize || got.Height != MaxSelectionSize {
		t.Fatalf("rect = %+v, want clamped to %d", got, MaxSelectionSize)
	}
}

func TestSelectionPeerActivatedThenDeactivated(t *testing.T) {
	s := NewSelection()
	peer := wire.PeerID(42)
	s.PeerActivated(peer)
	if _, ok := s.RectOf(peer); !ok {
		t.Fatal("expected PeerActivated to seed an empty rect entry")
	}
	s.PeerDeactivated(peer)
	if _, ok := s.RectOf(peer); ok {
		t.Fatal("expected PeerDeactivated to remove the rect entry")
	}
}
