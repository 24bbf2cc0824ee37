package session

import (
	"testing"

	"github.com/quantarax/netcanv/internal/wire"
)

func TestBeginHostReachesHostingState(t *testing.T) {
	s := New("alice", nil, nil)
	if err := s.BeginHost(); err != nil {
		t.Fatalf("BeginHost: %v", err)
	}
	if s.State() != StateHosting {
		t.Fatalf("State() = %v, want StateHosting", s.State())
	}
}

func TestHandleRelayPacketRoomCreatedEntersInRoom(t *testing.T) {
	s := New("alice", nil, nil)
	_ = s.BeginHost()

	room := mustRoomID(t, "ABCDEF")
	err := s.HandleRelayPacket(&wire.RelayPacket{Kind: wire.KindRoomCreated, Room: room, Host: wire.PeerID(1)})
	if err != nil {
		t.Fatalf("HandleRelayPacket: %v", err)
	}
	if s.State() != StateInRoom {
		t.Fatalf("State() = %v, want StateInRoom", s.State())
	}
	if s.RoomID != room || s.OwnPeerID != wire.PeerID(1) || s.HostPeerID != wire.PeerID(1) {
		t.Fatalf("session fields not populated from RoomCreated: %+v", s)
	}
}

func TestHandleRelayPacketJoinedEntersInRoom(t *testing.T) {
	s := New("bob", nil, nil)
	room := mustRoomID(t, "ABCDEF")
	_ = s.BeginJoin(room)

	err := s.HandleRelayPacket(&wire.RelayPacket{Kind: wire.KindJoined, OwnPeerID: wire.PeerID(2), HostPeerID: wire.PeerID(1)})
	if err != nil {
		t.Fatalf("HandleRelayPacket: %v", err)
	}
	if s.State() != StateInRoom {
		t.Fatalf("State() = %v, want StateInRoom", s.State())
	}
	if s.HostPeerID != wire.PeerID(1) {
		t.Fatalf("HostPeerID = %v, want 1", s.HostPeerID)
	}
}

func TestHandleRelayPacketHostTransferUpdatesHost(t *testing.T) {
	s := New("bob", nil, nil)
	s.HostPeerID = wire.PeerID(1)
	if err := s.HandleRelayPacket(&wire.RelayPacket{Kind: wire.KindHostTransfer, NewHost: wire.PeerID(2)}); err != nil {
		t.Fatalf("HandleRelayPacket: %v", err)
	}
	if s.HostPeerID != wire.PeerID(2) {
		t.Fatalf("HostPeerID = %v, want 2", s.HostPeerID)
	}
}

func TestHandleRelayPacketDisconnectedRemovesMate(t *testing.T) {
	s := New("bob", nil, nil)
	s.Mates.Add(&Mate{PeerID: wire.PeerID(5), Nickname: "carol"})
	if err := s.HandleRelayPacket(&wire.RelayPacket{Kind: wire.KindDisconnected, Departed: wire.PeerID(5)}); err != nil {
		t.Fatalf("HandleRelayPacket: %v", err)
	}
	if _, ok := s.Mates.Get(wire.PeerID(5)); ok {
		t.Fatal("expected departed mate to be removed from the roster")
	}
}

func relayedClientPacket(t *testing.T, sender wire.PeerID, client *wire.ClientPacket) *wire.RelayPacket {
	t.Helper()
	payload, err := client.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	return &wire.RelayPacket{Kind: wire.KindRelayed, Sender: sender, Payload: payload}
}

func TestHandleRelayPacketRelayedHelloAddsMate(t *testing.T) {
	s := New("bob", nil, nil)
	pkt := relayedClientPacket(t, wire.PeerID(9), &wire.ClientPacket{Kind: wire.KindHello, Nickname: "dave"})
	if err := s.HandleRelayPacket(pkt); err != nil {
		t.Fatalf("HandleRelayPacket: %v", err)
	}
	mate, ok := s.Mates.Get(wire.PeerID(9))
	if !ok || mate.Nickname != "dave" {
		t.Fatalf("mate = %+v, %v, want dave", mate, ok)
	}
}

func TestHandleClientPacketVersionMismatchQuarantinesMate(t *testing.T) {
	s := New("bob", nil, nil)
	s.Mates.Add(&Mate{PeerID: wire.PeerID(9)})
	pkt := &wire.ClientPacket{Kind: wire.KindVersion, ProtocolVersion: wire.ClientProtocolVersion + 100}
	if err := s.HandleClientPacket(wire.PeerID(9), pkt); err != nil {
		t.Fatalf("HandleClientPacket: %v", err)
	}
	mate, _ := s.Mates.Get(wire.PeerID(9))
	if !mate.Incompatible {
		t.Fatal("expected the mate to be marked incompatible after a major version mismatch")
	}
}

func TestHandleClientPacketVersionMatchDoesNotQuarantine(t *testing.T) {
	s := New("bob", nil, nil)
	s.Mates.Add(&Mate{PeerID: wire.PeerID(9)})
	pkt := &wire.ClientPacket{Kind: wire.KindVersion, ProtocolVersion: wire.ClientProtocolVersion}
	_ = s.HandleClientPacket(wire.PeerID(9), pkt)
	mate, _ := s.Mates.Get(wire.PeerID(9))
	if mate.Incompatible {
		t.Fatal("a matching protocol version should not quarantine the mate")
	}
}

func TestHandleClientPacketToolFromIncompatibleMateIsIgnored(t *testing.T) {
	s := New("bob", nil, nil)
	s.Mates.Add(&Mate{PeerID: wire.PeerID(9), Incompatible: true})

	toolPkt := &wire.ClientPacket{Kind: wire.KindSelectTool, ToolName: "brush"}
	if err := s.HandleClientPacket(wire.PeerID(9), toolPkt); err != nil {
		t.Fatalf("HandleClientPacket: %v", err)
	}
	mate, _ := s.Mates.Get(wire.PeerID(9))
	if mate.Tool != "" {
		t.Fatal("an incompatible mate's tool selection should not be applied")
	}
}

func TestHandleClientPacketSelectToolFromCompatibleMateUpdatesRoster(t *testing.T) {
	s := New("bob", nil, nil)
	s.Mates.Add(&Mate{PeerID: wire.PeerID(9)})

	toolPkt := &wire.ClientPacket{Kind: wire.KindSelectTool, ToolName: "brush"}
	if err := s.HandleClientPacket(wire.PeerID(9), toolPkt); err != nil {
		t.Fatalf("HandleClientPacket: %v", err)
	}
	mate, _ := s.Mates.Get(wire.PeerID(9))
	if mate.Tool != "brush" {
		t.Fatalf("Tool = %q, want brush", mate.Tool)
	}
}

func TestHandleClientPacketChunkPositionsFeedsChunkSync(t *testing.T) {
	s := New("bob", nil, nil)
	coords := []wire.Coord{{X: 1, Y: 1}, {X: 2, Y: 2}}
	pkt := &wire.ClientPacket{Kind: wire.KindChunkPositions, Coords: coords}
	if err := s.HandleClientPacket(wire.PeerID(9), pkt); err != nil {
		t.Fatalf("HandleClientPacket: %v", err)
	}
	if s.ChunkSync.State(coords[0]) != NotRequested {
		t.Fatalf("State(%v) = %v, want NotRequested", coords[0], s.ChunkSync.State(coords[0]))
	}
}

func mustRoomID(t *testing.T, s string) wire.RoomID {
	t.Helper()
	id, err := wire.ParseRoomID(s)
	if err != nil {
		t.Fatalf("ParseRoomID(%q): %v", s, err)
	}
	return id
}
