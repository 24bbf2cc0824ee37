package wire

import (
	"reflect"
	"testing"
)

func mustRoomID(t *testing.T, s string) RoomID {
	t.Helper()
	id, err := ParseRoomID(s)
	if err != nil {
		t.Fatalf("ParseRoomID(%q): %v", s, err)
	}
	return id
}

func TestRelayPacketRoundTrip(t *testing.T) {
	room := mustRoomID(t, "A1B2C3")
	packets := []*RelayPacket{
		{Kind: KindHost},
		{Kind: KindRoomCreated, Room: room, Host: 1},
		{Kind: KindJoin, JoinRoom: room},
		{Kind: KindJoined, OwnPeerID: 2, HostPeerID: 1},
		{Kind: KindHostTransfer, NewHost: 2},
		{Kind: KindRelay, Target: BroadcastPeerID, Payload: []byte("hi")},
		{Kind: KindRelay, Target: 3, Payload: []byte("x")},
		{Kind: KindRelayed, Sender: 2, Payload: []byte("hi")},
		{Kind: KindDisconnected, Departed: 1},
		{Kind: KindError, ErrorKind: ErrKindNoFreeRooms},
		{Kind: KindError, ErrorKind: ErrKindNoSuchPeer, ErrorTarget: 3},
	}
	for _, p := range packets {
		data, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%+v): %v", p, err)
		}
		got, err := UnmarshalRelayPacket(data)
		if err != nil {
			t.Fatalf("UnmarshalRelayPacket: %v", err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, p)
		}
	}
}

func TestParseRoomIDRejectsAmbiguousCharacters(t *testing.T) {
	for _, s := range []string{"ABCDE0", "ABCDEO", "ABCDEI", "ABCDE", "ABCDEFG"} {
		if _, err := ParseRoomID(s); err == nil {
			t.Fatalf("ParseRoomID(%q): expected error, got nil", s)
		}
	}
}

func TestRandomRoomIDUsesAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := RandomRoomID()
		if err != nil {
			t.Fatalf("RandomRoomID: %v", err)
		}
		if len(id.String()) != RoomIDLength {
			t.Fatalf("room id %q has wrong length", id)
		}
		for _, c := range id {
			if indexInAlphabet(c) < 0 {
				t.Fatalf("room id %q contains character outside alphabet", id)
			}
		}
	}
}

func TestRandomPeerIDNeverZero(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id, err := RandomPeerID()
		if err != nil {
			t.Fatalf("RandomPeerID: %v", err)
		}
		if id == BroadcastPeerID {
			t.Fatalf("RandomPeerID returned broadcast sentinel")
		}
	}
}

func TestClientPacketRoundTrip(t *testing.T) {
	packets := []*ClientPacket{
		{Kind: KindHello, Nickname: "ari"},
		{Kind: KindHiThere, Nickname: "bo"},
		{Kind: KindVersion, ProtocolVersion: 100},
		{Kind: KindChunkPositions, Coords: []Coord{{X: 0, Y: 0}, {X: -1, Y: 2}}},
		{Kind: KindGetChunks, Coords: []Coord{{X: 5, Y: -5}}},
		{Kind: KindChunks, Chunks: []ChunkBytes{{Coord: Coord{X: 1, Y: 1}, Data: []byte("png")}}},
		{Kind: KindTool, ToolName: "brush", ToolPayload: []byte{1, 2, 3}},
		{Kind: KindSelectTool, ToolName: "selection"},
	}
	for _, p := range packets {
		data, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary(%+v): %v", p, err)
		}
		got, err := UnmarshalClientPacket(data)
		if err != nil {
			t.Fatalf("UnmarshalClientPacket: %v", err)
		}
		if got.Kind != p.Kind || got.Nickname != p.Nickname || got.ProtocolVersion != p.ProtocolVersion ||
			got.ToolName != p.ToolName || string(got.ToolPayload) != string(p.ToolPayload) ||
			len(got.Coords) != len(p.Coords) || len(got.Chunks) != len(p.Chunks) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, p)
		}
	}
}

func TestVersionCompatibility(t *testing.T) {
	cases := []struct {
		a, b uint32
		want bool
	}{
		{100, 100, true},
		{100, 199, true},
		{100, 200, false},
		{0, 99, true},
	}
	for _, c := range cases {
		if got := Compatible(c.a, c.b); got != c.want {
			t.Fatalf("Compatible(%d, %d) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
