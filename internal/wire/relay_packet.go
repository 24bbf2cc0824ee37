package wire

import "fmt"

// RelayPacketKind tags the variant of a RelayPacket on the wire.
type RelayPacketKind uint8

const (
	KindHost RelayPacketKind = iota + 1
	KindRoomCreated
	KindJoin
	KindJoined
	KindHostTransfer
	KindRelay
	KindRelayed
	KindDisconnected
	KindError
)

// RelayErrorKind enumerates the error kinds the relay can report in an
// Error packet.
type RelayErrorKind uint8

const (
	ErrKindNoFreeRooms RelayErrorKind = iota + 1
	ErrKindNoFreePeerIDs
	ErrKindRoomDoesNotExist
	ErrKindNoSuchPeer
)

func (k RelayErrorKind) String() string {
	switch k {
	case ErrKindNoFreeRooms:
		return "NoFreeRooms"
	case ErrKindNoFreePeerIDs:
		return "NoFreePeerIDs"
	case ErrKindRoomDoesNotExist:
		return "RoomDoesNotExist"
	case ErrKindNoSuchPeer:
		return "NoSuchPeer"
	default:
		return "Unknown"
	}
}

// RelayPacket is the tagged union of every server<->client packet
// defined in the relay wire protocol.
type RelayPacket struct {
	Kind RelayPacketKind

	// RoomCreated
	Room RoomID
	Host PeerID

	// Join
	JoinRoom RoomID

	// Joined
	OwnPeerID  PeerID
	HostPeerID PeerID

	// HostTransfer
	NewHost PeerID

	// Relay (client->server) / Relayed (server->client)
	Target  PeerID // BroadcastPeerID means "everyone else in the room"
	Sender  PeerID
	Payload []byte

	// Disconnected
	Departed PeerID

	// Error
	ErrorKind    RelayErrorKind
	ErrorTarget  PeerID // populated for NoSuchPeer
}

// MarshalBinary encodes the packet into its tagged binary wire form.
func (p *RelayPacket) MarshalBinary() ([]byte, error) {
	w := &Writer{}
	w.WriteUint8(uint8(p.Kind))
	switch p.Kind {
	case KindHost:
		// empty payload
	case KindRoomCreated:
		w.WriteRoomID(p.Room)
		w.WritePeerID(p.Host)
	case KindJoin:
		w.WriteRoomID(p.JoinRoom)
	case KindJoined:
		w.WritePeerID(p.OwnPeerID)
		w.WritePeerID(p.HostPeerID)
	case KindHostTransfer:
		w.WritePeerID(p.NewHost)
	case KindRelay:
		w.WritePeerID(p.Target)
		w.WriteBytes(p.Payload)
	case KindRelayed:
		w.WritePeerID(p.Sender)
		w.WriteBytes(p.Payload)
	case KindDisconnected:
		w.WritePeerID(p.Departed)
	case KindError:
		w.WriteUint8(uint8(p.ErrorKind))
		if p.ErrorKind == ErrKindNoSuchPeer {
			w.WritePeerID(p.ErrorTarget)
		}
	default:
		return nil, fmt.Errorf("wire: unknown relay packet kind %d", p.Kind)
	}
	return w.Bytes(), nil
}

// UnmarshalRelayPacket decodes a tagged binary relay packet.
func UnmarshalRelayPacket(data []byte) (*RelayPacket, error) {
	r := NewReader(data)
	p := &RelayPacket{Kind: RelayPacketKind(r.ReadUint8())}
	switch p.Kind {
	case KindHost:
		// empty payload
	case KindRoomCreated:
		p.Room = r.ReadRoomID()
		p.Host = r.ReadPeerID()
	case KindJoin:
		p.JoinRoom = r.ReadRoomID()
	case KindJoined:
		p.OwnPeerID = r.ReadPeerID()
		p.HostPeerID = r.ReadPeerID()
	case KindHostTransfer:
		p.NewHost = r.ReadPeerID()
	case KindRelay:
		p.Target = r.ReadPeerID()
		p.Payload = r.ReadBytes()
	case KindRelayed:
		p.Sender = r.ReadPeerID()
		p.Payload = r.ReadBytes()
	case KindDisconnected:
		p.Departed = r.ReadPeerID()
	case KindError:
		p.ErrorKind = RelayErrorKind(r.ReadUint8())
		if p.ErrorKind == ErrKindNoSuchPeer {
			p.ErrorTarget = r.ReadPeerID()
		}
	default:
		return nil, fmt.Errorf("wire: unknown relay packet kind %d", p.Kind)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
