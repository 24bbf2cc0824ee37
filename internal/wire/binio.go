package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates a tagged binary packet body in little-endian order.
// It is a thin convenience wrapper grounded on the same
// binary.Write-per-field idiom the relay's control stream codec uses,
// generalised to a byte-slice builder so packet types can implement
// MarshalBinary without allocating an io.Writer per call.
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteUint8(v uint8) { w.buf.WriteByte(v) }

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

// WriteFloat32 writes an IEEE-754 single-precision float, used by
// tool packets for point/thickness data (e.g. brush strokes).
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

func (w *Writer) WritePeerID(id PeerID) { w.WriteUint64(uint64(id)) }

func (w *Writer) WriteRoomID(id RoomID) { w.buf.Write(id[:]) }

// WriteBytes writes a uint32 length prefix followed by the raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteString writes a uint32 length prefix followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) { w.WriteBytes([]byte(s)) }

// WriteCoord writes a signed 2-D chunk coordinate as two little-endian
// int32 fields.
func (w *Writer) WriteCoord(c Coord) {
	w.WriteInt32(c.X)
	w.WriteInt32(c.Y)
}

// Reader consumes a tagged binary packet body written by Writer.
type Reader struct {
	buf []byte
	pos int
	err error
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Err returns the first error encountered, if any (typically "short
// buffer" from a truncated or malformed frame).
func (r *Reader) Err() error { return r.err }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.buf) {
		r.fail(fmt.Errorf("wire: short buffer: need %d bytes, have %d", n, len(r.buf)-r.pos))
		return false
	}
	return true
}

func (r *Reader) ReadUint8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) ReadUint32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) ReadUint64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) ReadInt32() int32 { return int32(r.ReadUint32()) }

func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(r.ReadUint32()) }

func (r *Reader) ReadPeerID() PeerID { return PeerID(r.ReadUint64()) }

func (r *Reader) ReadRoomID() RoomID {
	var id RoomID
	if !r.need(RoomIDLength) {
		return id
	}
	copy(id[:], r.buf[r.pos:r.pos+RoomIDLength])
	r.pos += RoomIDLength
	return id
}

func (r *Reader) ReadBytes() []byte {
	n := r.ReadUint32()
	if !r.need(int(n)) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b
}

func (r *Reader) ReadString() string { return string(r.ReadBytes()) }

func (r *Reader) ReadCoord() Coord {
	x := r.ReadInt32()
	y := r.ReadInt32()
	return Coord{X: x, Y: y}
}

// Coord identifies a 256x256 chunk tile in the infinite canvas.
type Coord struct {
	X, Y int32
}

// CoordForPixel maps an absolute pixel coordinate to its containing
// chunk's Coord plus the pixel's chunk-local offset, using a floor
// division so negative coordinates address the chunk to their
// negative side rather than wrapping toward zero.
func CoordForPixel(x, y int, chunkSize int) (coord Coord, localX, localY int) {
	cx := floorDiv(x, chunkSize)
	cy := floorDiv(y, chunkSize)
	return Coord{X: int32(cx), Y: int32(cy)}, x - cx*chunkSize, y - cy*chunkSize
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
