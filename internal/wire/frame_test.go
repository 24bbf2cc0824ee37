package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 4096),
	}
	for _, payload := range cases {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round trip mismatch: got %v want %v", got, payload)
		}
	}
}

func TestFrameAtMaxSizeIsDelivered(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, MaxFrameSize)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame at max size: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame at max size: %v", err)
	}
	if len(got) != MaxFrameSize {
		t.Fatalf("got %d bytes, want %d", len(got), MaxFrameSize)
	}
}

func TestFrameOverMaxSizeIsRejected(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, MaxFrameSize+1)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != ErrFrameTooLarge {
		t.Fatalf("WriteFrame over max size: got err %v, want ErrFrameTooLarge", err)
	}
}

func TestVersionPreambleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVersionPreamble(&buf, ProtocolVersion); err != nil {
		t.Fatalf("WriteVersionPreamble: %v", err)
	}
	got, err := ReadVersionPreamble(&buf)
	if err != nil {
		t.Fatalf("ReadVersionPreamble: %v", err)
	}
	if got != ProtocolVersion {
		t.Fatalf("got version %d, want %d", got, ProtocolVersion)
	}
}

func FuzzFrameRoundTrip(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, payload []byte) {
		if len(payload) > MaxFrameSize {
			return
		}
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, payload) && !(len(got) == 0 && len(payload) == 0) {
			t.Fatalf("round trip mismatch: got %v want %v", got, payload)
		}
	})
}
