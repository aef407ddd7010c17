package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestVLQRoundTrip(t *testing.T) {
	values := []int32{
		0, 1, -1, 31, -32, 95, 96, -33,
		127, -127, 128, -128, 1000, -1000,
		65535, -65535, 1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, want)
		encoded := append([]byte(nil), out.Result()...)

		data := encoded
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("decode: expected %d, got %d (encoded as %v)", want, got, encoded)
		}
		if len(data) != 0 {
			t.Errorf("decode %d left %d bytes", want, len(data))
		}
	}
}

func TestVLQEncodedLength(t *testing.T) {
	tests := []struct {
		v    int32
		size int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{-33, 2},
		{12287, 2},
		{12288, 3},
		{0x3FF4400C, 5},
	}

	for _, tt := range tests {
		if n := len(EncodeVLQ(tt.v)); n != tt.size {
			t.Errorf("EncodeVLQ(%d): %d bytes, want %d", tt.v, n, tt.size)
		}
	}
}

func TestVLQUintFullRange(t *testing.T) {
	for _, want := range []uint32{0, 1, 0x7F, 0x80, 0xFFFF, 0xFF_FFFF, 0xFFFFFFFF, 1 << 39 >> 8} {
		out := NewScratchOutput()
		EncodeVLQUint(out, want)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil || got != want {
			t.Errorf("uint %#x: got %#x, %v", want, got, err)
		}
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	var empty []byte
	if _, err := DecodeVLQInt(&empty); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("empty input: expected ErrBufferTooSmall, got %v", err)
	}

	truncated := []byte{0x81}
	if _, err := DecodeVLQInt(&truncated); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("truncated input: expected ErrBufferTooSmall, got %v", err)
	}

	overlong := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&overlong); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("overlong input: expected ErrInvalidVLQ, got %v", err)
	}
}

func TestVLQBytesAndStrings(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQBytes(out, []byte{1, 2, 3})
	EncodeVLQString(out, "gpio5")
	EncodeVLQBytes(out, nil)

	data := out.Result()
	b, err := DecodeVLQBytes(&data)
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Errorf("bytes: got %v, %v", b, err)
	}
	s, err := DecodeVLQString(&data)
	if err != nil || s != "gpio5" {
		t.Errorf("string: got %q, %v", s, err)
	}
	b, err = DecodeVLQBytes(&data)
	if err != nil || len(b) != 0 {
		t.Errorf("empty bytes: got %v, %v", b, err)
	}

	short := []byte{5, 1, 2}
	if _, err := DecodeVLQBytes(&short); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("short bytes: expected ErrBufferTooSmall, got %v", err)
	}
}

func TestCRC16(t *testing.T) {
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(nil) = %#04x, want 0xffff", got)
	}
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(check) = %#04x, want 0x6f91", got)
	}

	// Appending the checksum low byte first leaves a zero remainder
	data := []byte{5, SeqDest, 0x01, 0x02}
	crc := CRC16(data)
	if got := CRC16(append(data, byte(crc), byte(crc>>8))); got != 0 {
		t.Errorf("residue = %#04x, want 0", got)
	}
}

func TestAppendFrameScan(t *testing.T) {
	payload := []byte{0x05, 0x22, 0x01}
	frame, err := AppendFrame(nil, SeqDest|3, payload)
	if err != nil {
		t.Fatalf("AppendFrame failed: %v", err)
	}
	if int(frame[0]) != len(frame) || frame[len(frame)-1] != SyncByte {
		t.Fatalf("bad framing: %v", frame)
	}

	f, n, res := scan(frame)
	if res != scanOK || n != len(frame) {
		t.Fatalf("scan = %v, %d", res, n)
	}
	if f.Seq != SeqDest|3 || !bytes.Equal(f.Payload, payload) {
		t.Errorf("scanned frame %+v", f)
	}

	if _, _, res := scan(frame[:len(frame)-1]); res != scanShort {
		t.Errorf("truncated frame: %v, want short", res)
	}

	corrupt := append([]byte(nil), frame...)
	corrupt[2] ^= 0xFF
	if _, _, res := scan(corrupt); res != scanCorrupt {
		t.Errorf("bad crc: %v, want corrupt", res)
	}

	if _, err := AppendFrame(nil, SeqDest, make([]byte, PayloadMax+1)); !errors.Is(err, ErrFrameTooLong) {
		t.Errorf("oversize payload: expected ErrFrameTooLong, got %v", err)
	}
}

func TestNextSeq(t *testing.T) {
	if got := NextSeq(0x10); got != 0x11 {
		t.Errorf("NextSeq(0x10) = %#x", got)
	}
	if got := NextSeq(0x1F); got != 0x10 {
		t.Errorf("NextSeq(0x1f) = %#x", got)
	}
}

func TestFramerResync(t *testing.T) {
	a, _ := AppendFrame(nil, SeqDest, []byte{1})
	b, _ := AppendFrame(nil, SeqDest|1, []byte{2})

	var stream []byte
	stream = append(stream, a...)
	stream = append(stream, 0x03, 0x99, 0x42) // noise
	stream = append(stream, SyncByte)
	stream = append(stream, b...)

	var fr framer
	var got []Frame
	resyncs := 0
	used := fr.split(stream, func() { resyncs++ }, func(f Frame) { got = append(got, f) })

	if used != len(stream) {
		t.Errorf("consumed %d of %d bytes", used, len(stream))
	}
	if len(got) != 2 || got[0].Payload[0] != 1 || got[1].Payload[0] != 2 {
		t.Errorf("frames = %+v", got)
	}
	if resyncs != 1 {
		t.Errorf("resyncs = %d, want 1", resyncs)
	}
}

func TestFramerPartial(t *testing.T) {
	frame, _ := AppendFrame(nil, SeqDest, []byte{7, 8})

	var fr framer
	count := 0
	used := fr.split(frame[:4], nil, func(Frame) { count++ })
	if used != 0 || count != 0 {
		t.Fatalf("partial frame: used %d, frames %d", used, count)
	}
	used = fr.split(frame, nil, func(Frame) { count++ })
	if used != len(frame) || count != 1 {
		t.Errorf("complete frame: used %d, frames %d", used, count)
	}
}

func TestFifoBuffer(t *testing.T) {
	f := NewFifoBuffer(8)
	if n := f.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}); n != 7 {
		t.Fatalf("Write stored %d bytes, want 7", n)
	}
	if f.Free() != 0 {
		t.Errorf("Free = %d, want 0", f.Free())
	}

	f.Pop(5)
	f.Write([]byte{10, 11, 12})
	if got := f.Data(); !bytes.Equal(got, []byte{6, 7, 10, 11, 12}) {
		t.Errorf("wrapped Data = %v", got)
	}

	out := make([]byte, 3)
	if n := f.Read(out); n != 3 || !bytes.Equal(out, []byte{6, 7, 10}) {
		t.Errorf("Read = %d %v", n, out)
	}
	f.Pop(100)
	if !f.IsEmpty() || f.Available() != 0 {
		t.Error("buffer not empty after popping everything")
	}
}

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3})
	buf.Pop(2)
	if buf.Available() != 1 || buf.Data()[0] != 3 {
		t.Errorf("after Pop(2): %v", buf.Data())
	}
	buf.Pop(5)
	if buf.Available() != 0 {
		t.Error("Pop past the end left data")
	}
}
