// Package protocol implements the framed command protocol spoken between the
// pin controller firmware and its host tools.
//
// A frame is laid out as
//
//	len | seq | payload ... | crc16 hi | crc16 lo | 0x7E
//
// where len counts the whole frame and the payload is a sequence of commands,
// each a VLQ command id followed by its VLQ encoded arguments. An empty
// payload is an acknowledgement carrying the next sequence the receiver
// expects.
package protocol

import (
	"bytes"
	"errors"
	"sync/atomic"
)

const (
	HeaderSize  = 2
	TrailerSize = 3
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 64
	PayloadMax  = FrameMax - FrameMin

	SyncByte = 0x7E
	SeqDest  = 0x10 // high nibble of every sequence byte
	SeqMask  = 0x0F
)

// ErrFrameTooLong is returned when a payload does not fit in one frame
var ErrFrameTooLong = errors.New("payload exceeds frame size")

// Frame is one validated frame
type Frame struct {
	Seq     uint8
	Payload []byte
}

// IsAck reports whether the frame carries no commands
func (f Frame) IsAck() bool {
	return len(f.Payload) == 0
}

// NextSeq returns the sequence that follows seq
func NextSeq(seq uint8) uint8 {
	return (seq+1)&SeqMask | SeqDest
}

type scanResult uint8

const (
	scanOK scanResult = iota
	scanShort
	scanCorrupt
)

// scan validates the frame at the start of data
func scan(data []byte) (Frame, int, scanResult) {
	if len(data) < FrameMin {
		return Frame{}, 0, scanShort
	}
	n := int(data[0])
	if n < FrameMin || n > FrameMax || data[1]&^SeqMask != SeqDest {
		return Frame{}, 0, scanCorrupt
	}
	if len(data) < n {
		return Frame{}, 0, scanShort
	}
	if data[n-1] != SyncByte {
		return Frame{}, 0, scanCorrupt
	}
	crc := uint16(data[n-3])<<8 | uint16(data[n-2])
	if crc != CRC16(data[:n-TrailerSize]) {
		return Frame{}, 0, scanCorrupt
	}
	return Frame{Seq: data[1], Payload: data[HeaderSize : n-TrailerSize]}, n, scanOK
}

// AppendFrame appends a complete frame carrying payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > PayloadMax {
		return dst, ErrFrameTooLong
	}
	start := len(dst)
	dst = append(dst, byte(len(payload)+FrameMin), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), SyncByte), nil
}

// framer splits a byte stream into frames. After corruption it drops bytes up
// to the next sync byte before trusting the stream again.
type framer struct {
	lost atomic.Bool
}

// split emits every complete frame in data and returns the number of bytes
// consumed. resync, if set, runs each time the stream is regained.
func (f *framer) split(data []byte, resync func(), emit func(Frame)) int {
	total := len(data)
	for len(data) > 0 {
		if f.lost.Load() {
			i := bytes.IndexByte(data, SyncByte)
			if i < 0 {
				data = data[len(data):]
				break
			}
			data = data[i+1:]
			f.lost.Store(false)
			if resync != nil {
				resync()
			}
			continue
		}
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		fr, n, res := scan(data)
		if res == scanShort {
			break
		}
		if res == scanCorrupt {
			f.lost.Store(true)
			continue
		}
		data = data[n:]
		emit(fr)
	}
	return total - len(data)
}

func (f *framer) reset() {
	f.lost.Store(false)
}
