package protocol

import (
	"errors"
	"sync"
	"sync/atomic"
)

var errHandlerPanic = errors.New("command handler panicked")

// CommandHandler runs one received command. It must consume its own
// arguments from args.
type CommandHandler func(cmdID uint16, args *[]byte) error

// Transport is the firmware side of the protocol: it validates incoming
// frames, dispatches their commands in order and acknowledges every frame.
type Transport struct {
	output  OutputBuffer
	handler CommandHandler
	framer  framer

	// nextSeq is the sequence expected from the host. Acks and responses
	// carry it too.
	nextSeq atomic.Uint32

	writeMu sync.Mutex
	scratch ScratchOutput

	onReset func()
	onError func(error)
}

// NewTransport creates a transport writing frames to output
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{output: output, handler: handler}
	t.nextSeq.Store(SeqDest)
	return t
}

// Receive consumes every complete frame available in input
func (t *Transport) Receive(input InputBuffer) {
	n := t.framer.split(input.Data(), t.sendAck, t.handleFrame)
	input.Pop(n)
}

func (t *Transport) handleFrame(f Frame) {
	expected := uint8(t.nextSeq.Load())
	if f.Seq == SeqDest && expected != SeqDest {
		// The host restarted its sequence
		t.nextSeq.Store(SeqDest)
		expected = SeqDest
		if t.onReset != nil {
			t.onReset()
		}
	}
	if f.Seq == expected {
		t.nextSeq.Store(uint32(NextSeq(f.Seq)))
		if err := t.dispatch(f.Payload); err != nil && t.onError != nil {
			t.onError(err)
		}
	}
	// A frame out of sequence is answered with the expected sequence (a nak)
	t.sendAck()
}

// dispatch runs the commands of one frame. A bad command id or a handler
// panic abandons the rest of that frame only; the frame already passed its
// CRC, so the stream stays in sync.
func (t *Transport) dispatch(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errHandlerPanic
		}
	}()
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) sendAck() {
	t.writeFrame(nil)
}

func (t *Transport) writeFrame(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	frame, err := AppendFrame(nil, uint8(t.nextSeq.Load()), payload)
	if err != nil {
		return err
	}
	t.output.Output(frame)
	return nil
}

// SendCommand frames one message (a response or an event) to the host
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	t.writeMu.Lock()
	t.scratch.Reset()
	EncodeVLQUint(&t.scratch, uint32(cmdID))
	if args != nil {
		args(&t.scratch)
	}
	frame, err := AppendFrame(nil, uint8(t.nextSeq.Load()), t.scratch.Result())
	if err == nil {
		t.output.Output(frame)
	}
	t.writeMu.Unlock()
	return err
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.framer.reset()
	t.nextSeq.Store(SeqDest)
	if t.onReset != nil {
		t.onReset()
	}
}

// NextSequence returns the sequence the transport expects next
func (t *Transport) NextSequence() uint8 {
	return uint8(t.nextSeq.Load())
}

// SetResetCallback sets a function run when the host restarts its sequence
func (t *Transport) SetResetCallback(fn func()) {
	t.onReset = fn
}

// SetErrorCallback sets a function receiving command handler errors
func (t *Transport) SetErrorCallback(fn func(error)) {
	t.onError = fn
}
