//go:build !tinygo

package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTimeout is returned when an ack or response does not arrive in time
	ErrTimeout = errors.New("timeout")

	// ErrClosed is returned by a transport after Close
	ErrClosed = errors.New("transport closed")

	// ErrNak is returned when the firmware acknowledges with an unexpected sequence
	ErrNak = errors.New("frame not accepted")
)

// DefaultAckTimeout bounds the wait for the acknowledgement of a command
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler receives every response frame's command id and arguments
// on the reader goroutine
type ResponseHandler func(cmdID uint16, args *[]byte)

// HostTransport is the host side of the protocol. It sends one command frame
// at a time, waits for its ack and queues responses for the caller.
type HostTransport struct {
	port io.ReadWriteCloser
	log  logrus.FieldLogger

	seq    atomic.Uint32
	framer framer

	acks      chan Frame
	responses chan Frame
	handler   atomic.Pointer[ResponseHandler]

	writeMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// HostOption configures a HostTransport
type HostOption func(*HostTransport)

// WithLogger sets the logger used for stream diagnostics
func WithLogger(log logrus.FieldLogger) HostOption {
	return func(t *HostTransport) {
		t.log = log
	}
}

// NewHostTransport starts reading from port
func NewHostTransport(port io.ReadWriteCloser, opts ...HostOption) *HostTransport {
	t := &HostTransport{
		port:      port,
		log:       logrus.StandardLogger(),
		acks:      make(chan Frame, 4),
		responses: make(chan Frame, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.seq.Store(SeqDest)
	go t.readLoop()
	return t
}

// SendCommand sends one command and waits for its ack
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandTimeout sends one command and waits up to timeout for its ack
func (t *HostTransport) SendCommandTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmdID))
	if args != nil {
		args(payload)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	seq := uint8(t.seq.Load())
	frame, err := AppendFrame(nil, seq, payload.Result())
	if err != nil {
		return fmt.Errorf("command %d: %w", cmdID, err)
	}

	// Drop acks left over from a resync
	for len(t.acks) > 0 {
		<-t.acks
	}
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}
	return t.waitAck(seq, timeout)
}

func (t *HostTransport) waitAck(seq uint8, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-t.acks:
			switch ack.Seq {
			case NextSeq(seq):
				t.seq.Store(uint32(ack.Seq))
				return nil
			case seq:
				// Sent when the firmware resynchronised ahead of our frame
				continue
			default:
				// Adopt the firmware's sequence so a retry is accepted
				t.seq.Store(uint32(ack.Seq))
				return fmt.Errorf("sent seq %#02x, firmware expects %#02x: %w", seq, ack.Seq, ErrNak)
			}
		case <-timer.C:
			return fmt.Errorf("ack for seq %#02x after %v: %w", seq, timeout, ErrTimeout)
		case <-t.stop:
			return ErrClosed
		}
	}
}

// ReceiveResponse returns the oldest queued response frame
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-t.responses:
		return f, nil
	case <-timer.C:
		return Frame{}, fmt.Errorf("response after %v: %w", timeout, ErrTimeout)
	case <-t.stop:
		return Frame{}, ErrClosed
	}
}

// DrainResponses discards queued responses
func (t *HostTransport) DrainResponses() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

// SetResponseHandler installs a callback seeing every response as it arrives
func (t *HostTransport) SetResponseHandler(h ResponseHandler) {
	if h == nil {
		t.handler.Store(nil)
		return
	}
	t.handler.Store(&h)
}

// Sequence returns the sequence of the next command frame
func (t *HostTransport) Sequence() uint8 {
	return uint8(t.seq.Load())
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	var pending []byte
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			used := t.framer.split(pending, t.onResync, t.route)
			pending = append(pending[:0], pending[used:]...)
		}
		if err != nil {
			select {
			case <-t.stop:
				return
			default:
			}
			switch {
			case errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed):
				t.log.WithError(err).Debug("serial stream closed")
				return
			case errors.Is(err, io.EOF):
				// tarm/serial reports a read timeout as EOF
			default:
				t.log.WithError(err).Warn("serial read failed")
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) onResync() {
	t.log.Debug("resynchronised on sync byte")
}

func (t *HostTransport) route(f Frame) {
	if f.IsAck() {
		select {
		case t.acks <- f:
		default:
		}
		return
	}

	// f.Payload aliases the read buffer
	payload := make([]byte, len(f.Payload))
	copy(payload, f.Payload)
	f.Payload = payload

	if h := t.handler.Load(); h != nil {
		args := payload
		if id, err := DecodeVLQUint(&args); err == nil {
			(*h)(uint16(id), &args)
		}
	}

	select {
	case t.responses <- f:
	default:
		// Queue full: drop the oldest
		select {
		case <-t.responses:
		default:
		}
		select {
		case t.responses <- f:
		default:
		}
	}
}

// Close closes the port and waits for the reader to exit
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}
