package core

import (
	"errors"
	"io"
	"sync"
	"time"

	"espgpio/protocol"
)

// Server runs the command protocol over a byte stream such as a UART
type Server struct {
	rw        io.ReadWriter
	in        *protocol.FifoBuffer
	transport *protocol.Transport
	readBuf   []byte

	outMu sync.Mutex
	out   protocol.ScratchOutput
	flush []byte

	// IdleDelay is slept when a read returns no data
	IdleDelay time.Duration
}

// NewServer wires a transport to rw and makes it the global responder
func NewServer(rw io.ReadWriter) *Server {
	s := &Server{
		rw:        rw,
		in:        protocol.NewFifoBuffer(512),
		readBuf:   make([]byte, 64),
		IdleDelay: time.Millisecond,
	}
	s.transport = protocol.NewTransport(serverOutput{s}, func(cmdID uint16, data *[]byte) error {
		return DispatchCommand(cmdID, data)
	})
	s.transport.SetErrorCallback(func(err error) {
		DebugPrintln("[serve] " + err.Error())
	})
	SetGlobalTransport(s.transport)
	return s
}

// Transport returns the protocol transport of the server
func (s *Server) Transport() *protocol.Transport {
	return s.transport
}

type serverOutput struct {
	s *Server
}

func (o serverOutput) Output(data []byte) {
	o.s.outMu.Lock()
	o.s.out.Output(data)
	o.s.outMu.Unlock()
}

// Poll reads once, handles every complete frame and flushes the replies. It
// reports whether any bytes arrived.
func (s *Server) Poll() (bool, error) {
	n, err := s.rw.Read(s.readBuf)
	data := s.readBuf[:n]
	for len(data) > 0 {
		w := s.in.Write(data)
		data = data[w:]
		before := s.in.Available()
		s.transport.Receive(s.in)
		if w == 0 && s.in.Available() == before {
			// Nothing fits and nothing parses
			s.in.Reset()
		}
	}
	if ferr := s.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return n > 0, err
}

// Flush writes queued frames to the stream
func (s *Server) Flush() error {
	s.outMu.Lock()
	s.flush = append(s.flush[:0], s.out.Result()...)
	s.out.Reset()
	s.outMu.Unlock()

	if len(s.flush) == 0 {
		return nil
	}
	_, err := s.rw.Write(s.flush)
	return err
}

// Serve polls until the stream ends. EOF ends it cleanly.
func (s *Server) Serve() error {
	for {
		busy, err := s.Poll()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !busy && s.IdleDelay > 0 {
			time.Sleep(s.IdleDelay)
		}
	}
}
