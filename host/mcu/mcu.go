package mcu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"espgpio/host/serial"
	"espgpio/protocol"
)

// Bootstrap message ids, fixed so the dictionary can be fetched before it is known
const (
	identifyResponseID uint16 = 0
	identifyID         uint16 = 1
)

// DefaultTimeout bounds the wait for a response after the ack
const DefaultTimeout = time.Second

// ErrNoDictionary is returned by named sends before RetrieveDictionary succeeded
var ErrNoDictionary = errors.New("dictionary not loaded")

// MCU is a connection to the espgpio firmware
type MCU struct {
	port      io.ReadWriteCloser
	transport *protocol.HostTransport
	log       logrus.FieldLogger
	timeout   time.Duration
	chunkSize uint8

	// mu serialises request/response exchanges
	mu             sync.Mutex
	dictionary     *Dictionary
	dictionaryData []byte
}

// Option configures an MCU
type Option func(*MCU)

// WithLogger sets the logger used by the client and its transport
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *MCU) {
		m.log = log
	}
}

// WithTimeout sets how long a request waits for its response
func WithTimeout(d time.Duration) Option {
	return func(m *MCU) {
		m.timeout = d
	}
}

// Dial opens the serial device and wraps it in a client
func Dial(cfg *serial.Config, opts ...Option) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	m := NewClient(port, opts...)
	// Drop the ROM boot banner
	if err := port.Flush(); err != nil {
		m.log.WithError(err).Warn("unable to flush serial port")
	}
	return m, nil
}

// NewClient runs the protocol over an already open stream
func NewClient(port io.ReadWriteCloser, opts ...Option) *MCU {
	m := &MCU{
		port:      port,
		log:       logrus.StandardLogger(),
		timeout:   DefaultTimeout,
		chunkSize: 40,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.transport = protocol.NewHostTransport(port, protocol.WithLogger(m.log))
	return m
}

// Close closes the transport and the port
func (m *MCU) Close() error {
	return m.transport.Close()
}

// RetrieveDictionary downloads and parses the firmware's data dictionary
func (m *MCU) RetrieveDictionary() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var buf bytes.Buffer
	for offset := uint32(0); ; {
		chunk, err := m.identify(offset)
		if err != nil {
			return fmt.Errorf("dictionary chunk at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < int(m.chunkSize) {
			break
		}
	}

	dict, err := ParseDictionary(buf.Bytes())
	if err != nil {
		return err
	}
	m.dictionary = dict
	m.dictionaryData = buf.Bytes()

	m.log.WithFields(logrus.Fields{
		"bytes":     buf.Len(),
		"version":   dict.Version,
		"commands":  len(dict.Commands),
		"responses": len(dict.Responses),
	}).Info("dictionary retrieved")
	return nil
}

func (m *MCU) identify(offset uint32) ([]byte, error) {
	payload, err := m.request(identifyID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQUint(out, uint32(m.chunkSize))
	}, identifyResponseID)
	if err != nil {
		return nil, err
	}

	got, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("identify_response offset: %w", err)
	}
	if got != offset {
		return nil, fmt.Errorf("identify_response for offset %d, asked for %d", got, offset)
	}
	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("identify_response data: %w", err)
	}
	return data, nil
}

// request sends one command and returns the arguments of the first response
// with id respID
func (m *MCU) request(cmdID uint16, args func(protocol.OutputBuffer), respID uint16) ([]byte, error) {
	m.transport.DrainResponses()
	if err := m.transport.SendCommand(cmdID, args); err != nil {
		return nil, err
	}
	return m.await(respID)
}

func (m *MCU) await(respID uint16) ([]byte, error) {
	deadline := time.Now().Add(m.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("response %d: %w", respID, protocol.ErrTimeout)
		}
		f, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		payload := f.Payload
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			m.log.WithError(err).Warn("undecodable response")
			continue
		}
		if uint16(id) != respID {
			m.log.WithField("id", id).Debug("skipping unrelated response")
			continue
		}
		return payload, nil
	}
}

// Dictionary returns the parsed dictionary, nil before RetrieveDictionary
func (m *MCU) Dictionary() *Dictionary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dictionary
}

// DictionaryRaw returns the dictionary as downloaded
func (m *MCU) DictionaryRaw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dictionaryData
}

func (m *MCU) encode(name string, args []uint32) (*Message, []byte, error) {
	if m.dictionary == nil {
		return nil, nil, ErrNoDictionary
	}
	msg, ok := m.dictionary.Command(name)
	if !ok {
		return nil, nil, fmt.Errorf("command %s: %w", name, ErrUnknownMessage)
	}
	out := protocol.NewScratchOutput()
	if err := msg.Encode(out, args); err != nil {
		return nil, nil, err
	}
	return msg, out.Result(), nil
}

// Send sends a command by name without waiting for a response
func (m *MCU) Send(name string, args ...uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, encoded, err := m.encode(name, args)
	if err != nil {
		return err
	}
	return m.transport.SendCommand(msg.ID, func(out protocol.OutputBuffer) {
		out.Output(encoded)
	})
}

// Call sends a command by name and decodes the response named respName
func (m *MCU) Call(name, respName string, args ...uint32) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, encoded, err := m.encode(name, args)
	if err != nil {
		return nil, err
	}
	resp, ok := m.dictionary.Lookup(respName)
	if !ok {
		return nil, fmt.Errorf("response %s: %w", respName, ErrUnknownMessage)
	}
	payload, err := m.request(msg.ID, func(out protocol.OutputBuffer) {
		out.Output(encoded)
	}, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return resp.Decode(payload)
}

// ReadResponse decodes the next response of any kind
func (m *MCU) ReadResponse(timeout time.Duration) (*Response, error) {
	f, err := m.transport.ReceiveResponse(timeout)
	if err != nil {
		return nil, err
	}
	payload := f.Payload
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, err
	}
	dict := m.Dictionary()
	if dict == nil {
		return nil, ErrNoDictionary
	}
	msg, ok := dict.Response(uint16(id))
	if !ok {
		return nil, fmt.Errorf("response id %d: %w", id, ErrUnknownMessage)
	}
	return msg.Decode(payload)
}
