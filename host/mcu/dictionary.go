package mcu

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"espgpio/core"
	"espgpio/protocol"
)

// ErrUnknownMessage is returned for a name or id the dictionary lacks
var ErrUnknownMessage = errors.New("message not in dictionary")

// ParamKind is the wire type of one message parameter
type ParamKind uint8

const (
	KindUint   ParamKind = iota // %u %hu %c
	KindInt                     // %i %hi
	KindBuffer                  // %*s %.*s %s
)

// Param is one "name=%x" field of a message format
type Param struct {
	Name string
	Kind ParamKind
}

// Message is a command or response decoded from its format string
type Message struct {
	ID     uint16
	Name   string
	Params []Param
}

// Dictionary is the firmware's data dictionary
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]string         `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]int `json:"enumerations,omitempty"`

	commands  map[string]*Message
	responses map[uint16]*Message
	byName    map[string]*Message
}

// ParseDictionary decodes the JSON dictionary the firmware serves
func ParseDictionary(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("unable to decode dictionary: %w", err)
	}

	d.commands = make(map[string]*Message, len(d.Commands))
	d.responses = make(map[uint16]*Message, len(d.Responses))
	d.byName = make(map[string]*Message, len(d.Commands)+len(d.Responses))
	for format, id := range d.Commands {
		msg, err := parseMessage(format, id)
		if err != nil {
			return nil, err
		}
		d.commands[msg.Name] = msg
		d.byName[msg.Name] = msg
	}
	for format, id := range d.Responses {
		msg, err := parseMessage(format, id)
		if err != nil {
			return nil, err
		}
		d.responses[msg.ID] = msg
		d.byName[msg.Name] = msg
	}
	return d, nil
}

// parseMessage splits "name a=%u b=%*s" into its parameters
func parseMessage(format string, id int) (*Message, error) {
	if id < 0 || id > 0xFFFF {
		return nil, fmt.Errorf("message %q: id %d out of range", format, id)
	}
	fields := strings.Fields(format)
	if len(fields) == 0 {
		return nil, fmt.Errorf("message id %d: empty format", id)
	}
	msg := &Message{ID: uint16(id), Name: fields[0]}
	for _, f := range fields[1:] {
		name, spec, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("message %s: malformed parameter %q", msg.Name, f)
		}
		var kind ParamKind
		switch spec {
		case "%u", "%hu", "%c":
			kind = KindUint
		case "%i", "%hi":
			kind = KindInt
		case "%*s", "%.*s", "%s":
			kind = KindBuffer
		default:
			return nil, fmt.Errorf("message %s: unsupported type %q", msg.Name, spec)
		}
		msg.Params = append(msg.Params, Param{Name: name, Kind: kind})
	}
	return msg, nil
}

// Command looks up a command by name
func (d *Dictionary) Command(name string) (*Message, bool) {
	m, ok := d.commands[name]
	return m, ok
}

// Response looks up a response by id
func (d *Dictionary) Response(id uint16) (*Message, bool) {
	m, ok := d.responses[id]
	return m, ok
}

// Lookup finds a command or response by name
func (d *Dictionary) Lookup(name string) (*Message, bool) {
	m, ok := d.byName[name]
	return m, ok
}

// CommandNames returns the command names in id order
func (d *Dictionary) CommandNames() []string {
	msgs := make([]*Message, 0, len(d.commands))
	for _, m := range d.commands {
		msgs = append(msgs, m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	names := make([]string, len(msgs))
	for i, m := range msgs {
		names[i] = m.Name
	}
	return names
}

// Pin resolves a pin enumeration name such as "gpio5"
func (d *Dictionary) Pin(name string) (core.Pin, bool) {
	v, ok := d.Enumerations["pin"][name]
	if !ok {
		return 0, false
	}
	return core.Pin(v), true
}

// Encode writes args for msg after its id. Buffers are not accepted.
func (m *Message) Encode(out protocol.OutputBuffer, args []uint32) error {
	if len(args) != len(m.Params) {
		return fmt.Errorf("%s takes %d arguments, got %d", m.Name, len(m.Params), len(args))
	}
	for i, p := range m.Params {
		switch p.Kind {
		case KindUint:
			protocol.EncodeVLQUint(out, args[i])
		case KindInt:
			protocol.EncodeVLQInt(out, int32(args[i]))
		default:
			return fmt.Errorf("%s: buffer parameter %s cannot be sent as an integer", m.Name, p.Name)
		}
	}
	return nil
}

// Response is a decoded response message
type Response struct {
	Name    string
	Args    map[string]uint32
	Buffers map[string][]byte

	params []Param
}

// Decode reads the parameters of msg from payload, which starts after the id
func (m *Message) Decode(payload []byte) (*Response, error) {
	r := &Response{Name: m.Name, Args: make(map[string]uint32, len(m.Params)), params: m.Params}
	for _, p := range m.Params {
		switch p.Kind {
		case KindUint:
			v, err := protocol.DecodeVLQUint(&payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.Name, p.Name, err)
			}
			r.Args[p.Name] = v
		case KindInt:
			v, err := protocol.DecodeVLQInt(&payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.Name, p.Name, err)
			}
			r.Args[p.Name] = uint32(v)
		case KindBuffer:
			b, err := protocol.DecodeVLQBytes(&payload)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.Name, p.Name, err)
			}
			if r.Buffers == nil {
				r.Buffers = make(map[string][]byte)
			}
			r.Buffers[p.Name] = append([]byte(nil), b...)
		}
	}
	return r, nil
}

// String formats the response in parameter order
func (r *Response) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	for _, p := range r.params {
		if p.Kind == KindBuffer {
			fmt.Fprintf(&b, " %s=%q", p.Name, r.Buffers[p.Name])
		} else {
			fmt.Fprintf(&b, " %s=%d", p.Name, r.Args[p.Name])
		}
	}
	return b.String()
}
