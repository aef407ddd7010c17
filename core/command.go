package core

import (
	"errors"
	"sort"
	"sync"
)

// CommandHandler decodes its arguments from data and runs the command
type CommandHandler func(data *[]byte) error

// Command is one entry of the message table. Entries without a handler are
// responses: the firmware sends them, the host never does.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument list, e.g. "pin=%c value=%c"
	Handler CommandHandler
}

// IsResponse reports whether the entry flows firmware to host
func (c *Command) IsResponse() bool {
	return c.Handler == nil
}

// Message returns the dictionary form "name arg=%x ..."
func (c *Command) Message() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// ErrUnknownCommand is returned when a frame names an id nobody registered
var ErrUnknownCommand = errors.New("unknown command")

// CommandRegistry assigns message ids in registration order
type CommandRegistry struct {
	mu     sync.RWMutex
	byID   []*Command
	byName map[string]*Command
}

var globalRegistry = NewCommandRegistry()

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]*Command)}
}

// Register adds a message and returns its id. Registering a name twice
// returns the first id and keeps the first handler.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd, ok := r.byName[name]; ok {
		return cmd.ID
	}
	cmd := &Command{ID: uint16(len(r.byID)), Name: name, Format: format, Handler: handler}
	r.byID = append(r.byID, cmd)
	r.byName[name] = cmd
	return cmd.ID
}

// GetCommand looks a message up by id
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// GetCommandByName looks a message up by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Dispatch runs the handler of cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.IsResponse() {
		return &opError{op: "dispatch", msg: "id " + utoa(uint32(cmdID)), err: ErrUnknownCommand}
	}
	return cmd.Handler(data)
}

// Messages splits the table into commands and responses, ordered by id
func (r *CommandRegistry) Messages() (commands, responses []Command) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cmd := range r.byID {
		if cmd.IsResponse() {
			responses = append(responses, *cmd)
		} else {
			commands = append(commands, *cmd)
		}
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].ID < commands[j].ID })
	sort.Slice(responses, func(i, j int) bool { return responses[i].ID < responses[j].ID })
	return commands, responses
}

// RegisterCommand adds a host to firmware command to the global table
func RegisterCommand(name, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// RegisterResponse adds a firmware to host message to the global table
func RegisterResponse(name, format string) uint16 {
	return globalRegistry.Register(name, format, nil)
}

// DispatchCommand runs a command from the global table
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}
