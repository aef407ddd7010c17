package core

import (
	"sync/atomic"

	"espgpio/protocol"
)

// Responder sends a message to the host. *protocol.Transport implements it.
type Responder interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer)) error
}

var globalTransport atomic.Pointer[Responder]

// SetGlobalTransport sets where SendResponse writes; nil discards responses
func SetGlobalTransport(r Responder) {
	if r == nil {
		globalTransport.Store(nil)
		return
	}
	globalTransport.Store(&r)
}

// SendResponse sends a registered response by name. Without a transport the
// response is dropped.
func SendResponse(name string, args func(output protocol.OutputBuffer)) error {
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok || !cmd.IsResponse() {
		// Every response is registered at start-up
		panic("response not registered: " + name)
	}
	r := globalTransport.Load()
	if r == nil {
		return nil
	}
	return (*r).SendCommand(cmd.ID, args)
}

// InitCoreCommands registers the bootstrap messages. The host decodes the
// dictionary download with a fixed table, so identify_response must get id 0
// and identify id 1: call this before registering anything else.
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)
}

// handleIdentify returns one chunk of the dictionary
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := GetGlobalDictionary().GetChunk(offset, uint8(count))
	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}
