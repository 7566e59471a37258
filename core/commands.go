package core

import (
	"busport/protocol"
)

// Global transport for sending responses (set by main)
var globalTransport *protocol.Transport

// SetTransport registers the transport responses are sent on
func SetTransport(t *protocol.Transport) {
	globalTransport = t
}

// InitCoreCommands registers the bootstrap messages. They must be registered
// before anything else so the host can identify without a dictionary:
//
//	identify_response = ID 0
//	identify = ID 1
func InitCoreCommands() {
	RegisterResponse("identify_response", "offset=%u data=%*s")
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("dump_writes", "", handleDumpWrites)
}

// handleIdentify returns chunks of the data dictionary
// Format: identify offset=%u count=%c
func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	chunk := DictionaryChunk(offset, uint8(count))

	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}

// handleDumpWrites prints the write ring on the debug writer
func handleDumpWrites(data *[]byte) error {
	DumpWriteRing()
	return nil
}

// DictionaryChunk returns up to count bytes of the dictionary text starting
// at offset. An empty chunk marks the end.
func DictionaryChunk(offset uint32, count uint8) []byte {
	dict := DictionaryText()
	if offset >= uint32(len(dict)) {
		return nil
	}
	end := offset + uint32(count)
	if end > uint32(len(dict)) {
		end = uint32(len(dict))
	}
	return []byte(dict[offset:end])
}

// SendResponse sends a registered response message to the host.
// It is a no-op until a transport is set.
func SendResponse(responseName string, args func(output protocol.OutputBuffer)) error {
	if globalTransport == nil {
		return nil
	}

	cmd, ok := globalRegistry.GetCommandByName(responseName)
	if !ok {
		// All responses should be pre-registered
		panic("Response not registered: " + responseName)
	}

	return globalTransport.SendCommand(cmd.ID, args)
}
