// Parallel output port commands
// Lets the host group pins of one port into a bus and write it atomically
package core

import (
	"busport/protocol"
)

// Global registry of configured out ports, by oid
var outPorts = make(map[uint8]*Bus)

// InitOutPortCommands registers out port commands with the command registry
func InitOutPortCommands() {
	// Claim pins of a port and bind them, in order, as bits 0..n-1
	RegisterCommand("config_out_port", "oid=%c port=%c pins=%*s", handleConfigOutPort)

	// Drive all pins of a configured port in one register store
	RegisterCommand("write_out_port", "oid=%c value=%c", handleWriteOutPort)

	// Report the last written value and its encoding
	RegisterCommand("query_out_port", "oid=%c", handleQueryOutPort)
	RegisterResponse("out_port_state", "oid=%c value=%c word=%u written=%c")
}

// handleConfigOutPort configures an out port
// Format: config_out_port oid=%c port=%c pins=%*s
func handleConfigOutPort(data *[]byte) error {
	oid, err := decodeOID(data)
	if err != nil {
		return err
	}

	port, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if port > 0xFF {
		return ErrUnknownPort
	}

	pinBytes, err := protocol.DecodeVLQBytes(data)
	if err != nil {
		return err
	}

	if _, exists := outPorts[oid]; exists {
		return ErrOIDInUse
	}
	if len(pinBytes) < MinWidth || len(pinBytes) > MaxWidth {
		return ErrWidth
	}

	g, ok := GPIOPort(PortID(port))
	if !ok {
		return ErrUnknownPort
	}

	bus, err := ConfigureBus(g, pinBytes)
	if err != nil {
		return err
	}

	outPorts[oid] = bus
	return nil
}

// decodeOID reads an oid argument; oids are one byte on the wire
func decodeOID(data *[]byte) (uint8, error) {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return 0, err
	}
	if oid > 0xFF {
		return 0, ErrUnknownOID
	}
	return uint8(oid), nil
}

// ConfigureBus claims the given pins of g, configures them as push-pull
// outputs and binds them into a Bus. On failure every pin claimed here is
// released again.
func ConfigureBus(g *GPIO, pinNums []uint8) (*Bus, error) {
	var pins [MaxWidth]OutputPin
	n := 0

	release := func() {
		for i := 0; i < n; i++ {
			_ = pins[i].Release()
		}
	}

	for _, num := range pinNums {
		if n == MaxWidth {
			release()
			return nil, ErrWidth
		}
		pin, err := g.Pin(PinNumber(num))
		if err != nil {
			release()
			if err == ErrPinInUse && containsPin(pinNums[:n], num) {
				return nil, ErrDuplicatePin
			}
			return nil, err
		}
		out, err := pin.IntoPushPullOutput()
		if err != nil {
			_ = pin.Release()
			release()
			return nil, err
		}
		pins[n] = out
		n++
	}

	bus, err := NewBus(pins[:n])
	if err != nil {
		release()
		return nil, err
	}
	return bus, nil
}

func containsPin(pins []uint8, num uint8) bool {
	for _, p := range pins {
		if p == num {
			return true
		}
	}
	return false
}

// handleWriteOutPort writes a value to an out port
// Format: write_out_port oid=%c value=%c
func handleWriteOutPort(data *[]byte) error {
	oid, err := decodeOID(data)
	if err != nil {
		return err
	}

	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	bus, exists := outPorts[oid]
	if !exists {
		return ErrUnknownOID
	}

	bus.Write(uint8(value))
	return nil
}

// handleQueryOutPort reports the state of an out port.
// written=0 means the port has not been written since it was configured.
// Format: query_out_port oid=%c
func handleQueryOutPort(data *[]byte) error {
	oid, err := decodeOID(data)
	if err != nil {
		return err
	}

	bus, exists := outPorts[oid]
	if !exists {
		return ErrUnknownOID
	}

	value, written := bus.Last()
	word := bus.Encode(value)

	return SendResponse("out_port_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, uint32(value))
		protocol.EncodeVLQUint(output, word)
		protocol.EncodeVLQUint(output, boolToUint(written))
	})
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// OutPortByOID returns the bus configured under oid
func OutPortByOID(oid uint8) (*Bus, bool) {
	bus, ok := outPorts[oid]
	return bus, ok
}

// ResetOutPorts forgets all configured out ports and their write queues
// (for testing). Pins bound into them stay claimed.
func ResetOutPorts() {
	FlushTimedPorts()
	outPorts = make(map[uint8]*Bus)
}
