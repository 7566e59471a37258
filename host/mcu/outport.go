package mcu

import (
	"fmt"

	"busport/protocol"
)

// OutPortState is the reply to query_out_port
type OutPortState struct {
	OID     uint8
	Value   uint8
	Word    uint32 // Set/reset register word for Value
	Written bool   // False until the port is first written
}

// ConfigOutPort binds pins of port, in order, into out port oid
func (m *MCU) ConfigOutPort(oid uint8, port byte, pins []uint8) error {
	if len(pins) > protocol.MessagePayloadMax {
		return fmt.Errorf("too many pins: %d", len(pins))
	}
	return m.SendCommand("config_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, uint32(port))
		protocol.EncodeVLQBytes(output, pins)
	})
}

// WriteOutPort drives out port oid to value
func (m *MCU) WriteOutPort(oid uint8, value uint8) error {
	return m.SendCommand("write_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, uint32(value))
	})
}

// QueryOutPort asks for the last value written to out port oid
func (m *MCU) QueryOutPort(oid uint8) (OutPortState, error) {
	err := m.SendCommand("query_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
	})
	if err != nil {
		return OutPortState{}, err
	}

	data, err := m.ReceiveResponse("out_port_state")
	if err != nil {
		return OutPortState{}, err
	}

	var fields [4]uint32
	for i := range fields {
		if fields[i], err = protocol.DecodeVLQUint(&data); err != nil {
			return OutPortState{}, fmt.Errorf("failed to decode out_port_state: %w", err)
		}
	}

	return OutPortState{
		OID:     uint8(fields[0]),
		Value:   uint8(fields[1]),
		Word:    fields[2],
		Written: fields[3] != 0,
	}, nil
}

// GetClock reads the MCU system time in clock ticks
func (m *MCU) GetClock() (uint32, error) {
	if err := m.SendCommand("get_clock", nil); err != nil {
		return 0, err
	}

	data, err := m.ReceiveResponse("clock")
	if err != nil {
		return 0, err
	}

	clock, err := protocol.DecodeVLQUint(&data)
	if err != nil {
		return 0, fmt.Errorf("failed to decode clock: %w", err)
	}
	return clock, nil
}

// QueueOutPort schedules value to be written to out port oid at clock
func (m *MCU) QueueOutPort(oid uint8, clock uint32, value uint8) error {
	return m.SendCommand("queue_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(oid))
		protocol.EncodeVLQUint(output, clock)
		protocol.EncodeVLQUint(output, uint32(value))
	})
}
