package core

import (
	"testing"

	"busport/protocol"
)

type commandEnv struct {
	gpio      *GPIO
	reg       *SimRegister
	responses [][]byte
}

func setupOutPortCommands(t *testing.T) *commandEnv {
	t.Helper()
	ResetGPIOPorts()
	ResetOutPorts()
	InitCoreCommands()
	InitOutPortCommands()

	env := &commandEnv{}
	env.gpio, env.reg = newTestGPIO(t, 'C')
	SetGPIOPort(env.gpio)

	tr := protocol.NewTransport(func(b []byte) {
		_, payload, _, err := protocol.DecodeFrame(b)
		if err == nil && len(payload) > 0 {
			env.responses = append(env.responses, append([]byte(nil), payload...))
		}
	}, DispatchCommand)
	SetTransport(tr)

	t.Cleanup(func() {
		SetTransport(nil)
		ResetGPIOPorts()
		ResetOutPorts()
	})
	return env
}

func dispatchByName(t *testing.T, name string, args func(output protocol.OutputBuffer)) error {
	t.Helper()
	cmd, ok := GetGlobalRegistry().GetCommandByName(name)
	if !ok {
		t.Fatalf("Command %s not registered", name)
	}
	output := protocol.NewScratchOutput()
	if args != nil {
		args(output)
	}
	data := output.Result()
	return GetGlobalRegistry().Dispatch(cmd.ID, &data)
}

func configOutPort(t *testing.T, oid uint32, port PortID, pins ...uint8) error {
	t.Helper()
	return dispatchByName(t, "config_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
		protocol.EncodeVLQUint(output, uint32(port))
		protocol.EncodeVLQBytes(output, pins)
	})
}

func writeOutPort(t *testing.T, oid, value uint32) error {
	t.Helper()
	return dispatchByName(t, "write_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
		protocol.EncodeVLQUint(output, value)
	})
}

func TestConfigAndWriteOutPort(t *testing.T) {
	env := setupOutPortCommands(t)

	if err := configOutPort(t, 1, 'C', 8, 9, 10); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}
	for _, n := range []PinNumber{8, 9, 10} {
		if !env.reg.IsOutput(n) {
			t.Errorf("Pin %d not configured as output", n)
		}
	}

	if err := writeOutPort(t, 1, 0b101); err != nil {
		t.Fatalf("write_out_port failed: %v", err)
	}
	if word, _ := env.reg.Last(); word != 0x02000500 {
		t.Errorf("Stored 0x%08X, expected 0x02000500", word)
	}

	bus, ok := OutPortByOID(1)
	if !ok || bus.Width() != 3 {
		t.Errorf("OutPortByOID(1) = (%v, %v)", bus, ok)
	}
}

func TestConfigOutPortErrors(t *testing.T) {
	env := setupOutPortCommands(t)
	env.reg.Absent = 1 << 15

	if err := configOutPort(t, 1, 'C', 0, 1); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}

	testCases := []struct {
		name string
		oid  uint32
		port PortID
		pins []uint8
		err  error
	}{
		{"oid in use", 1, 'C', []uint8{2, 3}, ErrOIDInUse},
		{"unknown port", 2, 'D', []uint8{2, 3}, ErrUnknownPort},
		{"duplicate pin", 3, 'C', []uint8{4, 5, 4}, ErrDuplicatePin},
		{"pin bound elsewhere", 4, 'C', []uint8{6, 1}, ErrPinInUse},
		{"invalid pin", 5, 'C', []uint8{7, 16}, ErrInvalidPin},
		{"pin not bonded out", 8, 'C', []uint8{7, 15}, ErrInvalidPin},
		{"too narrow", 6, 'C', []uint8{7}, ErrWidth},
		{"too wide", 7, 'C', []uint8{2, 3, 4, 5, 6, 7, 8, 9, 10}, ErrWidth},
	}

	for _, tc := range testCases {
		if err := configOutPort(t, tc.oid, tc.port, tc.pins...); err != tc.err {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}

	// Failed configurations release every pin they claimed
	for n := PinNumber(2); n < PinsPerPort; n++ {
		if env.gpio.Claimed(n) {
			t.Errorf("Pin %d left claimed after failed configuration", n)
		}
	}
}

func TestWriteOutPortUnknownOID(t *testing.T) {
	setupOutPortCommands(t)

	if err := writeOutPort(t, 42, 1); err != ErrUnknownOID {
		t.Errorf("Expected ErrUnknownOID, got %v", err)
	}
}

func queryOutPort(t *testing.T, env *commandEnv, oid uint32) [5]uint32 {
	t.Helper()
	env.responses = nil
	err := dispatchByName(t, "query_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
	})
	if err != nil {
		t.Fatalf("query_out_port failed: %v", err)
	}
	if len(env.responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(env.responses))
	}

	data := env.responses[0]
	var got [5]uint32
	for i := range got {
		v, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			t.Fatalf("Decoding response field %d: %v", i, err)
		}
		got[i] = v
	}
	return got
}

func TestQueryOutPort(t *testing.T) {
	env := setupOutPortCommands(t)

	if err := configOutPort(t, 3, 'C', 0, 1); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}
	state, _ := GetGlobalRegistry().GetCommandByName("out_port_state")

	// Never written: value 0 with written=0
	got := queryOutPort(t, env, 3)
	expected := [5]uint32{uint32(state.ID), 3, 0, 0x00030000, 0}
	if got != expected {
		t.Errorf("out_port_state before write = %v, expected %v", got, expected)
	}

	if err := writeOutPort(t, 3, 0b10); err != nil {
		t.Fatalf("write_out_port failed: %v", err)
	}
	got = queryOutPort(t, env, 3)
	expected = [5]uint32{uint32(state.ID), 3, 0b10, 0x00010002, 1}
	if got != expected {
		t.Errorf("out_port_state = %v, expected %v", got, expected)
	}

	// A real write of 0 is reported as written
	if err := writeOutPort(t, 3, 0); err != nil {
		t.Fatalf("write_out_port failed: %v", err)
	}
	got = queryOutPort(t, env, 3)
	expected = [5]uint32{uint32(state.ID), 3, 0, 0x00030000, 1}
	if got != expected {
		t.Errorf("out_port_state after writing 0 = %v, expected %v", got, expected)
	}
}

func TestOutPortArgumentRange(t *testing.T) {
	env := setupOutPortCommands(t)

	// 0x141 must not alias port 'A' (0x41) or 'C'
	err := dispatchByName(t, "config_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, 1)
		protocol.EncodeVLQUint(output, 0x100+uint32('C'))
		protocol.EncodeVLQBytes(output, []byte{0, 1})
	})
	if err != ErrUnknownPort {
		t.Errorf("Port 0x143: expected ErrUnknownPort, got %v", err)
	}

	err = configOutPort(t, 0x101, 'C', 0, 1)
	if err != ErrUnknownOID {
		t.Errorf("Config oid 0x101: expected ErrUnknownOID, got %v", err)
	}
	if env.gpio.Claimed(0) || env.gpio.Claimed(1) {
		t.Error("Rejected configuration claimed pins")
	}

	if err := configOutPort(t, 1, 'C', 0, 1); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}
	// 0x101 must not alias oid 1
	if err := writeOutPort(t, 0x101, 1); err != ErrUnknownOID {
		t.Errorf("Write oid 0x101: expected ErrUnknownOID, got %v", err)
	}
	if len(env.reg.Writes) != 0 {
		t.Errorf("Register saw %d stores, expected none", len(env.reg.Writes))
	}
}

func TestConfigOutPortBadPinsLength(t *testing.T) {
	env := setupOutPortCommands(t)

	// Pins length prefix 0x7F decodes to 0xFFFFFFFF
	cmd, _ := GetGlobalRegistry().GetCommandByName("config_out_port")
	data := []byte{0x01, 0x43, 0x7F, 0x00, 0x01}
	if err := GetGlobalRegistry().Dispatch(cmd.ID, &data); err != protocol.ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
	if _, ok := OutPortByOID(1); ok {
		t.Error("Out port configured from a truncated command")
	}
	if env.gpio.Claimed(0) || env.gpio.Claimed(1) {
		t.Error("Truncated command claimed pins")
	}
}

func TestIdentifyChunks(t *testing.T) {
	env := setupOutPortCommands(t)

	dict := DictionaryText()
	var rebuilt []byte

	for offset := uint32(0); ; {
		env.responses = nil
		err := dispatchByName(t, "identify", func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, offset)
			protocol.EncodeVLQUint(output, 40)
		})
		if err != nil {
			t.Fatalf("identify failed: %v", err)
		}
		if len(env.responses) != 1 {
			t.Fatalf("Expected 1 identify_response, got %d", len(env.responses))
		}

		data := env.responses[0]
		id, _ := protocol.DecodeVLQUint(&data)
		if id != 0 {
			t.Fatalf("identify_response has ID %d, expected 0", id)
		}
		gotOffset, _ := protocol.DecodeVLQUint(&data)
		if gotOffset != offset {
			t.Fatalf("identify_response offset %d, expected %d", gotOffset, offset)
		}
		chunk, err := protocol.DecodeVLQBytes(&data)
		if err != nil {
			t.Fatalf("Decoding chunk: %v", err)
		}
		if len(chunk) == 0 {
			break
		}
		rebuilt = append(rebuilt, chunk...)
		offset += uint32(len(chunk))
	}

	if string(rebuilt) != dict {
		t.Errorf("Rebuilt dictionary mismatch:\n%s\nexpected:\n%s", rebuilt, dict)
	}
}

func TestDictionaryChunkBounds(t *testing.T) {
	InitCoreCommands()
	dict := DictionaryText()

	if chunk := DictionaryChunk(uint32(len(dict)), 10); len(chunk) != 0 {
		t.Errorf("Chunk past the end has %d bytes", len(chunk))
	}
	if chunk := DictionaryChunk(uint32(len(dict))-3, 10); len(chunk) != 3 {
		t.Errorf("Tail chunk has %d bytes, expected 3", len(chunk))
	}
}
