package core

import (
	"testing"

	"busport/protocol"
)

func setupTimedOutPorts(t *testing.T) *commandEnv {
	t.Helper()
	env := setupOutPortCommands(t)
	InitTimedOutPortCommands()
	ResetTimers()
	SetTime(0)
	t.Cleanup(func() {
		ResetTimers()
		SetTime(0)
	})
	return env
}

func queueOutPort(t *testing.T, oid, clock, value uint32) error {
	t.Helper()
	return dispatchByName(t, "queue_out_port", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, oid)
		protocol.EncodeVLQUint(output, clock)
		protocol.EncodeVLQUint(output, value)
	})
}

func TestQueueOutPort(t *testing.T) {
	env := setupTimedOutPorts(t)

	if err := configOutPort(t, 1, 'C', 8, 9, 10); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}

	if err := queueOutPort(t, 1, 1000, 0b101); err != nil {
		t.Fatalf("queue_out_port failed: %v", err)
	}
	if err := queueOutPort(t, 1, 2000, 0b010); err != nil {
		t.Fatalf("queue_out_port failed: %v", err)
	}

	TimerDispatch(999)
	if len(env.reg.Writes) != 0 {
		t.Fatalf("Write applied before its clock: %v", env.reg.Writes)
	}

	TimerDispatch(1000)
	if word, _ := env.reg.Last(); word != 0x02000500 || len(env.reg.Writes) != 1 {
		t.Errorf("After 1000: writes %08X", env.reg.Writes)
	}

	SetTime(2500)
	ProcessTimers()
	if word, _ := env.reg.Last(); word != 0x05000200 || len(env.reg.Writes) != 2 {
		t.Errorf("After 2500: writes %08X", env.reg.Writes)
	}
}

func TestQueueOutPortErrors(t *testing.T) {
	setupTimedOutPorts(t)

	if err := queueOutPort(t, 9, 100, 1); err != ErrUnknownOID {
		t.Errorf("Unknown oid: expected ErrUnknownOID, got %v", err)
	}

	if err := configOutPort(t, 1, 'C', 0, 1); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}
	if err := queueOutPort(t, 1, 500, 1); err != nil {
		t.Fatalf("queue_out_port failed: %v", err)
	}
	if err := queueOutPort(t, 1, 400, 2); err != ErrScheduleOrder {
		t.Errorf("Out of order: expected ErrScheduleOrder, got %v", err)
	}
	if err := queueOutPort(t, 0x101, 500, 2); err != ErrUnknownOID {
		t.Errorf("Oid 0x101: expected ErrUnknownOID, got %v", err)
	}

	for i := 1; i < QueueDepth; i++ {
		if err := queueOutPort(t, 1, uint32(500+i), 3); err != nil {
			t.Fatalf("queue_out_port %d failed: %v", i, err)
		}
	}
	if err := queueOutPort(t, 1, 600, 3); err != ErrQueueFull {
		t.Errorf("Full queue: expected ErrQueueFull, got %v", err)
	}
}

func TestFlushTimedPorts(t *testing.T) {
	env := setupTimedOutPorts(t)

	if err := configOutPort(t, 1, 'C', 0, 1); err != nil {
		t.Fatalf("config_out_port failed: %v", err)
	}
	if err := queueOutPort(t, 1, 100, 3); err != nil {
		t.Fatalf("queue_out_port failed: %v", err)
	}

	FlushTimedPorts()
	TimerDispatch(200)
	if len(env.reg.Writes) != 0 {
		t.Errorf("Flushed write still applied: %v", env.reg.Writes)
	}

	// The port itself survives the flush
	if _, ok := OutPortByOID(1); !ok {
		t.Error("Out port dropped by FlushTimedPorts")
	}
}

func TestGetClock(t *testing.T) {
	env := setupTimedOutPorts(t)
	SetTime(123456)

	if err := dispatchByName(t, "get_clock", nil); err != nil {
		t.Fatalf("get_clock failed: %v", err)
	}
	if len(env.responses) != 1 {
		t.Fatalf("Expected 1 response, got %d", len(env.responses))
	}

	data := env.responses[0]
	id, _ := protocol.DecodeVLQUint(&data)
	clock, _ := protocol.DecodeVLQUint(&data)

	resp, _ := GetGlobalRegistry().GetCommandByName("clock")
	if uint16(id) != resp.ID || clock != 123456 {
		t.Errorf("clock response = (%d, %d), expected (%d, 123456)", id, clock, resp.ID)
	}
}
