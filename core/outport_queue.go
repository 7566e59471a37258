package core

import (
	"errors"

	"busport/protocol"
)

// QueueDepth is the number of pending timed writes per out port
const QueueDepth = 8

var (
	ErrQueueFull     = errors.New("out port write queue full")
	ErrScheduleOrder = errors.New("timed write scheduled before a queued one")
)

type queuedWrite struct {
	clock uint32
	value uint8
}

// TimedPort applies writes to a bus at given clock times. Writes must be
// queued in clock order; each one is still a single register store.
type TimedPort struct {
	bus   *Bus
	timer Timer
	queue [QueueDepth]queuedWrite
	head  uint8
	count uint8
}

// NewTimedPort wraps bus with a write queue
func NewTimedPort(bus *Bus) *TimedPort {
	tp := &TimedPort{bus: bus}
	tp.timer.Handler = tp.fire
	return tp
}

// Queue schedules value to be written at clock
func (tp *TimedPort) Queue(clock uint32, value uint8) error {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if tp.count == QueueDepth {
		return ErrQueueFull
	}
	if tp.count > 0 {
		last := tp.queue[(tp.head+tp.count-1)%QueueDepth]
		if timeBefore(clock, last.clock) {
			return ErrScheduleOrder
		}
	}

	tp.queue[(tp.head+tp.count)%QueueDepth] = queuedWrite{clock: clock, value: value}
	tp.count++
	if tp.count == 1 {
		tp.timer.WakeTime = clock
		insertTimer(&tp.timer)
	}
	return nil
}

// Pending returns the number of queued writes
func (tp *TimedPort) Pending() int {
	return int(tp.count)
}

// Flush drops every queued write
func (tp *TimedPort) Flush() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if tp.timer.queued {
		removeTimer(&tp.timer)
	}
	tp.head = 0
	tp.count = 0
}

// fire runs from TimerDispatch with interrupts already masked
func (tp *TimedPort) fire(t *Timer) uint8 {
	w := tp.queue[tp.head]
	tp.head = (tp.head + 1) % QueueDepth
	tp.count--

	tp.bus.Write(w.value)

	if tp.count == 0 {
		return SF_DONE
	}
	t.WakeTime = tp.queue[tp.head].clock
	return SF_RESCHEDULE
}

// Timed ports created on first queue_out_port, by oid
var timedPorts = make(map[uint8]*TimedPort)

// InitTimedOutPortCommands registers the clock and timed write commands
func InitTimedOutPortCommands() {
	// Schedule a write of a configured port at an MCU clock time
	RegisterCommand("queue_out_port", "oid=%c clock=%u value=%c", handleQueueOutPort)

	RegisterCommand("get_clock", "", handleGetClock)
	RegisterResponse("clock", "clock=%u")

	RegisterConstantUint("CLOCK_FREQ", ClockFreq())
}

// handleQueueOutPort queues a timed write
// Format: queue_out_port oid=%c clock=%u value=%c
func handleQueueOutPort(data *[]byte) error {
	oid, err := decodeOID(data)
	if err != nil {
		return err
	}

	clock, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	tp, ok := timedPorts[oid]
	if !ok {
		bus, exists := outPorts[oid]
		if !exists {
			return ErrUnknownOID
		}
		tp = NewTimedPort(bus)
		timedPorts[oid] = tp
	}

	return tp.Queue(clock, uint8(value))
}

// handleGetClock reports the current system time
func handleGetClock(data *[]byte) error {
	now := GetTime()
	return SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, now)
	})
}

// FlushTimedPorts drops every queued write (out ports themselves stay bound)
func FlushTimedPorts() {
	for _, tp := range timedPorts {
		tp.Flush()
	}
	timedPorts = make(map[uint8]*TimedPort)
}
