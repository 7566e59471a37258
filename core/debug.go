package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// WriteEvent captures one out port register store for post-mortem analysis
type WriteEvent struct {
	Seq   uint32 // Monotonic write counter (0 = empty slot)
	Time  uint32 // System time of the store
	Port  PortID
	Value uint8  // Value written, masked to the port width
	Word  uint32 // Encoded set/reset word
}

const (
	WriteRingSize = 32 // Keep last 32 writes for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Write capture ring buffer
	writeRing     [WriteRingSize]WriteEvent
	writeRingHead uint8
	writeSeq      uint32

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output, so the caller never
// waits on a slow writer. Drops the message if the channel is full.
func DebugAsync(msg string) {
	if debugEnabled && debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordWrite captures a register store in the ring buffer
func RecordWrite(port PortID, value uint8, word uint32) {
	writeSeq++
	if writeSeq == 0 {
		writeSeq = 1
	}
	idx := writeRingHead
	writeRing[idx] = WriteEvent{
		Seq:   writeSeq,
		Time:  GetTime(),
		Port:  port,
		Value: value,
		Word:  word,
	}
	writeRingHead = (idx + 1) % WriteRingSize
}

// WriteRing returns the recorded writes, oldest first
func WriteRing() []WriteEvent {
	events := make([]WriteEvent, 0, WriteRingSize)
	start := writeRingHead
	for i := uint8(0); i < WriteRingSize; i++ {
		evt := writeRing[(start+i)%WriteRingSize]
		if evt.Seq == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpWriteRing outputs the write ring buffer (call on shutdown/error)
func DumpWriteRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[OUTPORT] === Write Ring Dump ===")
	for _, evt := range WriteRing() {
		debugPrintln("[OUTPORT] #" + utoa(evt.Seq) +
			" t=" + utoa(evt.Time) +
			" port=" + string(rune(evt.Port)) +
			" value=" + itoa(int(evt.Value)) +
			" word=0x" + hex32(evt.Word))
	}
	debugPrintln("[OUTPORT] === End Dump ===")
}

// ClearWriteRing clears the write buffer
func ClearWriteRing() {
	for i := range writeRing {
		writeRing[i] = WriteEvent{}
	}
	writeRingHead = 0
	writeSeq = 0
}
