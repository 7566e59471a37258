package core

// The firmware clock is a free-running 32-bit tick counter. Targets advance
// it from their hardware timer with SetTime; comparisons are wrap-safe.

// DefaultClockFreq is the tick rate when a target does not set one (1MHz)
const DefaultClockFreq uint32 = 1000000

var clockFreq = DefaultClockFreq

// SetClockFreq sets the tick rate reported to the host as CLOCK_FREQ
func SetClockFreq(hz uint32) {
	clockFreq = hz
	RegisterConstantUint("CLOCK_FREQ", hz)
}

// ClockFreq returns the tick rate
func ClockFreq() uint32 {
	return clockFreq
}

// GetTime returns the current system time in clock ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (hardware integration and tests)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to clock ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * uint64(clockFreq) / 1000000)
}

// timeBefore reports whether a comes before b, allowing for wraparound
func timeBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
