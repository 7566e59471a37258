//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"busport/core"
)

// Raw low word of the 1MHz microsecond timer (same offset on both chips)
const timerTIMERAWL = timerBase + 0x28

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock reports the 1MHz hardware timer as the firmware clock
func InitClock() {
	core.SetClockFreq(1000000)
	UpdateSystemTime()
}

// UpdateSystemTime copies the hardware timer into the core clock.
// Called from the main loop before timers run.
func UpdateSystemTime() {
	core.SetTime(timerRAWL.Get())
}
