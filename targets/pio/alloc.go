//go:build rp2040 || rp2350

package pio

import "errors"

// ErrNoStateMachine is returned when every PIO state machine is taken
var ErrNoStateMachine = errors.New("no free PIO state machine")

var (
	// PIO allocation tracking
	// RP2040/RP2350 have 2 usable PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// allocateStateMachine reserves a PIO state machine
// Returns (pioNum, smNum, ok)
func allocateStateMachine() (uint8, uint8, bool) {
	// Round-robin allocation across PIO blocks and state machines
	for i := 0; i < 8; i++ {
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}

	return 0, 0, false
}
