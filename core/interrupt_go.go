//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on host builds
type irqState uintptr

// disableInterrupts is a no-op on host builds
func disableInterrupts() irqState {
	return 0
}

func restoreInterrupts(irqState) {}
