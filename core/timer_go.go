//go:build !tinygo

package core

// Host builds run single-threaded tests; a plain variable is enough
var systemTicks uint32

func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
