//go:build rp2040 || rp2350

package main

import (
	"io"

	"busport/core"
)

var debugUART io.Writer

// InitDebugUART routes core debug output to a hardware UART at 115200 baud.
// The TX/RX pins are reserved in their port so no out port can bind them.
func InitDebugUART() {
	uart, err := openDebugUART(115200)
	if err != nil {
		return
	}
	debugUART = uart

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	core.DebugPrintln("=== " + chipName + " debug UART initialized ===")
}
