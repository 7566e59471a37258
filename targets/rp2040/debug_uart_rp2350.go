//go:build rp2350

package main

import (
	"io"
	"machine"
)

// openDebugUART configures machine.UART1
func openDebugUART(baud uint32) (io.Writer, error) {
	uart := machine.UART1
	if err := uart.Configure(machine.UARTConfig{
		BaudRate: baud,
		TX:       debugTX,
		RX:       debugRX,
	}); err != nil {
		return nil, err
	}
	return uart, nil
}
