//go:build rp2040

package main

import (
	"io"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// openDebugUART configures UART1 through the interrupt-buffered uartx driver
func openDebugUART(baud uint32) (io.Writer, error) {
	hw := uartx.UART1
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       debugTX,
		RX:       debugRX,
	}); err != nil {
		return nil, err
	}
	return hw, nil
}
