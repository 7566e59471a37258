//go:build rp2040

package main

import "machine"

const chipName = "RP2040"

// TIMER peripheral
const timerBase = 0x40054000

// GPIO0-15 form port A, GPIO16-29 port B (pins 14 and 15 of B are not bonded out)
var ports = []portLayout{
	{id: 'A', base: machine.GPIO0, count: 16},
	{id: 'B', base: machine.GPIO16, count: 14},
}

// UART1 on GPIO20/21 (port B pins 4 and 5)
const (
	debugTX = machine.GPIO20
	debugRX = machine.GPIO21
)
