//go:build rp2350

package main

import "machine"

const chipName = "RP2350"

// TIMER0 peripheral
const timerBase = 0x400b0000

// PIO reaches a 32-pin window; GPIO32-47 stay outside the port map
var ports = []portLayout{
	{id: 'A', base: machine.GPIO0, count: 16},
	{id: 'B', base: machine.GPIO16, count: 16},
}

// UART1 on GPIO36/37, outside every port
const (
	debugTX = machine.GPIO36
	debugRX = machine.GPIO37
)
