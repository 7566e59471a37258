//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"busport/core"
	"busport/protocol"
	"busport/targets/pio"
)

// portLayout maps one port onto consecutive GPIOs
type portLayout struct {
	id    core.PortID
	base  machine.Pin
	count uint8
}

var (
	transport *protocol.Transport

	// Pins held by the firmware itself; never released
	reserved []core.Pin

	// Debug counters
	messagesReceived         uint32
	msgerrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	InitClock()

	// Bootstrap messages first so identify keeps IDs 0 and 1
	core.InitCoreCommands()
	core.InitOutPortCommands()
	core.InitTimedOutPortCommands()

	portIDs := ""
	for _, l := range ports {
		g, err := pio.NewPort(l.id, l.base, l.count)
		if err != nil {
			core.DebugPrintln("[INIT] port " + string(rune(l.id)) + ": " + err.Error())
			continue
		}
		core.SetGPIOPort(g)
		portIDs += string(rune(l.id))
	}
	core.RegisterConstant("MCU", chipName)
	core.RegisterConstant("PORTS", portIDs)
	reservePin(debugTX)
	reservePin(debugRX)

	transport = protocol.NewTransport(writeUSB, core.DispatchCommand)
	transport.SetResetCallback(func() {
		// Out ports stay bound across host restarts; pending timed writes go
		core.FlushTimedPorts()
		core.ClearWriteRing()
	})
	transport.SetErrorCallback(func(cmdID uint16, err error) {
		msgerrors++
		// Runs on the command path; keep the UART out of it
		if core.IsDebugEnabled() {
			core.DebugAsync("[CMD] id=" + itoa(int(cmdID)) + " failed: " + err.Error())
		}
	})
	core.SetTransport(transport)

	var buf [protocol.MessageMax]byte
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					transport.Reset()
				}
			}()

			UpdateSystemTime()
			core.ProcessTimers()

			if USBAvailable() == 0 {
				return
			}
			n, err := USBRead(buf[:])
			if err != nil {
				msgerrors++
				return
			}

			// Data after a dead link: start from a clean sequence
			if usbWasDisconnected {
				usbWasDisconnected = false
				consecutiveWriteFailures = 0
				transport.Reset()
			}

			transport.Receive(buf[:n])
			messagesReceived++
		}()

		// Yield to other goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// reservePin claims pin in whichever port covers it
func reservePin(pin machine.Pin) {
	for _, l := range ports {
		if pin < l.base || pin >= l.base+machine.Pin(l.count) {
			continue
		}
		g, ok := core.GPIOPort(l.id)
		if !ok {
			return
		}
		if p, err := g.Pin(core.PinNumber(pin - l.base)); err == nil {
			reserved = append(reserved, p)
		}
		return
	}
}

// writeUSB writes one outgoing block, handling partial writes
func writeUSB(block []byte) {
	written := 0
	for written < len(block) {
		n, err := USBWriteBytes(block[written:])
		if err != nil || n == 0 {
			// Likely disconnect; after several failures drop the link state
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
}

// itoa converts int to string without importing strconv (for embedded)
func itoa(i int) string {
	if i == 0 {
		return "0"
	}

	negative := i < 0
	if negative {
		i = -i
	}

	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
