//go:build stm32f4

package main

import (
	"machine"
	"time"

	"busport/core"
	"busport/protocol"
	"busport/storage"
)

// SD card on SPI1; chip select on PB12
const sdCS = machine.PB12

var (
	transport *protocol.Transport

	// Pins held by the firmware itself; never released
	reserved []core.Pin

	msgerrors uint32
)

func main() {
	_ = machine.Serial.Configure(machine.UARTConfig{BaudRate: 250000})

	// Bootstrap messages first so identify keeps IDs 0 and 1
	core.InitCoreCommands()
	core.InitOutPortCommands()
	core.InitTimedOutPortCommands()

	// Microsecond clock from the runtime tick
	boot := time.Now()
	core.SetClockFreq(1000000)

	registerPorts()

	// Keep the host link and the card bus out of reach of out ports
	for _, pin := range []machine.Pin{
		machine.UART_TX_PIN, machine.UART_RX_PIN,
		machine.SPI1_SCK_PIN, machine.SPI1_SDO_PIN, machine.SPI1_SDI_PIN, sdCS,
	} {
		reservePin(pin)
	}

	// The card comes up before any out port is driven
	var block [storage.BlockSize]byte
	card := storage.NewSDCard(machine.SPI1, machine.SPI1_SCK_PIN, machine.SPI1_SDO_PIN, machine.SPI1_SDI_PIN, sdCS)
	cardErr := storage.WaitReady(card, storage.Clock12MHz, storage.Retry{
		Attempts: 5,
		Delay:    func() { time.Sleep(time.Second) },
	})
	if cardErr == nil {
		cardErr = card.ReadBlock(0, block[:])
	}

	if cardErr == nil {
		core.RegisterConstantUint("SD_BLOCKS", card.BlockCount())
	}

	leds, err := ledPort()
	if err != nil {
		core.DebugPrintln("[INIT] leds: " + err.Error())
	} else {
		showBlock(leds, block[:16], cardErr)
	}

	transport = protocol.NewTransport(writeSerial, core.DispatchCommand)
	transport.SetResetCallback(func() {
		core.FlushTimedPorts()
		core.ClearWriteRing()
	})
	transport.SetErrorCallback(func(cmdID uint16, err error) {
		msgerrors++
	})
	core.SetTransport(transport)

	var buf [protocol.MessageMax]byte
	for {
		core.SetTime(uint32(time.Since(boot).Microseconds()))
		core.ProcessTimers()

		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				msgerrors++
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 {
			transport.Receive(buf[:n])
		}

		time.Sleep(10 * time.Microsecond)
	}
}

// ledPort binds the four Discovery user LEDs, PD12 (green) as bit 0
func ledPort() (*core.OutPort[[4]core.OutputPin], error) {
	gpiod := core.MustGPIOPort('D')

	var pins [4]core.OutputPin
	for i := range pins {
		pin, err := gpiod.Pin(core.PinNumber(12 + i))
		if err != nil {
			return nil, err
		}
		if pins[i], err = pin.IntoPushPullOutput(); err != nil {
			return nil, err
		}
	}
	return core.Into(pins)
}

// showBlock plays data on the LEDs a nibble at a time, low nibble first.
// A card failure alternates 0b0101 and 0b1010 instead.
func showBlock(leds *core.OutPort[[4]core.OutputPin], data []byte, cardErr error) {
	if cardErr != nil {
		core.DebugPrintln("[SD] " + cardErr.Error())
		for i := 0; i < 8; i++ {
			leds.Write(0b0101 << (i & 1))
			time.Sleep(150 * time.Millisecond)
		}
		leds.Write(0)
		return
	}

	for _, b := range data {
		leds.Write(b)
		time.Sleep(250 * time.Millisecond)
		leds.Write(b >> 4)
		time.Sleep(250 * time.Millisecond)
	}
	leds.Write(0)
}

// reservePin claims a board pin in its port
func reservePin(pin machine.Pin) {
	id := core.FirstPortID + core.PortID(uint8(pin)/core.PinsPerPort)
	g, ok := core.GPIOPort(id)
	if !ok {
		return
	}
	if p, err := g.Pin(core.PinNumber(uint8(pin) % core.PinsPerPort)); err == nil {
		reserved = append(reserved, p)
	}
}

// writeSerial writes one outgoing block, handling partial writes
func writeSerial(block []byte) {
	for len(block) > 0 {
		n, err := machine.Serial.Write(block)
		if err != nil || n == 0 {
			msgerrors++
			return
		}
		block = block[n:]
	}
}
