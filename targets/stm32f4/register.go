//go:build stm32f4

package main

import (
	"device/stm32"
	"machine"

	"busport/core"
)

// bsrrRegister stores straight into a port's BSRR. The low half sets, the
// high half resets, and the hardware applies both on the same bus cycle.
type bsrrRegister struct {
	id   core.PortID
	gpio *stm32.GPIO_Type
}

// Store writes word to BSRR
func (r *bsrrRegister) Store(word uint32) {
	r.gpio.BSRR.Set(word)
}

// ConfigureOutput switches the pin to push-pull output (enables the port clock)
func (r *bsrrRegister) ConfigureOutput(pin core.PinNumber) error {
	if pin >= core.PinsPerPort {
		return core.ErrInvalidPin
	}
	machinePin(r.id, pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// machinePin maps a port/pin pair onto TinyGo's flat STM32 numbering
func machinePin(id core.PortID, pin core.PinNumber) machine.Pin {
	return machine.Pin(uint8(id-core.FirstPortID)*core.PinsPerPort + uint8(pin))
}

// STM32F407 ports bonded out on the Discovery board
var gpioBlocks = []struct {
	id   core.PortID
	gpio *stm32.GPIO_Type
}{
	{'A', stm32.GPIOA},
	{'B', stm32.GPIOB},
	{'C', stm32.GPIOC},
	{'D', stm32.GPIOD},
	{'E', stm32.GPIOE},
}

// registerPorts creates and registers every port arena
func registerPorts() {
	portIDs := ""
	for _, b := range gpioBlocks {
		g, err := core.NewGPIO(b.id, &bsrrRegister{id: b.id, gpio: b.gpio})
		if err != nil {
			core.DebugPrintln("[INIT] port " + string(rune(b.id)) + ": " + err.Error())
			continue
		}
		core.SetGPIOPort(g)
		portIDs += string(rune(b.id))
	}
	core.RegisterConstant("MCU", "stm32f407")
	core.RegisterConstant("PORTS", portIDs)
}
