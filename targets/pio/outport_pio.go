//go:build rp2040 || rp2350

package pio

// PIO set/reset register for RP2xxx ports.
// SIO has separate set and clear registers, so a value raising some pins and
// lowering others takes two stores there. A PIO state machine moves all 16
// levels on one cycle.

import (
	"machine"

	"busport/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildOutPortProgram creates the out port program using AssemblerV0.
// Each word pulled from the TX FIFO is the full level image of the port.
func buildOutPortProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),            // 0: pull block
		asm.Out(rp2pio.OutDestPins, 16).Encode(), // 1: out pins, 16
		// .wrap
	}
}

// No jumps in the program, so it can load anywhere
const outPortPIOOrigin = -1

// Register drives the 16 consecutive GPIOs from base through one PIO state
// machine. It implements core.SetResetRegister and core.OutputConfigurer.
// Only pins handed to ConfigureOutput are muxed to PIO; the rest of the
// image is ignored by the pad logic.
type Register struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	base   machine.Pin
	count  uint8 // Pins that exist on the package, starting at base
	levels uint16
}

// NewRegister claims a state machine and starts the out port program for the
// port whose pin 0 is base. count limits the port to the GPIOs the package
// bonds out.
func NewRegister(base machine.Pin, count uint8) (*Register, error) {
	pioNum, smNum, ok := allocateStateMachine()
	if !ok {
		return nil, ErrNoStateMachine
	}

	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}

	r := &Register{
		pio:   pioHW,
		sm:    pioHW.StateMachine(smNum),
		base:  base,
		count: count,
	}
	if count > core.PinsPerPort {
		r.count = core.PinsPerPort
	}

	// Claim the state machine before touching its configuration; another
	// driver may hold it outside our allocator
	if !r.sm.TryClaim() {
		return nil, ErrNoStateMachine
	}

	program := buildOutPortProgram()
	offset, err := r.pio.AddProgram(program, outPortPIOOrigin)
	if err != nil {
		return nil, err
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(base, core.PinsPerPort)

	// Shift right so bit 0 lands on base; explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// Full speed; the program only waits on the FIFO
	cfg.SetClkDivIntFrac(1, 0)

	r.sm.Init(offset, cfg)
	r.sm.SetEnabled(true)

	return r, nil
}

// ConfigureOutput hands pin over to PIO and makes it an output, driven low
func (r *Register) ConfigureOutput(pin core.PinNumber) error {
	if uint8(pin) >= r.count {
		return core.ErrInvalidPin
	}
	p := r.base + machine.Pin(pin)

	// Pin writes go through forced instructions; keep the program out of the way
	r.sm.SetEnabled(false)
	r.sm.SetPinsConsecutive(p, 1, r.levels&(1<<pin) != 0)
	r.sm.SetPindirsConsecutive(p, 1, true)
	r.sm.SetEnabled(true)

	p.Configure(machine.PinConfig{Mode: r.pio.PinMode()})
	return nil
}

// Store applies a set/reset word and pushes the new level image. Where a
// word names a pin in both halves the set bit wins.
func (r *Register) Store(word uint32) {
	r.levels = (r.levels &^ core.ResetMask(word)) | core.SetMask(word)

	for r.sm.IsTxFIFOFull() {
		// Busy wait; the program drains one word per two cycles
	}
	r.sm.TxPut(uint32(r.levels))
}

// NewPort builds the pin arena for port id on top of a PIO register
func NewPort(id core.PortID, base machine.Pin, count uint8) (*core.GPIO, error) {
	reg, err := NewRegister(base, count)
	if err != nil {
		return nil, err
	}
	return core.NewGPIO(id, reg)
}
