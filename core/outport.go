package core

// Pins is the set of pin arrays an OutPort can be built from. The array
// length is the port width.
type Pins interface {
	[2]OutputPin | [3]OutputPin | [4]OutputPin | [5]OutputPin |
		[6]OutputPin | [7]OutputPin | [8]OutputPin
}

// OutPort is a parallel output port whose width is part of its type:
// an OutPort[[4]OutputPin] is a 4-bit port.
type OutPort[B Pins] struct {
	bus *Bus
}

// Into moves pins into a new OutPort. Bit index i of future writes drives
// pins[i], whatever its physical pin number.
//
//	port, err := core.Into([3]core.OutputPin{pc8, pc9, pc10})
//	port.Write(0b101)
//
// The handles in pins are consumed; using them afterwards returns
// ErrPinConsumed.
func Into[B Pins](pins B) (*OutPort[B], error) {
	var list [MaxWidth]OutputPin
	n := len(pins)
	for i := 0; i < n; i++ {
		list[i] = pins[i]
	}
	bus, err := NewBus(list[:n])
	if err != nil {
		return nil, err
	}
	return &OutPort[B]{bus: bus}, nil
}

// Port returns the port identifier
func (p *OutPort[B]) Port() PortID {
	return p.bus.Port()
}

// Width returns the port width
func (p *OutPort[B]) Width() int {
	return p.bus.Width()
}

// PinNumbers returns the bit index -> physical pin mapping
func (p *OutPort[B]) PinNumbers() []PinNumber {
	return p.bus.PinNumbers()
}

// Encode returns the set/reset register word for v
func (p *OutPort[B]) Encode(v uint8) uint32 {
	return p.bus.Encode(v)
}

// Write sets the port to v in one register store
func (p *OutPort[B]) Write(v uint8) {
	p.bus.Write(v)
}

// Bus returns the runtime-width view of the port
func (p *OutPort[B]) Bus() *Bus {
	return p.bus
}
