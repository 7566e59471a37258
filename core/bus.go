package core

// Out port widths
const (
	MinWidth = 2
	MaxWidth = 8
)

// Bus drives 2..8 output pins of one port as a single logical value. Bit i
// of every written value goes to the i-th pin supplied at construction.
//
// The width of a Bus is chosen at runtime; OutPort wraps a Bus with the
// width fixed by its type.
type Bus struct {
	port  PortID
	reg   SetResetRegister
	pins  [MaxWidth]PinNumber
	width uint8

	last    uint8
	written bool
}

// NewBus binds pins into a bus. All pins must be owned output pins of the
// same port with distinct pin numbers. On success every handle in pins is
// consumed; on failure none is.
func NewBus(pins []OutputPin) (*Bus, error) {
	if len(pins) < MinWidth || len(pins) > MaxWidth {
		return nil, ErrWidth
	}

	g := pins[0].gpio
	var seen uint16
	for _, p := range pins {
		if !p.Owned() {
			return nil, ErrPinConsumed
		}
		if p.gpio != g {
			return nil, ErrPortMismatch
		}
		if seen&(1<<p.num) != 0 {
			return nil, ErrDuplicatePin
		}
		seen |= 1 << p.num
	}

	b := &Bus{
		port:  g.id,
		reg:   g.reg,
		width: uint8(len(pins)),
	}
	for i, p := range pins {
		b.pins[i] = p.num
		g.transfer(p.num)
	}

	DebugPrintln("[OUTPORT] bus on port " + string(rune(b.port)) + " pins=" + pinList(b.PinNumbers()))
	return b, nil
}

// Port returns the port identifier shared by all pins
func (b *Bus) Port() PortID {
	return b.port
}

// Width returns the number of bound pins
func (b *Bus) Width() int {
	return int(b.width)
}

// PinNumbers returns the bit index -> physical pin mapping
func (b *Bus) PinNumbers() []PinNumber {
	return b.pins[:b.width]
}

// Encode returns the set/reset register word for v
func (b *Bus) Encode(v uint8) uint32 {
	return EncodeSetReset(b.pins[:b.width], uint32(v))
}

// Write drives all pins to the bits of v in one register store
func (b *Bus) Write(v uint8) {
	word := b.Encode(v)
	b.reg.Store(word)
	b.last = v & widthMask(b.width)
	b.written = true
	RecordWrite(b.port, b.last, word)
}

// Last returns the last value written, masked to the bus width
func (b *Bus) Last() (uint8, bool) {
	return b.last, b.written
}

func widthMask(width uint8) uint8 {
	return uint8(uint16(1)<<width - 1)
}

func pinList(pins []PinNumber) string {
	s := ""
	for i, p := range pins {
		if i > 0 {
			s += ","
		}
		s += itoa(int(p))
	}
	return s
}
