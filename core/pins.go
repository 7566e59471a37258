package core

// PortID identifies a GPIO port ('A', 'B', ...)
type PortID byte

// PinNumber is the physical pin index within a port (0-15)
type PinNumber uint8

// PinsPerPort is the number of pins sharing one set/reset register
const PinsPerPort = 16

// GPIO owns the pin slots of one port. Pins are claimed from it as handles;
// each slot records the token of its current owner so that a handle whose pin
// has been moved elsewhere can be detected.
//
// GPIO is not safe for concurrent use; firmware claims pins during startup.
type GPIO struct {
	id    PortID
	reg   SetResetRegister
	owner [PinsPerPort]uint32 // 0 = free
	next  uint32
}

// NewGPIO creates the pin arena for port id backed by reg
func NewGPIO(id PortID, reg SetResetRegister) (*GPIO, error) {
	if id < FirstPortID || id > LastPortID {
		return nil, ErrInvalidPort
	}
	return &GPIO{id: id, reg: reg}, nil
}

// ID returns the port identifier
func (g *GPIO) ID() PortID {
	return g.id
}

// Claimed reports whether pin n currently has an owner
func (g *GPIO) Claimed(n PinNumber) bool {
	return n < PinsPerPort && g.owner[n] != 0
}

// Pin claims pin n and returns its handle.
func (g *GPIO) Pin(n PinNumber) (Pin, error) {
	if n >= PinsPerPort {
		return Pin{}, ErrInvalidPin
	}
	if g.owner[n] != 0 {
		return Pin{}, ErrPinInUse
	}
	tok := g.token()
	g.owner[n] = tok
	return Pin{gpio: g, num: n, token: tok}, nil
}

func (g *GPIO) token() uint32 {
	g.next++
	if g.next == 0 {
		g.next = 1
	}
	return g.next
}

// owns reports whether the handle (n, tok) is the current owner of slot n
func (g *GPIO) owns(n PinNumber, tok uint32) bool {
	return tok != 0 && n < PinsPerPort && g.owner[n] == tok
}

// transfer hands slot n to a new owner, invalidating every existing handle
func (g *GPIO) transfer(n PinNumber) uint32 {
	tok := g.token()
	g.owner[n] = tok
	return tok
}

// Pin is an unconfigured, exclusively claimed pin.
type Pin struct {
	gpio  *GPIO
	num   PinNumber
	token uint32
}

// Port returns the pin's port identifier
func (p Pin) Port() PortID {
	if p.gpio == nil {
		return 0
	}
	return p.gpio.id
}

// Number returns the physical pin number
func (p Pin) Number() PinNumber {
	return p.num
}

// Release returns an unconfigured pin to its port
func (p Pin) Release() error {
	if p.gpio == nil || !p.gpio.owns(p.num, p.token) {
		return ErrPinConsumed
	}
	p.gpio.owner[p.num] = 0
	return nil
}

// IntoPushPullOutput configures the pin as a push-pull output.
// On success the Pin handle is consumed; use the returned OutputPin from
// here on. On failure the Pin still owns its slot.
func (p Pin) IntoPushPullOutput() (OutputPin, error) {
	if p.gpio == nil || !p.gpio.owns(p.num, p.token) {
		return OutputPin{}, ErrPinConsumed
	}
	if c, ok := p.gpio.reg.(OutputConfigurer); ok {
		if err := c.ConfigureOutput(p.num); err != nil {
			return OutputPin{}, err
		}
	}
	tok := p.gpio.transfer(p.num)
	return OutputPin{gpio: p.gpio, num: p.num, token: tok}, nil
}

// OutputPin is a pin configured as a push-pull digital output. It is bound
// into at most one Bus; binding consumes the handle.
type OutputPin struct {
	gpio  *GPIO
	num   PinNumber
	token uint32
}

// Port returns the pin's port identifier
func (p OutputPin) Port() PortID {
	if p.gpio == nil {
		return 0
	}
	return p.gpio.id
}

// Number returns the physical pin number
func (p OutputPin) Number() PinNumber {
	return p.num
}

// Owned reports whether this handle still owns its pin
func (p OutputPin) Owned() bool {
	return p.gpio != nil && p.gpio.owns(p.num, p.token)
}

// Set drives the single pin high or low with one set/reset store
func (p OutputPin) Set(high bool) error {
	if !p.Owned() {
		return ErrPinConsumed
	}
	p.gpio.reg.Store(encodePin(p.num, high))
	return nil
}

// Release returns the pin to its port so it can be claimed again
func (p OutputPin) Release() error {
	if !p.Owned() {
		return ErrPinConsumed
	}
	p.gpio.owner[p.num] = 0
	return nil
}
