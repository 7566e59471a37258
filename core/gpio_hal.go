package core

// SetResetRegister is the hardware boundary of one GPIO port: a write-only
// 32-bit register where a 1 in bits 0-15 drives that pin high and a 1 in
// bits 16-31 drives pin (bit-16) low. Store must be a single volatile store;
// implementations never read the register back.
type SetResetRegister interface {
	Store(word uint32)
}

// OutputConfigurer is implemented by port drivers that need to switch a pin
// into push-pull output mode before it can be driven. It returns an error for
// pins the package does not bond out.
// Drivers whose pins are configured elsewhere (board init, alternate-function
// setup) need not implement it.
type OutputConfigurer interface {
	ConfigureOutput(pin PinNumber) error
}

// Port identifiers 'A' through 'K'
const (
	FirstPortID PortID = 'A'
	LastPortID  PortID = 'K'
	numPorts           = int(LastPortID-FirstPortID) + 1
)

// Global per-port registry used by the command layer.
var gpioPorts [numPorts]*GPIO

// SetGPIOPort is called by target-specific code to register a port.
func SetGPIOPort(g *GPIO) {
	gpioPorts[int(g.id-FirstPortID)] = g
}

// GPIOPort returns the registered port for id.
func GPIOPort(id PortID) (*GPIO, bool) {
	if id < FirstPortID || id > LastPortID {
		return nil, false
	}
	g := gpioPorts[int(id-FirstPortID)]
	return g, g != nil
}

// MustGPIOPort returns the registered port or panics if missing.
func MustGPIOPort(id PortID) *GPIO {
	g, ok := GPIOPort(id)
	if !ok {
		panic("GPIO port " + string(rune(id)) + " not configured")
	}
	return g
}

// ResetGPIOPorts clears the port registry (for testing)
func ResetGPIOPorts() {
	gpioPorts = [numPorts]*GPIO{}
}
