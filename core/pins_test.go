package core

import "testing"

func newTestGPIO(t *testing.T, id PortID) (*GPIO, *SimRegister) {
	t.Helper()
	reg := &SimRegister{}
	g, err := NewGPIO(id, reg)
	if err != nil {
		t.Fatalf("NewGPIO(%c) failed: %v", id, err)
	}
	return g, reg
}

func outputPins(t *testing.T, g *GPIO, nums ...PinNumber) []OutputPin {
	t.Helper()
	pins := make([]OutputPin, len(nums))
	for i, n := range nums {
		pin, err := g.Pin(n)
		if err != nil {
			t.Fatalf("Pin(%d) failed: %v", n, err)
		}
		out, err := pin.IntoPushPullOutput()
		if err != nil {
			t.Fatalf("IntoPushPullOutput(%d) failed: %v", n, err)
		}
		pins[i] = out
	}
	return pins
}

func TestNewGPIOInvalidPort(t *testing.T) {
	for _, id := range []PortID{0, 'a', 'Z', LastPortID + 1} {
		if _, err := NewGPIO(id, &SimRegister{}); err != ErrInvalidPort {
			t.Errorf("NewGPIO(%q): expected ErrInvalidPort, got %v", id, err)
		}
	}
}

func TestPinClaim(t *testing.T) {
	g, _ := newTestGPIO(t, 'C')

	pin, err := g.Pin(8)
	if err != nil {
		t.Fatalf("Pin(8) failed: %v", err)
	}
	if pin.Port() != 'C' || pin.Number() != 8 {
		t.Errorf("Pin identity = (%c, %d), expected (C, 8)", pin.Port(), pin.Number())
	}
	if !g.Claimed(8) {
		t.Error("Pin 8 should be claimed")
	}

	if _, err := g.Pin(8); err != ErrPinInUse {
		t.Errorf("Second claim: expected ErrPinInUse, got %v", err)
	}
	if _, err := g.Pin(PinsPerPort); err != ErrInvalidPin {
		t.Errorf("Pin(16): expected ErrInvalidPin, got %v", err)
	}
}

func TestIntoPushPullOutput(t *testing.T) {
	g, reg := newTestGPIO(t, 'D')

	pin, _ := g.Pin(12)
	out, err := pin.IntoPushPullOutput()
	if err != nil {
		t.Fatalf("IntoPushPullOutput failed: %v", err)
	}
	if !reg.IsOutput(12) {
		t.Error("Pin 12 was not configured as an output")
	}
	if !out.Owned() {
		t.Error("New output pin should own its pin")
	}

	// The unconfigured handle is spent
	if _, err := pin.IntoPushPullOutput(); err != ErrPinConsumed {
		t.Errorf("Reusing the Pin handle: expected ErrPinConsumed, got %v", err)
	}
}

func TestOutputPinSet(t *testing.T) {
	g, reg := newTestGPIO(t, 'D')
	out := outputPins(t, g, 13)[0]

	if err := out.Set(true); err != nil {
		t.Fatalf("Set(true) failed: %v", err)
	}
	if word, _ := reg.Last(); word != 1<<13 {
		t.Errorf("Set(true) stored 0x%08X, expected 0x%08X", word, uint32(1<<13))
	}
	if !reg.Level(13) {
		t.Error("Pin 13 should be high")
	}

	if err := out.Set(false); err != nil {
		t.Fatalf("Set(false) failed: %v", err)
	}
	if word, _ := reg.Last(); word != 1<<(13+16) {
		t.Errorf("Set(false) stored 0x%08X, expected 0x%08X", word, uint32(1<<(13+16)))
	}
	if reg.Level(13) {
		t.Error("Pin 13 should be low")
	}
}

func TestOutputPinRelease(t *testing.T) {
	g, _ := newTestGPIO(t, 'B')
	out := outputPins(t, g, 3)[0]

	if err := out.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if g.Claimed(3) {
		t.Error("Pin 3 should be free after release")
	}
	if err := out.Set(true); err != ErrPinConsumed {
		t.Errorf("Set after release: expected ErrPinConsumed, got %v", err)
	}

	// A new claim must not revive the old handle
	if _, err := g.Pin(3); err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if out.Owned() {
		t.Error("Released handle owns the reclaimed pin")
	}
}

func TestZeroOutputPin(t *testing.T) {
	var out OutputPin
	if out.Owned() {
		t.Error("Zero OutputPin should not own anything")
	}
	if err := out.Set(true); err != ErrPinConsumed {
		t.Errorf("Set on zero OutputPin: expected ErrPinConsumed, got %v", err)
	}
}

func TestGPIOPortRegistry(t *testing.T) {
	ResetGPIOPorts()
	defer ResetGPIOPorts()

	g, _ := newTestGPIO(t, 'E')
	SetGPIOPort(g)

	if got, ok := GPIOPort('E'); !ok || got != g {
		t.Errorf("GPIOPort('E') = (%v, %v)", got, ok)
	}
	if _, ok := GPIOPort('F'); ok {
		t.Error("GPIOPort('F') should not be registered")
	}
	if _, ok := GPIOPort('z'); ok {
		t.Error("GPIOPort('z') is out of range")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGPIOPort on a missing port should panic")
		}
	}()
	MustGPIOPort('F')
}

func TestIntoPushPullOutputAbsentPin(t *testing.T) {
	g, reg := newTestGPIO(t, 'B')
	reg.Absent = 1 << 14

	pin, _ := g.Pin(14)
	if _, err := pin.IntoPushPullOutput(); err != ErrInvalidPin {
		t.Fatalf("Expected ErrInvalidPin, got %v", err)
	}
	if reg.IsOutput(14) {
		t.Error("Absent pin configured as output")
	}

	// The failed conversion leaves the claim with the Pin handle
	if err := pin.Release(); err != nil {
		t.Errorf("Release after failed conversion: %v", err)
	}
	if g.Claimed(14) {
		t.Error("Pin 14 still claimed after Release")
	}
}
