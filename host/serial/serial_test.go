package serial

import "testing"

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyACM0")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config rejected: %v", err)
	}

	if err := (&Config{Baud: 115200}).Validate(); err != ErrNoDevice {
		t.Errorf("Expected ErrNoDevice, got %v", err)
	}

	if err := (&Config{Device: "COM3"}).Validate(); err != ErrInvalidBaud {
		t.Errorf("Expected ErrInvalidBaud, got %v", err)
	}

	neg := &Config{Device: "COM3", Baud: 9600, ReadTimeout: -5}
	if err := neg.Validate(); err != nil || neg.ReadTimeout != 0 {
		t.Errorf("Negative timeout not clamped: %v, %d", err, neg.ReadTimeout)
	}
}
