package core

// SimRegister is a software set/reset register. It records every stored
// word and tracks the resulting output levels, for host builds and tests.
// Where a word names a pin in both halves the set bit wins, as on STM32 BSRR.
type SimRegister struct {
	Writes []uint32

	// Absent marks pins the simulated package does not bond out
	Absent uint16

	levels  uint16
	outputs uint16
}

// Store applies one register write
func (r *SimRegister) Store(word uint32) {
	r.Writes = append(r.Writes, word)
	r.levels = (r.levels &^ ResetMask(word)) | SetMask(word)
}

// ConfigureOutput marks pin as a push-pull output
func (r *SimRegister) ConfigureOutput(pin PinNumber) error {
	if r.Absent&(1<<pin) != 0 {
		return ErrInvalidPin
	}
	r.outputs |= 1 << pin
	return nil
}

// IsOutput reports whether pin was configured as an output
func (r *SimRegister) IsOutput(pin PinNumber) bool {
	return r.outputs&(1<<pin) != 0
}

// Levels returns the simulated output data register
func (r *SimRegister) Levels() uint16 {
	return r.levels
}

// Level returns the simulated level of one pin
func (r *SimRegister) Level(pin PinNumber) bool {
	return r.levels&(1<<pin) != 0
}

// Last returns the most recent stored word
func (r *SimRegister) Last() (uint32, bool) {
	if len(r.Writes) == 0 {
		return 0, false
	}
	return r.Writes[len(r.Writes)-1], true
}

// Reset clears the write log and levels
func (r *SimRegister) Reset() {
	r.Writes = r.Writes[:0]
	r.levels = 0
}
