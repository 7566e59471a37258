package core

// Set/reset register layout: the low half raises pins, the high half lowers them.
const (
	setShift   = 0
	resetShift = 16
)

// EncodeSetReset maps bit i of v onto physical pin pins[i] of a set/reset
// register word. A 1 bit contributes the pin's set bit, a 0 bit its reset
// bit. Bits of v at or above len(pins) are ignored.
//
// Every bound pin appears in exactly one half of the result, so a single
// store moves all of them with no intermediate state. Contributions are ORed
// and may be computed in any order; if two indices name the same pin both
// bits may end up set.
func EncodeSetReset(pins []PinNumber, v uint32) uint32 {
	var word uint32
	for i, p := range pins {
		word |= encodePin(p, (v>>uint(i))&1 != 0)
	}
	return word
}

func encodePin(p PinNumber, high bool) uint32 {
	if high {
		return 1 << (uint(p) + setShift)
	}
	return 1 << (uint(p) + resetShift)
}

// SetMask returns the "drive high" half of an encoded word
func SetMask(word uint32) uint16 {
	return uint16(word >> setShift)
}

// ResetMask returns the "drive low" half of an encoded word
func ResetMask(word uint32) uint16 {
	return uint16(word >> resetShift)
}
