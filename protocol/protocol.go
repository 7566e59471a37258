// Package protocol implements the Klipper-style message blocks used between
// the busport host tool and firmware.
package protocol

// Version represents the busport firmware version
const Version = "0.1.0"

// Message block layout: [len][seq] payload [crc_hi][crc_lo][sync]
const (
	MessageMax         = 64
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageMin         = MessageHeaderSize + MessageTrailerSize
	MessagePayloadMax  = MessageMax - MessageMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// Sequence byte: high nibble is always MessageDest, low nibble counts
	MessageDest     = 0x10
	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)

// NextSequence returns the sequence byte following seq
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
