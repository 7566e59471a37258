package protocol

import "errors"

var (
	ErrFrameShort  = errors.New("incomplete message block")
	ErrFrameLength = errors.New("invalid message block length")
	ErrFrameSeq    = errors.New("invalid message block sequence")
	ErrFrameSync   = errors.New("missing message block sync byte")
	ErrFrameCRC    = errors.New("message block CRC mismatch")
)

// AppendFrame appends a message block carrying payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := len(payload) + MessageMin
	if n > MessageMax {
		return dst, ErrFrameLength
	}

	start := len(dst)
	dst = append(dst, uint8(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageValueSync), nil
}

// DecodeFrame parses the message block at the start of data and returns its
// sequence byte, payload and total length. ErrFrameShort means more bytes
// are needed; every other error means data does not start with a valid block.
func DecodeFrame(data []byte) (seq uint8, payload []byte, n int, err error) {
	if len(data) < MessageMin {
		return 0, nil, 0, ErrFrameShort
	}

	n = int(data[MessagePositionLen])
	if n < MessageMin || n > MessageMax {
		return 0, nil, 0, ErrFrameLength
	}

	seq = data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return 0, nil, 0, ErrFrameSeq
	}

	if len(data) < n {
		return 0, nil, 0, ErrFrameShort
	}

	if data[n-MessageTrailerSync] != MessageValueSync {
		return 0, nil, 0, ErrFrameSync
	}

	crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
	if crc != CRC16(data[:n-MessageTrailerSize]) {
		return 0, nil, 0, ErrFrameCRC
	}

	return seq, data[MessageHeaderSize : n-MessageTrailerSize], n, nil
}

// Decoder splits a byte stream into message blocks. After a corrupt block it
// discards input up to the next sync byte.
type Decoder struct {
	rx     RxBuffer
	desync bool

	// OnResync is called each time the decoder regains synchronization
	OnResync func()
}

// Feed consumes data and calls fn for every complete block. The payload
// passed to fn is only valid for the duration of the call.
func (d *Decoder) Feed(data []byte, fn func(seq uint8, payload []byte)) {
	for len(data) > 0 {
		n := d.rx.Append(data)
		data = data[n:]
		d.drain(fn)

		if n == 0 && d.rx.Full() {
			// Unparseable backlog; drop it and hunt for the next block
			d.rx.Reset()
			d.desync = true
		}
	}
}

func (d *Decoder) drain(fn func(seq uint8, payload []byte)) {
	for d.rx.Available() > 0 {
		buf := d.rx.Data()

		if d.desync {
			pos := -1
			for i, b := range buf {
				if b == MessageValueSync {
					pos = i
					break
				}
			}
			if pos < 0 {
				d.rx.Reset()
				return
			}
			d.rx.Pop(pos + 1)
			d.desync = false
			if d.OnResync != nil {
				d.OnResync()
			}
			continue
		}

		if buf[0] == MessageValueSync {
			d.rx.Pop(1)
			continue
		}

		seq, payload, n, err := DecodeFrame(buf)
		if err == ErrFrameShort {
			return
		}
		if err != nil {
			d.desync = true
			continue
		}

		fn(seq, payload)
		d.rx.Pop(n)
	}
}

// Reset discards buffered input
func (d *Decoder) Reset() {
	d.rx.Reset()
	d.desync = false
}
