package protocol

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// ErrorHandler receives errors returned by command handlers
type ErrorHandler func(cmdID uint16, err error)

// Transport is the firmware side of the message block protocol. It
// acknowledges every block, dispatches the commands of in-sequence blocks
// and frames outgoing responses.
type Transport struct {
	dec          Decoder
	nextSequence uint8 // Expected sequence from host (0x10-0x1F)
	write        func([]byte)
	handler      CommandHandler

	errorCallback ErrorHandler
	resetCallback func()

	tx      [MessageMax]byte
	scratch ScratchOutput
}

// NewTransport creates a new Transport writing outgoing blocks to write.
// write must not retain the slice it is given.
func NewTransport(write func([]byte), handler CommandHandler) *Transport {
	t := &Transport{
		nextSequence: MessageDest,
		write:        write,
		handler:      handler,
	}
	t.dec.OnResync = t.sendAck
	return t
}

// Receive processes bytes read from the host
func (t *Transport) Receive(data []byte) {
	t.dec.Feed(data, t.handleBlock)
}

func (t *Transport) handleBlock(seq uint8, payload []byte) {
	// Sequence back at the start while we expected something else: host restarted
	if seq == MessageDest && t.nextSequence != MessageDest {
		t.nextSequence = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}

	if seq == t.nextSequence {
		t.nextSequence = NextSequence(seq)
		t.sendAck()
		t.dispatch(payload)
		return
	}

	// Retransmission or out of order: re-ack with the sequence we expect
	t.sendAck()
}

func (t *Transport) dispatch(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.dec.desync = true
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.dec.desync = true
			return
		}

		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			if t.errorCallback != nil {
				t.errorCallback(uint16(cmdID), err)
			}
			return
		}
	}
}

// sendAck sends an empty block carrying the next expected sequence
func (t *Transport) sendAck() {
	t.sendBlock(nil)
}

func (t *Transport) sendBlock(payload []byte) error {
	out, err := AppendFrame(t.tx[:0], t.nextSequence, payload)
	if err != nil {
		return err
	}
	if t.write != nil {
		t.write(out)
	}
	return nil
}

// SendCommand frames a response message with its arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	t.scratch.Reset()
	EncodeVLQUint(&t.scratch, uint32(cmdID))
	if args != nil {
		args(&t.scratch)
	}
	if t.scratch.Overflow() {
		return ErrFrameLength
	}
	return t.sendBlock(t.scratch.Result())
}

// Reset resets the transport state (useful after USB disconnect/reconnect)
func (t *Transport) Reset() {
	t.nextSequence = MessageDest
	t.dec.Reset()

	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetErrorCallback sets a callback for command handler errors
func (t *Transport) SetErrorCallback(callback ErrorHandler) {
	t.errorCallback = callback
}
