package mcu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"busport/host/serial"
	"busport/protocol"
)

// Bootstrap message IDs, fixed before the dictionary is known
const (
	identifyResponseID = 0
	identifyID         = 1
	identifyChunkSize  = 40
)

var (
	ErrNotConnected   = errors.New("not connected to MCU")
	ErrNoDictionary   = errors.New("dictionary not loaded")
	ErrTimeout        = errors.New("timed out waiting for MCU")
	ErrUnknownMessage = errors.New("unknown message")
)

// MCU is a connection to busport firmware
type MCU struct {
	port io.ReadWriteCloser

	seq     uint8 // Sequence of the next block we send
	dec     protocol.Decoder
	pending [][]byte // Response payloads not yet claimed
	acked   bool

	dictionary *Dictionary
	connected  bool

	// Timeout bounds every wait for an ack or response
	Timeout time.Duration

	// Verbose prints progress to stdout
	Verbose bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		seq:     protocol.MessageDest,
		Timeout: time.Second,
	}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	m.Attach(port)

	// Give MCU time to initialize (if it just powered on)
	time.Sleep(100 * time.Millisecond)

	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.port = port
	m.seq = protocol.MessageDest
	m.dec.Reset()
	m.pending = nil
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.connected = false
	if m.port != nil {
		return m.port.Close()
	}
	return nil
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// Identify retrieves and parses the firmware dictionary
func (m *MCU) Identify() error {
	if !m.connected {
		return ErrNotConnected
	}

	m.logf("Retrieving dictionary from MCU...\n")

	var dict bytes.Buffer
	for {
		offset := uint32(dict.Len())
		chunk, err := m.identifyChunk(offset)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		if len(chunk) == 0 {
			break
		}
		dict.Write(chunk)
	}

	m.logf("Dictionary retrieved: %d bytes\n", dict.Len())

	d, err := ParseDictionary(dict.String())
	if err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	m.dictionary = d
	return nil
}

func (m *MCU) identifyChunk(offset uint32) ([]byte, error) {
	err := m.send(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, identifyChunkSize)
	})
	if err != nil {
		return nil, err
	}

	payload, err := m.receive(identifyResponseID)
	if err != nil {
		return nil, err
	}

	respOffset, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if respOffset != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, respOffset)
	}

	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return data, nil
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// SendCommand sends a command by name and waits for the block to be acked
func (m *MCU) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	msg, err := m.lookup(name)
	if err != nil {
		return err
	}
	return m.send(uint16(msg.ID), args)
}

// ReceiveResponse waits for a response by name and returns its arguments
func (m *MCU) ReceiveResponse(name string) ([]byte, error) {
	msg, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return m.receive(uint16(msg.ID))
}

func (m *MCU) lookup(name string) (Message, error) {
	if !m.connected {
		return Message{}, ErrNotConnected
	}
	if m.dictionary == nil {
		return Message{}, ErrNoDictionary
	}
	msg, ok := m.dictionary.Lookup(name)
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownMessage, name)
	}
	return msg, nil
}

// send frames one command and waits for its ack
func (m *MCU) send(cmdID uint16, args func(output protocol.OutputBuffer)) error {
	if !m.connected {
		return ErrNotConnected
	}

	output := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(output, uint32(cmdID))
	if args != nil {
		args(output)
	}
	if output.Overflow() {
		return protocol.ErrFrameLength
	}

	block, err := protocol.AppendFrame(nil, m.seq, output.Result())
	if err != nil {
		return err
	}
	m.seq = protocol.NextSequence(m.seq)

	m.acked = false
	if _, err := m.port.Write(block); err != nil {
		return fmt.Errorf("failed to write block: %w", err)
	}

	return m.waitFor(func() bool { return m.acked })
}

// receive waits for a response with the given ID and returns its arguments
func (m *MCU) receive(cmdID uint16) ([]byte, error) {
	var found []byte
	match := func() bool {
		for i, payload := range m.pending {
			data := payload
			id, err := protocol.DecodeVLQUint(&data)
			if err != nil || uint16(id) != cmdID {
				continue
			}
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			found = data
			return true
		}
		return false
	}

	if err := m.waitFor(match); err != nil {
		return nil, err
	}
	return found, nil
}

// waitFor reads from the port until done reports true or the timeout expires
func (m *MCU) waitFor(done func() bool) error {
	deadline := time.Now().Add(m.Timeout)
	buf := make([]byte, protocol.MessageMax)

	for !done() {
		if time.Now().After(deadline) {
			return ErrTimeout
		}

		n, err := m.port.Read(buf)
		if n > 0 {
			m.dec.Feed(buf[:n], m.handleBlock)
			continue
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read from MCU: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

func (m *MCU) handleBlock(seq uint8, payload []byte) {
	if len(payload) == 0 {
		// Ack carries the sequence the MCU expects next
		if seq == m.seq {
			m.acked = true
		}
		return
	}
	m.pending = append(m.pending, append([]byte(nil), payload...))
}

func (m *MCU) logf(format string, args ...interface{}) {
	if m.Verbose {
		fmt.Printf(format, args...)
	}
}
