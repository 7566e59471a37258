package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutput(t *testing.T) {
	output := NewScratchOutput()

	output.Output([]byte{0x01, 0x02})
	output.Output([]byte{0x03})

	if !bytes.Equal(output.Result(), []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Unexpected result: % X", output.Result())
	}
	if output.Overflow() {
		t.Error("Overflow reported for small output")
	}

	output.Reset()
	if len(output.Result()) != 0 {
		t.Errorf("Expected empty result after reset, got %d bytes", len(output.Result()))
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	output := NewScratchOutput()
	output.Output(make([]byte, MessagePayloadMax+4))

	if len(output.Result()) != MessagePayloadMax {
		t.Errorf("Expected %d bytes, got %d", MessagePayloadMax, len(output.Result()))
	}
	if !output.Overflow() {
		t.Error("Expected overflow to be reported")
	}
}

func TestRxBuffer(t *testing.T) {
	var rx RxBuffer

	if n := rx.Append([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("Append copied %d bytes, expected 5", n)
	}

	rx.Pop(2)
	if !bytes.Equal(rx.Data(), []byte{3, 4, 5}) {
		t.Errorf("Unexpected data after pop: %v", rx.Data())
	}

	rx.Pop(10)
	if rx.Available() != 0 {
		t.Errorf("Expected empty buffer, got %d bytes", rx.Available())
	}
}

func TestRxBufferFull(t *testing.T) {
	var rx RxBuffer

	n := rx.Append(make([]byte, MessageMax*3))
	if n != MessageMax*2 {
		t.Errorf("Append copied %d bytes, expected %d", n, MessageMax*2)
	}
	if !rx.Full() {
		t.Error("Expected buffer to be full")
	}
	if rx.Append([]byte{1}) != 0 {
		t.Error("Append into full buffer should copy nothing")
	}
}
