package protocol

// OutputBuffer is the sink VLQ encoders write to
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer.
// Output beyond MessagePayloadMax bytes is truncated and flagged.
type ScratchOutput struct {
	buf      [MessagePayloadMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflow reports whether any output was dropped
func (s *ScratchOutput) Overflow() bool {
	return s.overflow
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// RxBuffer accumulates received bytes until complete blocks can be parsed.
type RxBuffer struct {
	buf [MessageMax * 2]byte
	n   int
}

// Append copies as much of data as fits and returns the count copied
func (r *RxBuffer) Append(data []byte) int {
	n := copy(r.buf[r.n:], data)
	r.n += n
	return n
}

// Data returns the buffered bytes
func (r *RxBuffer) Data() []byte {
	return r.buf[:r.n]
}

// Available returns the number of buffered bytes
func (r *RxBuffer) Available() int {
	return r.n
}

// Full reports whether no more bytes can be appended
func (r *RxBuffer) Full() bool {
	return r.n == len(r.buf)
}

// Pop removes n bytes from the front
func (r *RxBuffer) Pop(n int) {
	if n >= r.n {
		r.n = 0
		return
	}
	copy(r.buf[:], r.buf[n:r.n])
	r.n -= n
}

// Reset clears the buffer
func (r *RxBuffer) Reset() {
	r.n = 0
}
