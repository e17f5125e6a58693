package protocol

// InputBuffer is a window onto received stream bytes
type InputBuffer interface {
	// Data returns the available data slice
	Data() []byte

	// Available returns the number of bytes available
	Available() int

	// Pop removes n bytes from the front of the buffer
	Pop(n int)
}

// OutputBuffer collects frame bytes before they are flushed
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// SliceInputBuffer implements InputBuffer using a byte slice
type SliceInputBuffer struct {
	data []byte
}

// NewSliceInputBuffer creates a new SliceInputBuffer
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput implements OutputBuffer on a fixed array so the firmware
// never allocates while exporting events. Bytes past the end are dropped
// and reported by Overflowed.
type ScratchOutput struct {
	buf      [MessageMax]byte
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

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflowed reports whether output was dropped since the last Reset
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// StreamBuffer holds received bytes until the transport has consumed whole
// frames. Unread bytes move to the front when a write needs the room, so
// Data is always one slice of the backing array.
type StreamBuffer struct {
	buf  []byte
	head int
	tail int
}

// NewStreamBuffer creates a StreamBuffer holding at most capacity bytes
func NewStreamBuffer(capacity int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count
func (s *StreamBuffer) Write(data []byte) int {
	if s.tail+len(data) > len(s.buf) && s.head > 0 {
		s.tail = copy(s.buf, s.buf[s.head:s.tail])
		s.head = 0
	}
	n := copy(s.buf[s.tail:], data)
	s.tail += n
	return n
}

func (s *StreamBuffer) Data() []byte {
	return s.buf[s.head:s.tail]
}

func (s *StreamBuffer) Available() int {
	return s.tail - s.head
}

// Free returns how many bytes a Write can still take
func (s *StreamBuffer) Free() int {
	return len(s.buf) - s.Available()
}

func (s *StreamBuffer) Pop(n int) {
	if n > s.Available() {
		n = s.Available()
	}
	s.head += n
	if s.head == s.tail {
		s.head, s.tail = 0, 0
	}
}
