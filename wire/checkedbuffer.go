package wire

const (
	// checkedBufferAlignment is the block size that a CheckedBuffer's
	// capacity is rounded up to whenever it grows.
	checkedBufferAlignment = 64

	// CheckedBufferInitialCapacity is the capacity of a buffer created with
	// NewCheckedBuffer.
	CheckedBufferInitialCapacity = 64
)

// alignUp rounds size up to the next multiple of alignment, which must be a
// power of two.
func alignUp(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// CheckedBuffer is a growable byte store with a single cursor shared between
// sequential reads and sequential writes. Reads are bounds checked against the
// amount of data present and never partially succeed; writes always succeed and
// grow the buffer as needed.
//
// The buffer is put into read mode with PrepareRead or PrepareCopy and into
// write mode with PrepareWrite. Each of these starts a new generation, which
// invalidates every VarStr view previously decoded from the buffer.
//
// The invariant cursor <= length <= capacity holds at all times, and the
// capacity never shrinks.
//
// A CheckedBuffer is not safe for concurrent use.
type CheckedBuffer struct {
	data       []byte
	length     int
	cursor     int
	generation uint64
}

// NewCheckedBuffer returns an empty buffer with the default initial capacity.
func NewCheckedBuffer() *CheckedBuffer {
	cb := &CheckedBuffer{}
	cb.Resize(CheckedBufferInitialCapacity)
	return cb
}

// Resize grows the backing storage to hold at least capacity bytes. The new
// capacity is rounded up to a 64 byte block. Requests for less than the
// current capacity are ignored. Growing moves the data, so it also starts a
// new generation.
func (cb *CheckedBuffer) Resize(capacity int) {
	capacity = alignUp(capacity, checkedBufferAlignment)
	if capacity <= len(cb.data) {
		return
	}
	data := make([]byte, capacity)
	copy(data, cb.data[:cb.length])
	cb.data = data
	cb.generation++
}

// PrepareRead loads a copy of src into the buffer and rewinds the cursor so
// src can be read from the start.
func (cb *CheckedBuffer) PrepareRead(src []byte) {
	cb.Resize(len(src))
	copy(cb.data, src)
	cb.length = len(src)
	cb.cursor = 0
	cb.generation++
}

// PrepareCopy readies the buffer to receive n bytes from an external source
// and returns the n-byte window to fill. Once filled, the bytes are read like
// ones loaded with PrepareRead.
func (cb *CheckedBuffer) PrepareCopy(n int) []byte {
	cb.Resize(n)
	cb.length = n
	cb.cursor = 0
	cb.generation++
	return cb.data[:n]
}

// Read copies len(dst) bytes at the cursor into dst and advances the cursor.
// It returns false and leaves the buffer untouched when fewer than len(dst)
// bytes remain.
func (cb *CheckedBuffer) Read(dst []byte) bool {
	if !cb.HasReadableBytes(uint64(len(dst))) {
		return false
	}
	cb.cursor += copy(dst, cb.data[cb.cursor:cb.cursor+len(dst)])
	return true
}

// HasReadableBytes returns whether at least n bytes remain between the cursor
// and the end of the data.
func (cb *CheckedBuffer) HasReadableBytes(n uint64) bool {
	return uint64(cb.length-cb.cursor) >= n
}

// FastForward skips n bytes without copying them. It returns false and does
// not move the cursor when fewer than n bytes remain.
func (cb *CheckedBuffer) FastForward(n uint64) bool {
	if !cb.HasReadableBytes(n) {
		return false
	}
	cb.cursor += int(n)
	return true
}

// ReadReset moves the cursor back to the start of the data.
func (cb *CheckedBuffer) ReadReset() {
	cb.cursor = 0
}

// PrepareWrite empties the buffer, keeping its capacity, so a new payload can
// be written from the start.
func (cb *CheckedBuffer) PrepareWrite() {
	cb.cursor = 0
	cb.length = 0
	cb.generation++
}

// Write copies src at the cursor, growing the buffer if needed, and advances
// the cursor past it.
func (cb *CheckedBuffer) Write(src []byte) {
	end := cb.cursor + len(src)
	if end > len(cb.data) {
		cb.Resize(end)
	}
	copy(cb.data[cb.cursor:], src)
	cb.cursor = end
	if cb.cursor > cb.length {
		cb.length = cb.cursor
	}
}

// WriteByte writes a single byte. It never fails; the error return exists to
// satisfy io.ByteWriter.
func (cb *CheckedBuffer) WriteByte(b byte) error {
	cb.Write([]byte{b})
	return nil
}

// CursorView returns the n bytes starting at the cursor without copying them
// and without moving the cursor. The view aliases the buffer and is only valid
// until the buffer is next prepared or grown. It returns nil when fewer than n
// bytes remain.
func (cb *CheckedBuffer) CursorView(n uint64) []byte {
	if !cb.HasReadableBytes(n) {
		return nil
	}
	return cb.data[cb.cursor : cb.cursor+int(n) : cb.cursor+int(n)]
}

// AmountWritten returns the number of bytes written since the last
// PrepareWrite, which is the cursor position.
func (cb *CheckedBuffer) AmountWritten() int {
	return cb.cursor
}

// Bytes returns the data present in the buffer. The slice aliases the buffer.
func (cb *CheckedBuffer) Bytes() []byte {
	return cb.data[:cb.length]
}

// Len returns the number of bytes present in the buffer.
func (cb *CheckedBuffer) Len() int {
	return cb.length
}

// Cursor returns the position of the next read or write.
func (cb *CheckedBuffer) Cursor() int {
	return cb.cursor
}

// Cap returns the allocated size of the buffer.
func (cb *CheckedBuffer) Cap() int {
	return len(cb.data)
}

// Generation returns a counter that changes every time the buffer is
// prepared for a new read or write.
func (cb *CheckedBuffer) Generation() uint64 {
	return cb.generation
}
