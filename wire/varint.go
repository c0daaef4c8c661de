package wire

import (
	"encoding/binary"
)

const (
	// MaxVarIntPayload is the maximum payload size for a variable length integer.
	MaxVarIntPayload = 9

	varIntPrefix16 = 0xfd
	varIntPrefix32 = 0xfe
	varIntPrefix64 = 0xff
)

// VarInt is a variable length integer together with its wire encoding. The
// encoding is always the minimal one for the value: values below 0xfd take a
// single byte, and larger values take a 0xfd, 0xfe or 0xff prefix followed by
// a 16, 32 or 64 bit little endian integer.
type VarInt struct {
	value  uint64
	data   [MaxVarIntPayload]byte
	length uint8
}

// NewVarInt encodes value as a variable length integer.
func NewVarInt(value uint64) VarInt {
	vi := VarInt{value: value}
	switch {
	case value < varIntPrefix16:
		vi.length = 1
		vi.data[0] = uint8(value)
	case value <= 0xffff:
		vi.length = 3
		vi.data[0] = varIntPrefix16
		binary.LittleEndian.PutUint16(vi.data[1:], uint16(value))
	case value <= 0xffffffff:
		vi.length = 5
		vi.data[0] = varIntPrefix32
		binary.LittleEndian.PutUint32(vi.data[1:], uint32(value))
	default:
		vi.length = 9
		vi.data[0] = varIntPrefix64
		binary.LittleEndian.PutUint64(vi.data[1:], value)
	}
	return vi
}

// Value returns the integer.
func (vi VarInt) Value() uint64 {
	return vi.value
}

// Length returns the number of bytes the integer occupies on the wire.
func (vi VarInt) Length() int {
	return int(vi.length)
}

// Bytes returns the wire encoding of the integer.
func (vi VarInt) Bytes() []byte {
	data := vi.data
	return data[:vi.length]
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < varIntPrefix16 {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= 0xffff {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= 0xffffffff {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// WriteVarInt serializes val to cb as a variable length integer.
func WriteVarInt(cb *CheckedBuffer, val uint64) {
	vi := NewVarInt(val)
	cb.Write(vi.Bytes())
}

// ReadVarInt reads a variable length integer from cb. The discriminant byte
// decides how many more bytes are needed; if they are not all present the
// cursor is left just past the discriminant and ErrDecodeUnderrun is
// returned.
//
// Non-minimal encodings are accepted and keep their original wire form.
func ReadVarInt(cb *CheckedBuffer) (VarInt, error) {
	var vi VarInt
	if !cb.Read(vi.data[:1]) {
		return VarInt{}, ErrDecodeUnderrun
	}

	switch discriminant := vi.data[0]; discriminant {
	case varIntPrefix64:
		if !cb.Read(vi.data[1:9]) {
			return VarInt{}, ErrDecodeUnderrun
		}
		vi.length = 9
		vi.value = binary.LittleEndian.Uint64(vi.data[1:])
	case varIntPrefix32:
		if !cb.Read(vi.data[1:5]) {
			return VarInt{}, ErrDecodeUnderrun
		}
		vi.length = 5
		vi.value = uint64(binary.LittleEndian.Uint32(vi.data[1:]))
	case varIntPrefix16:
		if !cb.Read(vi.data[1:3]) {
			return VarInt{}, ErrDecodeUnderrun
		}
		vi.length = 3
		vi.value = uint64(binary.LittleEndian.Uint16(vi.data[1:]))
	default:
		vi.length = 1
		vi.value = uint64(discriminant)
	}
	return vi, nil
}

// VarStr is a variable length string: a VarInt length followed by that many
// raw bytes.
//
// A VarStr decoded with ReadVarStr does not own its bytes. It is a view into
// the CheckedBuffer it was read from and is only valid until that buffer is
// prepared for another read or write; after that, Bytes and Copy return
// ErrStaleView. Callers that need the bytes for longer must Copy them while
// the view is valid.
//
// A VarStr created with NewVarStr borrows the caller's slice, which must not be
// modified until the VarStr has been written.
type VarStr struct {
	length     VarInt
	data       []byte
	source     *CheckedBuffer
	generation uint64
}

// NewVarStr wraps b as a variable length string.
func NewVarStr(b []byte) VarStr {
	return VarStr{length: NewVarInt(uint64(len(b))), data: b}
}

// NewVarStrString wraps s as a variable length string.
func NewVarStrString(s string) VarStr {
	return NewVarStr([]byte(s))
}

// Len returns the number of bytes in the string.
func (vs VarStr) Len() uint64 {
	return vs.length.Value()
}

// LengthPrefix returns the encoded length prefix of the string.
func (vs VarStr) LengthPrefix() VarInt {
	return vs.length
}

// Valid returns whether the string's bytes may still be accessed.
func (vs VarStr) Valid() bool {
	return vs.source == nil || vs.source.Generation() == vs.generation
}

// Bytes returns the string's bytes without copying them.
func (vs VarStr) Bytes() ([]byte, error) {
	if !vs.Valid() {
		return nil, ErrStaleView
	}
	return vs.data, nil
}

// Copy returns an owned copy of the string's bytes.
func (vs VarStr) Copy() ([]byte, error) {
	data, err := vs.Bytes()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

// String returns the string's bytes as a string, or the empty string once the
// view is stale.
func (vs VarStr) String() string {
	data, err := vs.Bytes()
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteVarStr serializes vs to cb. The length prefix is always written in
// its minimal form. A stale view writes as the empty string.
func WriteVarStr(cb *CheckedBuffer, vs VarStr) {
	data, err := vs.Bytes()
	if err != nil {
		data = nil
	}
	WriteVarInt(cb, uint64(len(data)))
	cb.Write(data)
}

// ReadVarStr reads a variable length string from cb. The returned VarStr is a
// view into cb. The length prefix is checked against the bytes remaining
// before anything is exposed, so a length larger than the rest of the
// buffer results in ErrDecodeUnderrun rather than an out of bounds view.
func ReadVarStr(cb *CheckedBuffer) (VarStr, error) {
	length, err := ReadVarInt(cb)
	if err != nil {
		return VarStr{}, err
	}

	view := cb.CursorView(length.Value())
	if view == nil || !cb.FastForward(length.Value()) {
		return VarStr{}, ErrDecodeUnderrun
	}

	return VarStr{
		length:     length,
		data:       view,
		source:     cb,
		generation: cb.Generation(),
	}, nil
}
