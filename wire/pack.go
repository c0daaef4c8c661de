package wire

import (
	"github.com/btcp2p/btcp2p/util/random"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// Value is a single field handed to Pack. Only the types defined in this
// package implement it: Uint8, Int8, Uint16, Int16, Uint32, Int32, Uint64,
// Int64, Hash, VarInt, VarStr and NetAddress (or pointers to the last three).
type Value interface {
	isValue()
}

// Fixed width field values.
type (
	Uint8  uint8
	Int8   int8
	Uint16 uint16
	Int16  int16
	Uint32 uint32
	Int32  int32
	Uint64 uint64
	Int64  int64
)

// Hash is a 32 byte hash field, written as is.
type Hash chainhash.Hash

func (Uint8) isValue()  {}
func (Int8) isValue()   {}
func (Uint16) isValue() {}
func (Int16) isValue()  {}
func (Uint32) isValue() {}
func (Int32) isValue()  {}
func (Uint64) isValue() {}
func (Int64) isValue()  {}
func (Hash) isValue()   {}
func (VarInt) isValue() {}
func (VarStr) isValue() {}

// Format tags understood by Pack and Unpack.
const (
	TagUint8      = 'b'
	TagInt8       = 'B'
	TagUint16     = 's'
	TagInt16      = 'S'
	TagUint32     = 'i'
	TagInt32      = 'I'
	TagUint64     = 'l'
	TagInt64      = 'L'
	TagVarInt     = 'v'
	TagVarStr     = 'j'
	TagNetAddress = 'n' // with timestamp
	TagNetAddrNoT = 'N' // without timestamp
	TagHash       = 'h'
	TagNonce      = 'o'
)

// consumesArgument returns whether tag is a known tag, and if it is, whether
// it takes an argument. The nonce tag generates its value when packing.
func consumesArgument(tag byte) (known bool, takesArg bool) {
	switch tag {
	case TagUint8, TagInt8, TagUint16, TagInt16, TagUint32, TagInt32,
		TagUint64, TagInt64, TagVarInt, TagVarStr, TagNetAddress,
		TagNetAddrNoT, TagHash:
		return true, true
	case TagNonce:
		return true, false
	}
	return false, false
}

// validateFormat rejects a format containing a tag outside the grammar.
func validateFormat(format string) error {
	for i := 0; i < len(format); i++ {
		if known, _ := consumesArgument(format[i]); !known {
			return &FormatError{Format: format, Position: i, Tag: format[i],
				Err: ErrUnknownTag, Detail: "not part of the pack grammar"}
		}
	}
	return nil
}

// packArgumentCount returns how many values Pack needs for a valid format.
func packArgumentCount(format string) int {
	count := 0
	for i := 0; i < len(format); i++ {
		if _, takesArg := consumesArgument(format[i]); takesArg {
			count++
		}
	}
	return count
}

// Pack serializes values into cb according to format, one tag per field, and
// returns the number of bytes written since cb was last prepared for writing.
//
// The format and the values are checked before anything is written: an
// unknown tag yields ErrUnknownTag, and a value of the wrong type or a wrong
// number of values yields ErrArgumentMismatch. The 'o' tag consumes no value
// and writes a fresh random nonce.
func Pack(cb *CheckedBuffer, format string, values ...Value) (int, error) {
	if err := validateFormat(format); err != nil {
		return cb.AmountWritten(), err
	}
	count := packArgumentCount(format)
	if count != len(values) {
		return cb.AmountWritten(), &FormatError{Format: format,
			Position: len(format), Err: ErrArgumentMismatch,
			Detail: argumentCountDetail(count, len(values))}
	}

	next := 0
	for i := 0; i < len(format); i++ {
		if _, takesArg := consumesArgument(format[i]); !takesArg {
			continue
		}
		if !packValueMatches(format[i], values[next]) {
			return cb.AmountWritten(), &FormatError{Format: format, Position: i,
				Tag: format[i], Err: ErrArgumentMismatch,
				Detail: errors.Errorf("cannot pack %T", values[next]).Error()}
		}
		if !packValueValid(values[next]) {
			return cb.AmountWritten(), errors.Wrapf(ErrStaleView,
				"format %q: tag '%c' at %d", format, format[i], i)
		}
		next++
	}

	next = 0
	for i := 0; i < len(format); i++ {
		if format[i] == TagNonce {
			nonce, err := random.Uint64()
			if err != nil {
				return cb.AmountWritten(), errors.Wrap(err, "failed to generate nonce")
			}
			var buf [8]byte
			littleEndian.PutUint64(buf[:], nonce)
			cb.Write(buf[:])
			continue
		}
		packValue(cb, format[i], values[next])
		next++
	}
	return cb.AmountWritten(), nil
}

func argumentCountDetail(want, got int) string {
	return errors.Errorf("format takes %d arguments, got %d", want, got).Error()
}

// packValueMatches returns whether v may be packed under tag.
func packValueMatches(tag byte, v Value) bool {
	switch v.(type) {
	case Uint8:
		return tag == TagUint8
	case Int8:
		return tag == TagInt8
	case Uint16:
		return tag == TagUint16
	case Int16:
		return tag == TagInt16
	case Uint32:
		return tag == TagUint32
	case Int32:
		return tag == TagInt32
	case Uint64:
		return tag == TagUint64
	case Int64:
		return tag == TagInt64
	case Hash, *Hash:
		return tag == TagHash
	case VarInt, *VarInt:
		return tag == TagVarInt
	case VarStr, *VarStr:
		return tag == TagVarStr
	case NetAddress, *NetAddress:
		return tag == TagNetAddress || tag == TagNetAddrNoT
	}
	return false
}

// packValueValid returns false for a VarStr whose bytes are no longer
// accessible.
func packValueValid(v Value) bool {
	switch e := v.(type) {
	case VarStr:
		return e.Valid()
	case *VarStr:
		return e.Valid()
	}
	return true
}

// packValue writes v, which must already have been matched against tag.
func packValue(cb *CheckedBuffer, tag byte, v Value) {
	var buf [8]byte
	switch e := v.(type) {
	case Uint8:
		cb.Write([]byte{uint8(e)})
	case Int8:
		cb.Write([]byte{uint8(e)})
	case Uint16:
		littleEndian.PutUint16(buf[:], uint16(e))
		cb.Write(buf[:2])
	case Int16:
		littleEndian.PutUint16(buf[:], uint16(e))
		cb.Write(buf[:2])
	case Uint32:
		littleEndian.PutUint32(buf[:], uint32(e))
		cb.Write(buf[:4])
	case Int32:
		littleEndian.PutUint32(buf[:], uint32(e))
		cb.Write(buf[:4])
	case Uint64:
		littleEndian.PutUint64(buf[:], uint64(e))
		cb.Write(buf[:])
	case Int64:
		littleEndian.PutUint64(buf[:], uint64(e))
		cb.Write(buf[:])
	case Hash:
		cb.Write(e[:])
	case *Hash:
		cb.Write(e[:])
	case VarInt:
		// The length is recomputed from the value so a decoded
		// non-minimal integer is re-encoded minimally.
		WriteVarInt(cb, e.Value())
	case *VarInt:
		WriteVarInt(cb, e.Value())
	case VarStr:
		WriteVarStr(cb, e)
	case *VarStr:
		WriteVarStr(cb, *e)
	case NetAddress:
		WriteNetAddress(cb, &e, tag == TagNetAddress)
	case *NetAddress:
		WriteNetAddress(cb, e, tag == TagNetAddress)
	}
}

// Unpack decodes fields from cb according to format into dsts, which must be
// pointers of the matching type for each tag:
//
//	b *uint8   B *int8   s *uint16  S *int16
//	i *uint32  I *int32  l *uint64  L *int64
//	v *VarInt or *uint64         j *VarStr
//	n, N *NetAddress             h *Hash or *chainhash.Hash
//	o *uint64
//
// Decoding continues from the current cursor and stops at the first field
// that does not fit in the remaining bytes; the returned error is then an
// *UnpackError and the returned cursor is the position reached. Fields
// decoded before the failure are left in their destinations. VarStr
// destinations borrow from cb, see VarStr.
func Unpack(cb *CheckedBuffer, format string, dsts ...interface{}) (int, error) {
	if err := validateFormat(format); err != nil {
		return cb.Cursor(), err
	}
	if len(format) != len(dsts) {
		return cb.Cursor(), &FormatError{Format: format, Position: len(format),
			Err: ErrArgumentMismatch, Detail: argumentCountDetail(len(format), len(dsts))}
	}

	for i := 0; i < len(format); i++ {
		if !unpackDestinationMatches(format[i], dsts[i]) {
			return cb.Cursor(), &FormatError{Format: format, Position: i,
				Tag: format[i], Err: ErrArgumentMismatch,
				Detail: errors.Errorf("cannot unpack into %T", dsts[i]).Error()}
		}
	}

	for i := 0; i < len(format); i++ {
		if err := unpackValue(cb, format[i], dsts[i]); err != nil {
			return cb.Cursor(), &UnpackError{Tag: format[i], Position: i,
				Cursor: cb.Cursor()}
		}
	}
	return cb.Cursor(), nil
}

// unpackDestinationMatches returns whether dst may receive a field of tag.
func unpackDestinationMatches(tag byte, dst interface{}) bool {
	switch dst.(type) {
	case *uint8:
		return tag == TagUint8
	case *int8:
		return tag == TagInt8
	case *uint16:
		return tag == TagUint16
	case *int16:
		return tag == TagInt16
	case *uint32:
		return tag == TagUint32
	case *int32:
		return tag == TagInt32
	case *uint64:
		return tag == TagUint64 || tag == TagVarInt || tag == TagNonce
	case *int64:
		return tag == TagInt64
	case *VarInt:
		return tag == TagVarInt
	case *VarStr:
		return tag == TagVarStr
	case *NetAddress:
		return tag == TagNetAddress || tag == TagNetAddrNoT
	case *Hash, *chainhash.Hash:
		return tag == TagHash
	}
	return false
}

// unpackValue decodes one field into dst, which must already have been
// matched against tag. It returns ErrDecodeUnderrun when the field does not
// fit in the remaining bytes.
func unpackValue(cb *CheckedBuffer, tag byte, dst interface{}) error {
	var buf [8]byte
	switch e := dst.(type) {
	case *uint8:
		if !cb.Read(buf[:1]) {
			return ErrDecodeUnderrun
		}
		*e = buf[0]
	case *int8:
		if !cb.Read(buf[:1]) {
			return ErrDecodeUnderrun
		}
		*e = int8(buf[0])
	case *uint16:
		if !cb.Read(buf[:2]) {
			return ErrDecodeUnderrun
		}
		*e = littleEndian.Uint16(buf[:])
	case *int16:
		if !cb.Read(buf[:2]) {
			return ErrDecodeUnderrun
		}
		*e = int16(littleEndian.Uint16(buf[:]))
	case *uint32:
		if !cb.Read(buf[:4]) {
			return ErrDecodeUnderrun
		}
		*e = littleEndian.Uint32(buf[:])
	case *int32:
		if !cb.Read(buf[:4]) {
			return ErrDecodeUnderrun
		}
		*e = int32(littleEndian.Uint32(buf[:]))
	case *uint64:
		if tag == TagVarInt {
			vi, err := ReadVarInt(cb)
			if err != nil {
				return err
			}
			*e = vi.Value()
			return nil
		}
		if !cb.Read(buf[:]) {
			return ErrDecodeUnderrun
		}
		*e = littleEndian.Uint64(buf[:])
	case *int64:
		if !cb.Read(buf[:]) {
			return ErrDecodeUnderrun
		}
		*e = int64(littleEndian.Uint64(buf[:]))
	case *VarInt:
		vi, err := ReadVarInt(cb)
		if err != nil {
			return err
		}
		*e = vi
	case *VarStr:
		vs, err := ReadVarStr(cb)
		if err != nil {
			return err
		}
		*e = vs
	case *NetAddress:
		return ReadNetAddress(cb, e, tag == TagNetAddress)
	case *Hash:
		if !cb.Read(e[:]) {
			return ErrDecodeUnderrun
		}
	case *chainhash.Hash:
		if !cb.Read(e[:]) {
			return ErrDecodeUnderrun
		}
	}
	return nil
}
