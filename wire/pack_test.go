package wire

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPackFixedWidth(t *testing.T) {
	cb := NewCheckedBuffer()
	cb.PrepareWrite()

	n, err := Pack(cb, "bBsSiIlL",
		Uint8(0x01), Int8(-2),
		Uint16(0x0302), Int16(-3),
		Uint32(0x07060504), Int32(-4),
		Uint64(0x0f0e0d0c0b0a0908), Int64(-5))
	require.NoError(t, err)
	require.Equal(t, 30, n)

	want := []byte{
		0x01, 0xfe,
		0x02, 0x03, 0xfd, 0xff,
		0x04, 0x05, 0x06, 0x07, 0xfc, 0xff, 0xff, 0xff,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
	require.Equal(t, want, cb.Bytes())

	cb.ReadReset()
	var (
		u8  uint8
		i8  int8
		u16 uint16
		i16 int16
		u32 uint32
		i32 int32
		u64 uint64
		i64 int64
	)
	cursor, err := Unpack(cb, "bBsSiIlL", &u8, &i8, &u16, &i16, &u32, &i32, &u64, &i64)
	require.NoError(t, err)
	require.Equal(t, 30, cursor)
	require.Equal(t, uint8(0x01), u8)
	require.Equal(t, int8(-2), i8)
	require.Equal(t, uint16(0x0302), u16)
	require.Equal(t, int16(-3), i16)
	require.Equal(t, uint32(0x07060504), u32)
	require.Equal(t, int32(-4), i32)
	require.Equal(t, uint64(0x0f0e0d0c0b0a0908), u64)
	require.Equal(t, int64(-5), i64)
}

func TestPackVersion(t *testing.T) {
	recv := NewNetAddressIPPort(net.ParseIP("127.0.0.1"), 8333, 0)
	from := NewNetAddressIPPort(net.ParseIP("10.0.0.2"), 8333, SFNodeNetwork)
	timestamp := time.Unix(1600000000, 0)

	cb := NewCheckedBuffer()
	cb.PrepareWrite()
	n, err := Pack(cb, VersionFormat,
		Uint32(ProtocolVersion),
		Uint64(SFNodeNetwork),
		Int64(timestamp.Unix()),
		recv,
		from,
		NewVarStrString(DefaultUserAgent),
		Int32(650000),
		Uint8(1))
	require.NoError(t, err)
	require.Equal(t, 4+8+8+26+26+8+1+len(DefaultUserAgent)+4+1, n)

	cb.ReadReset()
	var (
		version     uint32
		services    uint64
		ts          int64
		gotRecv     NetAddress
		gotFrom     NetAddress
		nonce       uint64
		userAgent   VarStr
		startHeight int32
		relay       uint8
	)
	cursor, err := Unpack(cb, VersionFormat, &version, &services, &ts,
		&gotRecv, &gotFrom, &nonce, &userAgent, &startHeight, &relay)
	require.NoError(t, err)
	require.Equal(t, n, cursor)
	require.Equal(t, ProtocolVersion, version)
	require.Equal(t, uint64(SFNodeNetwork), services)
	require.Equal(t, timestamp.Unix(), ts)
	require.True(t, gotRecv.IP.Equal(recv.IP))
	require.Equal(t, recv.Port, gotRecv.Port)
	require.True(t, gotFrom.IP.Equal(from.IP))
	require.Equal(t, SFNodeNetwork, gotFrom.Services)
	require.Equal(t, DefaultUserAgent, userAgent.String())
	require.Equal(t, int32(650000), startHeight)
	require.Equal(t, uint8(1), relay)
}

func TestPackNonce(t *testing.T) {
	cb := NewCheckedBuffer()
	cb.PrepareWrite()
	n, err := Pack(cb, "o")
	require.NoError(t, err)
	require.Equal(t, 8, n)

	cb.ReadReset()
	var first uint64
	_, err = Unpack(cb, "o", &first)
	require.NoError(t, err)

	cb.PrepareWrite()
	_, err = Pack(cb, "o")
	require.NoError(t, err)
	cb.ReadReset()
	var second uint64
	_, err = Unpack(cb, "l", &second)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestPackHashAndVarInt(t *testing.T) {
	hash := chainhash.DoubleHashH([]byte("btcp2p"))

	cb := NewCheckedBuffer()
	cb.PrepareWrite()
	_, err := Pack(cb, "hvvh", Hash(hash), NewVarInt(0xfd), NewVarInt(7), &Hash{0x01})
	require.NoError(t, err)
	require.Equal(t, 32+3+1+32, cb.Len())

	cb.ReadReset()
	var (
		gotHash   chainhash.Hash
		gotVarInt VarInt
		gotSmall  uint64
		gotHash2  Hash
	)
	_, err = Unpack(cb, "hvvh", &gotHash, &gotVarInt, &gotSmall, &gotHash2)
	require.NoError(t, err)
	require.Equal(t, hash, gotHash)
	require.Equal(t, uint64(0xfd), gotVarInt.Value())
	require.Equal(t, 3, gotVarInt.Length())
	require.Equal(t, uint64(7), gotSmall)
	require.Equal(t, Hash{0x01}, gotHash2)
}

func TestPackFormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		values   []Value
		sentinel error
		position int
	}{
		{"unknown tag", "bxi", []Value{Uint8(1), Uint32(2)}, ErrUnknownTag, 1},
		{"wrong type", "bi", []Value{Uint8(1), Uint16(2)}, ErrArgumentMismatch, 1},
		{"too few", "bi", []Value{Uint8(1)}, ErrArgumentMismatch, 2},
		{"too many", "b", []Value{Uint8(1), Uint8(2)}, ErrArgumentMismatch, 1},
		{"nonce takes nothing", "o", []Value{Uint64(1)}, ErrArgumentMismatch, 1},
		{"netaddr for varstr", "j", []Value{NetAddress{}}, ErrArgumentMismatch, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cb := NewCheckedBuffer()
			cb.PrepareWrite()
			n, err := Pack(cb, test.format, test.values...)
			require.ErrorIs(t, err, test.sentinel)

			var formatErr *FormatError
			require.True(t, errors.As(err, &formatErr))
			require.Equal(t, test.position, formatErr.Position)

			// Nothing is written for a rejected format.
			require.Equal(t, 0, n)
			require.Equal(t, 0, cb.Len())
		})
	}
}

func TestPackStaleVarStr(t *testing.T) {
	src := NewCheckedBuffer()
	src.PrepareRead([]byte{0x02, 'h', 'i'})
	var vs VarStr
	_, err := Unpack(src, "j", &vs)
	require.NoError(t, err)

	dst := NewCheckedBuffer()
	dst.PrepareWrite()
	_, err = Pack(dst, "j", vs)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 'h', 'i'}, dst.Bytes())

	src.PrepareWrite()
	dst.PrepareWrite()
	_, err = Pack(dst, "j", vs)
	require.ErrorIs(t, err, ErrStaleView)
	require.Equal(t, 0, dst.Len())
}

func TestUnpackErrors(t *testing.T) {
	cb := NewCheckedBuffer()
	cb.PrepareRead([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	var (
		u8  uint8
		u32 uint32
		u16 uint16
	)
	cursor, err := Unpack(cb, "bis", &u8, &u32, &u16)
	require.ErrorIs(t, err, ErrDecodeUnderrun)
	require.Equal(t, 5, cursor)

	var unpackErr *UnpackError
	require.True(t, errors.As(err, &unpackErr))
	require.Equal(t, byte('s'), unpackErr.Tag)
	require.Equal(t, 2, unpackErr.Position)
	require.Equal(t, 5, unpackErr.Cursor)

	// Fields decoded before the failure are kept.
	require.Equal(t, uint8(0x01), u8)
	require.Equal(t, uint32(0x05040302), u32)

	cb.ReadReset()
	cursor, err = Unpack(cb, "bz", &u8, &u32)
	require.ErrorIs(t, err, ErrUnknownTag)
	require.Equal(t, 0, cursor)

	cursor, err = Unpack(cb, "bi", &u8, &u16)
	require.ErrorIs(t, err, ErrArgumentMismatch)
	require.Equal(t, 0, cursor)

	_, err = Unpack(cb, "bi", &u8)
	require.ErrorIs(t, err, ErrArgumentMismatch)

	_, err = Unpack(cb, "b", u8)
	require.ErrorIs(t, err, ErrArgumentMismatch)

	// A varstr longer than what is left fails without moving past its
	// length prefix's discriminant.
	cb.PrepareRead([]byte{0x09, 'a', 'b'})
	var vs VarStr
	cursor, err = Unpack(cb, "j", &vs)
	require.ErrorIs(t, err, ErrDecodeUnderrun)
	require.Equal(t, 1, cursor)
	require.Equal(t, uint64(0), vs.Len())
}

func TestUnpackContinuesFromCursor(t *testing.T) {
	cb := NewCheckedBuffer()
	cb.PrepareRead([]byte{0x01, 0x02, 0x00, 0x03})

	var first uint8
	cursor, err := Unpack(cb, "b", &first)
	require.NoError(t, err)
	require.Equal(t, 1, cursor)

	var second uint16
	var third uint8
	cursor, err = Unpack(cb, "sb", &second, &third)
	require.NoError(t, err)
	require.Equal(t, 4, cursor)
	require.Equal(t, uint16(0x0002), second)
	require.Equal(t, uint8(0x03), third)
}

// TestPackRoundTrip packs random values under a random format and checks
// that unpacking yields the same values and consumes exactly what was
// written.
func TestPackRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		format := rapid.StringOfN(rapid.SampledFrom([]rune("bBsSiIlLvjNnh")),
			0, 16, -1).Draw(t, "format")

		values := make([]Value, len(format))
		for i := 0; i < len(format); i++ {
			switch format[i] {
			case TagUint8:
				values[i] = Uint8(rapid.Uint8().Draw(t, "u8"))
			case TagInt8:
				values[i] = Int8(rapid.Int8().Draw(t, "i8"))
			case TagUint16:
				values[i] = Uint16(rapid.Uint16().Draw(t, "u16"))
			case TagInt16:
				values[i] = Int16(rapid.Int16().Draw(t, "i16"))
			case TagUint32:
				values[i] = Uint32(rapid.Uint32().Draw(t, "u32"))
			case TagInt32:
				values[i] = Int32(rapid.Int32().Draw(t, "i32"))
			case TagUint64:
				values[i] = Uint64(rapid.Uint64().Draw(t, "u64"))
			case TagInt64:
				values[i] = Int64(rapid.Int64().Draw(t, "i64"))
			case TagVarInt:
				values[i] = NewVarInt(rapid.Uint64().Draw(t, "varint"))
			case TagVarStr:
				values[i] = NewVarStr(rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "varstr"))
			case TagNetAddress, TagNetAddrNoT:
				ip := net.IP(rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "ip"))
				values[i] = NetAddress{
					Timestamp: time.Unix(int64(rapid.Uint32().Draw(t, "ts")), 0),
					Services:  ServiceFlag(rapid.Uint64().Draw(t, "services")),
					IP:        ip,
					Port:      rapid.Uint16().Draw(t, "port"),
				}
			case TagHash:
				var h Hash
				copy(h[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash"))
				values[i] = h
			}
		}

		cb := NewCheckedBuffer()
		cb.PrepareWrite()
		n, err := Pack(cb, format, values...)
		if err != nil {
			t.Fatalf("Pack(%q): %v", format, err)
		}

		dsts := make([]interface{}, len(format))
		for i := 0; i < len(format); i++ {
			switch format[i] {
			case TagUint8:
				dsts[i] = new(uint8)
			case TagInt8:
				dsts[i] = new(int8)
			case TagUint16:
				dsts[i] = new(uint16)
			case TagInt16:
				dsts[i] = new(int16)
			case TagUint32:
				dsts[i] = new(uint32)
			case TagInt32:
				dsts[i] = new(int32)
			case TagUint64:
				dsts[i] = new(uint64)
			case TagInt64:
				dsts[i] = new(int64)
			case TagVarInt:
				dsts[i] = new(VarInt)
			case TagVarStr:
				dsts[i] = new(VarStr)
			case TagNetAddress, TagNetAddrNoT:
				dsts[i] = new(NetAddress)
			case TagHash:
				dsts[i] = new(Hash)
			}
		}

		cb.ReadReset()
		cursor, err := Unpack(cb, format, dsts...)
		if err != nil {
			t.Fatalf("Unpack(%q): %v", format, err)
		}
		if cursor != n {
			t.Fatalf("Unpack(%q) consumed %d bytes, Pack wrote %d", format, cursor, n)
		}

		for i := 0; i < len(format); i++ {
			var equal bool
			switch want := values[i].(type) {
			case Uint8:
				equal = uint8(want) == *dsts[i].(*uint8)
			case Int8:
				equal = int8(want) == *dsts[i].(*int8)
			case Uint16:
				equal = uint16(want) == *dsts[i].(*uint16)
			case Int16:
				equal = int16(want) == *dsts[i].(*int16)
			case Uint32:
				equal = uint32(want) == *dsts[i].(*uint32)
			case Int32:
				equal = int32(want) == *dsts[i].(*int32)
			case Uint64:
				equal = uint64(want) == *dsts[i].(*uint64)
			case Int64:
				equal = int64(want) == *dsts[i].(*int64)
			case VarInt:
				equal = want.Value() == dsts[i].(*VarInt).Value()
			case VarStr:
				got, err := dsts[i].(*VarStr).Bytes()
				wantBytes, _ := want.Bytes()
				equal = err == nil && bytes.Equal(wantBytes, got)
			case NetAddress:
				got := dsts[i].(*NetAddress)
				equal = want.IP.Equal(got.IP) && want.Port == got.Port &&
					want.Services == got.Services
				if format[i] == TagNetAddress {
					equal = equal && want.Timestamp.Equal(got.Timestamp)
				}
			case Hash:
				equal = want == *dsts[i].(*Hash)
			}
			if !equal {
				t.Fatalf("field %d (%c) did not round trip", i, format[i])
			}
		}
	})
}

// TestUnpackTruncated checks that unpacking any prefix of a valid encoding
// fails with ErrDecodeUnderrun and never reads past the data.
func TestUnpackTruncated(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cb := NewCheckedBuffer()
		cb.PrepareWrite()
		_, err := Pack(cb, "ljvN", Uint64(1),
			NewVarStr(rapid.SliceOfN(rapid.Byte(), 0, 100).Draw(t, "str")),
			NewVarInt(rapid.Uint64().Draw(t, "v")),
			NetAddress{IP: net.ParseIP("::1"), Port: 1})
		if err != nil {
			t.Fatalf("Pack: %v", err)
		}
		full := append([]byte(nil), cb.Bytes()...)
		cut := rapid.IntRange(0, len(full)-1).Draw(t, "cut")

		cb.PrepareRead(full[:cut])
		var (
			l  uint64
			vs VarStr
			v  uint64
			na NetAddress
		)
		cursor, err := Unpack(cb, "ljvN", &l, &vs, &v, &na)
		if !errors.Is(err, ErrDecodeUnderrun) {
			t.Fatalf("Unpack of %d/%d bytes: got %v", cut, len(full), err)
		}
		if cursor > cut {
			t.Fatalf("Unpack cursor %d beyond %d bytes", cursor, cut)
		}
	})
}
