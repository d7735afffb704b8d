package bytecursor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegerRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteU16(0xBEEF)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(0x0123456789ABCDEF)
	w.WriteI8(-1)
	w.WriteI16(-12345)
	w.WriteI32(-123456789)
	w.WriteI64(-1234567890123)

	r := NewReader(w.Bytes())

	u8, err := r.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789ABCDEF), u64)

	i8, err := r.ReadI8()
	require.NoError(t, err)
	require.Equal(t, int8(-1), i8)

	i16, err := r.ReadI16()
	require.NoError(t, err)
	require.Equal(t, int16(-12345), i16)

	i32, err := r.ReadI32()
	require.NoError(t, err)
	require.Equal(t, int32(-123456789), i32)

	i64, err := r.ReadI64()
	require.NoError(t, err)
	require.Equal(t, int64(-1234567890123), i64)

	require.Zero(t, r.Len())
}

func TestFloatRoundTripBigEndian(t *testing.T) {
	w := NewWriter()
	w.WriteFloat32BE(3.5)
	w.WriteFloat64BE(-2.25)
	w.WriteFloat64BE(math.NaN())
	w.WriteFloat64BE(math.Inf(1))
	w.WriteFloat64BE(math.Copysign(0, -1))

	r := NewReader(w.Bytes())

	f32, err := r.ReadFloat32BE()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)

	f64, err := r.ReadFloat64BE()
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)

	nan, err := r.ReadFloat64BE()
	require.NoError(t, err)
	require.True(t, math.IsNaN(nan))

	inf, err := r.ReadFloat64BE()
	require.NoError(t, err)
	require.True(t, math.IsInf(inf, 1))

	negZero, err := r.ReadFloat64BE()
	require.NoError(t, err)
	require.True(t, negZero == 0 && math.Signbit(negZero), "sign of zero must survive the round trip")
}

func TestLPStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteLPString("こんにちは")
	w.WriteLPString("")

	r := NewReader(w.Bytes())
	s, err := r.ReadLPString()
	require.NoError(t, err)
	require.Equal(t, "こんにちは", s)

	empty, err := r.ReadLPString()
	require.NoError(t, err)
	require.Equal(t, "", empty)
}

func TestShortReadErrors(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.ReadU32()
	require.ErrorIs(t, err, ErrShortRead)
}

func TestSeekOutOfRange(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	require.Error(t, r.Seek(3))
	require.NoError(t, r.Seek(2))
	require.NoError(t, r.Seek(0))
}

func TestPeekDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0xCC})
	b, err := r.Peek(2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, b)
	require.Equal(t, 0, r.Pos())
}
