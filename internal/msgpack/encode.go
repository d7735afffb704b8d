package msgpack

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/value"
)

// Encode serializes v back to bytes, choosing the same tag class it was
// decoded with (carried in v's width/length-class fields) so that an
// unmodified value round-trips byte-for-byte. A value built or mutated by
// user code without width/length classes set falls through to the
// shortest-fitting tag, matching how the reference encoder behaves for
// newly-inserted fields.
func Encode(v value.Value) []byte {
	c := bytecursor.NewWriter()
	encodeValue(c, v)
	return c.Bytes()
}

func encodeValue(c *bytecursor.Cursor, v value.Value) {
	switch v.Kind {
	case value.KindNull:
		c.WriteU8(tagNil)
	case value.KindBool:
		if v.Bool {
			c.WriteU8(tagTrue)
		} else {
			c.WriteU8(tagFalse)
		}
	case value.KindInt:
		encodeInt(c, v)
	case value.KindUint:
		encodeUint(c, v)
	case value.KindFloat32:
		c.WriteU8(tagFloat32)
		c.WriteFloat32BE(v.Float32)
	case value.KindFloat64:
		c.WriteU8(tagFloat64)
		c.WriteFloat64BE(v.Float64)
	case value.KindString:
		encodeStr(c, v)
	case value.KindBytes:
		encodeBin(c, v)
	case value.KindExtension:
		encodeExt(c, v)
	case value.KindArray:
		encodeArray(c, v)
	case value.KindMap:
		encodeMap(c, v)
	case value.KindNested:
		// Callers are expected to have flattened KindNested back to Bytes
		// via the nested payload processor before reaching the codec; if
		// one slips through, fall back to re-encoding its inner tree so
		// Encode never panics on a well-formed tree.
		encodeValue(c, *v.Nested)
	default:
		panic(fmt.Sprintf("msgpack: encode: unhandled kind %v", v.Kind))
	}
}

func encodeInt(c *bytecursor.Cursor, v value.Value) {
	n := v.Int
	switch v.IntW {
	case value.WidthFixed:
		if n >= -32 && n <= 127 {
			c.WriteI8(int8(n))
			return
		}
		// Value no longer fits in a fixint tag (user mutation); fall
		// through to the narrowest explicit-width tag.
	case value.Width8:
		c.WriteU8(tagInt8)
		c.WriteI8(int8(n))
		return
	case value.Width16:
		c.WriteU8(tagInt16)
		c.WriteI16(int16(n))
		return
	case value.Width32:
		c.WriteU8(tagInt32)
		c.WriteI32(int32(n))
		return
	case value.Width64:
		c.WriteU8(tagInt64)
		c.WriteI64(n)
		return
	}
	switch {
	case n >= -32 && n <= 127:
		c.WriteI8(int8(n))
	case n >= -128 && n <= 127:
		c.WriteU8(tagInt8)
		c.WriteI8(int8(n))
	case n >= -32768 && n <= 32767:
		c.WriteU8(tagInt16)
		c.WriteI16(int16(n))
	case n >= -2147483648 && n <= 2147483647:
		c.WriteU8(tagInt32)
		c.WriteI32(int32(n))
	default:
		c.WriteU8(tagInt64)
		c.WriteI64(n)
	}
}

func encodeUint(c *bytecursor.Cursor, v value.Value) {
	n := v.Uint
	switch v.IntW {
	case value.WidthFixed:
		if n <= 127 {
			c.WriteU8(uint8(n))
			return
		}
	case value.Width8:
		c.WriteU8(tagUint8)
		c.WriteU8(uint8(n))
		return
	case value.Width16:
		c.WriteU8(tagUint16)
		c.WriteU16(uint16(n))
		return
	case value.Width32:
		c.WriteU8(tagUint32)
		c.WriteU32(uint32(n))
		return
	case value.Width64:
		c.WriteU8(tagUint64)
		c.WriteU64(n)
		return
	}
	switch {
	case n <= 127:
		c.WriteU8(uint8(n))
	case n <= 0xff:
		c.WriteU8(tagUint8)
		c.WriteU8(uint8(n))
	case n <= 0xffff:
		c.WriteU8(tagUint16)
		c.WriteU16(uint16(n))
	case n <= 0xffffffff:
		c.WriteU8(tagUint32)
		c.WriteU32(uint32(n))
	default:
		c.WriteU8(tagUint64)
		c.WriteU64(n)
	}
}

func encodeStr(c *bytecursor.Cursor, v value.Value) {
	b := []byte(v.Str)
	n := len(b)
	switch v.LenC {
	case value.LenFixed:
		if n <= 31 {
			c.WriteU8(byte(tagFixStrBase + n))
			c.WriteBytes(b)
			return
		}
	case value.Len8:
		c.WriteU8(tagStr8)
		c.WriteU8(uint8(n))
		c.WriteBytes(b)
		return
	case value.Len16:
		c.WriteU8(tagStr16)
		c.WriteU16(uint16(n))
		c.WriteBytes(b)
		return
	case value.Len32:
		c.WriteU8(tagStr32)
		c.WriteU32(uint32(n))
		c.WriteBytes(b)
		return
	}
	writeStrShortest(c, b)
}

func writeStrShortest(c *bytecursor.Cursor, b []byte) {
	n := len(b)
	switch {
	case n <= 31:
		c.WriteU8(byte(tagFixStrBase + n))
	case n <= 0xff:
		c.WriteU8(tagStr8)
		c.WriteU8(uint8(n))
	case n <= 0xffff:
		c.WriteU8(tagStr16)
		c.WriteU16(uint16(n))
	default:
		c.WriteU8(tagStr32)
		c.WriteU32(uint32(n))
	}
	c.WriteBytes(b)
}

func encodeBin(c *bytecursor.Cursor, v value.Value) {
	n := len(v.Bin)
	switch v.LenC {
	case value.Len8:
		c.WriteU8(tagBin8)
		c.WriteU8(uint8(n))
		c.WriteBytes(v.Bin)
		return
	case value.Len16:
		c.WriteU8(tagBin16)
		c.WriteU16(uint16(n))
		c.WriteBytes(v.Bin)
		return
	case value.Len32:
		c.WriteU8(tagBin32)
		c.WriteU32(uint32(n))
		c.WriteBytes(v.Bin)
		return
	}
	switch {
	case n <= 0xff:
		c.WriteU8(tagBin8)
		c.WriteU8(uint8(n))
	case n <= 0xffff:
		c.WriteU8(tagBin16)
		c.WriteU16(uint16(n))
	default:
		c.WriteU8(tagBin32)
		c.WriteU32(uint32(n))
	}
	c.WriteBytes(v.Bin)
}

var fixExtSizes = map[int]byte{1: tagFixExt1, 2: tagFixExt2, 4: tagFixExt4, 8: tagFixExt8, 16: tagFixExt16}

func encodeExt(c *bytecursor.Cursor, v value.Value) {
	n := len(v.ExtData)
	if v.LenC == value.LenFixed {
		if tag, ok := fixExtSizes[n]; ok {
			c.WriteU8(tag)
			c.WriteI8(v.ExtCode)
			c.WriteBytes(v.ExtData)
			return
		}
	}
	switch {
	case v.LenC == value.Len8 || (v.LenC == value.LenFixed && n <= 0xff):
		c.WriteU8(tagExt8)
		c.WriteU8(uint8(n))
	case v.LenC == value.Len16 || (v.LenC == value.LenFixed && n <= 0xffff):
		c.WriteU8(tagExt16)
		c.WriteU16(uint16(n))
	default:
		c.WriteU8(tagExt32)
		c.WriteU32(uint32(n))
	}
	c.WriteI8(v.ExtCode)
	c.WriteBytes(v.ExtData)
}

func encodeArray(c *bytecursor.Cursor, v value.Value) {
	n := len(v.Array)
	switch v.LenC {
	case value.LenFixed:
		if n <= 15 {
			c.WriteU8(byte(tagFixArrayBase + n))
			for _, e := range v.Array {
				encodeValue(c, e)
			}
			return
		}
	case value.Len16:
		c.WriteU8(tagArray16)
		c.WriteU16(uint16(n))
		for _, e := range v.Array {
			encodeValue(c, e)
		}
		return
	case value.Len32:
		c.WriteU8(tagArray32)
		c.WriteU32(uint32(n))
		for _, e := range v.Array {
			encodeValue(c, e)
		}
		return
	}
	switch {
	case n <= 15:
		c.WriteU8(byte(tagFixArrayBase + n))
	case n <= 0xffff:
		c.WriteU8(tagArray16)
		c.WriteU16(uint16(n))
	default:
		c.WriteU8(tagArray32)
		c.WriteU32(uint32(n))
	}
	for _, e := range v.Array {
		encodeValue(c, e)
	}
}

func encodeMap(c *bytecursor.Cursor, v value.Value) {
	n := len(v.Map)
	switch v.LenC {
	case value.LenFixed:
		if n <= 15 {
			c.WriteU8(byte(tagFixMapBase + n))
			writeMapEntries(c, v)
			return
		}
	case value.Len16:
		c.WriteU8(tagMap16)
		c.WriteU16(uint16(n))
		writeMapEntries(c, v)
		return
	case value.Len32:
		c.WriteU8(tagMap32)
		c.WriteU32(uint32(n))
		writeMapEntries(c, v)
		return
	}
	switch {
	case n <= 15:
		c.WriteU8(byte(tagFixMapBase + n))
	case n <= 0xffff:
		c.WriteU8(tagMap16)
		c.WriteU16(uint16(n))
	default:
		c.WriteU8(tagMap32)
		c.WriteU32(uint32(n))
	}
	writeMapEntries(c, v)
}

func writeMapEntries(c *bytecursor.Cursor, v value.Value) {
	for _, p := range v.Map {
		encodeValue(c, p.Key)
		encodeValue(c, p.Val)
	}
}
