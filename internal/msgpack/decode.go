// Package msgpack decodes and encodes the self-describing binary object
// format used for the block catalog and every known block's body.
//
// Decoding produces a value.Value whose Kind and width/length-class fields
// match the exact tag byte observed, with no normalization of a uint8 up
// to a generic 64-bit integer, because the encoder must later choose the
// same tag to reproduce the original bytes. See value.Value's doc comment
// for why the width is part of the value rather than an encoding decision
// made fresh at Encode time.
package msgpack

import (
	"fmt"
	"unicode/utf8"

	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/value"
)

// ErrTruncated is returned when a decode runs off the end of the buffer.
var ErrTruncated = fmt.Errorf("msgpack: truncated input")

// ErrUnsupportedTag is returned when a decode encounters a tag byte this
// codec does not know how to interpret.
var ErrUnsupportedTag = fmt.Errorf("msgpack: unsupported tag")

// Decode reads exactly one object-value from the front of buf and returns
// it along with the number of bytes consumed.
func Decode(buf []byte) (value.Value, int, error) {
	c := bytecursor.NewReader(buf)
	v, err := decodeValue(c)
	if err != nil {
		return value.Value{}, 0, err
	}
	return v, c.Pos(), nil
}

// DecodeAll decodes a single top-level value and requires that it consumes
// the entire buffer; used for nested payloads, where a short decode must
// not be treated as success (see NestedPayloadProcessor's contract).
func DecodeAll(buf []byte) (value.Value, error) {
	v, n, err := Decode(buf)
	if err != nil {
		return value.Value{}, err
	}
	if n != len(buf) {
		return value.Value{}, fmt.Errorf("msgpack: trailing %d unconsumed bytes: %w", len(buf)-n, ErrTruncated)
	}
	return v, nil
}

func decodeValue(c *bytecursor.Cursor) (value.Value, error) {
	tagByte, err := c.ReadU8()
	if err != nil {
		return value.Value{}, fmt.Errorf("msgpack: reading tag byte: %w", ErrTruncated)
	}
	tag := int(tagByte)

	switch {
	case tag <= tagPosFixIntMax:
		return value.NewUint(uint64(tag), value.WidthFixed), nil
	case tag >= tagNegFixIntMin && tag <= 0xff:
		return value.NewInt(int64(int8(tagByte)), value.WidthFixed), nil
	case tag >= tagFixMapBase && tag <= tagFixMapBase+0xf:
		return decodeMap(c, tag-tagFixMapBase, value.LenFixed)
	case tag >= tagFixArrayBase && tag <= tagFixArrayBase+0xf:
		return decodeArray(c, tag-tagFixArrayBase, value.LenFixed)
	case tag >= tagFixStrBase && tag <= tagFixStrBase+0x1f:
		return decodeStr(c, tag-tagFixStrBase, value.LenFixed)
	}

	switch tagByte {
	case tagNil:
		return value.Null(), nil
	case tagFalse:
		return value.NewBool(false), nil
	case tagTrue:
		return value.NewBool(true), nil
	case tagBin8:
		n, err := c.ReadU8()
		if err != nil {
			return value.Value{}, wrapTrunc("bin8 length", err)
		}
		return decodeBin(c, int(n), value.Len8)
	case tagBin16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("bin16 length", err)
		}
		return decodeBin(c, int(n), value.Len16)
	case tagBin32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("bin32 length", err)
		}
		return decodeBin(c, int(n), value.Len32)
	case tagExt8:
		n, err := c.ReadU8()
		if err != nil {
			return value.Value{}, wrapTrunc("ext8 length", err)
		}
		return decodeExt(c, int(n), value.Len8)
	case tagExt16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("ext16 length", err)
		}
		return decodeExt(c, int(n), value.Len16)
	case tagExt32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("ext32 length", err)
		}
		return decodeExt(c, int(n), value.Len32)
	case tagFloat32:
		f, err := c.ReadFloat32BE()
		if err != nil {
			return value.Value{}, wrapTrunc("float32", err)
		}
		return value.NewFloat32(f), nil
	case tagFloat64:
		f, err := c.ReadFloat64BE()
		if err != nil {
			return value.Value{}, wrapTrunc("float64", err)
		}
		return value.NewFloat64(f), nil
	case tagUint8:
		n, err := c.ReadU8()
		if err != nil {
			return value.Value{}, wrapTrunc("uint8", err)
		}
		return value.NewUint(uint64(n), value.Width8), nil
	case tagUint16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("uint16", err)
		}
		return value.NewUint(uint64(n), value.Width16), nil
	case tagUint32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("uint32", err)
		}
		return value.NewUint(uint64(n), value.Width32), nil
	case tagUint64:
		n, err := c.ReadU64()
		if err != nil {
			return value.Value{}, wrapTrunc("uint64", err)
		}
		return value.NewUint(n, value.Width64), nil
	case tagInt8:
		n, err := c.ReadI8()
		if err != nil {
			return value.Value{}, wrapTrunc("int8", err)
		}
		return value.NewInt(int64(n), value.Width8), nil
	case tagInt16:
		n, err := c.ReadI16()
		if err != nil {
			return value.Value{}, wrapTrunc("int16", err)
		}
		return value.NewInt(int64(n), value.Width16), nil
	case tagInt32:
		n, err := c.ReadI32()
		if err != nil {
			return value.Value{}, wrapTrunc("int32", err)
		}
		return value.NewInt(int64(n), value.Width32), nil
	case tagInt64:
		n, err := c.ReadI64()
		if err != nil {
			return value.Value{}, wrapTrunc("int64", err)
		}
		return value.NewInt(n, value.Width64), nil
	case tagFixExt1:
		return decodeExt(c, 1, value.LenFixed)
	case tagFixExt2:
		return decodeExt(c, 2, value.LenFixed)
	case tagFixExt4:
		return decodeExt(c, 4, value.LenFixed)
	case tagFixExt8:
		return decodeExt(c, 8, value.LenFixed)
	case tagFixExt16:
		return decodeExt(c, 16, value.LenFixed)
	case tagStr8:
		n, err := c.ReadU8()
		if err != nil {
			return value.Value{}, wrapTrunc("str8 length", err)
		}
		return decodeStr(c, int(n), value.Len8)
	case tagStr16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("str16 length", err)
		}
		return decodeStr(c, int(n), value.Len16)
	case tagStr32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("str32 length", err)
		}
		return decodeStr(c, int(n), value.Len32)
	case tagArray16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("array16 length", err)
		}
		return decodeArray(c, int(n), value.Len16)
	case tagArray32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("array32 length", err)
		}
		return decodeArray(c, int(n), value.Len32)
	case tagMap16:
		n, err := c.ReadU16()
		if err != nil {
			return value.Value{}, wrapTrunc("map16 length", err)
		}
		return decodeMap(c, int(n), value.Len16)
	case tagMap32:
		n, err := c.ReadU32()
		if err != nil {
			return value.Value{}, wrapTrunc("map32 length", err)
		}
		return decodeMap(c, int(n), value.Len32)
	default:
		return value.Value{}, fmt.Errorf("msgpack: tag byte 0x%02x: %w", tagByte, ErrUnsupportedTag)
	}
}

func wrapTrunc(what string, err error) error {
	return fmt.Errorf("msgpack: reading %s: %w", what, ErrTruncated)
}

func decodeBin(c *bytecursor.Cursor, n int, lc value.LenClass) (value.Value, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return value.Value{}, wrapTrunc("bin body", err)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return value.NewBytes(cp, lc), nil
}

func decodeExt(c *bytecursor.Cursor, n int, lc value.LenClass) (value.Value, error) {
	code, err := c.ReadI8()
	if err != nil {
		return value.Value{}, wrapTrunc("ext type code", err)
	}
	b, err := c.ReadBytes(n)
	if err != nil {
		return value.Value{}, wrapTrunc("ext body", err)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return value.NewExtension(code, cp, lc), nil
}

// decodeStr decodes n raw bytes as a string tag. Per spec, strings here are
// always expected to be valid UTF-8; when they are not, the field downgrades
// to a Bytes value of the same length class rather than failing the decode.
func decodeStr(c *bytecursor.Cursor, n int, lc value.LenClass) (value.Value, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return value.Value{}, wrapTrunc("string body", err)
	}
	if !utf8.Valid(b) {
		cp := make([]byte, len(b))
		copy(cp, b)
		return value.NewBytes(cp, lc), nil
	}
	return value.NewString(string(b), lc), nil
}

func decodeArray(c *bytecursor.Cursor, n int, lc value.LenClass) (value.Value, error) {
	elems := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeValue(c)
		if err != nil {
			return value.Value{}, fmt.Errorf("msgpack: decoding array element %d: %w", i, err)
		}
		elems = append(elems, v)
	}
	return value.NewArray(elems, lc), nil
}

func decodeMap(c *bytecursor.Cursor, n int, lc value.LenClass) (value.Value, error) {
	pairs := make([]value.Pair, 0, n)
	for i := 0; i < n; i++ {
		k, err := decodeValue(c)
		if err != nil {
			return value.Value{}, fmt.Errorf("msgpack: decoding map key %d: %w", i, err)
		}
		v, err := decodeValue(c)
		if err != nil {
			return value.Value{}, fmt.Errorf("msgpack: decoding map value %d: %w", i, err)
		}
		pairs = append(pairs, value.Pair{Key: k, Val: v})
	}
	return value.NewMap(pairs, lc), nil
}
