// Package bytecursor provides a positioned reader/writer over a contiguous
// byte buffer with the width-tagged integer, float and length-prefixed
// string primitives the container header and block catalog are built from.
//
// It intentionally does not know anything about the object codec's own
// framing (MsgpackCodec has its own tag bytes); this package only covers
// the fixed-width fields used by the PNG-trailer header and catalog
// strings, matching the split the reference format keeps between its
// outer header and its embedded object-codec sections.
package bytecursor

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// ErrShortRead is returned when a read would run past the end of the buffer.
var ErrShortRead = fmt.Errorf("bytecursor: short read")

// ErrShortWrite is the sentinel for a fixed-length write given too few
// bytes. No Cursor operation returns it: every write appends its input in
// full.
var ErrShortWrite = fmt.Errorf("bytecursor: short write")

// Cursor reads from or appends to buf, tracking a position used by the
// read-side operations. Write-side operations always append and do not move
// that position; use len(Bytes()) for the number of bytes written.
type Cursor struct {
	buf []byte
	pos int
}

// NewReader returns a Cursor positioned at the start of buf for reading.
// The returned Cursor does not copy buf.
func NewReader(buf []byte) *Cursor { return &Cursor{buf: buf} }

// NewWriter returns a Cursor that appends to an empty internal buffer.
func NewWriter() *Cursor { return &Cursor{buf: make([]byte, 0, 256)} }

// Bytes returns the underlying buffer. In writer mode this is everything
// appended so far; in reader mode this is the original input.
func (c *Cursor) Bytes() []byte { return c.buf }

// Pos returns the current read position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the number of unread bytes remaining.
func (c *Cursor) Len() int { return len(c.buf) - c.pos }

// Seek repositions the read cursor to an absolute offset.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("bytecursor: seek %d out of range [0,%d]: %w", pos, len(c.buf), ErrShortRead)
	}
	c.pos = pos
	return nil
}

// Peek returns the next n bytes without advancing the cursor.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if c.Len() < n {
		return nil, fmt.Errorf("bytecursor: peek %d bytes, %d remain: %w", n, c.Len(), ErrShortRead)
	}
	return c.buf[c.pos : c.pos+n], nil
}

// ReadBytes reads and returns the next n raw bytes, advancing the cursor.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// WriteBytes appends raw bytes verbatim.
func (c *Cursor) WriteBytes(b []byte) {
	c.buf = append(c.buf, b...)
}

// readUint reads a little-endian unsigned integer at the given byte width.
func readUint[T constraints.Unsigned](c *Cursor, width int) (T, error) {
	b, err := c.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	switch width {
	case 1:
		v = uint64(b[0])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		v = binary.LittleEndian.Uint64(b)
	default:
		return 0, fmt.Errorf("bytecursor: unsupported integer width %d", width)
	}
	return T(v), nil
}

func writeUint(c *Cursor, v uint64, width int) {
	b := make([]byte, width)
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
	c.WriteBytes(b)
}

// ReadU8/ReadU16/ReadU32/ReadU64 read little-endian unsigned integers.
func (c *Cursor) ReadU8() (uint8, error)   { return readUint[uint8](c, 1) }
func (c *Cursor) ReadU16() (uint16, error) { return readUint[uint16](c, 2) }
func (c *Cursor) ReadU32() (uint32, error) { return readUint[uint32](c, 4) }
func (c *Cursor) ReadU64() (uint64, error) { return readUint[uint64](c, 8) }

// WriteU8/WriteU16/WriteU32/WriteU64 write little-endian unsigned integers.
func (c *Cursor) WriteU8(v uint8)   { writeUint(c, uint64(v), 1) }
func (c *Cursor) WriteU16(v uint16) { writeUint(c, uint64(v), 2) }
func (c *Cursor) WriteU32(v uint32) { writeUint(c, uint64(v), 4) }
func (c *Cursor) WriteU64(v uint64) { writeUint(c, v, 8) }

// ReadI8/ReadI16/ReadI32/ReadI64 read little-endian signed integers.
func (c *Cursor) ReadI8() (int8, error) {
	u, err := c.ReadU8()
	return int8(u), err
}
func (c *Cursor) ReadI16() (int16, error) {
	u, err := c.ReadU16()
	return int16(u), err
}
func (c *Cursor) ReadI32() (int32, error) {
	u, err := c.ReadU32()
	return int32(u), err
}
func (c *Cursor) ReadI64() (int64, error) {
	u, err := c.ReadU64()
	return int64(u), err
}

// WriteI8/WriteI16/WriteI32/WriteI64 write little-endian signed integers.
func (c *Cursor) WriteI8(v int8)   { c.WriteU8(uint8(v)) }
func (c *Cursor) WriteI16(v int16) { c.WriteU16(uint16(v)) }
func (c *Cursor) WriteI32(v int32) { c.WriteU32(uint32(v)) }
func (c *Cursor) WriteI64(v int64) { c.WriteU64(uint64(v)) }

// ReadFloat32BE/ReadFloat64BE read IEEE-754 floats big-endian, as required
// by the object codec (distinct from the little-endian header integers).
func (c *Cursor) ReadFloat32BE() (float32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (c *Cursor) ReadFloat64BE() (float64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// WriteFloat32BE/WriteFloat64BE write IEEE-754 floats big-endian.
func (c *Cursor) WriteFloat32BE(f float32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(f))
	c.WriteBytes(b)
}

func (c *Cursor) WriteFloat64BE(f float64) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
	c.WriteBytes(b)
}

// ReadLPString reads a 32-bit little-endian length prefix followed by that
// many bytes of UTF-8 text. This framing is used by the container header
// and block catalog, distinct from the object codec's own string tags.
func (c *Cursor) ReadLPString() (string, error) {
	n, err := c.ReadU32()
	if err != nil {
		return "", fmt.Errorf("bytecursor: reading length-prefixed string length: %w", err)
	}
	b, err := c.ReadBytes(int(n))
	if err != nil {
		return "", fmt.Errorf("bytecursor: reading length-prefixed string body (%d bytes): %w", n, err)
	}
	return string(b), nil
}

// WriteLPString writes s as a 32-bit little-endian length prefix followed
// by its UTF-8 bytes.
func (c *Cursor) WriteLPString(s string) {
	c.WriteU32(uint32(len(s)))
	c.WriteBytes([]byte(s))
}
