// Package value defines the typed value tree used to represent the decoded
// contents of a block's body once it has passed through the object codec.
//
// The object format used throughout (a MessagePack-family encoding) is
// self-describing: the tag byte observed on disk for an integer, float,
// string, array or map determines not just the value but the *width* used
// to store it. Re-encoding a value must choose the same width the decoder
// observed, or the resulting bytes shrink and round-trip fidelity breaks.
// Value therefore carries its on-disk shape explicitly instead of
// normalizing everything to the widest Go type.
package value

import "fmt"

// Kind identifies which alternative of the Value sum type is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindArray
	KindMap
	KindExtension
	// KindNested marks a Bytes-shaped field whose contents were themselves
	// successfully decoded as an independent object graph (see the nested
	// payload processor). It carries both the decoded tree and the tag
	// memo needed to re-encode it back into bytes unchanged.
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindExtension:
		return "extension"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// IntWidth records the on-disk tag width of an integer value, so an
// unmodified value re-encodes with the exact same tag byte class.
type IntWidth uint8

const (
	// WidthFixed marks a signed/unsigned value that fit in a msgpack
	// "fixint"/"negative fixint" tag (no separate length byte). It is the
	// zero IntWidth, so an integer built without an explicit width encodes
	// with the shortest tag that fits it.
	WidthFixed IntWidth = iota
	Width8
	Width16
	Width32
	Width64
)

// LenClass records which length-tag class a string, binary, array or map
// used on disk (fixed/short inline length vs. an explicit 8/16/32-bit
// length prefix), so the encoder can reproduce it.
type LenClass uint8

const (
	LenFixed LenClass = iota
	Len8
	Len16
	Len32
)

// Pair is a single (key, value) entry of a Map, kept in on-disk order.
type Pair struct {
	Key Value
	Val Value
}

// Value is a tagged union over every shape the object codec can produce.
// Only the fields relevant to Kind are meaningful; zero value is Null.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Uint    uint64
	Float32 float32
	Float64 float64
	Str     string
	Bin     []byte

	Array []Value
	Map   []Pair

	ExtCode int8
	ExtData []byte

	// Nested holds the decoded sub-tree when Kind == KindNested.
	Nested *Value
	// NestedTagClass memoizes the container/length tag class the nested
	// byte string used, so it can be re-encoded with the same framing
	// before being wrapped back into a Bytes value.
	NestedTagClass LenClass

	// IntW records the on-disk width class for Int and Uint; LenC records
	// the length class for String, Bin, Extension, Array and Map, so that
	// encode can reproduce the exact tag byte observed at decode time.
	// Float width (32 vs 64) is carried by Kind itself.
	IntW IntWidth
	LenC LenClass
}

// Null returns the Null value.
func Null() Value { return Value{Kind: KindNull} }

// NewBool wraps b.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt wraps i using the given on-disk width class.
func NewInt(i int64, w IntWidth) Value { return Value{Kind: KindInt, Int: i, IntW: w} }

// NewUint wraps u using the given on-disk width class.
func NewUint(u uint64, w IntWidth) Value { return Value{Kind: KindUint, Uint: u, IntW: w} }

// NewFloat32 wraps f.
func NewFloat32(f float32) Value { return Value{Kind: KindFloat32, Float32: f} }

// NewFloat64 wraps f.
func NewFloat64(f float64) Value { return Value{Kind: KindFloat64, Float64: f} }

// NewString wraps s, remembering the length-tag class it was read with.
func NewString(s string, lc LenClass) Value { return Value{Kind: KindString, Str: s, LenC: lc} }

// NewBytes wraps b, remembering the length-tag class it was read with.
func NewBytes(b []byte, lc LenClass) Value { return Value{Kind: KindBytes, Bin: b, LenC: lc} }

// NewArray wraps elems, remembering the length-tag class it was read with.
func NewArray(elems []Value, lc LenClass) Value {
	return Value{Kind: KindArray, Array: elems, LenC: lc}
}

// NewMap wraps pairs in their on-disk order, remembering the length-tag class.
func NewMap(pairs []Pair, lc LenClass) Value {
	return Value{Kind: KindMap, Map: pairs, LenC: lc}
}

// NewExtension wraps an extension type code and its payload, remembering
// whether it was framed as a fixed-size "fixext" or an explicit-length
// "ext8/16/32" tag (the two are sometimes ambiguous for the same length).
func NewExtension(code int8, data []byte, lc LenClass) Value {
	return Value{Kind: KindExtension, ExtCode: code, ExtData: data, LenC: lc}
}

// NewNested wraps a decoded sub-tree together with the tag class its
// enclosing byte string used, so the nested payload processor's Encode can
// re-derive the original framing.
func NewNested(v Value, tagClass LenClass) Value {
	cp := v
	return Value{Kind: KindNested, Nested: &cp, NestedTagClass: tagClass}
}

// Get returns the value mapped to key within a Map, and whether it was
// found. Keys are compared structurally (kind + scalar payload).
func (v Value) Get(key Value) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.Map {
		if p.Key.Equal(key) {
			return p.Val, true
		}
	}
	return Value{}, false
}

// GetString is a convenience wrapper around Get for the common case of a
// string-keyed map, as used by block bodies throughout.
func (v Value) GetString(key string) (Value, bool) {
	return v.Get(NewString(key, LenFixed))
}

// Set replaces (or inserts, preserving append order) the value mapped to
// key within a Map. It is a no-op on non-Map values.
func (v *Value) Set(key, val Value) {
	if v.Kind != KindMap {
		return
	}
	for i, p := range v.Map {
		if p.Key.Equal(key) {
			v.Map[i].Val = val
			return
		}
	}
	v.Map = append(v.Map, Pair{Key: key, Val: val})
}

// SetString is a convenience wrapper around Set for string keys.
func (v *Value) SetString(key string, val Value) {
	v.Set(NewString(key, LenFixed), val)
}

// Equal reports structural and tag-class equality between two values:
// equal payload and equal on-disk width/length class.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int && v.IntW == o.IntW
	case KindUint:
		return v.Uint == o.Uint && v.IntW == o.IntW
	case KindFloat32:
		return v.Float32 == o.Float32 || (v.Float32 != v.Float32 && o.Float32 != o.Float32)
	case KindFloat64:
		return v.Float64 == o.Float64 || (v.Float64 != v.Float64 && o.Float64 != o.Float64)
	case KindString:
		return v.Str == o.Str && v.LenC == o.LenC
	case KindBytes:
		return string(v.Bin) == string(o.Bin) && v.LenC == o.LenC
	case KindExtension:
		return v.ExtCode == o.ExtCode && string(v.ExtData) == string(o.ExtData) && v.LenC == o.LenC
	case KindArray:
		if v.LenC != o.LenC || len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if v.LenC != o.LenC || len(v.Map) != len(o.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Key.Equal(o.Map[i].Key) || !v.Map[i].Val.Equal(o.Map[i].Val) {
				return false
			}
		}
		return true
	case KindNested:
		return v.NestedTagClass == o.NestedTagClass && v.Nested.Equal(*o.Nested)
	default:
		return false
	}
}

// String renders a short, human-readable summary used by callers building
// their own pretty printers; it never attempts to print full byte spans.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindUint:
		return fmt.Sprintf("%d", v.Uint)
	case KindFloat32:
		return fmt.Sprintf("%g", v.Float32)
	case KindFloat64:
		return fmt.Sprintf("%g", v.Float64)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bin))
	case KindArray:
		return fmt.Sprintf("[%d items]", len(v.Array))
	case KindMap:
		return fmt.Sprintf("{%d entries}", len(v.Map))
	case KindExtension:
		return fmt.Sprintf("ext(%d, %d bytes)", v.ExtCode, len(v.ExtData))
	case KindNested:
		return fmt.Sprintf("nested(%s)", v.Nested.String())
	default:
		return "?"
	}
}
