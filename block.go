package kkcard

import "github.com/koikatu-go/kkcard/value"

// Block is one named region of the payload: either a decoded value tree
// (when its name is in the variant's known-block set) or an opaque byte
// span, kept verbatim, when it is not.
type Block struct {
	Name    string
	Version string

	decoded bool
	value   value.Value
	raw     []byte

	// OriginalSize is the byte length recorded for this block in the
	// on-disk catalog, kept only for diagnostics; it never drives
	// encoding, which always recomputes sizes from fresh bytes.
	OriginalSize int64
}

// Decoded reports whether this block's body was parsed into a value tree
// (true for known blocks) or kept opaque (false for unknown blocks).
func (b *Block) Decoded() bool { return b.decoded }

// Value returns the decoded value tree. It panics if the block is opaque;
// callers should check Decoded first, or use TryValue.
func (b *Block) Value() value.Value {
	if !b.decoded {
		panic("kkcard: Block.Value called on an opaque (unknown) block: " + b.Name)
	}
	return b.value
}

// TryValue returns the decoded value tree and true, or the zero Value and
// false if this block is opaque.
func (b *Block) TryValue() (value.Value, bool) {
	if !b.decoded {
		return value.Value{}, false
	}
	return b.value, true
}

// SetValue replaces the decoded value tree of a known block.
func (b *Block) SetValue(v value.Value) {
	if !b.decoded {
		panic("kkcard: Block.SetValue called on an opaque (unknown) block: " + b.Name)
	}
	b.value = v
}

// RawBytes returns the opaque byte span of an unknown block. It panics if
// the block was decoded; callers should check Decoded first.
func (b *Block) RawBytes() []byte {
	if b.decoded {
		panic("kkcard: Block.RawBytes called on a decoded block: " + b.Name)
	}
	return b.raw
}

// Get looks up key within the block's decoded value, when it is a Map.
// It returns false for an opaque block or a non-Map value.
func (b *Block) Get(key string) (value.Value, bool) {
	if !b.decoded {
		return value.Value{}, false
	}
	return b.value.GetString(key)
}

// Set assigns key within the block's decoded value, when it is a Map. It
// panics on an opaque block, matching Block.SetValue's contract.
func (b *Block) Set(key string, v value.Value) {
	if !b.decoded {
		panic("kkcard: Block.Set called on an opaque (unknown) block: " + b.Name)
	}
	b.value.SetString(key, v)
}

func newDecodedBlock(name, version string, v value.Value, originalSize int64) *Block {
	return &Block{Name: name, Version: version, decoded: true, value: v, OriginalSize: originalSize}
}

func newOpaqueBlock(name, version string, raw []byte, originalSize int64) *Block {
	return &Block{Name: name, Version: version, decoded: false, raw: raw, OriginalSize: originalSize}
}
