// Package blockindex decodes and re-encodes the block catalog: the
// self-describing object-codec value that precedes the concatenated block
// bodies and lists each block's name, schema version, relative offset and
// byte size.
//
// The catalog's own shape (an array of per-block maps, or an array of
// [name,version,pos,size] tuples) is variant-dependent and is preserved by
// keeping the decoded value.Value tree as a template: only the pos/size
// leaves are rewritten on save, everything else in the catalog's shape is
// reused verbatim so an unrelated variant's tuple-style catalog never
// accidentally gets re-emitted as a map.
package blockindex

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/value"
)

// Entry describes one block's position within the concatenated body run.
type Entry struct {
	Name    string
	Version string
	Pos     int64
	Size    int64

	// template is the original per-entry value.Value, kept so that on
	// save only Pos/Size are patched and every other tag/shape detail of
	// the entry (and of fields the decoder doesn't know about) survives.
	template value.Value
}

// Catalog is the decoded block index: an ordered list of entries plus the
// root Array value it was read from, kept so its length class survives
// re-encoding. Decode accepts only an Array root.
type Catalog struct {
	Entries []Entry
	shape   value.Value // template for the catalog container itself
}

const (
	keyName    = "name"
	keyVersion = "version"
	keyPos     = "pos"
	keySize    = "size"
)

// Decode parses a catalog value.Value (already decoded by the msgpack
// codec from the header's catalog field) into a Catalog.
func Decode(catalog value.Value) (Catalog, error) {
	if catalog.Kind != value.KindArray {
		return Catalog{}, fmt.Errorf("blockindex: catalog root must be an array, got %s", catalog.Kind)
	}
	entries := make([]Entry, 0, len(catalog.Array))
	for i, item := range catalog.Array {
		e, err := decodeEntry(item)
		if err != nil {
			return Catalog{}, fmt.Errorf("blockindex: entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return Catalog{Entries: entries, shape: catalog}, nil
}

func decodeEntry(item value.Value) (Entry, error) {
	switch item.Kind {
	case value.KindMap:
		name, ok := stringField(item, keyName)
		if !ok {
			return Entry{}, fmt.Errorf("missing %q key in catalog map entry", keyName)
		}
		version, _ := stringField(item, keyVersion)
		pos, ok := intField(item, keyPos)
		if !ok {
			return Entry{}, fmt.Errorf("missing %q key in catalog map entry", keyPos)
		}
		size, ok := intField(item, keySize)
		if !ok {
			return Entry{}, fmt.Errorf("missing %q key in catalog map entry", keySize)
		}
		return Entry{Name: name, Version: version, Pos: pos, Size: size, template: item}, nil
	case value.KindArray:
		if len(item.Array) < 4 {
			return Entry{}, fmt.Errorf("catalog tuple entry has %d elements, want 4", len(item.Array))
		}
		name := item.Array[0].Str
		version := item.Array[1].Str
		pos := asInt(item.Array[2])
		size := asInt(item.Array[3])
		return Entry{Name: name, Version: version, Pos: pos, Size: size, template: item}, nil
	default:
		return Entry{}, fmt.Errorf("catalog entry must be map or array, got %s", item.Kind)
	}
}

func stringField(m value.Value, key string) (string, bool) {
	v, ok := m.GetString(key)
	if !ok || v.Kind != value.KindString {
		return "", false
	}
	return v.Str, true
}

func intField(m value.Value, key string) (int64, bool) {
	v, ok := m.GetString(key)
	if !ok {
		return 0, false
	}
	return asInt(v), true
}

func asInt(v value.Value) int64 {
	switch v.Kind {
	case value.KindInt:
		return v.Int
	case value.KindUint:
		return int64(v.Uint)
	default:
		return 0
	}
}

// Encode rebuilds the catalog value.Value from entries, patching only the
// Pos/Size leaves of each entry's template and reusing the overall
// container shape recorded at Decode time. Use Build to build a catalog
// with no prior template (new documents / synthesized entries).
func (cat Catalog) Encode() value.Value {
	items := make([]value.Value, len(cat.Entries))
	for i, e := range cat.Entries {
		items[i] = e.encode()
	}
	out := cat.shape
	out.Array = items
	return out
}

func (e Entry) encode() value.Value {
	tpl := e.template
	switch tpl.Kind {
	case value.KindMap:
		cp := tpl
		cp.Map = append([]value.Pair(nil), tpl.Map...)
		cp.SetString(keyPos, patchInt(tpl, keyPos, e.Pos))
		cp.SetString(keySize, patchInt(tpl, keySize, e.Size))
		return cp
	case value.KindArray:
		cp := tpl
		cp.Array = append([]value.Value(nil), tpl.Array...)
		cp.Array[2] = patchIntValue(tpl.Array[2], e.Pos)
		cp.Array[3] = patchIntValue(tpl.Array[3], e.Size)
		return cp
	default:
		// No template: synthesize a default map-shaped entry.
		pairs := []value.Pair{
			{Key: value.NewString(keyName, value.LenFixed), Val: value.NewString(e.Name, value.LenFixed)},
			{Key: value.NewString(keyVersion, value.LenFixed), Val: value.NewString(e.Version, value.LenFixed)},
			{Key: value.NewString(keyPos, value.LenFixed), Val: value.NewInt(e.Pos, value.Width32)},
			{Key: value.NewString(keySize, value.LenFixed), Val: value.NewInt(e.Size, value.Width32)},
		}
		return value.NewMap(pairs, value.LenFixed)
	}
}

func patchInt(m value.Value, key string, n int64) value.Value {
	old, _ := m.GetString(key)
	return patchIntValue(old, n)
}

func patchIntValue(old value.Value, n int64) value.Value {
	switch old.Kind {
	case value.KindUint:
		if n < 0 {
			return value.NewInt(n, value.Width32)
		}
		return value.NewUint(uint64(n), old.IntW)
	default:
		return value.NewInt(n, old.IntW)
	}
}

// BodyBytes slices the concatenated block-data section according to
// entries' Pos/Size, returning the raw bytes for each entry in order.
func (cat Catalog) BodyBytes(blockData []byte) ([][]byte, error) {
	out := make([][]byte, len(cat.Entries))
	for i, e := range cat.Entries {
		if e.Pos < 0 || e.Size < 0 || e.Pos+e.Size > int64(len(blockData)) {
			return nil, fmt.Errorf("blockindex: entry %q [%d,%d) out of bounds (len=%d)", e.Name, e.Pos, e.Pos+e.Size, len(blockData))
		}
		out[i] = blockData[e.Pos : e.Pos+e.Size]
	}
	return out, nil
}

// Build lays out freshly-encoded block bodies sequentially from offset 0,
// producing a Catalog (with default map-shaped entries unless a template
// is supplied for that entry in templates) and the concatenated body bytes.
func Build(names, versions []string, bodies [][]byte, templates []value.Value) (Catalog, []byte) {
	entries := make([]Entry, len(bodies))
	var blockData []byte
	var offset int64
	for i, body := range bodies {
		var tpl value.Value
		if templates != nil {
			tpl = templates[i]
		}
		entries[i] = Entry{Name: names[i], Version: versions[i], Pos: offset, Size: int64(len(body)), template: tpl}
		blockData = append(blockData, body...)
		offset += int64(len(body))
	}
	shape := value.NewArray(nil, value.Len32)
	return Catalog{Entries: entries, shape: shape}, blockData
}

// EncodeBytes is a convenience wrapper returning the catalog's own encoded
// object-codec bytes.
func (cat Catalog) EncodeBytes() []byte {
	return msgpack.Encode(cat.Encode())
}

// Relayout recomputes Pos/Size for every entry from freshly-encoded body
// bytes (given in catalog order, one slice per entry), laying bodies out
// sequentially from offset 0. Name, Version and each entry's template
// (and so its on-disk shape) are preserved unchanged. It returns the
// updated Catalog and the concatenated block-data section.
func (cat Catalog) Relayout(bodies [][]byte) (Catalog, []byte, error) {
	if len(bodies) != len(cat.Entries) {
		return Catalog{}, nil, fmt.Errorf("blockindex: relayout got %d bodies for %d entries", len(bodies), len(cat.Entries))
	}
	entries := make([]Entry, len(cat.Entries))
	var blockData []byte
	var offset int64
	for i, e := range cat.Entries {
		e.Pos = offset
		e.Size = int64(len(bodies[i]))
		entries[i] = e
		blockData = append(blockData, bodies[i]...)
		offset += e.Size
	}
	return Catalog{Entries: entries, shape: cat.shape}, blockData, nil
}
