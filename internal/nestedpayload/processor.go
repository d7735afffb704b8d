// Package nestedpayload implements the recursive decode/encode of plugin
// payloads embedded as opaque byte strings within a block's map values
// (notably within "KKEx"). A per-variant table names which map keys hold
// such payloads; this package does not know variant names, only the key
// list to recurse into.
package nestedpayload

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/value"
)

// Warning records a non-fatal failure to decode a nested payload: the
// field is left as opaque Bytes and load continues.
type Warning struct {
	Block string
	Key   string
	Err   error
}

func (w Warning) Error() string {
	return fmt.Sprintf("nestedpayload: block %q key %q: %v", w.Block, w.Key, w.Err)
}

// Decode walks v (a block's decoded body, expected to be a Map) and, for
// every top-level and recursively-nested key present in nestedKeys whose
// value is Bytes, attempts to decode that byte string as an independent
// object graph. A successful decode replaces the Bytes with a Nested value
// memoizing the original tag class; a failed decode leaves the field
// untouched and appends a Warning.
//
// Only a decode that fully consumes the byte string counts as a success:
// a partially-consumed decode is treated the same as a hard failure, so a
// plugin payload is never left half-interpreted.
func Decode(blockName string, v value.Value, nestedKeys map[string]bool) (value.Value, []Warning) {
	if v.Kind != value.KindMap || len(nestedKeys) == 0 {
		return v, nil
	}
	var warnings []Warning
	out := v
	out.Map = append([]value.Pair(nil), v.Map...)
	for i, p := range out.Map {
		key, isStr := p.Key.Str, p.Key.Kind == value.KindString
		if !isStr || !nestedKeys[key] {
			continue
		}
		if p.Val.Kind != value.KindBytes {
			continue
		}
		inner, err := msgpack.DecodeAll(p.Val.Bin)
		if err != nil {
			warnings = append(warnings, Warning{Block: blockName, Key: key, Err: err})
			continue
		}
		inner, innerWarnings := Decode(blockName, inner, nestedKeys)
		warnings = append(warnings, innerWarnings...)
		out.Map[i].Val = value.NewNested(inner, p.Val.LenC)
	}
	return out, warnings
}

// Encode is the inverse of Decode: every Nested value in v is flattened
// back to Bytes, encoding its inner tree with the memoized tag class
// before wrapping the result, recursively from the innermost payload out.
func Encode(v value.Value) value.Value {
	switch v.Kind {
	case value.KindNested:
		inner := Encode(*v.Nested)
		return value.NewBytes(msgpack.Encode(inner), v.NestedTagClass)
	case value.KindMap:
		out := v
		out.Map = make([]value.Pair, len(v.Map))
		for i, p := range v.Map {
			out.Map[i] = value.Pair{Key: p.Key, Val: Encode(p.Val)}
		}
		return out
	case value.KindArray:
		out := v
		out.Array = make([]value.Value, len(v.Array))
		for i, e := range v.Array {
			out.Array[i] = Encode(e)
		}
		return out
	default:
		return v
	}
}

// KeySet builds a lookup set from a nested-key slice, as stored per block
// name in a variant descriptor.
func KeySet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
