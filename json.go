package kkcard

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/koikatu-go/kkcard/value"
)

// ToJSON maps the Document to a JSON-compatible structure, for inspection
// only: this export is one-way and is never required to round-trip back
// into an equivalent Document. When includeImage is true,
// ImageBytes/FaceImageBytes and any Bytes leaf are base64-encoded; when
// false, they are omitted from the output.
func (d *Document) ToJSON(includeImage bool) map[string]any {
	out := map[string]any{
		"variant": d.Variant,
	}
	if includeImage {
		out["image_bytes"] = base64.StdEncoding.EncodeToString(d.ImageBytes)
		if d.FaceImageBytes != nil {
			out["face_image_bytes"] = base64.StdEncoding.EncodeToString(d.FaceImageBytes)
		}
	}

	blocks := make(map[string]any, len(d.blocks))
	for _, b := range d.blocks {
		if j, ok := valueToJSON(b.value, includeImage); ok {
			blocks[b.Name] = j
		}
	}
	out["blocks"] = blocks

	unknown := make([]string, len(d.unknownBlocks))
	for i, b := range d.unknownBlocks {
		unknown[i] = b.Name
	}
	out["unknown_blocks"] = unknown

	return out
}

// SaveJSON writes ToJSON's result, marshaled as indented JSON, to path.
func (d *Document) SaveJSON(path string, includeImage bool) error {
	b, err := json.MarshalIndent(d.ToJSON(includeImage), "", "  ")
	if err != nil {
		return fmt.Errorf("kkcard: marshaling JSON export: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// valueToJSON converts v to its JSON-compatible representation. The second
// return value is false when v has nothing to contribute to its parent
// container under the current includeImage setting (a Bytes leaf, or an
// Extension's data, when includeImage is false), in which case the caller
// must omit the corresponding map key or array element entirely rather than
// emit a null.
func valueToJSON(v value.Value, includeImage bool) (any, bool) {
	switch v.Kind {
	case value.KindNull:
		return nil, true
	case value.KindBool:
		return v.Bool, true
	case value.KindInt:
		return float64(v.Int), true
	case value.KindUint:
		return float64(v.Uint), true
	case value.KindFloat32:
		return float64(v.Float32), true
	case value.KindFloat64:
		return v.Float64, true
	case value.KindString:
		return v.Str, true
	case value.KindBytes:
		if !includeImage {
			return nil, false
		}
		return base64.StdEncoding.EncodeToString(v.Bin), true
	case value.KindExtension:
		m := map[string]any{"ext_code": v.ExtCode}
		if includeImage {
			m["data"] = base64.StdEncoding.EncodeToString(v.ExtData)
		}
		return m, true
	case value.KindArray:
		arr := make([]any, 0, len(v.Array))
		for _, e := range v.Array {
			if j, ok := valueToJSON(e, includeImage); ok {
				arr = append(arr, j)
			}
		}
		return arr, true
	case value.KindMap:
		m := make(map[string]any, len(v.Map))
		for _, p := range v.Map {
			if j, ok := valueToJSON(p.Val, includeImage); ok {
				m[p.Key.String()] = j
			}
		}
		return m, true
	case value.KindNested:
		return valueToJSON(*v.Nested, includeImage)
	default:
		return nil, true
	}
}
