// Package variantconf loads the set of known game-variant descriptors used
// by the dispatcher from an embedded TOML document rather than a hand
// written Go table, so adding a new game revision is a data change.
package variantconf

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml"
)

//go:embed variants.toml
var variantsTOML []byte

// Descriptor is the parsed schema for one game variant: its header magic,
// framing flags, known block names and the nested plugin keys within them.
type Descriptor struct {
	Name         string              `toml:"name"`
	Magic        string              `toml:"magic"`
	HasFaceImage bool                `toml:"has_face_image"`
	Scene        bool                `toml:"scene"`
	KnownBlocks  []string            `toml:"known_blocks"`
	NestedKeys   map[string][]string `toml:"nested_keys"`
}

// IsKnownBlock reports whether name is in the variant's known block set.
func (d Descriptor) IsKnownBlock(name string) bool {
	for _, n := range d.KnownBlocks {
		if n == name {
			return true
		}
	}
	return false
}

// NestedKeysFor returns the nested-plugin-key set for a known block name,
// or nil if that block has none.
func (d Descriptor) NestedKeysFor(block string) []string {
	return d.NestedKeys[block]
}

type document struct {
	Variant []Descriptor `toml:"variant"`
}

var registry = mustLoad()

func mustLoad() []Descriptor {
	var doc document
	if err := toml.Unmarshal(variantsTOML, &doc); err != nil {
		panic(fmt.Sprintf("variantconf: embedded variants.toml is malformed: %v", err))
	}
	if len(doc.Variant) == 0 {
		panic("variantconf: embedded variants.toml declared no variants")
	}
	return doc.Variant
}

// Registry returns the known variant descriptors in dispatch priority
// order (file order of variants.toml): the first whose Magic is a prefix
// of a payload's header wins.
func Registry() []Descriptor {
	return registry
}

// ErrUnknownVariant is returned by Detect when no descriptor's magic
// matches the header.
var ErrUnknownVariant = fmt.Errorf("variantconf: unknown variant")

// Detect returns the first descriptor (in priority order) whose Magic is a
// prefix of header.
func Detect(header string) (Descriptor, error) {
	for _, d := range registry {
		if strings.HasPrefix(header, d.Magic) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("variantconf: magic %q matched no descriptor: %w", header, ErrUnknownVariant)
}

// ByName returns the descriptor with the given Name.
func ByName(name string) (Descriptor, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
