package kkcard

import "github.com/koikatu-go/kkcard/internal/variantconf"

// VariantDescriptor describes one known game revision's header layout,
// known block set and nested-plugin-key table.
type VariantDescriptor = variantconf.Descriptor

// Registry returns the known variant descriptors in dispatch priority
// order, for introspection (e.g. a caller listing supported variants).
func Registry() []VariantDescriptor {
	return variantconf.Registry()
}
