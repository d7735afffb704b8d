package kkcard

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/koikatu-go/kkcard/internal/blockindex"
	"github.com/koikatu-go/kkcard/internal/variantconf"
)

// Document is the in-memory, mutable form of a loaded character or scene
// card: an ordered list of named blocks plus the opaque PNG and header
// bytes that frame them.
type Document struct {
	id uuid.UUID

	// Variant names the closed set of game revisions this container was
	// recognized as (see internal/variantconf.Descriptor.Name).
	Variant string

	ImageBytes     []byte
	FaceImageBytes []byte

	header     header
	descriptor variantconf.Descriptor

	// catalog is the original block catalog in on-disk order, kept as a
	// template so Save only has to patch Pos/Size; bodySource is the
	// parallel slice of the Block supplying each catalog position's body,
	// which is how known and unknown blocks interleave back into their
	// original positions on Save (see blockindex.Catalog.Relayout).
	catalog    blockindex.Catalog
	bodySource []*Block

	blocks        []*Block
	unknownBlocks []*Block
	// byName maps a block name to its index in blocks, built once at load
	// time; the map key is pre-hashed with fnv1a so repeated lookups
	// during a prettify/to_json walk over a large catalog avoid redundant
	// string hashing.
	byName map[uint64]int

	warnings []NestedDecodeWarning

	// SourcePath is set by Open for diagnostics; it is never serialized.
	SourcePath string
}

// ID returns a correlation id assigned when the Document was loaded or
// synthesized, useful for tying together log lines and cache diagnostics
// when many documents are processed concurrently. It is never serialized.
func (d *Document) ID() uuid.UUID { return d.id }

// Warnings returns the nested-payload decode warnings accumulated during
// load, in the order they were encountered. An empty slice means every
// nested payload in the variant's known-nested blocks decoded cleanly.
func (d *Document) Warnings() []NestedDecodeWarning { return d.warnings }

func nameKey(name string) uint64 { return fnv1a.HashString64(name) }

func (d *Document) indexBlocks() {
	d.byName = make(map[uint64]int, len(d.blocks))
	for i, b := range d.blocks {
		d.byName[nameKey(b.Name)] = i
	}
}

// Block looks up a known block by name. ok is false if name is not a
// known block in this document (it may still be present among
// UnknownBlocks).
func (d *Document) Block(name string) (b *Block, ok bool) {
	i, ok := d.byName[nameKey(name)]
	if !ok {
		return nil, false
	}
	return d.blocks[i], true
}

// MustBlock is Block, panicking if name is not found. It gives callers a
// single-expression way to reach a block known to exist, e.g.
// doc.MustBlock("Custom").Get("nickname").
func (d *Document) MustBlock(name string) *Block {
	b, ok := d.Block(name)
	if !ok {
		panic(fmt.Sprintf("kkcard: no block named %q in document", name))
	}
	return b
}

// Blocks returns the known blocks in on-disk catalog order. The returned
// slice is shared with the Document; callers must not mutate its length.
func (d *Document) Blocks() []*Block { return d.blocks }

// UnknownBlocks returns blocks whose name was not recognized by the
// variant's schema, in on-disk catalog order. These are never decoded and
// never modified by kkcard; they are re-emitted at their original
// position on Save.
func (d *Document) UnknownBlocks() []*Block { return d.unknownBlocks }

// BlockNames returns the names of known blocks in catalog order.
func (d *Document) BlockNames() []string {
	names := make([]string, len(d.blocks))
	for i, b := range d.blocks {
		names[i] = b.Name
	}
	return names
}

// UnknownBlockNames returns the names of unknown blocks in catalog order.
func (d *Document) UnknownBlockNames() []string {
	names := make([]string, len(d.unknownBlocks))
	for i, b := range d.unknownBlocks {
		names[i] = b.Name
	}
	return names
}
