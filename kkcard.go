// Package kkcard is a bidirectional codec for the character-card and scene
// files produced by the Koikatu family of titles (Koikatu, EmotionCreators,
// Honeycome, SummerVacationScramble/Aicomi and their save/scene variants).
//
// Each file is a PNG image whose trailing bytes embed a structured payload
// of named "block data" holding character or scene parameters. Load reads
// such a file into a Document, a mutable tree of typed value.Value data;
// Save serializes a Document back into a byte-equivalent file, modulo
// whatever edits the caller made.
//
// # Basic usage
//
//	doc, err := kkcard.Open("chara.png")
//	if err != nil {
//	    return err
//	}
//	nickname, _ := doc.MustBlock("Parameter").Get("nickname")
//	fmt.Println(nickname.Str)
//
//	doc.MustBlock("Parameter").Set("nickname", value.NewString("chikarin", value.LenFixed))
//	out, err := doc.SaveBytes()
//
// Round-trip fidelity is the core guarantee: for any accepted input B,
// kkcard.OpenBytes(B) followed by (*Document).SaveBytes with no mutation
// reproduces B byte-for-byte. Mutating a single value leaf changes only
// the bytes of the enclosing block; the PNG prefix and every other block
// are re-emitted verbatim.
//
// # Package structure
//
// This package provides the public Document/Block/value.Value surface.
// The container framing, the object codec, the block catalog, the variant
// registry, the nested-payload processor and the optional decode cache
// each live in their own internal/ package.
package kkcard

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/koikatu-go/kkcard/internal/blockindex"
	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/internal/decodecache"
	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/internal/nestedpayload"
	"github.com/koikatu-go/kkcard/internal/pngframe"
)

// Option configures Open/OpenBytes.
type Option func(*loadOptions)

type loadOptions struct {
	cache    *decodecache.Cache
	cacheDir string
	noCache  bool
	logf     func(format string, args ...any)
}

// WithCacheDir enables the optional decode cache backed by a LevelDB
// database at dir. Without this option, load uses a process-wide
// in-memory cache (see internal/decodecache).
func WithCacheDir(dir string) Option {
	return func(o *loadOptions) { o.cacheDir = dir }
}

// WithoutCache disables the decode cache entirely for this call.
func WithoutCache() Option {
	return func(o *loadOptions) { o.noCache = true }
}

// WithLogf routes the library's structured diagnostics (cache degrade,
// nested-decode warnings) through a caller-supplied Printf-shaped
// function instead of discarding them.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(o *loadOptions) { o.logf = logf }
}

var processCache = decodecache.Open("")

// Open reads and decodes the character-card or scene file at path.
func Open(path string, opts ...Option) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kkcard: reading %s: %w", path, err)
	}
	doc, err := OpenBytes(b, opts...)
	if err != nil {
		return nil, err
	}
	doc.SourcePath = path
	return doc, nil
}

// OpenBytes decodes a character-card or scene file already held in memory.
func OpenBytes(data []byte, opts ...Option) (*Document, error) {
	var lo loadOptions
	for _, o := range opts {
		o(&lo)
	}
	cache := processCache
	if lo.noCache {
		cache = nil
	} else if lo.cacheDir != "" {
		cache = decodecache.Open(lo.cacheDir, decodecache.WithLogger(lo.logf))
	}

	frame, err := pngframe.Split(data)
	if err != nil {
		return nil, err
	}

	c := bytecursor.NewReader(frame.Tail)
	h, descriptor, err := decodeHeader(c)
	if err != nil {
		return nil, err
	}

	tailKey := decodecache.Key(frame.Tail[c.Pos():])

	catBytes, cacheHit := lookupCache(cache, tailKey)
	var catalog blockindex.Catalog
	var catConsumed int
	if cacheHit {
		cv, _, decErr := msgpack.Decode(catBytes)
		if decErr != nil {
			cacheHit = false
		} else if catalog, decErr = blockindex.Decode(cv); decErr != nil {
			cacheHit = false
		}
	}
	if !cacheHit {
		cv, n, decErr := msgpack.Decode(c.Bytes()[c.Pos():])
		if decErr != nil {
			return nil, fmt.Errorf("kkcard: decoding block catalog: %w", decErr)
		}
		catConsumed = n
		catalog, decErr = blockindex.Decode(cv)
		if decErr != nil {
			return nil, fmt.Errorf("kkcard: %w: %v", ErrSchemaMismatch, decErr)
		}
		if cache != nil {
			cache.Put(tailKey, msgpack.Encode(cv))
		}
	} else {
		// The cached catalog's encoded length still has to be skipped in
		// the live buffer; re-measure it against the actual bytes so the
		// cursor lands in the same place a cold decode would.
		_, n, decErr := msgpack.Decode(c.Bytes()[c.Pos():])
		if decErr != nil {
			return nil, fmt.Errorf("kkcard: decoding block catalog: %w", decErr)
		}
		catConsumed = n
	}
	if err := c.Seek(c.Pos() + catConsumed); err != nil {
		return nil, fmt.Errorf("kkcard: %w", err)
	}

	blockDataSize, err := c.ReadI64()
	if err != nil {
		return nil, fmt.Errorf("kkcard: reading block-data size: %w", err)
	}
	blockData, err := c.ReadBytes(int(blockDataSize))
	if err != nil {
		return nil, fmt.Errorf("kkcard: reading block-data section (%d bytes): %w", blockDataSize, err)
	}

	bodies, err := catalog.BodyBytes(blockData)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		id:             uuid.New(),
		Variant:        descriptor.Name,
		ImageBytes:     frame.Image,
		FaceImageBytes: frame.FaceImage,
		header:         h,
		descriptor:     descriptor,
		catalog:        catalog,
	}
	doc.bodySource = make([]*Block, len(catalog.Entries))
	for i, entry := range catalog.Entries {
		if descriptor.IsKnownBlock(entry.Name) {
			v, decErr := msgpack.DecodeAll(bodies[i])
			if decErr != nil {
				return nil, fmt.Errorf("kkcard: decoding block %q body: %w", entry.Name, decErr)
			}
			nestedKeys := nestedpayload.KeySet(descriptor.NestedKeysFor(entry.Name))
			v, warnings := nestedpayload.Decode(entry.Name, v, nestedKeys)
			for _, w := range warnings {
				nw := NestedDecodeWarning{Block: w.Block, Key: w.Key, Err: w.Err}
				doc.warnings = append(doc.warnings, nw)
				if lo.logf != nil {
					lo.logf("%v", nw)
				}
			}
			blk := newDecodedBlock(entry.Name, entry.Version, v, entry.Size)
			doc.blocks = append(doc.blocks, blk)
			doc.bodySource[i] = blk
		} else {
			blk := newOpaqueBlock(entry.Name, entry.Version, bodies[i], entry.Size)
			doc.unknownBlocks = append(doc.unknownBlocks, blk)
			doc.bodySource[i] = blk
		}
	}
	doc.indexBlocks()
	return doc, nil
}

func lookupCache(cache *decodecache.Cache, key uint64) ([]byte, bool) {
	if cache == nil {
		return nil, false
	}
	return cache.Get(key)
}

// Save writes the encoded Document to path.
func (d *Document) Save(path string) error {
	b, err := d.SaveBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// SaveBytes serializes the Document back into its file format. For an
// unmutated Document this reproduces the original input byte-for-byte.
func (d *Document) SaveBytes() ([]byte, error) {
	bodies := make([][]byte, len(d.bodySource))
	for i, b := range d.bodySource {
		if b.decoded {
			flattened := nestedpayload.Encode(b.value)
			bodies[i] = msgpack.Encode(flattened)
		} else {
			bodies[i] = b.raw
		}
	}
	newCatalog, blockData, err := d.catalog.Relayout(bodies)
	if err != nil {
		return nil, fmt.Errorf("kkcard: %w", err)
	}

	c := bytecursor.NewWriter()
	d.header.encode(c, d.descriptor)
	c.WriteBytes(newCatalog.EncodeBytes())
	c.WriteI64(int64(len(blockData)))
	c.WriteBytes(blockData)

	return pngframe.Join(pngframe.Frame{Image: d.ImageBytes, FaceImage: d.FaceImageBytes}, c.Bytes()), nil
}
