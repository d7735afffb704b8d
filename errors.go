package kkcard

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/internal/pngframe"
	"github.com/koikatu-go/kkcard/internal/variantconf"
)

// Sentinel error kinds. Use errors.Is against these, never string matching.
var (
	// ErrMalformedContainer means PNG framing failed: missing signature
	// or no IEND chunk was found where one was expected.
	ErrMalformedContainer = pngframe.ErrMalformedContainer
	// ErrUnknownVariant means no descriptor's magic matched the header.
	ErrUnknownVariant = variantconf.ErrUnknownVariant
	// ErrTruncated means a decode ran off the end of a buffer.
	ErrTruncated = msgpack.ErrTruncated
	// ErrUnsupportedTag means an unrecognized object-codec tag appeared.
	ErrUnsupportedTag = msgpack.ErrUnsupportedTag
	// ErrSchemaMismatch means a required header or catalog field had the
	// wrong shape (e.g. a string field decoded as an integer).
	ErrSchemaMismatch = fmt.Errorf("kkcard: schema mismatch")
)

// NestedDecodeWarning records a non-fatal failure to decode a nested
// plugin payload. The field is preserved as opaque bytes; load continues.
type NestedDecodeWarning struct {
	Block string
	Key   string
	Err   error
}

func (w NestedDecodeWarning) Error() string {
	return fmt.Sprintf("kkcard: nested decode warning: block %q key %q: %v", w.Block, w.Key, w.Err)
}

func (w NestedDecodeWarning) Unwrap() error { return w.Err }
