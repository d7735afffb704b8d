// Package pngframe splits a PNG byte stream into the image prefix (up to
// and including the IEND chunk) and whatever bytes follow it. Some variants
// embed a second PNG, a face thumbnail, immediately after the first; the
// framer detects and consumes that too.
//
// The PNG bytes themselves are never interpreted or re-validated: this
// package only walks chunk headers far enough to find chunk boundaries.
package pngframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ErrMalformedContainer is returned when no PNG signature or no IEND chunk
// can be found where one is expected.
var ErrMalformedContainer = fmt.Errorf("pngframe: malformed container")

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const chunkOverhead = 4 /*length*/ + 4 /*type*/ + 4 /*crc*/

// Frame is the result of splitting a payload into its PNG prefix(es) and tail.
type Frame struct {
	// Image is the bytes of the primary PNG, signature through IEND CRC.
	Image []byte
	// FaceImage is the bytes of a second, back-to-back PNG, if present.
	FaceImage []byte
	// Tail is everything remaining after Image (and FaceImage, if any).
	Tail []byte
}

// Split parses data as one PNG, optionally followed immediately by a
// second PNG, followed by an opaque tail payload.
func Split(data []byte) (Frame, error) {
	img, rest, err := splitOne(data)
	if err != nil {
		return Frame{}, err
	}
	var face []byte
	if bytes.HasPrefix(rest, pngSignature) {
		face, rest, err = splitOne(rest)
		if err != nil {
			return Frame{}, err
		}
	}
	return Frame{Image: img, FaceImage: face, Tail: rest}, nil
}

// splitOne consumes exactly one PNG (signature through IEND) from the front
// of data, returning the consumed bytes and what remains.
func splitOne(data []byte) (image, rest []byte, err error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, nil, fmt.Errorf("pngframe: missing PNG signature: %w", ErrMalformedContainer)
	}
	pos := len(pngSignature)
	for {
		if pos+chunkOverhead > len(data) {
			return nil, nil, fmt.Errorf("pngframe: truncated before IEND: %w", ErrMalformedContainer)
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		typ := data[pos+4 : pos+8]
		chunkEnd := pos + chunkOverhead + int(length)
		if chunkEnd > len(data) {
			return nil, nil, fmt.Errorf("pngframe: chunk %q overruns buffer: %w", typ, ErrMalformedContainer)
		}
		pos = chunkEnd
		if string(typ) == "IEND" {
			return data[:pos], data[pos:], nil
		}
	}
}

// Join recomposes a payload from its PNG prefix(es) and an encoded tail.
// The PNG bytes are emitted verbatim; Join never re-validates them.
func Join(f Frame, tail []byte) []byte {
	out := make([]byte, 0, len(f.Image)+len(f.FaceImage)+len(tail))
	out = append(out, f.Image...)
	out = append(out, f.FaceImage...)
	out = append(out, tail...)
	return out
}
