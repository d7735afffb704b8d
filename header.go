package kkcard

import (
	"fmt"

	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/internal/variantconf"
)

// header is the fixed-shape portion of the tail payload that precedes the
// block catalog: product number, the magic/header string used for variant
// dispatch, the schema version string, and the two recorded image byte
// lengths. Field order and the presence of FaceImageLen are fixed by the
// variant descriptor (see internal/variantconf).
type header struct {
	ProductNo    int32
	HeaderString string
	Version      string
	FaceImageLen int32 // only meaningful when the descriptor has HasFaceImage
	ImageLen     int32
}

// decodeHeader reads product_no and the magic/header string, uses the
// header string to detect the variant descriptor (the descriptor's
// HasFaceImage flag governs whether a face_image_len field follows), then
// reads the remaining fixed fields.
func decodeHeader(c *bytecursor.Cursor) (header, variantconf.Descriptor, error) {
	var h header
	var err error
	if h.ProductNo, err = readI32(c, "product_no"); err != nil {
		return header{}, variantconf.Descriptor{}, err
	}
	if h.HeaderString, err = c.ReadLPString(); err != nil {
		return header{}, variantconf.Descriptor{}, fmt.Errorf("kkcard: reading header string: %w", err)
	}
	d, err := variantconf.Detect(h.HeaderString)
	if err != nil {
		return header{}, variantconf.Descriptor{}, err
	}
	if h.Version, err = c.ReadLPString(); err != nil {
		return header{}, variantconf.Descriptor{}, fmt.Errorf("kkcard: reading version string: %w", err)
	}
	if d.HasFaceImage {
		if h.FaceImageLen, err = readI32(c, "face_image_len"); err != nil {
			return header{}, variantconf.Descriptor{}, err
		}
	}
	if h.ImageLen, err = readI32(c, "image_len"); err != nil {
		return header{}, variantconf.Descriptor{}, err
	}
	return h, d, nil
}

func readI32(c *bytecursor.Cursor, field string) (int32, error) {
	v, err := c.ReadI32()
	if err != nil {
		return 0, fmt.Errorf("kkcard: reading %s: %w", field, err)
	}
	return v, nil
}

// encode appends the header back onto c using the same field order.
func (h header) encode(c *bytecursor.Cursor, d variantconf.Descriptor) {
	c.WriteI32(h.ProductNo)
	c.WriteLPString(h.HeaderString)
	c.WriteLPString(h.Version)
	if d.HasFaceImage {
		c.WriteI32(h.FaceImageLen)
	}
	c.WriteI32(h.ImageLen)
}
