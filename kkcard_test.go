package kkcard

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koikatu-go/kkcard/internal/blockindex"
	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/value"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func buildPNG(payload byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	appendChunk(&buf, "IHDR", []byte{payload})
	appendChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func appendChunk(buf *bytes.Buffer, typ string, payload []byte) {
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(payload)))
	buf.Write(lenBytes[:])
	buf.WriteString(typ)
	buf.Write(payload)
	buf.Write([]byte{0, 0, 0, 0})
}

// buildKoikatuFile assembles a minimal but structurally complete Koikatu
// character card: PNG prefix, fixed header, block catalog and two block
// bodies (one known, one unknown), matching the wire layout Open expects.
func buildKoikatuFile(t *testing.T) []byte {
	t.Helper()

	customBody := value.NewMap([]value.Pair{
		{Key: value.NewString("nickname", value.LenFixed), Val: value.NewString("chikarin", value.LenFixed)},
	}, value.LenFixed)
	customBytes := msgpack.Encode(customBody)

	unknownBody := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	cat, blockData := blockindex.Build(
		[]string{"Custom", "TotallyUnknownBlock"},
		[]string{"1", "1"},
		[][]byte{customBytes, unknownBody},
		nil,
	)
	catBytes := cat.EncodeBytes()

	c := bytecursor.NewWriter()
	c.WriteI32(100) // product_no
	c.WriteLPString("【KoiKatuChara】ExtendedSave")
	c.WriteLPString("1.0.0")
	c.WriteI32(int32(len(buildPNG(2)))) // image_len (Koikatu has no face image field)
	c.WriteBytes(catBytes)
	c.WriteI64(int64(len(blockData)))
	c.WriteBytes(blockData)

	img := buildPNG(1)
	return append(append([]byte{}, img...), c.Bytes()...)
}

// buildKoikatuFileWithCustomBody is buildKoikatuFile but with the raw bytes
// of the "Custom" block body supplied directly, for exercising malformed
// object-codec payloads that msgpack.Encode would never itself produce.
func buildKoikatuFileWithCustomBody(t *testing.T, customBytes []byte) []byte {
	t.Helper()

	unknownBody := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	cat, blockData := blockindex.Build(
		[]string{"Custom", "TotallyUnknownBlock"},
		[]string{"1", "1"},
		[][]byte{customBytes, unknownBody},
		nil,
	)
	catBytes := cat.EncodeBytes()

	c := bytecursor.NewWriter()
	c.WriteI32(100)
	c.WriteLPString("【KoiKatuChara】ExtendedSave")
	c.WriteLPString("1.0.0")
	c.WriteI32(int32(len(buildPNG(2))))
	c.WriteBytes(catBytes)
	c.WriteI64(int64(len(blockData)))
	c.WriteBytes(blockData)

	img := buildPNG(1)
	return append(append([]byte{}, img...), c.Bytes()...)
}

func TestOpenBytesRoundTripsUnmutated(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)
	require.Equal(t, "Koikatu", doc.Variant)
	require.Empty(t, doc.Warnings())

	out, err := doc.SaveBytes()
	require.NoError(t, err)
	require.Equal(t, data, out, "an unmutated document must re-encode byte-for-byte")
}

func TestOpenBytesKnownAndUnknownBlocks(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	require.Equal(t, []string{"Custom"}, doc.BlockNames())
	require.Equal(t, []string{"TotallyUnknownBlock"}, doc.UnknownBlockNames())

	blk, ok := doc.Block("Custom")
	require.True(t, ok)
	require.True(t, blk.Decoded())
	nickname, ok := blk.Get("nickname")
	require.True(t, ok)
	require.Equal(t, "chikarin", nickname.Str)

	_, ok = doc.Block("TotallyUnknownBlock")
	require.False(t, ok, "unknown blocks are not reachable via Block()")

	unknown := doc.UnknownBlocks()
	require.Len(t, unknown, 1)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, unknown[0].RawBytes())
}

func TestMutatingABlockChangesOnlyThatBlock(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	doc.MustBlock("Custom").Set("nickname", value.NewString("changed", value.LenFixed))
	out, err := doc.SaveBytes()
	require.NoError(t, err)
	require.NotEqual(t, data, out)

	reopened, err := OpenBytes(out)
	require.NoError(t, err)
	nickname, ok := reopened.MustBlock("Custom").Get("nickname")
	require.True(t, ok)
	require.Equal(t, "changed", nickname.Str)

	// The unknown block, and the PNG image bytes, survive unchanged.
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, reopened.UnknownBlocks()[0].RawBytes())
	require.Equal(t, doc.ImageBytes, reopened.ImageBytes)
}

func TestOpenBytesRejectsUnknownVariant(t *testing.T) {
	c := bytecursor.NewWriter()
	c.WriteI32(1)
	c.WriteLPString("not a recognized magic")
	img := buildPNG(9)
	data := append(append([]byte{}, img...), c.Bytes()...)

	_, err := OpenBytes(data)
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestOpenBytesRejectsMalformedContainer(t *testing.T) {
	_, err := OpenBytes([]byte{0x00, 0x01, 0x02})
	require.ErrorIs(t, err, ErrMalformedContainer)
}

func TestOpenBytesBlockBodyTruncationIsErrTruncated(t *testing.T) {
	// A uint32 tag byte with none of its 4 explicit-width bytes following.
	data := buildKoikatuFileWithCustomBody(t, []byte{0xce})
	_, err := OpenBytes(data)
	require.ErrorIs(t, err, ErrTruncated, "a truncated block body must surface as the public ErrTruncated sentinel")
}

func TestOpenBytesBlockBodyUnsupportedTagIsErrUnsupportedTag(t *testing.T) {
	// 0xc1 is reserved/unused in the object codec's tag table.
	data := buildKoikatuFileWithCustomBody(t, []byte{0xc1})
	_, err := OpenBytes(data)
	require.ErrorIs(t, err, ErrUnsupportedTag, "an unrecognized tag byte must surface as the public ErrUnsupportedTag sentinel")
}

func TestDocumentIDIsStableAcrossAccessesButUniquePerLoad(t *testing.T) {
	data := buildKoikatuFile(t)
	doc1, err := OpenBytes(data)
	require.NoError(t, err)
	doc2, err := OpenBytes(data)
	require.NoError(t, err)

	require.Equal(t, doc1.ID(), doc1.ID())
	require.NotEqual(t, doc1.ID(), doc2.ID())
}

func TestMustBlockPanicsOnUnknownName(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	require.Panics(t, func() {
		doc.MustBlock("NoSuchBlock")
	})
}

func TestWithoutCacheOption(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data, WithoutCache())
	require.NoError(t, err)
	out, err := doc.SaveBytes()
	require.NoError(t, err)
	require.Equal(t, data, out)
}
