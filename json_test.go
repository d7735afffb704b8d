package kkcard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koikatu-go/kkcard/internal/blockindex"
	"github.com/koikatu-go/kkcard/internal/bytecursor"
	"github.com/koikatu-go/kkcard/internal/msgpack"
	"github.com/koikatu-go/kkcard/value"
)

func TestToJSONIncludesKnownAndUnknownBlocks(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	out := doc.ToJSON(false)
	require.Equal(t, "Koikatu", out["variant"])
	require.NotContains(t, out, "image_bytes")

	blocks, ok := out["blocks"].(map[string]any)
	require.True(t, ok)
	custom, ok := blocks["Custom"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "chikarin", custom["nickname"])

	unknown, ok := out["unknown_blocks"].([]string)
	require.True(t, ok)
	require.Equal(t, []string{"TotallyUnknownBlock"}, unknown)
}

func TestToJSONOmitsBytesFieldKeyWhenImageExcluded(t *testing.T) {
	customBody := value.NewMap([]value.Pair{
		{Key: value.NewString("nickname", value.LenFixed), Val: value.NewString("chikarin", value.LenFixed)},
		{Key: value.NewString("thumbnail", value.LenFixed), Val: value.NewBytes([]byte{1, 2, 3}, value.LenFixed)},
	}, value.LenFixed)
	customBytes := msgpack.Encode(customBody)

	cat, blockData := blockindex.Build(
		[]string{"Custom"},
		[]string{"1"},
		[][]byte{customBytes},
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
	data := append(append([]byte{}, buildPNG(1)...), c.Bytes()...)

	doc, err := OpenBytes(data)
	require.NoError(t, err)

	excluded := doc.ToJSON(false)
	blocks := excluded["blocks"].(map[string]any)
	custom := blocks["Custom"].(map[string]any)
	require.Equal(t, "chikarin", custom["nickname"])
	_, ok := custom["thumbnail"]
	require.False(t, ok, "a Bytes field must be entirely absent, not present as null, when images are excluded")

	included := doc.ToJSON(true)
	blocks = included["blocks"].(map[string]any)
	custom = blocks["Custom"].(map[string]any)
	thumb, ok := custom["thumbnail"].(string)
	require.True(t, ok)
	require.NotEmpty(t, thumb)
}

func TestToJSONWithImageBase64Encodes(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	out := doc.ToJSON(true)
	imgB64, ok := out["image_bytes"].(string)
	require.True(t, ok)
	require.NotEmpty(t, imgB64)
}
