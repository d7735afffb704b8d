package kkcard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrettifyRendersNameVersionAndFields(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	out := doc.MustBlock("Custom").Prettify()
	require.True(t, strings.HasPrefix(out, "Custom (v1)\n"))
	require.Contains(t, out, `nickname: "chikarin"`)
}

func TestPrettifyPanicsOnOpaqueBlock(t *testing.T) {
	data := buildKoikatuFile(t)
	doc, err := OpenBytes(data)
	require.NoError(t, err)

	require.Panics(t, func() {
		doc.UnknownBlocks()[0].Prettify()
	})
}
