package variantconf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryNonEmptyAndOrdered(t *testing.T) {
	reg := Registry()
	require.NotEmpty(t, reg)
	require.Equal(t, "Koikatu", reg[0].Name)
}

func TestDetectExactMagic(t *testing.T) {
	d, err := Detect("【KoiKatuChara】ExtendedSaveData...")
	require.NoError(t, err)
	require.Equal(t, "Koikatu", d.Name)
}

func TestDetectUnknownVariant(t *testing.T) {
	_, err := Detect("totally not a known header")
	require.ErrorIs(t, err, ErrUnknownVariant)
}

func TestDetectSceneVariantMagic(t *testing.T) {
	d, err := Detect("【EmocreScene】anything")
	require.NoError(t, err)
	require.Equal(t, "EmocreScene", d.Name)
	require.True(t, d.Scene)
}

func TestByNameLookup(t *testing.T) {
	d, ok := ByName("Honeycome")
	require.True(t, ok)
	require.True(t, d.HasFaceImage)

	_, ok = ByName("NoSuchVariant")
	require.False(t, ok)
}

func TestIsKnownBlockAndNestedKeys(t *testing.T) {
	d, ok := ByName("Koikatu")
	require.True(t, ok)
	require.True(t, d.IsKnownBlock("KKEx"))
	require.False(t, d.IsKnownBlock("NotReal"))

	keys := d.NestedKeysFor("KKEx")
	require.Contains(t, keys, "Timeline")
	require.Nil(t, d.NestedKeysFor("Custom"))
}

func TestSceneVariantsHaveNoFaceImageUnlessHoneycomeFamily(t *testing.T) {
	d, ok := ByName("KoikatuScene")
	require.True(t, ok)
	require.False(t, d.HasFaceImage)
	require.True(t, d.Scene)
}
