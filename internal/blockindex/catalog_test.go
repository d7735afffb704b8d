package blockindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koikatu-go/kkcard/value"
)

func mapEntry(name, version string, pos, size int64) value.Value {
	return value.NewMap([]value.Pair{
		{Key: value.NewString(keyName, value.LenFixed), Val: value.NewString(name, value.LenFixed)},
		{Key: value.NewString(keyVersion, value.LenFixed), Val: value.NewString(version, value.LenFixed)},
		{Key: value.NewString(keyPos, value.LenFixed), Val: value.NewInt(pos, value.Width32)},
		{Key: value.NewString(keySize, value.LenFixed), Val: value.NewInt(size, value.Width32)},
	}, value.LenFixed)
}

func tupleEntry(name, version string, pos, size int64) value.Value {
	return value.NewArray([]value.Value{
		value.NewString(name, value.LenFixed),
		value.NewString(version, value.LenFixed),
		value.NewInt(pos, value.Width32),
		value.NewInt(size, value.Width32),
	}, value.LenFixed)
}

func TestDecodeMapShapedCatalog(t *testing.T) {
	root := value.NewArray([]value.Value{
		mapEntry("Custom", "1", 0, 10),
		mapEntry("Status", "2", 10, 5),
	}, value.Len16)

	cat, err := Decode(root)
	require.NoError(t, err)
	require.Len(t, cat.Entries, 2)
	require.Equal(t, "Custom", cat.Entries[0].Name)
	require.Equal(t, int64(10), cat.Entries[1].Pos)
}

func TestDecodeTupleShapedCatalog(t *testing.T) {
	root := value.NewArray([]value.Value{
		tupleEntry("Custom", "1", 0, 10),
	}, value.LenFixed)

	cat, err := Decode(root)
	require.NoError(t, err)
	require.Len(t, cat.Entries, 1)
	require.Equal(t, "Custom", cat.Entries[0].Name)
	require.Equal(t, int64(10), cat.Entries[0].Size)
}

func TestEncodePreservesShapeMapVsTuple(t *testing.T) {
	mapRoot := value.NewArray([]value.Value{mapEntry("A", "1", 0, 4)}, value.Len16)
	cat, err := Decode(mapRoot)
	require.NoError(t, err)
	reencoded := cat.Encode()
	require.Equal(t, value.Len16, reencoded.LenC)
	require.Equal(t, value.KindMap, reencoded.Array[0].Kind)

	tupleRoot := value.NewArray([]value.Value{tupleEntry("A", "1", 0, 4)}, value.LenFixed)
	cat2, err := Decode(tupleRoot)
	require.NoError(t, err)
	reencoded2 := cat2.Encode()
	require.Equal(t, value.KindArray, reencoded2.Array[0].Kind)
}

func TestEncodeOnlyPatchesPosAndSize(t *testing.T) {
	root := value.NewArray([]value.Value{mapEntry("Custom", "99", 0, 10)}, value.LenFixed)
	cat, err := Decode(root)
	require.NoError(t, err)

	cat.Entries[0].Pos = 123
	cat.Entries[0].Size = 456
	out := cat.Encode()

	name, ok := out.Array[0].GetString(keyName)
	require.True(t, ok)
	require.Equal(t, "Custom", name.Str)
	version, ok := out.Array[0].GetString(keyVersion)
	require.True(t, ok)
	require.Equal(t, "99", version.Str)
	pos, ok := out.Array[0].GetString(keyPos)
	require.True(t, ok)
	require.Equal(t, int64(123), asInt(pos))
}

func TestBodyBytesSlicesByPosSize(t *testing.T) {
	root := value.NewArray([]value.Value{
		mapEntry("A", "1", 0, 3),
		mapEntry("B", "1", 3, 2),
	}, value.LenFixed)
	cat, err := Decode(root)
	require.NoError(t, err)

	data := []byte{1, 2, 3, 4, 5}
	bodies, err := cat.BodyBytes(data)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, bodies[0])
	require.Equal(t, []byte{4, 5}, bodies[1])
}

func TestBodyBytesOutOfBounds(t *testing.T) {
	root := value.NewArray([]value.Value{mapEntry("A", "1", 0, 100)}, value.LenFixed)
	cat, err := Decode(root)
	require.NoError(t, err)
	_, err = cat.BodyBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBuildLaysOutSequentially(t *testing.T) {
	bodies := [][]byte{{1, 2}, {3, 4, 5}}
	cat, data := Build([]string{"A", "B"}, []string{"1", "1"}, bodies, nil)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, data)
	require.Equal(t, int64(0), cat.Entries[0].Pos)
	require.Equal(t, int64(2), cat.Entries[0].Size)
	require.Equal(t, int64(2), cat.Entries[1].Pos)
	require.Equal(t, int64(3), cat.Entries[1].Size)
}

func TestRelayoutPreservesShapeAndRecomputesOffsets(t *testing.T) {
	root := value.NewArray([]value.Value{
		mapEntry("A", "1", 0, 3),
		mapEntry("B", "1", 3, 2),
	}, value.Len16)
	cat, err := Decode(root)
	require.NoError(t, err)

	newBodies := [][]byte{{9, 9, 9, 9}, {8, 8}}
	relaid, data, err := cat.Relayout(newBodies)
	require.NoError(t, err)
	require.Equal(t, int64(0), relaid.Entries[0].Pos)
	require.Equal(t, int64(4), relaid.Entries[0].Size)
	require.Equal(t, int64(4), relaid.Entries[1].Pos)
	require.Equal(t, int64(2), relaid.Entries[1].Size)
	require.Equal(t, append(append([]byte{}, newBodies[0]...), newBodies[1]...), data)

	out := relaid.Encode()
	require.Equal(t, value.Len16, out.LenC, "container shape must survive relayout")
}

func TestRelayoutRejectsBodyCountMismatch(t *testing.T) {
	root := value.NewArray([]value.Value{mapEntry("A", "1", 0, 3)}, value.LenFixed)
	cat, err := Decode(root)
	require.NoError(t, err)
	_, _, err = cat.Relayout([][]byte{{1}, {2}})
	require.Error(t, err)
}

func TestDecodeRejectsNonArrayRoot(t *testing.T) {
	_, err := Decode(value.NewString("nope", value.LenFixed))
	require.Error(t, err)
}

func TestDecodeRejectsEntryMissingRequiredKey(t *testing.T) {
	bad := value.NewMap([]value.Pair{
		{Key: value.NewString(keyName, value.LenFixed), Val: value.NewString("A", value.LenFixed)},
	}, value.LenFixed)
	_, err := Decode(value.NewArray([]value.Value{bad}, value.LenFixed))
	require.Error(t, err)
}
