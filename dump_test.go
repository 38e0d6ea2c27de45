package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func buildContainer(t *testing.T, tiles []Tile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.mbtiles")
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	meta, err := metaItems(testJob(), 3, b)
	require.NoError(t, err)
	db, err := setupMBTiles(path, meta)
	require.NoError(t, err)
	for _, tile := range tiles {
		require.NoError(t, saveToMBTile(tile, db))
	}
	require.NoError(t, closeMBTiles(db))
	return path
}

func TestDumpTilesTree(t *testing.T) {
	src := buildContainer(t, []Tile{
		{T: maptile.New(0, 1, 1), C: gzipped(t, []byte("alpha"))},
		{T: maptile.New(3, 0, 2), C: gzipped(t, []byte("beta"))},
	})
	out := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, dumpTiles(src, out))

	//paths come back in z/x/y order with the container's row flip undone
	raw, err := os.ReadFile(filepath.Join(out, "1", "0", "1.pbf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("alpha"), raw)
	raw, err = os.ReadFile(filepath.Join(out, "2", "3", "0.pbf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("beta"), raw)
}

func TestDumpTilesMissingContainer(t *testing.T) {
	err := dumpTiles(filepath.Join(t.TempDir(), "absent.mbtiles"), t.TempDir())
	assert.Error(t, err)
}

func TestClumpTilesIndex(t *testing.T) {
	first := gzipped(t, []byte("alpha"))
	second := gzipped(t, []byte("beta"))
	src := buildContainer(t, []Tile{
		{T: maptile.New(0, 1, 1), C: first},
		{T: maptile.New(3, 0, 2), C: second},
	})
	dir := t.TempDir()
	clumpPath := filepath.Join(dir, "tiles.clump")
	indexPath := filepath.Join(dir, "tiles.json")
	require.NoError(t, clumpTiles(src, clumpPath, indexPath))

	blob, err := os.ReadFile(clumpPath)
	require.NoError(t, err)
	assert.Len(t, blob, len(first)+len(second))

	doc, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	var index map[string][2]int
	require.NoError(t, json.Unmarshal(doc, &index))
	require.Len(t, index, 2)

	//each range slices its stored blob back out of the clump
	r1, ok := index["1/0/1"]
	require.True(t, ok)
	assert.Equal(t, first, blob[r1[0]:r1[1]])
	r2, ok := index["2/3/0"]
	require.True(t, ok)
	assert.Equal(t, second, blob[r2[0]:r2[1]])
}
