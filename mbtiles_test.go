package main

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() *JobConfig {
	return &JobConfig{
		Name:      "test job",
		SrcPath:   "test.asc",
		OutPath:   "out.mbtiles",
		LayerName: "raster",
		MinZoom:   0,
		MinExtent: 256,
		MaxExtent: 512,
	}
}

func makeContainer(t *testing.T) *sql.DB {
	t.Helper()
	job := testJob()
	b := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}
	meta, err := metaItems(job, 5, b)
	require.NoError(t, err)
	db, err := setupMBTiles(filepath.Join(t.TempDir(), "out.mbtiles"), meta)
	require.NoError(t, err)
	return db
}

func TestSetupMBTilesMetadata(t *testing.T) {
	db := makeContainer(t)
	defer db.Close()

	var typ, version, desc string
	require.NoError(t, db.QueryRow("select value from metadata where name='type'").Scan(&typ))
	assert.Equal(t, "pbf", typ)
	require.NoError(t, db.QueryRow("select value from metadata where name='version'").Scan(&version))
	assert.Equal(t, MBTileVersion, version)
	require.NoError(t, db.QueryRow("select value from metadata where name='description'").Scan(&desc))
	assert.Equal(t, "test.asc", desc)

	var js string
	require.NoError(t, db.QueryRow("select value from metadata where name='json'").Scan(&js))
	var doc struct {
		VectorLayers []vectorLayerMeta `json:"vector_layers"`
	}
	require.NoError(t, json.Unmarshal([]byte(js), &doc))
	require.Len(t, doc.VectorLayers, 1)
	assert.Equal(t, "raster", doc.VectorLayers[0].ID)
	assert.Equal(t, 0, doc.VectorLayers[0].Minzoom)
	assert.Equal(t, 5, doc.VectorLayers[0].Maxzoom)
	assert.Equal(t, "String", doc.VectorLayers[0].Fields["v"])
}

func TestSaveToMBTileFlipsRow(t *testing.T) {
	db := makeContainer(t)
	defer db.Close()

	tile := Tile{T: maptile.New(2, 1, 3), C: []byte("data")}
	require.NoError(t, saveToMBTile(tile, db))

	var row int
	require.NoError(t, db.QueryRow(
		"select tile_row from tiles where zoom_level=3 and tile_column=2").Scan(&row))
	assert.Equal(t, 6, row) // 2^3 - 1 - 1
}

func TestSaveToMBTileReplacesDuplicates(t *testing.T) {
	db := makeContainer(t)
	defer db.Close()

	tile := Tile{T: maptile.New(1, 1, 1), C: []byte("first")}
	require.NoError(t, saveToMBTile(tile, db))
	tile.C = []byte("second")
	require.NoError(t, saveToMBTile(tile, db))

	var count int
	require.NoError(t, db.QueryRow("select count(*) from tiles").Scan(&count))
	assert.Equal(t, 1, count)

	var data []byte
	require.NoError(t, db.QueryRow("select tile_data from tiles").Scan(&data))
	assert.Equal(t, []byte("second"), data)
}

func TestSetupMBTilesReplacesPriorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mbtiles")
	job := testJob()
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	meta, err := metaItems(job, 3, b)
	require.NoError(t, err)

	db, err := setupMBTiles(path, meta)
	require.NoError(t, err)
	require.NoError(t, saveToMBTile(Tile{T: maptile.New(0, 0, 0), C: []byte("x")}, db))
	require.NoError(t, closeMBTiles(db))

	//a second setup starts from an empty container
	db, err = setupMBTiles(path, meta)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.QueryRow("select count(*) from tiles").Scan(&count))
	assert.Equal(t, 0, count)
}
