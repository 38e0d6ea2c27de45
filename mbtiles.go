package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
)

//MBTileVersion mbtiles版本号
const MBTileVersion = "1.1"

type vectorLayerMeta struct {
	ID      string            `json:"id"`
	Minzoom int               `json:"minzoom"`
	Maxzoom int               `json:"maxzoom"`
	Fields  map[string]string `json:"fields"`
}

//metaItems builds the container's metadata record for one tiling job.
func metaItems(job *JobConfig, maxZoom int, b orb.Bound) (map[string]string, error) {
	layers := struct {
		VectorLayers []vectorLayerMeta `json:"vector_layers"`
	}{
		VectorLayers: []vectorLayerMeta{{
			ID:      job.LayerName,
			Minzoom: job.MinZoom,
			Maxzoom: maxZoom,
			Fields:  map[string]string{"v": "String"},
		}},
	}
	data, err := json.Marshal(layers)
	if err != nil {
		return nil, err
	}
	c := b.Center()
	return map[string]string{
		"name":        job.Name,
		"type":        PBF,
		"version":     MBTileVersion,
		"description": job.SrcPath,
		"format":      PBF,
		"bounds":      fmt.Sprintf(`%f,%f,%f,%f`, b.Left(), b.Bottom(), b.Right(), b.Top()),
		"center":      fmt.Sprintf(`%f,%f,%d`, c.X(), c.Y(), (job.MinZoom+maxZoom)/2),
		"minzoom":     fmt.Sprintf("%d", job.MinZoom),
		"maxzoom":     fmt.Sprintf("%d", maxZoom),
		"json":        string(data),
	}, nil
}

//setupMBTiles creates a fresh container at path: any prior file is removed,
//the tiles/metadata tables and their unique indexes are created, and the
//metadata record is written before any tile.
func setupMBTiles(path string, meta map[string]string) (*sql.DB, error) {
	os.Remove(path)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := optimizeConnection(db); err != nil {
		db.Close()
		return nil, err
	}
	stmts := []string{
		"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
		"create table if not exists metadata (name text, value text);",
		"create unique index name on metadata (name);",
		"create unique index tile_index on tiles(zoom_level, tile_column, tile_row);",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, err
		}
	}
	for name, value := range meta {
		if _, err := db.Exec("insert into metadata (name, value) values (?, ?)", name, value); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

//saveToMBTile stores one tile row, flipping Y to the container's row
//convention. Replace-on-conflict makes duplicate keys overwrite instead of
//erroring.
func saveToMBTile(tile Tile, db *sql.DB) error {
	_, err := db.Exec(
		"insert or replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);",
		tile.T.Z, tile.T.X, tile.flipY(), tile.C)
	if err != nil {
		return err
	}
	return nil
}

func optimizeConnection(db *sql.DB) error {
	_, err := db.Exec("PRAGMA synchronous=0")
	if err != nil {
		return err
	}
	_, err = db.Exec("PRAGMA locking_mode=EXCLUSIVE")
	if err != nil {
		return err
	}
	_, err = db.Exec("PRAGMA journal_mode=DELETE")
	if err != nil {
		return err
	}
	return nil
}

func optimizeDatabase(db *sql.DB) error {
	_, err := db.Exec("ANALYZE;")
	if err != nil {
		return err
	}
	_, err = db.Exec("VACUUM;")
	if err != nil {
		return err
	}
	return nil
}

//closeMBTiles finalizes the container; consumers may only read it after
//this returns.
func closeMBTiles(db *sql.DB) error {
	if db == nil {
		return nil
	}
	if err := optimizeDatabase(db); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}
