package main

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

//readTiles streams every tile row of an existing container to fn, handing
//over the y index already flipped back from the container's row convention.
func readTiles(path string, fn func(z, x, y int, data []byte) error) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open container %s: %w", path, err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query("select zoom_level, tile_column, tile_row, tile_data from tiles")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var z, x, row int
		var data []byte
		if err := rows.Scan(&z, &x, &row, &data); err != nil {
			return err
		}
		y := (1 << uint(z)) - 1 - row
		if err := fn(z, x, y, data); err != nil {
			return err
		}
	}
	return rows.Err()
}

//dumpTiles unpacks a container into a z/x/y directory tree, gunzipping
//each tile on the way out.
func dumpTiles(mbtiles, outDir string) error {
	count := 0
	err := readTiles(mbtiles, func(z, x, y int, data []byte) error {
		dir := filepath.Join(outDir, fmt.Sprintf("%d", z), fmt.Sprintf("%d", x))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("tile %d/%d/%d: %w", z, x, y, err)
		}
		raw, err := io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("tile %d/%d/%d: %w", z, x, y, err)
		}
		if err := gz.Close(); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.pbf", y)), raw, 0644); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}
	log.Infof("dumped %d tiles to %s", count, outDir)
	return nil
}

//clumpTiles concatenates the stored tile blobs into a single file and
//writes a json index mapping "z/x/y" to its [start, end) byte range, so a
//range request can serve any tile straight out of the clump.
func clumpTiles(mbtiles, clumpPath, indexPath string) error {
	dst, err := os.Create(clumpPath)
	if err != nil {
		return err
	}
	index := map[string][2]int{}
	offset := 0
	err = readTiles(mbtiles, func(z, x, y int, data []byte) error {
		if _, err := dst.Write(data); err != nil {
			return err
		}
		index[fmt.Sprintf("%d/%d/%d", z, x, y)] = [2]int{offset, offset + len(data)}
		offset += len(data)
		return nil
	})
	if err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	doc, err := json.Marshal(index)
	if err != nil {
		return err
	}
	if err := os.WriteFile(indexPath, doc, 0644); err != nil {
		return err
	}
	log.Infof("clumped %d tiles (%d bytes) to %s, index %s", len(index), offset, clumpPath, indexPath)
	return nil
}
