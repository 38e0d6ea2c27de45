package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

//ZoomMin 最小级别
const ZoomMin = 0

//ZoomMax 最大级别
const ZoomMax = 24

//Tile 自定义瓦片存储
type Tile struct {
	T maptile.Tile
	C []byte
}

func (tile Tile) flipY() uint32 {
	zpower := math.Pow(2.0, float64(tile.T.Z))
	return uint32(zpower) - 1 - tile.T.Y
}

//mercatorBound 瓦片的投影范围
func mercatorBound(t maptile.Tile) orb.Bound {
	b := t.Bound()
	min := project.WGS84.ToMercator(b.Min)
	max := project.WGS84.ToMercator(b.Max)
	return orb.Bound{Min: min, Max: max}
}

//coverTiles enumerates every tile whose footprint intersects the geographic
//bound at each zoom of [minZoom, maxZoom], with an optional buffer of extra
//tiles around the edges. Ranges are clamped to [0, 2^z), no duplicates.
func coverTiles(b orb.Bound, minZoom, maxZoom, buffer int) []maptile.Tile {
	var tiles []maptile.Tile
	for z := minZoom; z <= maxZoom; z++ {
		ul := maptile.At(orb.Point{b.Left(), b.Top()}, maptile.Zoom(z))
		lr := maptile.At(orb.Point{b.Right(), b.Bottom()}, maptile.Zoom(z))
		n := 1 << uint(z)
		x0 := clampTileIndex(int(ul.X)-buffer, n)
		x1 := clampTileIndex(int(lr.X)+buffer, n)
		y0 := clampTileIndex(int(ul.Y)-buffer, n)
		y1 := clampTileIndex(int(lr.Y)+buffer, n)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				tiles = append(tiles, maptile.New(uint32(x), uint32(y), maptile.Zoom(z)))
			}
		}
	}
	return tiles
}

func clampTileIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

//PBF 瓦片格式
const PBF = "pbf"
