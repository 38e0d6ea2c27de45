package main

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

//Resampling 重采样方式
type Resampling int

//Mode resampling keeps categorical values intact at tile boundaries;
//nearest is the fallback for continuous data.
const (
	ResamplingMode Resampling = iota
	ResamplingNearest
)

//tileGrid builds the destination grid for one tile: extent x extent pixels
//over the tile's Web-Mercator bounds.
func tileGrid(t maptile.Tile, extent int) *Raster {
	wm := mercatorBound(t)
	return &Raster{
		Data:   make([]float64, extent*extent),
		Width:  extent,
		Height: extent,
		Transform: affineFromBounds(
			wm.Left(), wm.Bottom(), wm.Right(), wm.Top(),
			extent, extent,
		),
	}
}

//rasterizeTile resamples one band of src into a tile-local grid. The grid
//only lives for the duration of the tile's processing.
func rasterizeTile(src *Raster, t maptile.Tile, extent int, rs Resampling) (*Raster, error) {
	dst := tileGrid(t, extent)
	if err := reproject(src, dst, rs); err != nil {
		return nil, fmt.Errorf("tile %v: %w", t, err)
	}
	return dst, nil
}

//reproject warps src into dst in place. dst pixels outside the source
//footprint get the source nodata value (or zero without one).
func reproject(src, dst *Raster, rs Resampling) error {
	srcInv, err := src.Transform.Invert()
	if err != nil {
		return err
	}
	fill := 0.0
	if src.HasNoData {
		fill = src.NoData
		dst.NoData = src.NoData
		dst.HasNoData = true
	}

	for row := 0; row < dst.Height; row++ {
		for col := 0; col < dst.Width; col++ {
			var v float64
			switch rs {
			case ResamplingMode:
				v = modeSample(src, srcInv, dst, col, row, fill)
			default:
				v = nearestSample(src, srcInv, dst, col, row, fill)
			}
			dst.Set(col, row, v)
		}
	}
	return nil
}

//srcPixel maps a destination pixel position to fractional source pixel
//coordinates, crossing projections when the two grids differ.
func srcPixel(src *Raster, srcInv Affine, dst *Raster, col, row float64) (float64, float64) {
	x, y := dst.Transform.Apply(col, row)
	if src.Geographic && !dst.Geographic {
		p := project.Mercator.ToWGS84(orb.Point{x, y})
		x, y = p[0], p[1]
	} else if !src.Geographic && dst.Geographic {
		p := project.WGS84.ToMercator(orb.Point{x, y})
		x, y = p[0], p[1]
	}
	return srcInv.Apply(x, y)
}

func nearestSample(src *Raster, srcInv Affine, dst *Raster, col, row int, fill float64) float64 {
	sc, sr := srcPixel(src, srcInv, dst, float64(col)+0.5, float64(row)+0.5)
	c, r := int(math.Floor(sc)), int(math.Floor(sr))
	if c < 0 || c >= src.Width || r < 0 || r >= src.Height {
		return fill
	}
	return src.At(c, r)
}

//modeSample takes the most frequent source value under the destination
//pixel's footprint; ties resolve to the smaller value so reruns agree.
func modeSample(src *Raster, srcInv Affine, dst *Raster, col, row int, fill float64) float64 {
	c0f, r0f := srcPixel(src, srcInv, dst, float64(col), float64(row))
	c1f, r1f := srcPixel(src, srcInv, dst, float64(col)+1, float64(row)+1)

	c0 := int(math.Floor(minf(c0f, c1f)))
	c1 := int(math.Ceil(maxf(c0f, c1f)))
	r0 := int(math.Floor(minf(r0f, r1f)))
	r1 := int(math.Ceil(maxf(r0f, r1f)))
	if c0 < 0 {
		c0 = 0
	}
	if r0 < 0 {
		r0 = 0
	}
	if c1 > src.Width {
		c1 = src.Width
	}
	if r1 > src.Height {
		r1 = src.Height
	}
	if c0 >= c1 || r0 >= r1 {
		return nearestSample(src, srcInv, dst, col, row, fill)
	}

	counts := make(map[float64]int)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			counts[src.At(c, r)]++
		}
	}
	best := fill
	bestN := 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}
