package main

import (
	"math"

	"github.com/paulmach/orb"
)

//WebMercatorCircumference EPSG:3857 equatorial circumference in meters
const WebMercatorCircumference = 40075016.686

//maxZoomFor estimates the pyramid's max zoom from the source resolution in
//Web-Mercator units and the tile pixel extent used at that zoom.
func maxZoomFor(wm orb.Bound, cols, rows int, extent int) int {
	res := math.Min(
		(wm.Right()-wm.Left())/float64(cols),
		(wm.Top()-wm.Bottom())/float64(rows),
	)
	z := math.Round(math.Log2(WebMercatorCircumference/res) - math.Log2(float64(extent)))
	if z < 0 {
		return 0
	}
	return int(z)
}

//extentFor halves the max extent once per zoom below maxZoom, clamped to
//minExtent. extentFor(maxZoom) == maxExtent.
func extentFor(z, maxZoom, minExtent, maxExtent int) int {
	diff := maxZoom - z
	if diff < 0 {
		diff = 0
	}
	if diff > 30 {
		diff = 30
	}
	e := maxExtent / (1 << uint(diff))
	if e < minExtent {
		e = minExtent
	}
	return e
}
