package main

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

//wmBoundFor builds a Web-Mercator bound whose pixel resolution over
//cols x rows is exactly res meters per pixel.
func wmBoundFor(res float64, cols, rows int) orb.Bound {
	return orb.Bound{
		Min: orb.Point{0, 0},
		Max: orb.Point{res * float64(cols), res * float64(rows)},
	}
}

func TestExtentForBounds(t *testing.T) {
	const minExtent, maxExtent = 256, 512
	maxZoom := 7
	for z := 0; z <= maxZoom; z++ {
		e := extentFor(z, maxZoom, minExtent, maxExtent)
		assert.GreaterOrEqual(t, e, minExtent, "zoom %d", z)
		assert.LessOrEqual(t, e, maxExtent, "zoom %d", z)
	}
	assert.Equal(t, maxExtent, extentFor(maxZoom, maxZoom, minExtent, maxExtent))
}

func TestExtentForHalving(t *testing.T) {
	assert.Equal(t, 512, extentFor(5, 5, 256, 512))
	assert.Equal(t, 256, extentFor(4, 5, 256, 512))
	//floor clamp kicks in from here down
	assert.Equal(t, 256, extentFor(3, 5, 256, 512))
	assert.Equal(t, 256, extentFor(0, 5, 256, 512))
}

func TestMaxZoomForScenario(t *testing.T) {
	//resolution chosen so round(log2(C/res) - log2(512)) == 5
	res := WebMercatorCircumference / 16384
	z := maxZoomFor(wmBoundFor(res, 100, 100), 100, 100, 512)
	assert.Equal(t, 5, z)
}

func TestMaxZoomMonotonicInResolution(t *testing.T) {
	//finer source resolution never lowers the computed max zoom
	prev := -1
	for res := 10000.0; res >= 1; res /= 2 {
		z := maxZoomFor(wmBoundFor(res, 64, 64), 64, 64, 512)
		assert.GreaterOrEqual(t, z, prev, "res %f", res)
		prev = z
	}
}

func TestMaxZoomNeverNegative(t *testing.T) {
	z := maxZoomFor(wmBoundFor(1e7, 2, 2), 2, 2, 4096)
	assert.GreaterOrEqual(t, z, 0)
}
