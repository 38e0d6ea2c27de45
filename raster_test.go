package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrid = `ncols 4
nrows 2
xllcorner -120
yllcorner 30
cellsize 0.5
NODATA_value -9999
1 1 2 2
1 -9999 2 2
`

func writeTempGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.asc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenRasterASCIIGrid(t *testing.T) {
	r, err := OpenRaster(writeTempGrid(t, testGrid))
	require.NoError(t, err)

	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.True(t, r.Geographic)
	assert.True(t, r.HasNoData)
	assert.True(t, r.IsNoData(r.At(1, 1)))
	assert.Equal(t, 1.0, r.At(0, 0))
	assert.Equal(t, 2.0, r.At(3, 1))

	b := r.Bound()
	assert.InDelta(t, -120.0, b.Left(), 1e-9)
	assert.InDelta(t, -118.0, b.Right(), 1e-9)
	assert.InDelta(t, 30.0, b.Bottom(), 1e-9)
	assert.InDelta(t, 31.0, b.Top(), 1e-9)
}

func TestOpenRasterUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.tif")
	require.NoError(t, os.WriteFile(path, []byte("II*"), 0644))
	_, err := OpenRaster(path)
	assert.ErrorIs(t, err, errUnsupportedRaster)
}

func TestOpenRasterMissing(t *testing.T) {
	_, err := OpenRaster(filepath.Join(t.TempDir(), "nope.asc"))
	assert.Error(t, err)
}

func TestOpenRasterCellCountMismatch(t *testing.T) {
	bad := `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
1 2 3
4 5
`
	_, err := OpenRaster(writeTempGrid(t, bad))
	assert.Error(t, err)
}

func TestAffineRoundTrip(t *testing.T) {
	a := affineFromBounds(-120, 30, -118, 31, 4, 2)
	x, y := a.Apply(0, 0)
	assert.InDelta(t, -120.0, x, 1e-9)
	assert.InDelta(t, 31.0, y, 1e-9)

	inv, err := a.Invert()
	require.NoError(t, err)
	col, row := inv.Apply(x, y)
	assert.InDelta(t, 0.0, col, 1e-9)
	assert.InDelta(t, 0.0, row, 1e-9)

	x, y = a.Apply(4, 2)
	col, row = inv.Apply(x, y)
	assert.InDelta(t, 4.0, col, 1e-9)
	assert.InDelta(t, 2.0, row, 1e-9)
}

func TestAffineSingular(t *testing.T) {
	_, err := Affine{}.Invert()
	assert.Error(t, err)
}

func TestMercatorBoundOfRaster(t *testing.T) {
	r, err := OpenRaster(writeTempGrid(t, testGrid))
	require.NoError(t, err)
	wm := r.MercatorBound()
	assert.Less(t, wm.Left(), wm.Right())
	//at -120 lon the mercator x is about -13358338
	assert.InDelta(t, -13358338.9, wm.Left(), 10.0)
}
