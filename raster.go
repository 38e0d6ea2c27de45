package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

var (
	errUnsupportedRaster = errors.New("unsupported raster format")
	errBadBounds         = errors.New("malformed bounding box")
)

//Affine maps pixel space to georeferenced coordinates:
//x = A*col + B*row + C, y = D*col + E*row + F.
type Affine struct {
	A, B, C, D, E, F float64
}

//affineFromBounds builds a north-up transform for a w/s/e/n box over a
//width x height pixel grid.
func affineFromBounds(w, s, e, n float64, width, height int) Affine {
	return Affine{
		A: (e - w) / float64(width),
		C: w,
		E: (s - n) / float64(height),
		F: n,
	}
}

//Apply 像素坐标转地理坐标
func (a Affine) Apply(col, row float64) (float64, float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

//Invert 地理坐标转像素坐标
func (a Affine) Invert() (Affine, error) {
	det := a.A*a.E - a.B*a.D
	if det == 0 {
		return Affine{}, errors.New("affine transform is not invertible")
	}
	inv := Affine{
		A: a.E / det,
		B: -a.B / det,
		D: -a.D / det,
		E: a.A / det,
	}
	inv.C = -(inv.A*a.C + inv.B*a.F)
	inv.F = -(inv.D*a.C + inv.E*a.F)
	return inv, nil
}

//Raster 单波段内存栅格
type Raster struct {
	Data      []float64
	Width     int
	Height    int
	Transform Affine
	NoData    float64
	HasNoData bool
	//Geographic is true when the grid is georeferenced in lon/lat
	//(EPSG:4326); false means its coordinates are already Web-Mercator.
	Geographic bool
}

//At 读取像素
func (r *Raster) At(col, row int) float64 {
	return r.Data[row*r.Width+col]
}

//Set 写入像素
func (r *Raster) Set(col, row int, v float64) {
	r.Data[row*r.Width+col] = v
}

//IsNoData reports whether v is the raster's nodata fill.
func (r *Raster) IsNoData(v float64) bool {
	return r.HasNoData && v == r.NoData
}

//Bound 原生坐标范围
func (r *Raster) Bound() orb.Bound {
	x0, y0 := r.Transform.Apply(0, 0)
	x1, y1 := r.Transform.Apply(float64(r.Width), float64(r.Height))
	return orb.Bound{
		Min: orb.Point{minf(x0, x1), minf(y0, y1)},
		Max: orb.Point{maxf(x0, x1), maxf(y0, y1)},
	}
}

//GeoBound 地理坐标(经纬度)范围
func (r *Raster) GeoBound() orb.Bound {
	b := r.Bound()
	if r.Geographic {
		return b
	}
	return orb.Bound{
		Min: project.Mercator.ToWGS84(b.Min),
		Max: project.Mercator.ToWGS84(b.Max),
	}
}

//MercatorBound 投影坐标范围
func (r *Raster) MercatorBound() orb.Bound {
	b := r.Bound()
	if !r.Geographic {
		return b
	}
	return orb.Bound{
		Min: project.WGS84.ToMercator(b.Min),
		Max: project.WGS84.ToMercator(b.Max),
	}
}

//OpenRaster reads a single-band source raster. Only the ESRI ASCII grid
//format (.asc/.agr) is decoded here; anything else is an input error.
func OpenRaster(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer f.Close()

	lower := strings.ToLower(path)
	if !strings.HasSuffix(lower, ".asc") && !strings.HasSuffix(lower, ".agr") {
		return nil, fmt.Errorf("%s: %w", path, errUnsupportedRaster)
	}
	return readASCIIGrid(f)
}

func readASCIIGrid(f *os.File) (*Raster, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<16), 1<<22)

	header := map[string]float64{}
	var cells []float64
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 2 && !isNumeric(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("ascii grid header %q: %w", fields[0], err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}
		for _, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("ascii grid cell %q: %w", s, err)
			}
			cells = append(cells, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	ncols := int(header["ncols"])
	nrows := int(header["nrows"])
	cell := header["cellsize"]
	if ncols <= 0 || nrows <= 0 || cell <= 0 {
		return nil, fmt.Errorf("ascii grid missing ncols/nrows/cellsize: %w", errUnsupportedRaster)
	}
	if len(cells) != ncols*nrows {
		return nil, fmt.Errorf("ascii grid has %d cells, want %d", len(cells), ncols*nrows)
	}

	xll, xok := header["xllcorner"]
	yll, yok := header["yllcorner"]
	if !xok || !yok {
		//center-registered variant
		xc, xcok := header["xllcenter"]
		yc, ycok := header["yllcenter"]
		if !xcok || !ycok {
			return nil, fmt.Errorf("ascii grid missing corner coordinates: %w", errUnsupportedRaster)
		}
		xll = xc - cell/2
		yll = yc - cell/2
	}

	r := &Raster{
		Data:       cells,
		Width:      ncols,
		Height:     nrows,
		Geographic: true,
		Transform: affineFromBounds(
			xll, yll,
			xll+float64(ncols)*cell,
			yll+float64(nrows)*cell,
			ncols, nrows,
		),
	}
	if nd, ok := header["nodata_value"]; ok {
		r.NoData = nd
		r.HasNoData = true
	}
	return r, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
