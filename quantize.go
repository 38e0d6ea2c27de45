package main

import (
	"fmt"
	"math"
	"sort"
)

//sieveMinPixels regions smaller than this are speckle and get merged away
//when tiling without an interval.
const sieveMinPixels = 2

//GridFilter is one smoothing step applied to the resampled grid before
//interval bucketing.
type GridFilter interface {
	Apply(r *Raster)
}

//applyFilters folds the ordered filter list over the grid.
func applyFilters(r *Raster, filters []GridFilter) {
	for _, f := range filters {
		f.Apply(r)
	}
}

//filtersFromNames resolves configured filter names to implementations.
func filtersFromNames(names []string) ([]GridFilter, error) {
	var filters []GridFilter
	for _, name := range names {
		switch name {
		case "median3":
			filters = append(filters, medianFilter{})
		case "mean3":
			filters = append(filters, meanFilter{})
		default:
			return nil, fmt.Errorf("unknown smoothing filter %q", name)
		}
	}
	return filters, nil
}

type medianFilter struct{}

func (medianFilter) Apply(r *Raster) {
	out := make([]float64, len(r.Data))
	var window [9]float64
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			n := gatherWindow(r, col, row, window[:0])
			if len(n) == 0 {
				out[row*r.Width+col] = r.At(col, row)
				continue
			}
			sort.Float64s(n)
			out[row*r.Width+col] = n[len(n)/2]
		}
	}
	r.Data = out
}

type meanFilter struct{}

func (meanFilter) Apply(r *Raster) {
	out := make([]float64, len(r.Data))
	var window [9]float64
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			n := gatherWindow(r, col, row, window[:0])
			if len(n) == 0 {
				out[row*r.Width+col] = r.At(col, row)
				continue
			}
			sum := 0.0
			for _, v := range n {
				sum += v
			}
			out[row*r.Width+col] = sum / float64(len(n))
		}
	}
	r.Data = out
}

//gatherWindow collects the valid 3x3 neighborhood around (col,row).
func gatherWindow(r *Raster, col, row int, dst []float64) []float64 {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			c, rr := col+dc, row+dr
			if c < 0 || c >= r.Width || rr < 0 || rr >= r.Height {
				continue
			}
			v := r.At(c, rr)
			if r.IsNoData(v) {
				continue
			}
			dst = append(dst, v)
		}
	}
	return dst
}

//IntGrid 量化后的整数网格
type IntGrid struct {
	Data   []int64
	Mask   []bool //false = nodata, never vectorized
	Width  int
	Height int
}

//At 读取格子
func (g *IntGrid) At(col, row int) int64 {
	return g.Data[row*g.Width+col]
}

func (g *IntGrid) valid(col, row int) bool {
	return g.Mask[row*g.Width+col]
}

//quantizeGrid buckets every sample to floor(v/interval)*interval. With no
//interval (<= 0) raw samples are rounded to the nearest integer so each
//distinct value still becomes its own region.
func quantizeGrid(r *Raster, interval float64) *IntGrid {
	g := &IntGrid{
		Data:   make([]int64, len(r.Data)),
		Mask:   make([]bool, len(r.Data)),
		Width:  r.Width,
		Height: r.Height,
	}
	for i, v := range r.Data {
		if r.IsNoData(v) {
			continue
		}
		g.Mask[i] = true
		if interval > 0 {
			g.Data[i] = int64(math.Floor(v/interval) * interval)
		} else {
			g.Data[i] = int64(math.Round(v))
		}
	}
	return g
}

//sieveGrid merges 4-connected regions smaller than minPixels into their
//largest neighboring region, in place.
func sieveGrid(g *IntGrid, minPixels int) {
	labels := make([]int32, len(g.Data))
	for i := range labels {
		labels[i] = -1
	}
	var sizes []int
	var values []int64

	queue := make([]int, 0, 64)
	for start := range g.Data {
		if !g.Mask[start] || labels[start] >= 0 {
			continue
		}
		label := int32(len(sizes))
		value := g.Data[start]
		labels[start] = label
		queue = append(queue[:0], start)
		size := 0
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			size++
			for _, j := range neighbors4(g, i) {
				if g.Mask[j] && labels[j] < 0 && g.Data[j] == value {
					labels[j] = label
					queue = append(queue, j)
				}
			}
		}
		sizes = append(sizes, size)
		values = append(values, value)
	}

	for label, size := range sizes {
		if size >= minPixels {
			continue
		}
		//tally border contact per neighboring region
		contact := make(map[int32]int)
		for i := range g.Data {
			if labels[i] != int32(label) {
				continue
			}
			for _, j := range neighbors4(g, i) {
				if g.Mask[j] && labels[j] != int32(label) {
					contact[labels[j]]++
				}
			}
		}
		best := int32(-1)
		bestN := 0
		for l, n := range contact {
			if n > bestN || (n == bestN && best >= 0 && values[l] < values[best]) {
				best, bestN = l, n
			}
		}
		if best < 0 {
			continue //isolated speckle with no valid neighbor
		}
		for i := range g.Data {
			if labels[i] == int32(label) {
				g.Data[i] = values[best]
				labels[i] = best
			}
		}
	}
}

func neighbors4(g *IntGrid, i int) []int {
	col, row := i%g.Width, i/g.Width
	out := make([]int, 0, 4)
	if col > 0 {
		out = append(out, i-1)
	}
	if col < g.Width-1 {
		out = append(out, i+1)
	}
	if row > 0 {
		out = append(out, i-g.Width)
	}
	if row < g.Height-1 {
		out = append(out, i+g.Width)
	}
	return out
}
