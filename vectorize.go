package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

//maxTileShapes bounds the raw contour count a single tile may produce; the
//sieve and interval bucketing keep real tiles far under this.
const maxTileShapes = 1 << 16

//vectorizeRegions turns raw tracer output into tile features: stable-sort
//and group by quantized value, union each group into repaired polygons,
//then emit one feature per simple polygon with the value as identifier.
func vectorizeRegions(shapes []shape, w, h int) ([]*geojson.Feature, error) {
	if len(shapes) > maxTileShapes {
		return nil, fmt.Errorf("region count %d exceeds per-tile limit %d", len(shapes), maxTileShapes)
	}
	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].value < shapes[j].value
	})

	var features []*geojson.Feature
	for start := 0; start < len(shapes); {
		end := start
		for end < len(shapes) && shapes[end].value == shapes[start].value {
			end++
		}
		value := shapes[start].value
		for _, poly := range unionShapes(shapes[start:end], w, h) {
			poly = dropDegenerateRings(poly)
			if len(poly) == 0 {
				continue
			}
			f := geojson.NewFeature(poly)
			if value >= 0 {
				f.ID = float64(value)
			}
			f.Properties["v"] = strconv.FormatInt(value, 10)
			features = append(features, f)
		}
		start = end
	}
	return features, nil
}

//unionShapes merges every contour of one value group into disjoint simple
//polygons. This is the repair step: the group's rings are rasterized back
//onto a nonzero-winding mask (the grid analogue of a zero-width buffer),
//which resolves self-intersections deterministically and welds regions
//that touch only at a corner; the mask is then re-traced with the joining
//corner policy.
func unionShapes(group []shape, w, h int) []orb.Polygon {
	mask := windingFill(group, w, h)

	labels := make([]int32, len(mask))
	for i := range labels {
		labels[i] = -1
	}
	var polys []orb.Polygon
	var cells []int
	queue := make([]int, 0, 64)
	label := int32(0)
	for start := range mask {
		if !mask[start] || labels[start] >= 0 {
			continue
		}
		labels[start] = label
		queue = append(queue[:0], start)
		cells = cells[:0]
		minC, minR := w, h
		maxC, maxR := 0, 0
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cells = append(cells, i)
			c, r := i%w, i/w
			if c < minC {
				minC = c
			}
			if c > maxC {
				maxC = c
			}
			if r < minR {
				minR = r
			}
			if r > maxR {
				maxR = r
			}
			//touching at a corner joins regions, so neighbors are the
			//full 8-neighborhood here
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nc, nr := c+dc, r+dr
					if nc < 0 || nc >= w || nr < 0 || nr >= h {
						continue
					}
					j := nr*w + nc
					if mask[j] && labels[j] < 0 {
						labels[j] = label
						queue = append(queue, j)
					}
				}
			}
		}

		bw, bh := maxC-minC+1, maxR-minR+1
		local := make([]bool, bw*bh)
		for _, i := range cells {
			c, r := i%w, i/w
			local[(r-minR)*bw+(c-minC)] = true
		}
		loops := maskRings(local, bw, bh, joinTouching)
		offsetRings(loops, float64(minC), float64(minR))
		polys = append(polys, assembleRings(loops)...)
		label++
	}
	return polys
}

//windingFill rasterizes the group's rings onto a cell mask using the
//nonzero winding rule, sampling at pixel centers.
func windingFill(group []shape, w, h int) []bool {
	delta := make([]int32, w*h)
	for _, s := range group {
		for _, ring := range s.rings {
			for i := 0; i < len(ring)-1; i++ {
				p0, p1 := ring[i], ring[i+1]
				if p0[1] == p1[1] {
					continue
				}
				sign := int32(1)
				ylo, yhi := p0[1], p1[1]
				if ylo > yhi {
					ylo, yhi = yhi, ylo
					sign = -1
				}
				for row := int(math.Ceil(ylo - 0.5)); float64(row)+0.5 < yhi; row++ {
					if row < 0 || row >= h {
						continue
					}
					t := (float64(row) + 0.5 - p0[1]) / (p1[1] - p0[1])
					x := p0[0] + t*(p1[0]-p0[0])
					col := int(math.Ceil(x - 0.5))
					if col < 0 {
						col = 0
					}
					if col >= w {
						continue
					}
					delta[row*w+col] += sign
				}
			}
		}
	}
	mask := make([]bool, w*h)
	for row := 0; row < h; row++ {
		sum := int32(0)
		for col := 0; col < w; col++ {
			sum += delta[row*w+col]
			mask[row*w+col] = sum != 0
		}
	}
	return mask
}

//dropDegenerateRings removes rings that cannot close (fewer than 3
//distinct points); a polygon whose exterior is degenerate is dropped whole.
func dropDegenerateRings(poly orb.Polygon) orb.Polygon {
	out := poly[:0]
	for i, ring := range poly {
		if len(ring) < 4 {
			if i == 0 {
				return nil
			}
			continue
		}
		out = append(out, ring)
	}
	return out
}
