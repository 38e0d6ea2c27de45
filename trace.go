package main

import (
	"math"
	"math/bits"

	"github.com/paulmach/orb"
)

//cornerPolicy decides what happens where two same-value cells touch only
//at a corner.
type cornerPolicy int

const (
	//splitTouching keeps corner-touching squares as separate rings (the
	//raw tracer behavior).
	splitTouching cornerPolicy = iota
	//joinTouching threads one ring through the shared corner, merging the
	//squares into a single boundary (the repair behavior).
	joinTouching
)

//edge directions, clockwise in tile pixel space (y grows downward)
const (
	dirE = iota
	dirS
	dirW
	dirN
)

//shape is one traced constant-value region: exterior ring first, any hole
//rings after, matching the ring order the tile format expects.
type shape struct {
	value int64
	rings []orb.Ring
}

//traceShapes is the contour tracer: it emits one shape per 4-connected
//region of equal quantized value, holes included. Masked-out cells are
//never part of any region.
func traceShapes(g *IntGrid) []shape {
	labels := make([]int32, len(g.Data))
	for i := range labels {
		labels[i] = -1
	}
	var shapes []shape
	var cells []int
	queue := make([]int, 0, 64)
	label := int32(0)
	for start := range g.Data {
		if !g.Mask[start] || labels[start] >= 0 {
			continue
		}
		value := g.Data[start]
		labels[start] = label
		queue = append(queue[:0], start)
		minC, minR := g.Width, g.Height
		maxC, maxR := 0, 0
		cells = cells[:0]
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cells = append(cells, i)
			c, r := i%g.Width, i/g.Width
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
			for _, j := range neighbors4(g, i) {
				if g.Mask[j] && labels[j] < 0 && g.Data[j] == value {
					labels[j] = label
					queue = append(queue, j)
				}
			}
		}

		bw, bh := maxC-minC+1, maxR-minR+1
		mask := make([]bool, bw*bh)
		for _, i := range cells {
			c, r := i%g.Width, i/g.Width
			mask[(r-minR)*bw+(c-minC)] = true
		}
		loops := maskRings(mask, bw, bh, splitTouching)
		offsetRings(loops, float64(minC), float64(minR))
		for _, poly := range assembleRings(loops) {
			shapes = append(shapes, shape{value: value, rings: poly})
		}
		label++
	}
	return shapes
}

//maskRings stitches the directed boundary edges of a cell mask into closed
//rings. Exterior rings come out with positive signed area (clockwise on
//screen), holes negative. The corner policy resolves vertices where two
//inside cells meet diagonally.
func maskRings(mask []bool, w, h int, policy cornerPolicy) []orb.Ring {
	stride := w + 1
	out := make([]uint8, stride*(h+1))
	inside := func(c, r int) bool {
		return c >= 0 && c < w && r >= 0 && r < h && mask[r*w+c]
	}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if !inside(c, r) {
				continue
			}
			if !inside(c, r-1) {
				out[r*stride+c] |= 1 << dirE
			}
			if !inside(c+1, r) {
				out[r*stride+c+1] |= 1 << dirS
			}
			if !inside(c, r+1) {
				out[(r+1)*stride+c+1] |= 1 << dirW
			}
			if !inside(c-1, r) {
				out[(r+1)*stride+c] |= 1 << dirN
			}
		}
	}

	vstep := [4]int{1, stride, -1, -stride}
	var rings []orb.Ring
	for v := range out {
		for d := 0; d < 4; d++ {
			if out[v]&(1<<uint(d)) == 0 {
				continue
			}
			verts := walkLoop(out, vstep, v, d, policy)
			rings = append(rings, compressRing(verts, stride))
		}
	}
	return rings
}

//walkLoop consumes edges starting at (startV, startD) until the loop closes
//back onto its start edge.
func walkLoop(out []uint8, vstep [4]int, startV, startD int, policy cornerPolicy) []int {
	verts := []int{}
	curV, curD := startV, startD
	for {
		out[curV] &^= 1 << uint(curD)
		verts = append(verts, curV)
		nextV := curV + vstep[curD]
		cand := out[nextV]
		if nextV == startV {
			if cand == 0 {
				return verts
			}
			//figure-8 through the start vertex: the policy picks between
			//closing now and crossing onto the unused pair of edges
			p := preferredTurn(curD, policy)
			if p == startD {
				return verts
			}
			if cand&(1<<uint(p)) != 0 {
				curV, curD = nextV, p
				continue
			}
			return verts
		}
		switch bits.OnesCount8(cand) {
		case 0:
			//disconnected edge set, close what we have
			return verts
		case 1:
			curV, curD = nextV, bits.TrailingZeros8(cand)
		default:
			p := preferredTurn(curD, policy)
			if cand&(1<<uint(p)) == 0 {
				p = bits.TrailingZeros8(cand)
			}
			curV, curD = nextV, p
		}
	}
}

//preferredTurn picks the outgoing direction at an ambiguous corner: a left
//turn crosses to the diagonal cell (join), a right turn stays on the
//current one (split).
func preferredTurn(d int, policy cornerPolicy) int {
	if policy == joinTouching {
		return (d + 3) % 4
	}
	return (d + 1) % 4
}

//compressRing drops collinear vertices and closes the ring.
func compressRing(verts []int, stride int) orb.Ring {
	n := len(verts)
	ring := make(orb.Ring, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := verts[(i+n-1)%n]
		next := verts[(i+1)%n]
		if verts[i]-prev != next-verts[i] {
			ring = append(ring, vertexPoint(verts[i], stride))
		}
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

func vertexPoint(v, stride int) orb.Point {
	return orb.Point{float64(v % stride), float64(v / stride)}
}

//signedArea is the surveyor's formula over tile pixel coordinates; with
//y growing downward, screen-clockwise rings come out positive.
func signedArea(r orb.Ring) float64 {
	sum := 0.0
	for i := 0; i < len(r)-1; i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

func offsetRings(rings []orb.Ring, dx, dy float64) {
	for _, r := range rings {
		for i := range r {
			r[i][0] += dx
			r[i][1] += dy
		}
	}
}

//assembleRings groups traced loops into polygons: positive-area loops are
//exteriors, negative loops become holes of the exterior containing them.
func assembleRings(loops []orb.Ring) []orb.Polygon {
	var exteriors []orb.Ring
	var holes []orb.Ring
	for _, r := range loops {
		if len(r) < 4 {
			continue //degenerate, unrepresentable in the tile format
		}
		if signedArea(r) >= 0 {
			exteriors = append(exteriors, r)
		} else {
			holes = append(holes, r)
		}
	}
	polys := make([]orb.Polygon, len(exteriors))
	for i, ext := range exteriors {
		polys[i] = orb.Polygon{ext}
	}
	for _, hole := range holes {
		//attach to the smallest exterior containing the hole
		best := -1
		bestArea := 0.0
		p := ringInteriorPoint(hole)
		for i, ext := range exteriors {
			if pointInRing(p, ext) {
				a := signedArea(ext)
				if best < 0 || a < bestArea {
					best, bestArea = i, a
				}
			}
		}
		if best >= 0 {
			polys[best] = append(polys[best], hole)
		}
	}
	return polys
}

//ringInteriorPoint nudges off the first segment's midpoint toward the
//ring's inside; rings here are rectilinear with unit-length resolution so a
//half-pixel offset always lands inside.
func ringInteriorPoint(r orb.Ring) orb.Point {
	mx := (r[0][0] + r[1][0]) / 2
	my := (r[0][1] + r[1][1]) / 2
	dx := r[1][0] - r[0][0]
	dy := r[1][1] - r[0][1]
	//holes run counterclockwise on screen, their enclave is left of travel
	l := maxf(math.Abs(dx), math.Abs(dy))
	return orb.Point{mx + dy/l*0.5, my - dx/l*0.5}
}

func pointInRing(p orb.Point, r orb.Ring) bool {
	in := false
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])/(b[1]-a[1])*(b[0]-a[0])
			if p[0] < x {
				in = !in
			}
		}
	}
	return in
}
