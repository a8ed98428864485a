package common

import "sort"

// Triangle references three points by index into a point list.
type Triangle struct {
	A, B, C int
}

// Edge references two points by index into a point list. A is always the smaller index.
type Edge struct {
	A, B int
}

func newEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Barycentric computes the barycentric coordinates of p with respect to the triangle (a, b, c).
//
// Parameters:
//   - p: the query point
//   - a, b, c: the triangle vertices
//
// Returns:
//   - [3]float32: the weights for a, b and c, summing to 1
//   - bool: false when the triangle is degenerate (area below Epsilon)
func Barycentric(p, a, b, c [2]float32) ([3]float32, bool) {
	v0 := [2]float32{b[0] - a[0], b[1] - a[1]}
	v1 := [2]float32{c[0] - a[0], c[1] - a[1]}
	v2 := [2]float32{p[0] - a[0], p[1] - a[1]}

	denom := v0[0]*v1[1] - v1[0]*v0[1]
	if Abs(denom) < Epsilon {
		return [3]float32{}, false
	}
	v := (v2[0]*v1[1] - v1[0]*v2[1]) / denom
	w := (v0[0]*v2[1] - v2[0]*v0[1]) / denom
	return [3]float32{1 - v - w, v, w}, true
}

// ClosestPointOnSegment projects p onto the segment (a, b).
//
// Parameters:
//   - p: the query point
//   - a, b: segment end points
//
// Returns:
//   - float32: the normalized position along the segment in [0, 1]
//   - float32: the squared distance from p to the projected point
func ClosestPointOnSegment(p, a, b [2]float32) (float32, float32) {
	ab := [2]float32{b[0] - a[0], b[1] - a[1]}
	lenSq := ab[0]*ab[0] + ab[1]*ab[1]
	var t float32
	if lenSq > Epsilon*Epsilon {
		t = Clamp(((p[0]-a[0])*ab[0]+(p[1]-a[1])*ab[1])/lenSq, 0, 1)
	}
	q := [2]float32{a[0] + ab[0]*t, a[1] + ab[1]*t}
	dx, dy := p[0]-q[0], p[1]-q[1]
	return t, dx*dx + dy*dy
}

// Triangulate computes a Delaunay triangulation of points using the Bowyer-Watson algorithm.
// Fewer than three points, or a fully collinear set, yields no triangles.
// Triangles are returned with counter-clockwise winding.
//
// Parameters:
//   - points: the 2D input points
//
// Returns:
//   - []Triangle: triangles indexing into points
func Triangulate(points [][2]float32) []Triangle {
	n := len(points)
	if n < 3 {
		return nil
	}

	// Work in float64 with three extra super-triangle vertices appended at n, n+1, n+2.
	pts := make([][2]float64, n, n+3)
	minX, minY := float64(points[0][0]), float64(points[0][1])
	maxX, maxY := minX, minY
	for i, p := range points {
		x, y := float64(p[0]), float64(p[1])
		pts[i] = [2]float64{x, y}
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	d := max(maxX-minX, maxY-minY)
	if d == 0 {
		return nil
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	pts = append(pts,
		[2]float64{midX - 20*d, midY - d},
		[2]float64{midX, midY + 20*d},
		[2]float64{midX + 20*d, midY - d},
	)

	tris := []Triangle{{A: n, B: n + 1, C: n + 2}}
	for i := 0; i < n; i++ {
		p := pts[i]
		var bad []Triangle
		kept := tris[:0:0]
		for _, t := range tris {
			if inCircumcircle(p, pts[t.A], pts[t.B], pts[t.C]) {
				bad = append(bad, t)
			} else {
				kept = append(kept, t)
			}
		}

		edgeCount := make(map[Edge]int)
		for _, t := range bad {
			edgeCount[newEdge(t.A, t.B)]++
			edgeCount[newEdge(t.B, t.C)]++
			edgeCount[newEdge(t.C, t.A)]++
		}
		boundary := make([]Edge, 0, len(edgeCount))
		for e, c := range edgeCount {
			if c == 1 {
				boundary = append(boundary, e)
			}
		}
		sort.Slice(boundary, func(a, b int) bool {
			if boundary[a].A != boundary[b].A {
				return boundary[a].A < boundary[b].A
			}
			return boundary[a].B < boundary[b].B
		})
		for _, e := range boundary {
			kept = append(kept, Triangle{A: e.A, B: e.B, C: i})
		}
		tris = kept
	}

	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		if t.A >= n || t.B >= n || t.C >= n {
			continue
		}
		if orient(pts[t.A], pts[t.B], pts[t.C]) < 0 {
			t.B, t.C = t.C, t.B
		}
		out = append(out, t)
	}
	return out
}

// OuterEdges returns the edges that belong to exactly one triangle, i.e. the hull boundary.
//
// Parameters:
//   - tris: a triangulation
//
// Returns:
//   - []Edge: boundary edges in ascending (A, B) order
func OuterEdges(tris []Triangle) []Edge {
	count := make(map[Edge]int)
	for _, t := range tris {
		count[newEdge(t.A, t.B)]++
		count[newEdge(t.B, t.C)]++
		count[newEdge(t.C, t.A)]++
	}
	edges := make([]Edge, 0)
	for e, c := range count {
		if c == 1 {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

func orient(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func inCircumcircle(p, a, b, c [2]float64) bool {
	if orient(a, b, c) < 0 {
		b, c = c, b
	}
	ax, ay := a[0]-p[0], a[1]-p[1]
	bx, by := b[0]-p[0], b[1]-p[1]
	cx, cy := c[0]-p[0], c[1]-p[1]
	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)
	return det > 0
}
