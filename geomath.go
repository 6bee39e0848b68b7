package tollzone

import (
	"math"

	"github.com/paulmach/orb"
)

// segmentIntersection checks if two segments intersect and returns intersection point with its position
// along the first segment (0 at p1, 1 at p2).
// p1, p2 - first segment
// p3, p4 - second segment
// Note: Euclidean space. Collinear overlapping segments are reported as not intersecting
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, float64, bool) {
	// Calculate the coefficients of the linear equations
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	// Calculate the determinant
	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, 0, false
	}

	// Calculate the intersection point
	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	pt := orb.Point{x, y}
	t := segmentFraction(p1, p2, pt)
	u := segmentFraction(p3, p4, pt)
	const eps = 1e-12
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return orb.Point{}, 0, false
	}
	return pt, t, true
}

// segmentFraction returns position of point lying on the line through p and q
func segmentFraction(p, q, pt orb.Point) float64 {
	dx := q[0] - p[0]
	dy := q[1] - p[1]
	if math.Abs(dx) >= math.Abs(dy) {
		return (pt[0] - p[0]) / dx
	}
	return (pt[1] - p[1]) / dy
}

// CrossingPoint returns the first point where segment from a to b meets boundary of any zone polygon
func (zone *Zone) CrossingPoint(a, b orb.Point) (orb.Point, bool) {
	segmentBound := orb.MultiPoint{a, b}.Bound()
	best := math.Inf(1)
	var found orb.Point
	for _, ref := range zone.refs {
		polygon := zone.polygons[ref.id][ref.idx]
		if !polygon.Bound().Intersects(segmentBound) {
			continue
		}
		for _, ring := range polygon {
			for i := 1; i < len(ring); i++ {
				pt, t, ok := segmentIntersection(a, b, ring[i-1], ring[i])
				if ok && t < best {
					best = t
					found = pt
				}
			}
		}
	}
	return found, !math.IsInf(best, 1)
}
