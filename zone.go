package tollzone

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

const (
	// DefaultBoundaryTolerance is distance (in zone CRS units) under which point is considered lying on a ring
	DefaultBoundaryTolerance = 1e-9
)

// ZoneID identifies single area of a zone definition
type ZoneID string

// Zone is a set of polygons (grouped by identifier) prepared for repeated containment queries
type Zone struct {
	CRS string

	polygons  map[ZoneID][]orb.Polygon
	order     []ZoneID
	index     rtree.RTreeG[zonePolygonRef]
	refs      []zonePolygonRef
	bound     orb.Bound
	policy    BoundaryPolicy
	tolerance float64
}

// zonePolygonRef points to polygon in zone; seq is insertion order and is used to make lookups deterministic
type zonePolygonRef struct {
	id  ZoneID
	idx int
	seq int
}

// NewZone creates empty zone with polygons in given coordinate reference system
func NewZone(crs string, options ...func(*Zone)) *Zone {
	zone := &Zone{
		CRS:       crs,
		polygons:  make(map[ZoneID][]orb.Polygon),
		policy:    BOUNDARY_EXCLUDED,
		tolerance: DefaultBoundaryTolerance,
	}
	for _, option := range options {
		option(zone)
	}
	return zone
}

// WithBoundaryPolicy sets classification of points lying exactly on polygon rings
func WithBoundaryPolicy(policy BoundaryPolicy) func(*Zone) {
	return func(zone *Zone) {
		zone.policy = policy
	}
}

// WithBoundaryTolerance sets distance under which point is considered lying on polygon ring
func WithBoundaryTolerance(tolerance float64) func(*Zone) {
	return func(zone *Zone) {
		zone.tolerance = math.Abs(tolerance)
	}
}

// BoundaryPolicy returns classification policy for boundary points
func (zone *Zone) BoundaryPolicy() BoundaryPolicy {
	return zone.policy
}

// AddPolygon adds polygon (outer ring first, then holes) under given identifier. Rings are closed if needed
func (zone *Zone) AddPolygon(id ZoneID, polygon orb.Polygon) error {
	if len(polygon) == 0 {
		return malformedError(nil, "polygon of zone '%s' has no rings", id)
	}
	prepared := make(orb.Polygon, 0, len(polygon))
	for i, ring := range polygon {
		closed, err := closeRing(ring)
		if err != nil {
			return malformedError(err, "ring #%d of zone '%s'", i, id)
		}
		prepared = append(prepared, closed)
	}
	if _, ok := zone.polygons[id]; !ok {
		zone.order = append(zone.order, id)
	}
	zone.polygons[id] = append(zone.polygons[id], prepared)

	ref := zonePolygonRef{id: id, idx: len(zone.polygons[id]) - 1, seq: len(zone.refs)}
	bound := prepared.Bound()
	zone.index.Insert([2]float64(bound.Min), [2]float64(bound.Max), ref)
	if len(zone.refs) == 0 {
		zone.bound = bound
	} else {
		zone.bound = zone.bound.Union(bound)
	}
	zone.refs = append(zone.refs, ref)
	return nil
}

func closeRing(ring orb.Ring) (orb.Ring, error) {
	closed := make(orb.Ring, len(ring), len(ring)+1)
	copy(closed, ring)
	if len(closed) > 0 && !closed.Closed() {
		closed = append(closed, closed[0])
	}
	if len(closed) < 4 {
		return nil, malformedError(nil, "ring must have at least 3 distinct points, got %d", len(ring))
	}
	return closed, nil
}

// IDs returns zone identifiers in the order of their appearance
func (zone *Zone) IDs() []ZoneID {
	ids := make([]ZoneID, len(zone.order))
	copy(ids, zone.order)
	return ids
}

// Polygons returns polygons stored under given identifier
func (zone *Zone) Polygons(id ZoneID) []orb.Polygon {
	return zone.polygons[id]
}

// Len returns total number of polygons
func (zone *Zone) Len() int {
	return len(zone.refs)
}

// Bound returns bounding box of all polygons
func (zone *Zone) Bound() orb.Bound {
	return zone.bound
}

// Contains returns true if point is inside of any polygon.
// Points lying on a ring are classified by zone's BoundaryPolicy
func (zone *Zone) Contains(pt orb.Point) bool {
	_, ok := zone.ZoneOf(pt)
	return ok
}

// ZoneOf returns identifier of the first (in insertion order) polygon containing point.
//
// Strict containment by any polygon wins over lying on a ring of another one; a point which is only on
// rings is contained only when policy is BOUNDARY_INCLUDED
func (zone *Zone) ZoneOf(pt orb.Point) (ZoneID, bool) {
	candidates := zone.candidates(pt)
	var boundaryRef *zonePolygonRef
	for i := range candidates {
		ref := candidates[i]
		polygon := zone.polygons[ref.id][ref.idx]
		if polygonOnBoundary(polygon, pt, zone.tolerance) {
			if boundaryRef == nil {
				boundaryRef = &candidates[i]
			}
			continue
		}
		if planar.PolygonContains(polygon, pt) {
			return ref.id, true
		}
	}
	if boundaryRef != nil && zone.policy == BOUNDARY_INCLUDED {
		return boundaryRef.id, true
	}
	return "", false
}

// OnBoundary returns true if point lies on a ring of any polygon
func (zone *Zone) OnBoundary(pt orb.Point) bool {
	for _, ref := range zone.candidates(pt) {
		if polygonOnBoundary(zone.polygons[ref.id][ref.idx], pt, zone.tolerance) {
			return true
		}
	}
	return false
}

// candidates returns polygons which bounding boxes (extended by tolerance) contain point, sorted by insertion order
func (zone *Zone) candidates(pt orb.Point) []zonePolygonRef {
	min := [2]float64{pt[0] - zone.tolerance, pt[1] - zone.tolerance}
	max := [2]float64{pt[0] + zone.tolerance, pt[1] + zone.tolerance}
	found := []zonePolygonRef{}
	zone.index.Search(min, max, func(_, _ [2]float64, ref zonePolygonRef) bool {
		found = append(found, ref)
		return true
	})
	sort.Slice(found, func(i, j int) bool {
		return found[i].seq < found[j].seq
	})
	return found
}

func polygonOnBoundary(polygon orb.Polygon, pt orb.Point, tolerance float64) bool {
	for _, ring := range polygon {
		for i := 1; i < len(ring); i++ {
			if onSegment(ring[i-1], ring[i], pt, tolerance) {
				return true
			}
		}
	}
	return false
}

// onSegment checks if point p lies on segment [a; b] within tolerance (Euclidean space)
func onSegment(a, b, p orb.Point, tolerance float64) bool {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1]) <= tolerance
	}
	cross := dx*(p[1]-a[1]) - dy*(p[0]-a[0])
	if math.Abs(cross) > tolerance*length {
		return false
	}
	dot := dx*(p[0]-a[0]) + dy*(p[1]-a[1])
	return dot >= -tolerance*length && dot <= length*length+tolerance*length
}
