package tollzone

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		p1, p2, p3, p4 orb.Point
		ok             bool
		pt             orb.Point
		fraction       float64
	}{
		{orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0}, true, orb.Point{1, 1}, 0.5},
		{orb.Point{0, 0}, orb.Point{4, 0}, orb.Point{1, -1}, orb.Point{1, 1}, true, orb.Point{1, 0}, 0.25},
		// Lines intersect, segments don't
		{orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{3, 0}, orb.Point{3, 5}, false, orb.Point{}, 0},
		// Parallel
		{orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1}, false, orb.Point{}, 0},
		// Touching by endpoint
		{orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 0}, orb.Point{1, 1}, true, orb.Point{1, 0}, 1},
	}
	eps := 1e-12
	for i, test := range tests {
		pt, fraction, ok := segmentIntersection(test.p1, test.p2, test.p3, test.p4)
		if ok != test.ok {
			t.Errorf("Case %d: intersection flag must be %t, but got %t", i, test.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if math.Abs(pt[0]-test.pt[0]) > eps || math.Abs(pt[1]-test.pt[1]) > eps {
			t.Errorf("Case %d: intersection point must be %v, but got %v", i, test.pt, pt)
		}
		if math.Abs(fraction-test.fraction) > eps {
			t.Errorf("Case %d: fraction must be %v, but got %v", i, test.fraction, fraction)
		}
	}
}

func TestZoneCrossingPoint(t *testing.T) {
	zone := unitSquareZone(t)
	tests := []struct {
		a, b orb.Point
		ok   bool
		pt   orb.Point
	}{
		{orb.Point{0.5, 0.5}, orb.Point{2, 0.5}, true, orb.Point{1, 0.5}},
		{orb.Point{-1, 0.5}, orb.Point{0.5, 0.5}, true, orb.Point{0, 0.5}},
		// Passing through: nearest to start wins
		{orb.Point{-1, 0.25}, orb.Point{2, 0.25}, true, orb.Point{0, 0.25}},
		{orb.Point{2, 0.25}, orb.Point{-1, 0.25}, true, orb.Point{1, 0.25}},
		{orb.Point{2, 2}, orb.Point{3, 3}, false, orb.Point{}},
		{orb.Point{0.2, 0.2}, orb.Point{0.8, 0.8}, false, orb.Point{}},
	}
	for i, test := range tests {
		pt, ok := zone.CrossingPoint(test.a, test.b)
		if ok != test.ok {
			t.Errorf("Case %d: crossing flag must be %t, but got %t", i, test.ok, ok)
			continue
		}
		if ok && pt != test.pt {
			t.Errorf("Case %d: crossing point must be %v, but got %v", i, test.pt, pt)
		}
	}
}

func TestCrossingsCarryPoint(t *testing.T) {
	net := buildTestNetwork(t, CRSAtlantis, unitSquareLinks)
	classifier, err := NewClassifier()
	if err != nil {
		t.Fatal(err)
	}
	crossings, err := classifier.Crossings(net, unitSquareZone(t))
	if err != nil {
		t.Fatal(err)
	}
	correct := map[LinkID]orb.Point{
		"A":    {1, 1},
		"D":    {1, 1},
		"bike": {0, 0.5},
	}
	for _, crossing := range crossings {
		if !crossing.HasPoint {
			t.Errorf("Link '%s' must have crossing point", crossing.LinkID)
			continue
		}
		if crossing.Point != correct[crossing.LinkID] {
			t.Errorf("Crossing point of '%s' must be %v, but got %v", crossing.LinkID, correct[crossing.LinkID], crossing.Point)
		}
	}
}
