package tollzone

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

func TestAnalyzeLeakage(t *testing.T) {
	net := NewNetwork(CRSAtlantis)
	nodes := []*Node{
		{ID: "out", Coord: orb.Point{-1, 0.5}},
		{ID: "in", Coord: orb.Point{0.5, 0.5}},
		{ID: "gate", Coord: orb.Point{0.5, 0.9}},
		{ID: "far", Coord: orb.Point{-1, 3}},
	}
	for _, node := range nodes {
		if err := net.AddNode(node); err != nil {
			t.Fatal(err)
		}
	}
	links := []*Link{
		{ID: "out_in", From: "out", To: "in", Length: 150, Modes: NewModeSet("car")},
		{ID: "in_out", From: "in", To: "out", Length: 150, Modes: NewModeSet("car")},
		// Shared bus and car lane crossing the border is exempt from toll
		{ID: "out_gate", From: "out", To: "gate", Length: 160, Modes: NewModeSet("car", "pt")},
		{ID: "gate_in", From: "gate", To: "in", Length: 40, Modes: NewModeSet("car")},
		{ID: "gate_in_slow", From: "gate", To: "in", Length: 90, Modes: NewModeSet("car")},
		{ID: "out_far", From: "out", To: "far", Length: 250, Modes: NewModeSet("bike")},
	}
	for _, link := range links {
		if err := net.AddLink(link); err != nil {
			t.Fatal(err)
		}
	}
	tolled, err := Classify(net, unitSquareZone(t))
	if err != nil {
		t.Fatal(err)
	}
	if !tolled.Equal(NewTolledLinkSet("out_in", "in_out")) {
		t.Fatalf("Tolled links must be [in_out out_in], but got %v", tolled.Sorted())
	}
	detours, err := AnalyzeLeakage(net, tolled)
	if err != nil {
		t.Fatal(err)
	}
	if len(detours) != 2 {
		t.Fatalf("Number of detours must be 2, but got %d", len(detours))
	}
	// Sorted: in_out, out_in
	if detours[0].LinkID != "in_out" || detours[0].Reachable {
		t.Errorf("Link 'in_out' must have no detour, but got %+v", detours[0])
	}
	if !math.IsInf(detours[0].Ratio(), 1) {
		t.Errorf("Ratio of unreachable detour must be +Inf, but got %f", detours[0].Ratio())
	}
	if detours[1].LinkID != "out_in" || !detours[1].Reachable {
		t.Fatalf("Link 'out_in' must have detour, but got %+v", detours[1])
	}
	if math.Abs(detours[1].DetourLength-200) > 1e-9 {
		t.Errorf("Detour length must be 200, but got %f", detours[1].DetourLength)
	}
	if math.Abs(detours[1].Ratio()-200.0/150.0) > 1e-9 {
		t.Errorf("Detour ratio must be %f, but got %f", 200.0/150.0, detours[1].Ratio())
	}
	summary := SummarizeLeakage(detours, 1.5)
	if summary.Links != 2 || summary.Unreachable != 1 || summary.Leaking != 1 {
		t.Errorf("Summary must be {2 1 1}, but got %+v", summary)
	}
	if summary = SummarizeLeakage(detours, 1.2); summary.Leaking != 0 {
		t.Errorf("No detour must leak with threshold 1.2, but got %d", summary.Leaking)
	}
}

func TestAnalyzeLeakageErrors(t *testing.T) {
	net := buildTestNetwork(t, CRSAtlantis, unitSquareLinks)
	if _, err := AnalyzeLeakage(net, NewTolledLinkSet()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Empty tolled set must give ErrConfiguration, but got %v", err)
	}
	if _, err := AnalyzeLeakage(net, NewTolledLinkSet("absent")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Unknown tolled link must give ErrConfiguration, but got %v", err)
	}
	if _, err := AnalyzeLeakage(nil, NewTolledLinkSet("A")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Missing network must give ErrConfiguration, but got %v", err)
	}
	detours, err := AnalyzeLeakage(net, NewTolledLinkSet("A"), WithLeakageMode("walk"))
	if err != nil {
		t.Fatal(err)
	}
	if len(detours) != 1 || detours[0].Reachable {
		t.Errorf("Detour in network without 'walk' links must be unreachable, but got %+v", detours)
	}
}
