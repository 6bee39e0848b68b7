package tollzone

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

func unitSquareZone(t *testing.T, options ...func(*Zone)) *Zone {
	zone := NewZone("atlantis", options...)
	err := zone.AddPolygon("square", orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}}})
	if err != nil {
		t.Fatal(err)
	}
	return zone
}

func TestZoneContains(t *testing.T) {
	zone := unitSquareZone(t)
	tests := []struct {
		pt     orb.Point
		inside bool
	}{
		{orb.Point{0.5, 0.5}, true},
		{orb.Point{0.6, 0.6}, true},
		{orb.Point{2, 2}, false},
		{orb.Point{-0.0001, 0.5}, false},
		{orb.Point{0.9999, 0.0001}, true},
	}
	for _, test := range tests {
		if got := zone.Contains(test.pt); got != test.inside {
			t.Errorf("Containment of %v must be %t, but got %t", test.pt, test.inside, got)
		}
	}
	if zone.Len() != 1 {
		t.Errorf("Zone must have 1 polygon, but got %d", zone.Len())
	}
	if polygon := zone.Polygons("square")[0]; !polygon[0].Closed() {
		t.Errorf("Ring must be closed after adding")
	}
}

func TestZoneBoundaryPolicy(t *testing.T) {
	boundaryPoints := []orb.Point{{0, 0.5}, {0.5, 1}, {1, 1}, {0, 0}}
	excluded := unitSquareZone(t)
	included := unitSquareZone(t, WithBoundaryPolicy(BOUNDARY_INCLUDED))
	for _, pt := range boundaryPoints {
		if !excluded.OnBoundary(pt) {
			t.Errorf("Point %v must be on boundary", pt)
		}
		if excluded.Contains(pt) {
			t.Errorf("Boundary point %v must be outside with policy '%s'", pt, BOUNDARY_EXCLUDED)
		}
		if !included.Contains(pt) {
			t.Errorf("Boundary point %v must be inside with policy '%s'", pt, BOUNDARY_INCLUDED)
		}
	}
}

func TestZoneBoundaryTolerance(t *testing.T) {
	zone := unitSquareZone(t, WithBoundaryTolerance(0.01))
	if !zone.OnBoundary(orb.Point{0.005, 0.5}) {
		t.Errorf("Point within tolerance must be on boundary")
	}
	if zone.Contains(orb.Point{0.005, 0.5}) {
		t.Errorf("Point within tolerance must be classified by boundary policy")
	}
	if !zone.Contains(orb.Point{0.02, 0.5}) {
		t.Errorf("Point out of tolerance must be inside")
	}
}

func TestZoneHoles(t *testing.T) {
	zone := NewZone("atlantis")
	err := zone.AddPolygon("ring", orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	})
	if err != nil {
		t.Error(err)
		return
	}
	if zone.Contains(orb.Point{5, 5}) {
		t.Errorf("Point in hole must be outside")
	}
	if !zone.Contains(orb.Point{2, 2}) {
		t.Errorf("Point between outer ring and hole must be inside")
	}
	if zone.Contains(orb.Point{4, 5}) {
		t.Errorf("Point on hole ring must be outside with default policy")
	}
}

func TestZoneOverlappingPolygons(t *testing.T) {
	zone := unitSquareZone(t)
	err := zone.AddPolygon("big", orb.Polygon{{{-1, -1}, {-1, 3}, {3, 3}, {3, -1}}})
	if err != nil {
		t.Error(err)
		return
	}
	id, ok := zone.ZoneOf(orb.Point{0, 0.5})
	if !ok || id != "big" {
		t.Errorf("Point on boundary of one polygon and inside another must belong to 'big', but got '%s' (%t)", id, ok)
	}
	id, ok = zone.ZoneOf(orb.Point{0.5, 0.5})
	if !ok || id != "square" {
		t.Errorf("First inserted polygon must win, but got '%s' (%t)", id, ok)
	}
	if len(zone.IDs()) != 2 {
		t.Errorf("Zone must have 2 identifiers, but got %d", len(zone.IDs()))
	}
}

func TestZoneMalformedPolygon(t *testing.T) {
	zone := NewZone("atlantis")
	err := zone.AddPolygon("bad", orb.Polygon{{{0, 0}, {1, 1}}})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Ring with 2 points must produce malformed input error, but got %v", err)
	}
	err = zone.AddPolygon("empty", orb.Polygon{})
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Polygon without rings must produce malformed input error, but got %v", err)
	}
}

func TestLoadZoneGeoJSON(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "zone.geojson")
	data := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"id":"inner"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
		{"type":"Feature","properties":{"name":"line"},"geometry":{"type":"LineString","coordinates":[[5,5],[6,6]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"MultiPolygon","coordinates":[[[[10,10],[10,11],[11,11],[11,10],[10,10]]]]}}
	]}`
	if err := os.WriteFile(fname, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	zone, err := LoadZone(fname, WithZoneCRS("EPSG:31468"))
	if err != nil {
		t.Error(err)
		return
	}
	if zone.Len() != 2 {
		t.Errorf("Zone must have 2 polygons, but got %d", zone.Len())
	}
	if zone.CRS != "EPSG:31468" {
		t.Errorf("Zone CRS must be 'EPSG:31468', but got '%s'", zone.CRS)
	}
	if id, ok := zone.ZoneOf(orb.Point{0.5, 0.5}); !ok || id != "inner" {
		t.Errorf("Point must belong to 'inner', but got '%s' (%t)", id, ok)
	}
	if id, ok := zone.ZoneOf(orb.Point{10.5, 10.5}); !ok || id != "zone#2" {
		t.Errorf("Point must belong to 'zone#2', but got '%s' (%t)", id, ok)
	}
}

func TestLoadZoneWKT(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "cordon.wkt")
	data := "# inner city\nPOLYGON((0 0,0 1,1 1,1 0,0 0))\n\nMULTIPOLYGON(((5 5,5 6,6 6,6 5,5 5)))\n"
	if err := os.WriteFile(fname, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	zone, err := LoadZone(fname)
	if err != nil {
		t.Error(err)
		return
	}
	if zone.Len() != 2 {
		t.Errorf("Zone must have 2 polygons, but got %d", zone.Len())
	}
	if !zone.Contains(orb.Point{5.5, 5.5}) {
		t.Errorf("Point must be inside multipolygon")
	}

	bad := filepath.Join(dir, "bad.wkt")
	if err := os.WriteFile(bad, []byte("LINESTRING(0 0,1 1)\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadZone(bad)
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Non-polygon WKT must produce malformed input error, but got %v", err)
	}
}

func TestLoadZoneShapefile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "inner-city-area.shp")
	writer, err := shp.Create(fname, shp.POLYGON)
	if err != nil {
		t.Fatal(err)
	}
	// Clockwise outer ring with counter-clockwise hole
	polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}},
	}))
	writer.Write(&polygon)
	writer.Close()

	zone, err := LoadZone(fname)
	if err != nil {
		t.Error(err)
		return
	}
	if zone.Len() != 1 {
		t.Errorf("Zone must have 1 polygon, but got %d", zone.Len())
	}
	if !zone.Contains(orb.Point{2, 2}) {
		t.Errorf("Point must be inside shapefile polygon")
	}
	if zone.Contains(orb.Point{5, 5}) {
		t.Errorf("Point in hole must be outside")
	}
	if ids := zone.IDs(); len(ids) != 1 || ids[0] != "inner-city-area#0" {
		t.Errorf("Zone identifiers must be [inner-city-area#0], but got %v", ids)
	}
}

// writeTestShapefile writes two clockwise squares: [0;1]x[0;1] and [5;6]x[5;6]
func writeTestShapefile(t *testing.T, fname string) {
	writer, err := shp.Create(fname, shp.POLYGON)
	if err != nil {
		t.Fatal(err)
	}
	for _, origin := range []float64{0, 5} {
		polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
			{{X: origin, Y: origin}, {X: origin, Y: origin + 1}, {X: origin + 1, Y: origin + 1}, {X: origin + 1, Y: origin}, {X: origin, Y: origin}},
		}))
		writer.Write(&polygon)
	}
	writer.Close()
}

func TestLoadZoneTruncatedShapefile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "cordon.shp")
	writeTestShapefile(t, fname)
	zone, err := LoadZone(fname)
	if err != nil {
		t.Fatal(err)
	}
	if zone.Len() != 2 {
		t.Fatalf("Zone must have 2 polygons, but got %d", zone.Len())
	}

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	// Polygon record with single 5-point ring takes 8 (record header) + 128 bytes
	for _, cut := range []int{20, 136} {
		if err := os.WriteFile(fname, data[:len(data)-cut], 0644); err != nil {
			t.Fatal(err)
		}
		zone, err = LoadZone(fname)
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("Shapefile without last %d bytes must produce malformed input error, but got %v", cut, err)
		}
		if zone != nil {
			t.Errorf("Shapefile without last %d bytes must not produce zone, but got %d polygons", cut, zone.Len())
		}
	}

	// Header agrees with truncated size: broken record must be reported by reader
	patched := append([]byte{}, data[:len(data)-20]...)
	binary.BigEndian.PutUint32(patched[24:28], uint32(len(patched)/2))
	if err := os.WriteFile(fname, patched, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadZone(fname); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Shapefile with broken last record must produce malformed input error, but got %v", err)
	}

	if err := os.WriteFile(fname, []byte("not a shapefile at all, but long enough for header"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadZone(fname); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Garbage shapefile must produce malformed input error, but got %v", err)
	}
}

func TestLoadZoneRemote(t *testing.T) {
	dir := t.TempDir()
	shpName := filepath.Join(dir, "local.shp")
	writeTestShapefile(t, shpName)
	shpData, err := os.ReadFile(shpName)
	if err != nil {
		t.Fatal(err)
	}
	geojsonData := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"id":"hundekopf"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}}]}`)

	mux := http.NewServeMux()
	mux.HandleFunc("/zones/inner-city-area.shp", func(w http.ResponseWriter, r *http.Request) {
		w.Write(shpData)
	})
	mux.HandleFunc("/zones/cordon.geojson", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(geojsonData)
	})
	mux.HandleFunc("/zones/truncated.shp", func(w http.ResponseWriter, r *http.Request) {
		w.Write(shpData[:len(shpData)-20])
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	zone, err := LoadZone(server.URL+"/zones/inner-city-area.shp", WithZoneHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if zone.Len() != 2 || !zone.Contains(orb.Point{5.5, 5.5}) {
		t.Errorf("Downloaded shapefile must have 2 polygons containing (5.5, 5.5), but got %d polygons", zone.Len())
	}
	if ids := zone.IDs(); len(ids) != 2 || ids[0] != "inner-city-area#0" {
		t.Errorf("Zone identifiers must be named after remote file, but got %v", ids)
	}

	zone, err = LoadZone(server.URL+"/zones/cordon.geojson?version=2", WithZoneHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if ids := zone.IDs(); len(ids) != 1 || ids[0] != "hundekopf" {
		t.Errorf("Zone identifiers must be [hundekopf], but got %v", ids)
	}

	for _, source := range []string{"/zones/absent.geojson", "/zones/absent.shp"} {
		_, err = LoadZone(server.URL+source, WithZoneHTTPClient(server.Client()))
		if !errors.Is(err, ErrIO) {
			t.Errorf("Missing remote zone '%s' must produce I/O error, but got %v", source, err)
		}
	}
	_, err = LoadZone(server.URL+"/zones/truncated.shp", WithZoneHTTPClient(server.Client()))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Truncated download must produce malformed input error, but got %v", err)
	}
}

func TestLoadZoneErrors(t *testing.T) {
	_, err := LoadZone(filepath.Join(t.TempDir(), "missing.geojson"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("Missing file must produce I/O error, but got %v", err)
	}
	_, err = LoadZone(filepath.Join(t.TempDir(), "missing.shp"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("Missing shapefile must produce I/O error, but got %v", err)
	}
	_, err = LoadZone("zone.kml")
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Unknown extension must produce malformed input error, but got %v", err)
	}
	fname := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(fname, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadZone(fname)
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Broken GeoJSON must produce malformed input error, but got %v", err)
	}
}
