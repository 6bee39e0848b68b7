package tollzone

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

func unitSquareCrossings(t *testing.T) (*Network, []Crossing) {
	net := buildTestNetwork(t, CRSAtlantis, unitSquareLinks)
	classifier, err := NewClassifier()
	if err != nil {
		t.Fatal(err)
	}
	crossings, err := classifier.Crossings(net, unitSquareZone(t))
	if err != nil {
		t.Fatal(err)
	}
	return net, crossings
}

func TestExportTolledLinksGeoJSON(t *testing.T) {
	net, crossings := unitSquareCrossings(t)
	fname := filepath.Join(t.TempDir(), "tolled.geojson")
	if err := ExportTolledLinksGeoJSON(net, crossings, fname, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("Number of features must be 3, but got %d", len(fc.Features))
	}
	directions := map[string]string{}
	for _, feature := range fc.Features {
		id, _ := feature.PropertyString("id")
		direction, _ := feature.PropertyString("direction")
		directions[id] = direction
		if !feature.Geometry.IsLineString() || len(feature.Geometry.LineString) != 2 {
			t.Errorf("Feature '%s' must be LineString with 2 points", id)
		}
	}
	correct := map[string]string{"A": "outbound", "D": "inbound", "bike": "inbound"}
	for id, direction := range correct {
		if directions[id] != direction {
			t.Errorf("Direction of '%s' must be '%s', but got '%s'", id, direction, directions[id])
		}
	}
}

func TestExportTolledLinksCSV(t *testing.T) {
	net, crossings := unitSquareCrossings(t)
	fname := filepath.Join(t.TempDir(), "tolled.csv")
	if err := ExportTolledLinksCSV(net, crossings, fname, nil); err != nil {
		t.Fatal(err)
	}
	file, err := os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("Number of records must be 4, but got %d", len(records))
	}
	if records[0][0] != "id" || records[0][6] != "geom" {
		t.Errorf("Header must start with 'id' and end with 'geom', but got %v", records[0])
	}
	if records[1][0] != "A" || records[1][3] != "outbound" {
		t.Errorf("First link must be outbound 'A', but got %v", records[1])
	}
	if records[1][6] != "LINESTRING(0.5 0.5,2 2)" {
		t.Errorf("Geometry of 'A' must be 'LINESTRING(0.5 0.5,2 2)', but got '%s'", records[1][6])
	}
	if records[1][7] != "POINT(1 1)" {
		t.Errorf("Crossing point of 'A' must be 'POINT(1 1)', but got '%s'", records[1][7])
	}

	err = ExportTolledLinksCSV(net, []Crossing{{LinkID: "absent", Direction: CROSSING_INBOUND}}, fname, nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Unknown link must give ErrConfiguration, but got %v", err)
	}
}

func TestExportZoneRoundTrip(t *testing.T) {
	zone := unitSquareZone(t)
	dir := t.TempDir()
	wktName := filepath.Join(dir, "zone.wkt")
	if err := ExportZoneWKT(zone, wktName); err != nil {
		t.Fatal(err)
	}
	geojsonName := filepath.Join(dir, "zone.geojson")
	if err := ExportZoneGeoJSON(zone, geojsonName); err != nil {
		t.Fatal(err)
	}
	for _, fname := range []string{wktName, geojsonName} {
		restored, err := LoadZone(fname, WithZoneCRS(zone.CRS))
		if err != nil {
			t.Fatal(err)
		}
		if restored.Len() != 1 {
			t.Errorf("File '%s': number of polygons must be 1, but got %d", filepath.Base(fname), restored.Len())
		}
		if !restored.Contains(orb.Point{0.5, 0.5}) || restored.Contains(orb.Point{1.5, 0.5}) {
			t.Errorf("File '%s': restored zone must keep unit square", filepath.Base(fname))
		}
	}
}
