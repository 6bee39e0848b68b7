package tollzone

import (
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// prepareGeoJSONLineString returns coordinates of LineString in GeoJSON layout
func prepareGeoJSONLineString(line orb.LineString) [][]float64 {
	pts2d := make([][]float64, len(line))
	for i := range line {
		pts2d[i] = []float64{line[i][0], line[i][1]}
	}
	return pts2d
}

// ExportTolledLinksGeoJSON writes tolled links as GeoJSON FeatureCollection of LineStrings.
// Every feature has 'id', 'from_node', 'to_node', 'modes', 'length' and 'direction' properties.
// Coordinates are converted with given transformer (nil keeps network coordinates)
func ExportTolledLinksGeoJSON(net *Network, crossings []Crossing, fname string, transformer *Transformer) error {
	fc := geojson.NewFeatureCollection()
	for _, crossing := range crossings {
		link, ok := net.Link(crossing.LinkID)
		if !ok {
			return configError("tolled link '%s' is not in network", crossing.LinkID)
		}
		line := orb.LineString{transformer.Transform(link.FromCoord), transformer.Transform(link.ToCoord)}
		feature := geojson.NewLineStringFeature(prepareGeoJSONLineString(line))
		feature.SetProperty("id", string(link.ID))
		feature.SetProperty("from_node", string(link.From))
		feature.SetProperty("to_node", string(link.To))
		feature.SetProperty("modes", link.Modes.String())
		feature.SetProperty("length", link.Length)
		feature.SetProperty("direction", crossing.Direction.String())
		fc.AddFeature(feature)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return malformedError(err, "can't convert tolled links to GeoJSON")
	}
	return writeFileAtomic(fname, func(w io.Writer) error {
		if _, err := w.Write(b); err != nil {
			return ioError(err, "can't write GeoJSON '%s'", fname)
		}
		return nil
	})
}

// ExportZoneGeoJSON writes zone polygons as GeoJSON FeatureCollection with 'id' property
func ExportZoneGeoJSON(zone *Zone, fname string) error {
	fc := geojson.NewFeatureCollection()
	for _, id := range zone.IDs() {
		for _, polygon := range zone.Polygons(id) {
			rings := make([][][]float64, len(polygon))
			for i, ring := range polygon {
				rings[i] = prepareGeoJSONLineString(orb.LineString(ring))
			}
			feature := geojson.NewPolygonFeature(rings)
			feature.SetProperty("id", string(id))
			fc.AddFeature(feature)
		}
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return malformedError(err, "can't convert zone to GeoJSON")
	}
	return writeFileAtomic(fname, func(w io.Writer) error {
		if _, err := w.Write(b); err != nil {
			return ioError(err, "can't write GeoJSON '%s'", fname)
		}
		return nil
	})
}
