package tollzone

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// PrepareWKTLinestring returns WKT representation of link geometry converted with given transformer
func PrepareWKTLinestring(link *Link, transformer *Transformer) string {
	line := orb.LineString{transformer.Transform(link.FromCoord), transformer.Transform(link.ToCoord)}
	return wkt.MarshalString(line)
}

func prepareWKTCrossing(crossing Crossing) string {
	if !crossing.HasPoint {
		return ""
	}
	return wkt.MarshalString(crossing.Point)
}

// ExportZoneWKT writes zone polygons one per line, readable back by LoadZone. Comment line holds polygon id
func ExportZoneWKT(zone *Zone, fname string) error {
	return writeFileAtomic(fname, func(w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf("# crs: %s\n", zone.CRS)
		for _, id := range zone.IDs() {
			for _, polygon := range zone.Polygons(id) {
				ew.printf("# %s\n%s\n", id, wkt.MarshalString(polygon))
			}
		}
		if ew.err != nil {
			return ioError(ew.err, "can't write WKT '%s'", fname)
		}
		return nil
	})
}

// zoneSummary returns short description of zone for verbose output
func zoneSummary(zone *Zone) string {
	b := zone.Bound()
	return fmt.Sprintf("%d polygons in '%s', bounds [%f %f, %f %f]", zone.Len(), zone.CRS, b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}
