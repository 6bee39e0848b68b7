package tollzone

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ExportTolledLinksCSV writes tolled links into ';'-separated file with WKT geometry.
// Column 'crossing_geom' keeps boundary crossing point in zone CRS (empty if unknown)
func ExportTolledLinksCSV(net *Network, crossings []Crossing, fname string, transformer *Transformer) error {
	return writeFileAtomic(fname, func(w io.Writer) error {
		err := exportTolledLinksCSV(net, crossings, w, transformer)
		if errors.Is(err, ErrConfiguration) {
			return err
		}
		if err != nil {
			return ioError(err, "can't write CSV '%s'", fname)
		}
		return nil
	})
}

func exportTolledLinksCSV(net *Network, crossings []Crossing, w io.Writer, transformer *Transformer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	err := writer.Write([]string{"id", "from_node", "to_node", "direction", "modes", "length_meters", "geom", "crossing_geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, crossing := range crossings {
		link, ok := net.Link(crossing.LinkID)
		if !ok {
			return configError("tolled link '%s' is not in network", crossing.LinkID)
		}
		err = writer.Write([]string{
			string(link.ID),
			string(link.From),
			string(link.To),
			crossing.Direction.String(),
			link.Modes.String(),
			fmt.Sprintf("%f", link.Length),
			PrepareWKTLinestring(link, transformer),
			prepareWKTCrossing(crossing),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write link")
		}
	}
	writer.Flush()
	return writer.Error()
}
