package tollzone

import (
	"io"
	"sort"
)

const roadPricingDTD = "http://www.matsim.org/files/dtd/roadpricing_v1.dtd"

// WriteScheme validates scheme and writes it in the framework's road pricing XML format (roadpricing_v1).
// Output is reproducible byte-for-byte for the same scheme. The file either keeps its previous state or
// holds complete new content
func WriteScheme(scheme *PricingScheme, fname string) error {
	if err := scheme.Validate(); err != nil {
		return err
	}
	return writeFileAtomic(fname, func(w io.Writer) error {
		if err := EncodeScheme(scheme, w); err != nil {
			return ioError(err, "can't write road pricing '%s'", fname)
		}
		return nil
	})
}

// EncodeScheme writes scheme XML into writer. Links are written in lexicographical order, costs by start time
func EncodeScheme(scheme *PricingScheme, w io.Writer) error {
	links := make([]LinkID, len(scheme.Links))
	copy(links, scheme.Links)
	sort.Slice(links, func(i, j int) bool {
		return links[i] < links[j]
	})
	costs := make([]CostEntry, len(scheme.Costs))
	copy(costs, scheme.Costs)
	sort.SliceStable(costs, func(i, j int) bool {
		return costs[i].Start < costs[j].Start
	})

	ew := &errWriter{w: w}
	ew.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	ew.printf("<!DOCTYPE roadpricing SYSTEM \"%s\">\n", roadPricingDTD)
	ew.printf("<roadpricing type=\"%s\" name=\"%s\">\n", scheme.Type, xmlEscape(scheme.Name))
	ew.printf("\t<description>%s</description>\n", xmlEscape(scheme.Description))
	ew.printf("\t<links>\n")
	for _, id := range links {
		ew.printf("\t\t<link id=\"%s\"/>\n", xmlEscape(string(id)))
	}
	ew.printf("\t</links>\n")
	for _, cost := range costs {
		ew.printf("\t<cost start_time=\"%s\" end_time=\"%s\" amount=\"%s\"/>\n", FormatTime(cost.Start), FormatTime(cost.End), formatFloat(cost.Amount))
	}
	ew.printf("</roadpricing>\n")
	return ew.err
}
