package tollzone

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type xmlRoadPricing struct {
	XMLName     xml.Name `xml:"roadpricing"`
	Type        string   `xml:"type,attr"`
	Name        string   `xml:"name,attr"`
	Description string   `xml:"description"`
	Links       []struct {
		ID string `xml:"id,attr"`
	} `xml:"links>link"`
	Costs []struct {
		Start  string `xml:"start_time,attr"`
		End    string `xml:"end_time,attr"`
		Amount string `xml:"amount,attr"`
	} `xml:"cost"`
}

// ReadScheme reads road pricing XML written by WriteScheme (or by the framework itself)
func ReadScheme(fname string) (*PricingScheme, error) {
	rc, err := openMaybeGzip(fname)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	scheme, err := DecodeScheme(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "road pricing '%s'", fname)
	}
	return scheme, nil
}

// DecodeScheme parses road pricing XML from reader
func DecodeScheme(r io.Reader) (*PricingScheme, error) {
	doc := xmlRoadPricing{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, malformedError(err, "can't parse road pricing XML")
	}
	schemeType, err := ParseSchemeType(doc.Type)
	if err != nil {
		return nil, err
	}
	scheme := &PricingScheme{
		Type:        schemeType,
		Name:        doc.Name,
		Description: doc.Description,
		Links:       make([]LinkID, 0, len(doc.Links)),
		Costs:       make([]CostEntry, 0, len(doc.Costs)),
	}
	for _, link := range doc.Links {
		scheme.Links = append(scheme.Links, LinkID(link.ID))
	}
	for i, cost := range doc.Costs {
		start, err := ParseTime(cost.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "cost entry %d", i)
		}
		end, err := ParseTime(cost.End)
		if err != nil {
			return nil, errors.Wrapf(err, "cost entry %d", i)
		}
		amount, err := strconv.ParseFloat(cost.Amount, 64)
		if err != nil {
			return nil, malformedError(err, "bad amount of cost entry %d", i)
		}
		scheme.Costs = append(scheme.Costs, CostEntry{Start: start, End: end, Amount: amount})
	}
	return scheme, nil
}
