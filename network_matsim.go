package tollzone

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	networkCRSAttribute = "coordinateReferenceSystem"
	networkDTD          = "http://www.matsim.org/files/dtd/network_v2.dtd"
)

type xmlAttribute struct {
	Name  string `xml:"name,attr"`
	Class string `xml:"class,attr"`
	Value string `xml:",chardata"`
}

// ReadMATSimNetwork reads network in the framework's XML format (network_v1 / network_v2). Files ending with '.gz' are decompressed
func ReadMATSimNetwork(fname string, verbose bool) (*Network, error) {
	if verbose {
		fmt.Printf("Reading network: '%s'...", fname)
	}
	st := time.Now()
	rc, err := openMaybeGzip(fname)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	net, err := DecodeMATSimNetwork(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "network '%s'", fname)
	}
	if verbose {
		fmt.Printf("Done in %v (%d nodes, %d links)\n", time.Since(st), net.NumNodes(), net.NumLinks())
	}
	return net, nil
}

// DecodeMATSimNetwork parses network XML from reader
func DecodeMATSimNetwork(r io.Reader) (*Network, error) {
	net := NewNetwork("")
	decoder := xml.NewDecoder(r)
	var currentNode *Node
	var currentLink *Link
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformedError(err, "can't parse network XML")
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "network":
				net.Name, _ = xmlAttr(t, "name")
			case "node":
				node, err := parseNetworkNode(t)
				if err != nil {
					return nil, err
				}
				currentNode = node
			case "links":
				if capPeriod, ok := xmlAttr(t, "capperiod"); ok {
					net.CapacityPeriod = capPeriod
				}
			case "link":
				link, err := parseNetworkLink(t)
				if err != nil {
					return nil, err
				}
				currentLink = link
			case "attribute":
				attr := xmlAttribute{}
				if err := decoder.DecodeElement(&attr, &t); err != nil {
					return nil, malformedError(err, "can't parse attribute")
				}
				value := Attribute{Class: attr.Class, Value: attr.Value}
				switch {
				case currentLink != nil:
					currentLink.Attributes[attr.Name] = value
				case currentNode != nil:
					currentNode.Attributes[attr.Name] = value
				case attr.Name == networkCRSAttribute:
					net.CRS = attr.Value
				default:
					net.Attributes[attr.Name] = value
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "node":
				if currentNode != nil {
					if err := net.AddNode(currentNode); err != nil {
						return nil, err
					}
				}
				currentNode = nil
			case "link":
				if currentLink != nil {
					if err := net.AddLink(currentLink); err != nil {
						return nil, err
					}
				}
				currentLink = nil
			}
		}
	}
	return net, nil
}

func parseNetworkNode(se xml.StartElement) (*Node, error) {
	id, _ := xmlAttr(se, "id")
	xText, _ := xmlAttr(se, "x")
	yText, _ := xmlAttr(se, "y")
	x, err := strconv.ParseFloat(xText, 64)
	if err != nil {
		return nil, malformedError(err, "bad 'x' of node '%s'", id)
	}
	y, err := strconv.ParseFloat(yText, 64)
	if err != nil {
		return nil, malformedError(err, "bad 'y' of node '%s'", id)
	}
	return &Node{
		ID:         NodeID(id),
		Coord:      orb.Point{x, y},
		XMLAttrs:   extraXMLAttrs(se, nodeXMLAttrs),
		Attributes: make(Attributes),
	}, nil
}

func parseNetworkLink(se xml.StartElement) (*Link, error) {
	id, _ := xmlAttr(se, "id")
	from, _ := xmlAttr(se, "from")
	to, _ := xmlAttr(se, "to")
	link := &Link{
		ID:         LinkID(id),
		From:       NodeID(from),
		To:         NodeID(to),
		XMLAttrs:   extraXMLAttrs(se, linkXMLAttrs),
		Attributes: make(Attributes),
	}
	numeric := []struct {
		name   string
		target *float64
	}{
		{"length", &link.Length},
		{"freespeed", &link.FreeSpeed},
		{"capacity", &link.Capacity},
		{"permlanes", &link.Lanes},
	}
	for _, field := range numeric {
		text, ok := xmlAttr(se, field.name)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, malformedError(err, "bad '%s' of link '%s'", field.name, id)
		}
		*field.target = v
	}
	modes, ok := xmlAttr(se, "modes")
	if !ok {
		modes = "car"
	}
	link.Modes = ParseModes(modes)
	return link, nil
}

// XML attributes mapped onto Node and Link fields
var (
	nodeXMLAttrs = map[string]struct{}{"id": {}, "x": {}, "y": {}}
	linkXMLAttrs = map[string]struct{}{"id": {}, "from": {}, "to": {}, "length": {}, "freespeed": {}, "capacity": {}, "permlanes": {}, "modes": {}}
)

// extraXMLAttrs collects element attributes which have no dedicated field. Returns nil if there are none
func extraXMLAttrs(se xml.StartElement, known map[string]struct{}) map[string]string {
	var extra map[string]string
	for _, attr := range se.Attr {
		if _, ok := known[attr.Name.Local]; ok || attr.Name.Space != "" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[attr.Name.Local] = attr.Value
	}
	return extra
}

// WriteMATSimNetwork writes network in the framework's network_v2 XML format. Nodes, links and attributes are sorted
func WriteMATSimNetwork(net *Network, fname string) error {
	return writeFileAtomic(fname, func(w io.Writer) error {
		return EncodeMATSimNetwork(net, w)
	})
}

// EncodeMATSimNetwork writes network XML into writer
func EncodeMATSimNetwork(net *Network, w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	ew.printf("<!DOCTYPE network SYSTEM \"%s\">\n\n", networkDTD)
	if net.Name != "" {
		ew.printf("<network name=\"%s\">\n", xmlEscape(net.Name))
	} else {
		ew.printf("<network>\n")
	}
	networkAttrs := make(Attributes, len(net.Attributes)+1)
	for name, attr := range net.Attributes {
		networkAttrs[name] = attr
	}
	if net.CRS != "" {
		networkAttrs[networkCRSAttribute] = Attribute{Class: "java.lang.String", Value: net.CRS}
	}
	ew.writeAttributes(networkAttrs, "\t")
	ew.printf("\n\t<nodes>\n")
	for _, node := range net.Nodes() {
		ew.printf("\t\t<node id=\"%s\" x=\"%s\" y=\"%s\"", xmlEscape(string(node.ID)), formatFloat(node.Coord[0]), formatFloat(node.Coord[1]))
		ew.writeXMLAttrs(node.XMLAttrs, nil)
		if len(node.Attributes) == 0 {
			ew.printf(" />\n")
			continue
		}
		ew.printf(">\n")
		ew.writeAttributes(node.Attributes, "\t\t\t")
		ew.printf("\t\t</node>\n")
	}
	ew.printf("\t</nodes>\n\n")
	ew.printf("\t<links capperiod=\"%s\" effectivecellsize=\"7.5\" effectivelanewidth=\"3.75\">\n", xmlEscape(net.CapacityPeriod))
	for _, link := range net.Links() {
		oneway, ok := link.XMLAttrs["oneway"]
		if !ok {
			oneway = "1"
		}
		ew.printf("\t\t<link id=\"%s\" from=\"%s\" to=\"%s\" length=\"%s\" freespeed=\"%s\" capacity=\"%s\" permlanes=\"%s\" oneway=\"%s\" modes=\"%s\"",
			xmlEscape(string(link.ID)),
			xmlEscape(string(link.From)),
			xmlEscape(string(link.To)),
			formatFloat(link.Length),
			formatFloat(link.FreeSpeed),
			formatFloat(link.Capacity),
			formatFloat(link.Lanes),
			xmlEscape(oneway),
			xmlEscape(link.Modes.String()),
		)
		ew.writeXMLAttrs(link.XMLAttrs, map[string]struct{}{"oneway": {}})
		if len(link.Attributes) == 0 {
			ew.printf(" />\n")
			continue
		}
		ew.printf(">\n")
		ew.writeAttributes(link.Attributes, "\t\t\t")
		ew.printf("\t\t</link>\n")
	}
	ew.printf("\t</links>\n\n</network>\n")
	if ew.err != nil {
		return ioError(ew.err, "can't write network")
	}
	return nil
}

// errWriter remembers the first write error and skips everything after it
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// writeXMLAttrs appends extra attributes to opened XML element in lexicographical order
func (ew *errWriter) writeXMLAttrs(attrs map[string]string, skip map[string]struct{}) {
	for _, name := range sortedKeys(attrs) {
		if _, ok := skip[name]; ok {
			continue
		}
		ew.printf(" %s=\"%s\"", name, xmlEscape(attrs[name]))
	}
}

// writeAttributes writes '<attributes>' block. Nothing is written for empty attributes
func (ew *errWriter) writeAttributes(attrs Attributes, indent string) {
	if len(attrs) == 0 {
		return
	}
	ew.printf("%s<attributes>\n", indent)
	for _, name := range attrs.Names() {
		attr := attrs[name]
		ew.printf("%s\t<attribute name=\"%s\" class=\"%s\">%s</attribute>\n", indent, xmlEscape(name), xmlEscape(attr.Class), xmlEscape(attr.Value))
	}
	ew.printf("%s</attributes>\n", indent)
}
