package tollzone

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

/* Nodes stuff */

type NodeID string

// Node is a network vertex. XMLAttrs holds extra attributes of XML element (e.g. 'z', 'type', 'origid')
type Node struct {
	ID         NodeID
	Coord      orb.Point
	XMLAttrs   map[string]string
	Attributes Attributes
}

/* Links stuff */

type LinkID string

// Link is a directed edge of road network. XMLAttrs holds extra attributes of XML element (e.g. 'origid', 'type', 'oneway')
type Link struct {
	ID         LinkID
	From       NodeID
	To         NodeID
	FromCoord  orb.Point
	ToCoord    orb.Point
	Length     float64
	FreeSpeed  float64
	Capacity   float64
	Lanes      float64
	Modes      ModeSet
	XMLAttrs   map[string]string
	Attributes Attributes
}

// Geom returns straight line between link's endpoints
func (link *Link) Geom() orb.LineString {
	return orb.LineString{link.FromCoord, link.ToCoord}
}

// ModeSet is a set of travel modes
type ModeSet map[string]struct{}

// NewModeSet creates set from given modes. Empty strings are ignored
func NewModeSet(modes ...string) ModeSet {
	set := make(ModeSet, len(modes))
	for _, mode := range modes {
		mode = strings.TrimSpace(mode)
		if mode == "" {
			continue
		}
		set[mode] = struct{}{}
	}
	return set
}

// ParseModes parses comma separated list of modes
func ParseModes(s string) ModeSet {
	return NewModeSet(strings.Split(s, ",")...)
}

// Has checks if mode is in the set
func (set ModeSet) Has(mode string) bool {
	_, ok := set[mode]
	return ok
}

// Intersects returns true if sets have at least one common mode
func (set ModeSet) Intersects(other ModeSet) bool {
	small, big := set, other
	if len(small) > len(big) {
		small, big = big, small
	}
	for mode := range small {
		if big.Has(mode) {
			return true
		}
	}
	return false
}

// Sorted returns modes in lexicographical order
func (set ModeSet) Sorted() []string {
	modes := make([]string, 0, len(set))
	for mode := range set {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// String returns comma separated sorted modes
func (set ModeSet) String() string {
	return strings.Join(set.Sorted(), ",")
}

// Attribute is a typed value attached to network object. Class follows the framework's notation (e.g. 'java.lang.Double')
type Attribute struct {
	Class string
	Value string
}

// Attributes of network object by name
type Attributes map[string]Attribute

// Names returns attribute names in lexicographical order
func (attrs Attributes) Names() []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedKeys returns keys of XML attributes map in lexicographical order
func sortedKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Network is a directed road network. Attributes are network-wide ones except coordinate reference system held by CRS
type Network struct {
	Name           string
	CRS            string
	CapacityPeriod string
	Attributes     Attributes
	nodes          map[NodeID]*Node
	links          map[LinkID]*Link
}

// NewNetwork creates empty network with coordinates in given CRS
func NewNetwork(crs string) *Network {
	return &Network{
		CRS:            crs,
		CapacityPeriod: "01:00:00",
		Attributes:     make(Attributes),
		nodes:          make(map[NodeID]*Node),
		links:          make(map[LinkID]*Link),
	}
}

// AddNode adds node to network. Duplicates are not allowed
func (net *Network) AddNode(node *Node) error {
	if node.ID == "" {
		return malformedError(nil, "node without id")
	}
	if _, ok := net.nodes[node.ID]; ok {
		return malformedError(nil, "duplicate node '%s'", node.ID)
	}
	if node.Attributes == nil {
		node.Attributes = make(Attributes)
	}
	net.nodes[node.ID] = node
	return nil
}

// AddLink adds link to network. Both endpoints must be added before; link coordinates are taken from them
func (net *Network) AddLink(link *Link) error {
	if link.ID == "" {
		return malformedError(nil, "link without id")
	}
	if _, ok := net.links[link.ID]; ok {
		return malformedError(nil, "duplicate link '%s'", link.ID)
	}
	from, ok := net.nodes[link.From]
	if !ok {
		return malformedError(nil, "link '%s' refers to unknown node '%s'", link.ID, link.From)
	}
	to, ok := net.nodes[link.To]
	if !ok {
		return malformedError(nil, "link '%s' refers to unknown node '%s'", link.ID, link.To)
	}
	link.FromCoord = from.Coord
	link.ToCoord = to.Coord
	if link.Modes == nil {
		link.Modes = NewModeSet()
	}
	if link.Attributes == nil {
		link.Attributes = make(Attributes)
	}
	net.links[link.ID] = link
	return nil
}

// Node returns node by identifier
func (net *Network) Node(id NodeID) (*Node, bool) {
	node, ok := net.nodes[id]
	return node, ok
}

// Link returns link by identifier
func (net *Network) Link(id LinkID) (*Link, bool) {
	link, ok := net.links[id]
	return link, ok
}

// NumNodes returns number of nodes
func (net *Network) NumNodes() int {
	return len(net.nodes)
}

// NumLinks returns number of links
func (net *Network) NumLinks() int {
	return len(net.links)
}

// Nodes returns nodes sorted by identifier
func (net *Network) Nodes() []*Node {
	nodes := make([]*Node, 0, len(net.nodes))
	for _, node := range net.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// Links returns links sorted by identifier
func (net *Network) Links() []*Link {
	links := make([]*Link, 0, len(net.links))
	for _, link := range net.links {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].ID < links[j].ID
	})
	return links
}
