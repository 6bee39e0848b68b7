package tollzone

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// TolledLinkSet is a set of link identifiers designated to be charged
type TolledLinkSet map[LinkID]struct{}

// NewTolledLinkSet creates set from given identifiers
func NewTolledLinkSet(ids ...LinkID) TolledLinkSet {
	set := make(TolledLinkSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains checks if link is tolled
func (set TolledLinkSet) Contains(id LinkID) bool {
	_, ok := set[id]
	return ok
}

// Len returns number of tolled links
func (set TolledLinkSet) Len() int {
	return len(set)
}

// Sorted returns identifiers in lexicographical order
func (set TolledLinkSet) Sorted() []LinkID {
	ids := make([]LinkID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Equal checks if both sets have the same identifiers
func (set TolledLinkSet) Equal(other TolledLinkSet) bool {
	if len(set) != len(other) {
		return false
	}
	for id := range set {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// CrossingDirection tells how tolled link crosses zone boundary
type CrossingDirection uint16

const (
	CROSSING_INBOUND = CrossingDirection(iota + 1)
	CROSSING_OUTBOUND
)

func (iotaIdx CrossingDirection) String() string {
	return [...]string{"inbound", "outbound"}[iotaIdx-1]
}

// Crossing is a tolled link with direction of crossing.
// Point is where link meets zone boundary (in zone CRS). HasPoint is false when no intersection with polygon rings has been found
type Crossing struct {
	LinkID    LinkID
	Direction CrossingDirection
	Point     orb.Point
	HasPoint  bool
}

// Classifier tags links crossing zone boundary
type Classifier struct {
	excludedModes ModeSet
	transformer   *Transformer
	verbose       bool
	explicitModes bool
}

// DefaultExcludedModes are modes which links are never tolled
var DefaultExcludedModes = []string{"pt"}

// WithExcludedModes sets modes which links are never tolled (e.g. transit-only links)
func WithExcludedModes(modes []string) func(*Classifier) {
	return func(classifier *Classifier) {
		classifier.excludedModes = NewModeSet(modes...)
		classifier.explicitModes = true
	}
}

// WithTransformer sets transformation from network CRS to zone CRS
func WithTransformer(transformer *Transformer) func(*Classifier) {
	return func(classifier *Classifier) {
		classifier.transformer = transformer
	}
}

// WithClassifierVerbose enables progress output
func WithClassifierVerbose(verbose bool) func(*Classifier) {
	return func(classifier *Classifier) {
		classifier.verbose = verbose
	}
}

// NewClassifier prepares classifier. Returns ErrConfiguration if excluded modes were given explicitly but empty
func NewClassifier(options ...func(*Classifier)) (*Classifier, error) {
	classifier := &Classifier{
		excludedModes: NewModeSet(DefaultExcludedModes...),
	}
	for _, option := range options {
		option(classifier)
	}
	if classifier.explicitModes && len(classifier.excludedModes) == 0 {
		return nil, configError("excluded modes set is empty")
	}
	return classifier, nil
}

// Classify returns links crossing zone boundary: exactly one endpoint is inside of the zone
// and the link does not allow any excluded mode
func Classify(net *Network, zone *Zone, options ...func(*Classifier)) (TolledLinkSet, error) {
	classifier, err := NewClassifier(options...)
	if err != nil {
		return nil, err
	}
	crossings, err := classifier.Crossings(net, zone)
	if err != nil {
		return nil, err
	}
	set := make(TolledLinkSet, len(crossings))
	for _, crossing := range crossings {
		set[crossing.LinkID] = struct{}{}
	}
	return set, nil
}

// Crossings returns tolled links with crossing direction, sorted by link identifier
func (classifier *Classifier) Crossings(net *Network, zone *Zone) ([]Crossing, error) {
	if net == nil {
		return nil, configError("network is not provided")
	}
	if zone == nil {
		return nil, configError("zone is not provided")
	}
	if classifier.verbose {
		fmt.Printf("Classifying %d links against %d polygons...", net.NumLinks(), zone.Len())
	}
	st := time.Now()
	crossings := []Crossing{}
	excludedLinks := 0
	for _, link := range net.Links() {
		if link.Modes.Intersects(classifier.excludedModes) {
			excludedLinks++
			continue
		}
		from := classifier.transformer.Transform(link.FromCoord)
		to := classifier.transformer.Transform(link.ToCoord)
		inFrom := zone.Contains(from)
		inTo := zone.Contains(to)
		if inFrom == inTo {
			continue
		}
		direction := CROSSING_INBOUND
		if inFrom {
			direction = CROSSING_OUTBOUND
		}
		crossing := Crossing{LinkID: link.ID, Direction: direction}
		crossing.Point, crossing.HasPoint = zone.CrossingPoint(from, to)
		crossings = append(crossings, crossing)
	}
	if classifier.verbose {
		fmt.Printf("Done in %v (tolled: %d, skipped by mode: %d)\n", time.Since(st), len(crossings), excludedLinks)
	}
	return crossings, nil
}
