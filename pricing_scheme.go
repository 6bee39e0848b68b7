package tollzone

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SchemeType is a kind of road pricing understood by the simulation framework
type SchemeType uint16

const (
	SCHEME_DISTANCE = SchemeType(iota + 1)
	// Time-based toll: amount is charged once per tolled link entered
	SCHEME_LINK
	SCHEME_CORDON
	SCHEME_AREA
	SCHEME_UNDEFINED = SchemeType(0)
)

func (iotaIdx SchemeType) String() string {
	return [...]string{"undefined", "distance", "link", "cordon", "area"}[iotaIdx]
}

// ParseSchemeType returns scheme type by its name. Returns ErrMalformedInput for unknown names
func ParseSchemeType(name string) (SchemeType, error) {
	for _, schemeType := range []SchemeType{SCHEME_DISTANCE, SCHEME_LINK, SCHEME_CORDON, SCHEME_AREA} {
		if strings.EqualFold(schemeType.String(), strings.TrimSpace(name)) {
			return schemeType, nil
		}
	}
	return SCHEME_UNDEFINED, malformedError(nil, "unknown road pricing type '%s'", name)
}

// CostEntry is a toll amount applied within time window. Times are seconds after midnight of the first simulated day
type CostEntry struct {
	Start  float64
	End    float64
	Amount float64
}

// PricingScheme is a named road pricing definition over set of links
type PricingScheme struct {
	Type        SchemeType
	Name        string
	Description string
	Links       []LinkID
	Costs       []CostEntry
}

// NewPricingScheme creates scheme over given tolled links. Links are stored in sorted order
func NewPricingScheme(schemeType SchemeType, name, description string, links TolledLinkSet, costs ...CostEntry) *PricingScheme {
	return &PricingScheme{
		Type:        schemeType,
		Name:        name,
		Description: description,
		Links:       links.Sorted(),
		Costs:       costs,
	}
}

// LinkSet returns tolled links as set
func (scheme *PricingScheme) LinkSet() TolledLinkSet {
	return NewTolledLinkSet(scheme.Links...)
}

// Validate checks scheme consistency. Returns ErrConfiguration describing the first violation
func (scheme *PricingScheme) Validate() error {
	if scheme.Type == SCHEME_UNDEFINED {
		return configError("scheme '%s' has no type", scheme.Name)
	}
	if strings.TrimSpace(scheme.Name) == "" {
		return configError("scheme has no name")
	}
	if len(scheme.Costs) == 0 {
		return configError("scheme '%s' has no cost entries", scheme.Name)
	}
	costs := make([]CostEntry, len(scheme.Costs))
	copy(costs, scheme.Costs)
	sort.SliceStable(costs, func(i, j int) bool {
		return costs[i].Start < costs[j].Start
	})
	for i, cost := range costs {
		if math.IsNaN(cost.Start) || math.IsNaN(cost.End) || math.IsNaN(cost.Amount) {
			return configError("scheme '%s': cost entry %d is not a number", scheme.Name, i)
		}
		if cost.Start < 0 {
			return configError("scheme '%s': cost entry starts before midnight (%s)", scheme.Name, FormatTime(cost.Start))
		}
		if cost.End < cost.Start {
			return configError("scheme '%s': cost entry ends (%s) before it starts (%s)", scheme.Name, FormatTime(cost.End), FormatTime(cost.Start))
		}
		if cost.Amount < 0 {
			return configError("scheme '%s': negative amount %v", scheme.Name, cost.Amount)
		}
		if i > 0 && cost.Start < costs[i-1].End {
			return configError("scheme '%s': cost entries %s-%s and %s-%s overlap", scheme.Name,
				FormatTime(costs[i-1].Start), FormatTime(costs[i-1].End), FormatTime(cost.Start), FormatTime(cost.End))
		}
	}
	seen := make(map[LinkID]struct{}, len(scheme.Links))
	for _, id := range scheme.Links {
		if id == "" {
			return configError("scheme '%s': empty link id", scheme.Name)
		}
		if _, ok := seen[id]; ok {
			return configError("scheme '%s': duplicate link '%s'", scheme.Name, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ParseTime parses 'HH:MM:SS' or 'HH:MM' into seconds. Hours may exceed 24
func ParseTime(text string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, malformedError(nil, "bad time '%s'", text)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, malformedError(err, "bad hours in time '%s'", text)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, malformedError(err, "bad minutes in time '%s'", text)
	}
	seconds := 0.0
	if len(parts) == 3 {
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0, malformedError(err, "bad seconds in time '%s'", text)
		}
	}
	return float64(hours*3600+minutes*60) + seconds, nil
}

// FormatTime formats seconds as 'HH:MM:SS' rounding to whole seconds
func FormatTime(seconds float64) string {
	total := int64(math.Round(seconds))
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total%3600)/60, total%60)
}
