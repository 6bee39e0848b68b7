package tollzone

import (
	"fmt"
	"math"
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// Detour is the shortest way around a tolled link which uses no tolled links
type Detour struct {
	LinkID       LinkID
	LinkLength   float64
	DetourLength float64
	// False if the link's destination can't be reached without paying
	Reachable bool
}

// Ratio returns detour length divided by link length. Returns +Inf for unreachable detours
func (detour Detour) Ratio() float64 {
	if !detour.Reachable {
		return math.Inf(1)
	}
	if detour.LinkLength <= 0 {
		return math.Inf(1)
	}
	return detour.DetourLength / detour.LinkLength
}

// LeakageAnalyzer estimates how easily a cordon can be bypassed
type LeakageAnalyzer struct {
	mode    string
	verbose bool
}

// WithLeakageMode sets travel mode which network is built for. Default is 'car'
func WithLeakageMode(mode string) func(*LeakageAnalyzer) {
	return func(analyzer *LeakageAnalyzer) {
		analyzer.mode = mode
	}
}

// WithLeakageVerbose enables progress output
func WithLeakageVerbose(verbose bool) func(*LeakageAnalyzer) {
	return func(analyzer *LeakageAnalyzer) {
		analyzer.verbose = verbose
	}
}

// AnalyzeLeakage computes for every tolled link the shortest detour from its origin node to its destination node
// over untolled links allowing the mode. Results follow the order of sorted tolled link identifiers
func AnalyzeLeakage(net *Network, tolled TolledLinkSet, options ...func(*LeakageAnalyzer)) ([]Detour, error) {
	analyzer := &LeakageAnalyzer{
		mode: "car",
	}
	for _, option := range options {
		option(analyzer)
	}
	if net == nil {
		return nil, configError("network is not provided")
	}
	if tolled.Len() == 0 {
		return nil, configError("tolled links set is empty")
	}
	if analyzer.mode == "" {
		return nil, configError("leakage mode is empty")
	}

	if analyzer.verbose {
		fmt.Printf("Preparing untolled '%s' graph...", analyzer.mode)
	}
	st := time.Now()
	graph, labels, err := analyzer.prepareGraph(net, tolled)
	if err != nil {
		return nil, err
	}
	if analyzer.verbose {
		fmt.Printf("Done in %v (%d vertices)\n", time.Since(st), len(labels))
	}
	if len(labels) > 0 {
		if analyzer.verbose {
			fmt.Printf("Starting contraction process...")
		}
		st = time.Now()
		graph.PrepareContractionHierarchies()
		if analyzer.verbose {
			fmt.Printf("Done in %v\n", time.Since(st))
		}
	}

	detours := make([]Detour, 0, tolled.Len())
	for _, id := range tolled.Sorted() {
		link, ok := net.Link(id)
		if !ok {
			return nil, configError("tolled link '%s' is not in network", id)
		}
		detour := Detour{
			LinkID:       id,
			LinkLength:   link.Length,
			DetourLength: -1,
		}
		source, okSource := labels[link.From]
		target, okTarget := labels[link.To]
		if okSource && okTarget {
			cost, _ := graph.ShortestPath(source, target)
			if cost >= 0 {
				detour.DetourLength = cost
				detour.Reachable = true
			}
		}
		detours = append(detours, detour)
	}
	return detours, nil
}

// prepareGraph builds graph over untolled links allowing the mode. Parallel links keep the shortest one
func (analyzer *LeakageAnalyzer) prepareGraph(net *Network, tolled TolledLinkSet) (*ch.Graph, map[NodeID]int64, error) {
	graph := &ch.Graph{}
	labels := make(map[NodeID]int64)
	label := func(id NodeID) (int64, error) {
		if v, ok := labels[id]; ok {
			return v, nil
		}
		v := int64(len(labels))
		if err := graph.CreateVertex(v); err != nil {
			return 0, errors.Wrapf(err, "Can't create vertex for node '%s'", id)
		}
		labels[id] = v
		return v, nil
	}
	weights := make(map[[2]int64]float64)
	order := [][2]int64{}
	for _, link := range net.Links() {
		if tolled.Contains(link.ID) || !link.Modes.Has(analyzer.mode) || link.From == link.To {
			continue
		}
		source, err := label(link.From)
		if err != nil {
			return nil, nil, err
		}
		target, err := label(link.To)
		if err != nil {
			return nil, nil, err
		}
		key := [2]int64{source, target}
		if w, ok := weights[key]; !ok || link.Length < w {
			if !ok {
				order = append(order, key)
			}
			weights[key] = link.Length
		}
	}
	for _, key := range order {
		if err := graph.AddEdge(key[0], key[1], weights[key]); err != nil {
			return nil, nil, errors.Wrap(err, "Can't add edge")
		}
	}
	return graph, labels, nil
}

// LeakageSummary aggregates detours
type LeakageSummary struct {
	Links       int
	Unreachable int
	// Detours not longer than threshold ratio
	Leaking int
}

// SummarizeLeakage counts detours with ratio not exceeding threshold
func SummarizeLeakage(detours []Detour, threshold float64) LeakageSummary {
	summary := LeakageSummary{Links: len(detours)}
	for _, detour := range detours {
		if !detour.Reachable {
			summary.Unreachable++
			continue
		}
		if detour.Ratio() <= threshold {
			summary.Leaking++
		}
	}
	return summary
}
