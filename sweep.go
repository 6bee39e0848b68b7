package tollzone

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	rateEpsilon = 1e-9
	// MaxSweepRates limits number of files a single sweep could produce
	MaxSweepRates = 10000
)

// RateSweep produces one pricing scheme file per toll rate of closed arithmetic sequence From, From+Step, ..., To
type RateSweep struct {
	From float64
	To   float64
	Step float64
	// Rate is divided by UnitDivisor to get amount per network length unit (e.g. currency/km into currency/m)
	UnitDivisor float64
	// Time window of the single cost entry in seconds
	Start float64
	End   float64
	// File name is FilePrefix + rate with one decimal + FileSuffix
	FilePrefix  string
	FileSuffix  string
	Dir         string
	Type        SchemeType
	Name        string
	Description string
	Verbose     bool
}

// SweepResult describes one written pricing scheme file
type SweepResult struct {
	Rate    float64
	PerUnit float64
	Path    string
}

// DefaultRateSweep returns distance toll sweep for the inner city border: 0.0 to 25.0 currency/km with step 2.5,
// charged all day long including overnight extension up to 30:00:00
func DefaultRateSweep() *RateSweep {
	return &RateSweep{
		From:        0.0,
		To:          25.0,
		Step:        2.5,
		UnitDivisor: 1000.0,
		Start:       0,
		End:         30 * 3600,
		FilePrefix:  "hundekopf_distance_roadpricing_",
		FileSuffix:  "_euro_per_km.xml",
		Dir:         ".",
		Type:        SCHEME_DISTANCE,
		Name:        "Hundekopf_distance_toll",
		Description: "distance-based toll at Berlin inner city border",
	}
}

// Rates returns every rate of the sweep. Upper bound is included if it is reached within floating point tolerance.
// Returns nil for sweeps which do not pass Validate
func (sweep *RateSweep) Rates() []float64 {
	n, ok := sweep.rateCount()
	if !ok {
		return nil
	}
	rates := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		rates = append(rates, sweep.From+float64(i)*sweep.Step)
	}
	return rates
}

// rateCount returns number of rates in the sweep; false if bounds are not finite or there are more than MaxSweepRates
func (sweep *RateSweep) rateCount() (int, bool) {
	if !isFinite(sweep.From) || !isFinite(sweep.To) || !isFinite(sweep.Step) || sweep.Step <= 0 || sweep.To < sweep.From {
		return 0, false
	}
	count := math.Floor((sweep.To-sweep.From)/sweep.Step+rateEpsilon) + 1
	if math.IsInf(count, 0) || math.IsNaN(count) || count > MaxSweepRates {
		return 0, false
	}
	return int(count), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FileName returns file name (without directory) for given rate
func (sweep *RateSweep) FileName(rate float64) string {
	return sweep.FilePrefix + formatHalfUp(rate, 1) + sweep.FileSuffix
}

// Validate checks sweep parameters. Returns ErrConfiguration describing the first violation
func (sweep *RateSweep) Validate() error {
	switch {
	case !isFinite(sweep.From) || !isFinite(sweep.To) || !isFinite(sweep.Step):
		return configError("rate sweep bounds must be finite numbers, but got from %v, to %v, step %v", sweep.From, sweep.To, sweep.Step)
	case sweep.Step <= 0:
		return configError("rate sweep step must be positive, but got %v", sweep.Step)
	case sweep.From < 0:
		return configError("rate sweep must not start with negative rate %v", sweep.From)
	case sweep.To < sweep.From:
		return configError("rate sweep upper bound %v is less than lower bound %v", sweep.To, sweep.From)
	case sweep.UnitDivisor <= 0 || !isFinite(sweep.UnitDivisor):
		return configError("rate sweep unit divisor must be positive, but got %v", sweep.UnitDivisor)
	case !isFinite(sweep.Start) || !isFinite(sweep.End):
		return configError("rate sweep time window must be finite, but got %v..%v", sweep.Start, sweep.End)
	case sweep.End < sweep.Start:
		return configError("rate sweep time window ends (%s) before it starts (%s)", FormatTime(sweep.End), FormatTime(sweep.Start))
	}
	if _, ok := sweep.rateCount(); !ok {
		return configError("rate sweep from %v to %v with step %v has more than %d rates", sweep.From, sweep.To, sweep.Step, MaxSweepRates)
	}
	names := make(map[string]float64)
	for _, rate := range sweep.Rates() {
		name := sweep.FileName(rate)
		if previous, ok := names[name]; ok {
			return configError("rates %v and %v map to the same file '%s'", previous, rate, name)
		}
		names[name] = rate
	}
	return nil
}

// Scheme returns pricing scheme for given rate
func (sweep *RateSweep) Scheme(rate float64, links TolledLinkSet) *PricingScheme {
	return NewPricingScheme(sweep.Type, sweep.Name, sweep.Description, links, CostEntry{
		Start:  sweep.Start,
		End:    sweep.End,
		Amount: rate / sweep.UnitDivisor,
	})
}

// Run writes one pricing scheme file per rate. Parameters are validated before anything is written.
// The sweep stops at the first failed step and returns results of the steps done so far along with the error
func (sweep *RateSweep) Run(links TolledLinkSet) ([]SweepResult, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	rates := sweep.Rates()
	if sweep.Verbose {
		fmt.Printf("Writing %d road pricing files into '%s'...\n", len(rates), sweep.Dir)
	}
	st := time.Now()
	results := make([]SweepResult, 0, len(rates))
	for _, rate := range rates {
		scheme := sweep.Scheme(rate, links)
		path := filepath.Join(sweep.Dir, sweep.FileName(rate))
		if err := WriteScheme(scheme, path); err != nil {
			return results, errors.Wrapf(err, "rate %.1f", rate)
		}
		results = append(results, SweepResult{Rate: rate, PerUnit: scheme.Costs[0].Amount, Path: path})
		if sweep.Verbose {
			fmt.Printf("\tRate %.1f: '%s'\n", rate, path)
		}
	}
	if sweep.Verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}
	return results, nil
}
