package tollzone

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	parkingCostsModule      = "parkingCosts"
	parkingPurposeSuffix    = "parking cost"
	parkingEventsFile       = "personCostEvents.tsv"
	parkingEventsTSVHeader  = "time\tpersonId\tamount\ttype\n"
	parkingCostDoubleClass  = "java.lang.Double"
	defaultParkingHourlyFee = 2.50
)

// ParkingCostConfig describes parking charges applied to network links
type ParkingCostConfig struct {
	// Link attribute with hourly fee is named LinkAttributePrefix + mode
	LinkAttributePrefix string
	Modes               []string
	// Parking at these activities is free
	ActivityTypesWithoutParkingCost []string
	// Fee per hour applied to every link allowing a mode
	HourlyCost float64
}

// DefaultParkingCostConfig returns flat 2.50/h car parking charge, free at home and for freight
func DefaultParkingCostConfig() ParkingCostConfig {
	return ParkingCostConfig{
		LinkAttributePrefix:             "pc_",
		Modes:                           []string{"car"},
		ActivityTypesWithoutParkingCost: []string{"home", "freight"},
		HourlyCost:                      defaultParkingHourlyFee,
	}
}

// Validate checks parking configuration
func (cfg ParkingCostConfig) Validate() error {
	if strings.TrimSpace(cfg.LinkAttributePrefix) == "" {
		return configError("parking cost link attribute prefix is empty")
	}
	if len(NewModeSet(cfg.Modes...)) == 0 {
		return configError("no modes with parking costs")
	}
	if cfg.HourlyCost < 0 {
		return configError("negative hourly parking cost %v", cfg.HourlyCost)
	}
	return nil
}

// PrepareParkingRun returns configuration with 'parkingCosts' module enabled. Base configuration is optional
func PrepareParkingRun(cfg ParkingCostConfig, base *RunConfig) (*RunConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runCfg := NewRunConfig()
	if base != nil {
		if err := runCfg.Merge(base); err != nil {
			return nil, err
		}
	}
	params := []ConfigParam{
		{"useParkingCost", "true"},
		{"linkAttributePrefix", cfg.LinkAttributePrefix},
		{"modesWithParkingCosts", strings.Join(cfg.Modes, ",")},
		{"activityTypesWithoutParkingCost", strings.Join(cfg.ActivityTypesWithoutParkingCost, ",")},
	}
	for _, param := range params {
		if err := runCfg.SetParam(parkingCostsModule, param.Name, param.Value); err != nil {
			return nil, err
		}
	}
	return runCfg, nil
}

// ApplyParkingCost sets hourly fee attribute for every mode with parking costs on every link allowing it.
// Returns number of annotated links
func ApplyParkingCost(net *Network, cfg ParkingCostConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	modes := NewModeSet(cfg.Modes...).Sorted()
	value := formatDouble(cfg.HourlyCost)
	annotated := 0
	for _, link := range net.Links() {
		touched := false
		for _, mode := range modes {
			if !link.Modes.Has(mode) {
				continue
			}
			link.Attributes[cfg.LinkAttributePrefix+mode] = Attribute{Class: parkingCostDoubleClass, Value: value}
			touched = true
		}
		if touched {
			annotated++
		}
	}
	return annotated, nil
}

// ParkingCostTracker writes parking payments of the whole run into 'personCostEvents.tsv' and sums them up.
// It is never reset between iterations
type ParkingCostTracker struct {
	file    *os.File
	writer  *bufio.Writer
	total   float64
	records int
	err     error
	verbose bool
}

// NewParkingCostTracker creates tracker. File is opened at startup
func NewParkingCostTracker(verbose bool) *ParkingCostTracker {
	return &ParkingCostTracker{verbose: verbose}
}

// NotifyStartup opens events file in output directory
func (tracker *ParkingCostTracker) NotifyStartup(event StartupEvent) error {
	fname := event.OutputFilename(parkingEventsFile)
	file, err := os.Create(fname)
	if err != nil {
		return ioError(err, "can't create parking events file")
	}
	tracker.file = file
	tracker.writer = bufio.NewWriter(file)
	if _, err := tracker.writer.WriteString(parkingEventsTSVHeader); err != nil {
		tracker.err = ioError(err, "can't write '%s'", fname)
	}
	return tracker.err
}

// HandlePersonMoneyEvent records events with purpose ending in 'parking cost'. Amount is stored as positive charge
func (tracker *ParkingCostTracker) HandlePersonMoneyEvent(event PersonMoneyEvent) {
	if !strings.HasSuffix(event.Purpose, parkingPurposeSuffix) {
		return
	}
	cost := -event.Amount
	tracker.total += cost
	tracker.records++
	if tracker.writer == nil || tracker.err != nil {
		return
	}
	if _, err := fmt.Fprintf(tracker.writer, "%s\t%s\t%s\t%s\n", formatHalfUp(event.Time, 1), event.PersonID, formatHalfUp(cost, 2), event.Purpose); err != nil {
		tracker.err = ioError(err, "can't write parking event")
	}
}

// Reset keeps statistics of the whole simulation
func (tracker *ParkingCostTracker) Reset(iteration int) {}

// Total returns sum of charged parking costs
func (tracker *ParkingCostTracker) Total() float64 {
	return tracker.total
}

// Records returns number of parking payments
func (tracker *ParkingCostTracker) Records() int {
	return tracker.records
}

// NotifyShutdown flushes and closes events file
func (tracker *ParkingCostTracker) NotifyShutdown(event ShutdownEvent) error {
	if tracker.file != nil {
		if err := tracker.writer.Flush(); err != nil && tracker.err == nil {
			tracker.err = ioError(err, "can't flush parking events")
		}
		if err := tracker.file.Close(); err != nil && tracker.err == nil {
			tracker.err = ioError(err, "can't close parking events")
		}
		tracker.file = nil
	}
	if tracker.verbose {
		fmt.Printf("Total parking cost charged: %v (%d payments)\n", tracker.total, tracker.records)
	}
	return tracker.err
}
