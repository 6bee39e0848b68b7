package tollzone

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	roadPricingModule   = "roadpricing"
	tollLinksFileParam  = "tollLinksFile"
	tollPurpose         = "toll"
	tollEventsFile      = "toll_events.tsv"
	tollEventsTSVHeader = "personId\ttime\tamount\tpurpose\n"
)

// TollRunConfig describes simulation run with road pricing
type TollRunConfig struct {
	RoadPricingFile string
	// Optional configuration which overlay is applied on top of
	Base *RunConfig
}

// PrepareTollRun checks road pricing file and returns configuration with 'roadpricing' module pointing to it
func PrepareTollRun(cfg TollRunConfig) (*RunConfig, error) {
	if strings.TrimSpace(cfg.RoadPricingFile) == "" {
		return nil, configError("road pricing file is not set")
	}
	abs, err := filepath.Abs(cfg.RoadPricingFile)
	if err != nil {
		return nil, configError("can't resolve road pricing file '%s': %v", cfg.RoadPricingFile, err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, configError("can't find road pricing file '%s'", abs)
	}
	runCfg := NewRunConfig()
	if cfg.Base != nil {
		if err := runCfg.Merge(cfg.Base); err != nil {
			return nil, err
		}
	}
	if err := runCfg.SetParam(roadPricingModule, tollLinksFileParam, abs); err != nil {
		return nil, err
	}
	return runCfg, nil
}

// TollEventCollector keeps toll payments of the current iteration and writes them on shutdown
type TollEventCollector struct {
	events  []PersonMoneyEvent
	verbose bool
}

// NewTollEventCollector creates empty collector
func NewTollEventCollector(verbose bool) *TollEventCollector {
	return &TollEventCollector{verbose: verbose}
}

// HandlePersonMoneyEvent keeps events with 'toll' purpose
func (collector *TollEventCollector) HandlePersonMoneyEvent(event PersonMoneyEvent) {
	if event.Purpose == tollPurpose {
		collector.events = append(collector.events, event)
	}
}

// Reset drops events of previous iteration
func (collector *TollEventCollector) Reset(iteration int) {
	collector.events = collector.events[:0]
}

// Events returns collected events
func (collector *TollEventCollector) Events() []PersonMoneyEvent {
	return collector.events
}

// NotifyShutdown writes collected events into 'toll_events.tsv' of output directory
func (collector *TollEventCollector) NotifyShutdown(event ShutdownEvent) error {
	fname := event.OutputFilename(tollEventsFile)
	err := writeFileAtomic(fname, func(w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(tollEventsTSVHeader)
		for _, e := range collector.events {
			ew.printf("%s\t%s\t%s\t%s\n", e.PersonID, formatDouble(e.Time), formatDouble(e.Amount), e.Purpose)
		}
		if ew.err != nil {
			return ioError(ew.err, "can't write toll events '%s'", fname)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if collector.verbose {
		fmt.Printf("Toll event log written to: '%s' (%d events)\n", fname, len(collector.events))
	}
	return nil
}
