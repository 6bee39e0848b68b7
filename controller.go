package tollzone

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// StartupEvent is passed to startup listeners before the first iteration
type StartupEvent struct {
	OutputDir string
}

// ShutdownEvent is passed to shutdown listeners after the last iteration
type ShutdownEvent struct {
	OutputDir string
	Iteration int
	// True if run was aborted by an error
	Unexpected bool
}

// OutputFilename returns path of file in run output directory
func (event StartupEvent) OutputFilename(name string) string {
	return filepath.Join(event.OutputDir, name)
}

// OutputFilename returns path of file in run output directory
func (event ShutdownEvent) OutputFilename(name string) string {
	return filepath.Join(event.OutputDir, name)
}

type StartupListener interface {
	NotifyStartup(event StartupEvent) error
}

type ShutdownListener interface {
	NotifyShutdown(event ShutdownEvent) error
}

// Controller invokes registered callbacks at lifecycle points of a simulation run.
// Simulation itself is external: controller replays its events output
type Controller struct {
	outputDir string
	events    *EventsManager
	startup   []StartupListener
	shutdown  []ShutdownListener
	verbose   bool
}

// WithControllerVerbose enables progress output
func WithControllerVerbose(verbose bool) func(*Controller) {
	return func(controller *Controller) {
		controller.verbose = verbose
	}
}

// NewController creates controller writing into given output directory
func NewController(outputDir string, options ...func(*Controller)) *Controller {
	controller := &Controller{
		outputDir: outputDir,
		events:    NewEventsManager(),
	}
	for _, option := range options {
		option(controller)
	}
	return controller
}

// AddStartupListener registers startup callback
func (controller *Controller) AddStartupListener(listener StartupListener) {
	controller.startup = append(controller.startup, listener)
}

// AddShutdownListener registers shutdown callback
func (controller *Controller) AddShutdownListener(listener ShutdownListener) {
	controller.shutdown = append(controller.shutdown, listener)
}

// AddEventHandler registers events handler
func (controller *Controller) AddEventHandler(handler PersonMoneyEventHandler) {
	controller.events.AddHandler(handler)
}

// Events returns events manager of the controller
func (controller *Controller) Events() *EventsManager {
	return controller.events
}

// Replay runs lifecycle over events file of given iteration: startup, handlers reset, events, shutdown.
// Shutdown listeners are always invoked once startup was attempted; the first error is returned
func (controller *Controller) Replay(ctx context.Context, eventsFile string, iteration int) error {
	st := time.Now()
	runErr := controller.notifyStartup()
	if runErr == nil {
		controller.events.ResetHandlers(iteration)
		if controller.verbose {
			fmt.Printf("Replaying events: '%s'...", eventsFile)
		}
		n, err := ReadEvents(ctx, eventsFile, controller.events)
		if err != nil {
			runErr = err
		} else if controller.verbose {
			fmt.Printf("Done in %v (%d money events)\n", time.Since(st), n)
		}
	}
	shutdownErr := controller.notifyShutdown(ShutdownEvent{
		OutputDir:  controller.outputDir,
		Iteration:  iteration,
		Unexpected: runErr != nil,
	})
	if runErr != nil {
		return runErr
	}
	return shutdownErr
}

func (controller *Controller) notifyStartup() error {
	event := StartupEvent{OutputDir: controller.outputDir}
	for i, listener := range controller.startup {
		if err := listener.NotifyStartup(event); err != nil {
			return errors.Wrapf(err, "startup listener #%d", i)
		}
	}
	return nil
}

func (controller *Controller) notifyShutdown(event ShutdownEvent) error {
	var first error
	for i, listener := range controller.shutdown {
		if err := listener.NotifyShutdown(event); err != nil && first == nil {
			first = errors.Wrapf(err, "shutdown listener #%d", i)
		}
	}
	return first
}
