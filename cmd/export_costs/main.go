package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/LdDl/tollzone"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using flags and environment variables")
	}

	var (
		eventsFile = flag.String("events", envOr("TOLLZONE_EVENTS", "output_events.xml.gz"), "Events file of simulation run (.xml or .xml.gz)")
		outDir     = flag.String("out", envOr("TOLLZONE_OUT", "."), "Directory for exported files")
		iteration  = flag.Int("iteration", envInt("TOLLZONE_ITERATION", 0), "Iteration the events belong to")
		tolls      = flag.Bool("toll", envBool("TOLLZONE_EXPORT_TOLL", true), "Export toll payments into 'toll_events.tsv'")
		parking    = flag.Bool("parking", envBool("TOLLZONE_EXPORT_PARKING", true), "Export parking payments into 'personCostEvents.tsv'")
		verbose    = flag.Bool("verbose", envBool("TOLLZONE_VERBOSE", true), "Print progress")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	controller := tollzone.NewController(*outDir, tollzone.WithControllerVerbose(*verbose))
	var collector *tollzone.TollEventCollector
	if *tolls {
		collector = tollzone.NewTollEventCollector(*verbose)
		controller.AddEventHandler(collector)
		controller.AddShutdownListener(collector)
	}
	var tracker *tollzone.ParkingCostTracker
	if *parking {
		tracker = tollzone.NewParkingCostTracker(*verbose)
		controller.AddStartupListener(tracker)
		controller.AddEventHandler(tracker)
		controller.AddShutdownListener(tracker)
	}

	if err := controller.Replay(ctx, *eventsFile, *iteration); err != nil {
		logger.Error("can't export costs", "events", *eventsFile, "error", err)
		os.Exit(1)
	}
	logger.Info("events replayed", "events", *eventsFile, "money_events", controller.Events().Processed())
	if collector != nil {
		logger.Info("toll events written", "path", filepath.Join(*outDir, "toll_events.tsv"), "events", len(collector.Events()))
	}
	if tracker != nil {
		logger.Info("total parking cost charged", "total", tracker.Total(), "payments", tracker.Records())
	}
}

func envOr(key, def string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return def
}

func envInt(key string, def int) int {
	value, err := strconv.Atoi(envOr(key, ""))
	if err != nil {
		return def
	}
	return value
}

func envBool(key string, def bool) bool {
	value, err := strconv.ParseBool(envOr(key, ""))
	if err != nil {
		return def
	}
	return value
}
