package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/LdDl/tollzone"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using flags and environment variables")
	}

	var (
		mode            = flag.String("mode", envOr("TOLLZONE_RUN_MODE", "toll"), "Kind of run to prepare. Expected values: toll / parking")
		baseConfig      = flag.String("base", envOr("TOLLZONE_BASE_CONFIG", ""), "Optional framework config to put overlay on top of")
		outConfig       = flag.String("out", envOr("TOLLZONE_RUN_CONFIG", "run-config.xml"), "Output config file")
		roadPricing     = flag.String("roadpricing", envOr("TOLLZONE_ROADPRICING", "hundekopf_distance_roadpricing_2.5_euro_per_km.xml"), "Road pricing file (toll mode)")
		networkFile     = flag.String("network", envOr("TOLLZONE_NETWORK", ""), "Network to annotate with parking costs (parking mode)")
		networkOut      = flag.String("network-out", envOr("TOLLZONE_NETWORK_OUT", "network-with-parking-costs.xml.gz"), "Annotated network file (parking mode)")
		attributePrefix = flag.String("prefix", envOr("TOLLZONE_PARKING_PREFIX", "pc_"), "Link attribute prefix of parking costs")
		parkingModes    = flag.String("modes", envOr("TOLLZONE_PARKING_MODES", "car"), "Modes with parking costs (separated by commas)")
		freeActivities  = flag.String("free-activities", envOr("TOLLZONE_PARKING_FREE_ACTIVITIES", "home,freight"), "Activity types without parking cost (separated by commas)")
		hourlyCost      = flag.Float64("hourly-cost", envFloat("TOLLZONE_PARKING_HOURLY_COST", 2.50), "Parking cost per hour")
		verbose         = flag.Bool("verbose", envBool("TOLLZONE_VERBOSE", true), "Print progress")
	)
	flag.Parse()

	var base *tollzone.RunConfig
	if *baseConfig != "" {
		cfg, err := tollzone.ReadRunConfig(*baseConfig)
		if err != nil {
			logger.Error("can't read base config", "path", *baseConfig, "error", err)
			os.Exit(1)
		}
		base = cfg
	}

	var runCfg *tollzone.RunConfig
	var err error
	switch strings.ToLower(*mode) {
	case "toll":
		runCfg, err = tollzone.PrepareTollRun(tollzone.TollRunConfig{RoadPricingFile: *roadPricing, Base: base})
		if err == nil {
			value, _ := runCfg.Param("roadpricing", "tollLinksFile")
			logger.Info("using road pricing file", "path", value)
		}
	case "parking":
		cfg := tollzone.ParkingCostConfig{
			LinkAttributePrefix:             *attributePrefix,
			Modes:                           splitList(*parkingModes),
			ActivityTypesWithoutParkingCost: splitList(*freeActivities),
			HourlyCost:                      *hourlyCost,
		}
		runCfg, err = prepareParking(logger, cfg, base, *networkFile, *networkOut, *verbose)
	default:
		err = errors.Errorf("unknown run mode '%s'", *mode)
	}
	if err != nil {
		logger.Error("can't prepare run", "mode", *mode, "error", err)
		os.Exit(1)
	}
	if err := tollzone.WriteRunConfig(runCfg, *outConfig); err != nil {
		logger.Error("can't write run config", "path", *outConfig, "error", err)
		os.Exit(1)
	}
	logger.Info("run config written", "mode", *mode, "path", *outConfig)
}

func prepareParking(logger *slog.Logger, cfg tollzone.ParkingCostConfig, base *tollzone.RunConfig, networkFile, networkOut string, verbose bool) (*tollzone.RunConfig, error) {
	runCfg, err := tollzone.PrepareParkingRun(cfg, base)
	if err != nil {
		return nil, err
	}
	if networkFile == "" {
		return runCfg, nil
	}
	net, err := tollzone.ReadMATSimNetwork(networkFile, verbose)
	if err != nil {
		return nil, err
	}
	annotated, err := tollzone.ApplyParkingCost(net, cfg)
	if err != nil {
		return nil, err
	}
	if err := tollzone.WriteMATSimNetwork(net, networkOut); err != nil {
		return nil, err
	}
	logger.Info("parking costs applied", "links", annotated, "path", networkOut)
	if err := runCfg.SetParam("network", "inputNetworkFile", networkOut); err != nil {
		return nil, err
	}
	return runCfg, nil
}

func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func envOr(key, def string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return def
}

func envFloat(key string, def float64) float64 {
	value, err := strconv.ParseFloat(envOr(key, ""), 64)
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
