package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LdDl/tollzone"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const innerCityArea = "https://svn.vsp.tu-berlin.de/repos/public-svn/matsim/scenarios/countries/de/berlin/projects/avoev/shp-files/shp-inner-city-area/inner-city-area.shp"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using flags and environment variables")
	}

	var (
		networkFile      = flag.String("network", envOr("TOLLZONE_NETWORK", "berlin-v6.4-network-with-pt.xml.gz"), "Network file: MATSim network XML (.xml, .xml.gz) or OSM data (.osm, .pbf)")
		networkCRS       = flag.String("network-crs", envOr("TOLLZONE_NETWORK_CRS", "EPSG:25832"), "CRS of network coordinates. Used when network file does not declare it")
		zoneSource       = flag.String("zone", envOr("TOLLZONE_ZONE", innerCityArea), "Zone polygons: shapefile, GeoJSON or WKT (local path or http(s) URL)")
		zoneCRS          = flag.String("zone-crs", envOr("TOLLZONE_ZONE_CRS", "EPSG:31468"), "CRS of zone polygons")
		zoneIDProperty   = flag.String("zone-id", envOr("TOLLZONE_ZONE_ID_PROPERTY", "id"), "GeoJSON feature property holding polygon identifier")
		boundary         = flag.String("boundary", envOr("TOLLZONE_BOUNDARY", "excluded"), "Containment of points lying exactly on zone boundary. Expected values: excluded / included")
		excludedModes    = flag.String("exclude-modes", envOr("TOLLZONE_EXCLUDE_MODES", "pt"), "Links allowing any of these modes are never tolled (separated by commas)")
		outDir           = flag.String("out", envOr("TOLLZONE_OUT", "."), "Directory for road pricing files")
		rateFrom         = flag.Float64("from", envFloat("TOLLZONE_RATE_FROM", 0.0), "First toll rate (currency per km)")
		rateTo           = flag.Float64("to", envFloat("TOLLZONE_RATE_TO", 25.0), "Last toll rate (currency per km), included")
		rateStep         = flag.Float64("step", envFloat("TOLLZONE_RATE_STEP", 2.5), "Step between toll rates")
		unitDivisor      = flag.Float64("divisor", envFloat("TOLLZONE_UNIT_DIVISOR", 1000.0), "Rate is divided by this value to get amount per network length unit")
		startTime        = flag.String("start", envOr("TOLLZONE_START", "00:00:00"), "Start of toll time window")
		endTime          = flag.String("end", envOr("TOLLZONE_END", "30:00:00"), "End of toll time window (may exceed 24:00:00)")
		schemeType       = flag.String("type", envOr("TOLLZONE_SCHEME_TYPE", "distance"), "Road pricing type. Expected values: distance / link / cordon / area")
		schemeName       = flag.String("name", envOr("TOLLZONE_SCHEME_NAME", "Hundekopf_distance_toll"), "Road pricing scheme name")
		schemeDesc       = flag.String("description", envOr("TOLLZONE_SCHEME_DESCRIPTION", "distance-based toll at Berlin inner city border"), "Road pricing scheme description")
		filePrefix       = flag.String("prefix", envOr("TOLLZONE_FILE_PREFIX", "hundekopf_distance_roadpricing_"), "Output file name prefix")
		fileSuffix       = flag.String("suffix", envOr("TOLLZONE_FILE_SUFFIX", "_euro_per_km.xml"), "Output file name suffix")
		geojsonOut       = flag.String("geojson", envOr("TOLLZONE_GEOJSON", ""), "Optional GeoJSON file with tolled links (coordinates in EPSG:4326)")
		csvOut           = flag.String("csv", envOr("TOLLZONE_CSV", ""), "Optional ';'-separated file with tolled links (coordinates in network CRS)")
		leakage          = flag.Bool("leakage", envBool("TOLLZONE_LEAKAGE", false), "Compute detours around tolled links")
		leakageThreshold = flag.Float64("leakage-threshold", envFloat("TOLLZONE_LEAKAGE_THRESHOLD", 1.5), "Detours not longer than this ratio of link length are reported as leaking")
		verbose          = flag.Bool("verbose", envBool("TOLLZONE_VERBOSE", true), "Print progress")
	)
	flag.Parse()

	if err := run(logger, options{
		networkFile:      *networkFile,
		networkCRS:       *networkCRS,
		zoneSource:       *zoneSource,
		zoneCRS:          *zoneCRS,
		zoneIDProperty:   *zoneIDProperty,
		boundary:         *boundary,
		excludedModes:    *excludedModes,
		outDir:           *outDir,
		rateFrom:         *rateFrom,
		rateTo:           *rateTo,
		rateStep:         *rateStep,
		unitDivisor:      *unitDivisor,
		startTime:        *startTime,
		endTime:          *endTime,
		schemeType:       *schemeType,
		schemeName:       *schemeName,
		schemeDesc:       *schemeDesc,
		filePrefix:       *filePrefix,
		fileSuffix:       *fileSuffix,
		geojsonOut:       *geojsonOut,
		csvOut:           *csvOut,
		leakage:          *leakage,
		leakageThreshold: *leakageThreshold,
		verbose:          *verbose,
	}); err != nil {
		logger.Error("road pricing generation failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	networkFile      string
	networkCRS       string
	zoneSource       string
	zoneCRS          string
	zoneIDProperty   string
	boundary         string
	excludedModes    string
	outDir           string
	rateFrom         float64
	rateTo           float64
	rateStep         float64
	unitDivisor      float64
	startTime        string
	endTime          string
	schemeType       string
	schemeName       string
	schemeDesc       string
	filePrefix       string
	fileSuffix       string
	geojsonOut       string
	csvOut           string
	leakage          bool
	leakageThreshold float64
	verbose          bool
}

func run(logger *slog.Logger, opts options) error {
	policy, err := tollzone.ParseBoundaryPolicy(opts.boundary)
	if err != nil {
		return err
	}
	pricingType, err := tollzone.ParseSchemeType(opts.schemeType)
	if err != nil {
		return err
	}
	start, err := tollzone.ParseTime(opts.startTime)
	if err != nil {
		return errors.Wrap(err, "Bad start time")
	}
	end, err := tollzone.ParseTime(opts.endTime)
	if err != nil {
		return errors.Wrap(err, "Bad end time")
	}
	sweep := &tollzone.RateSweep{
		From:        opts.rateFrom,
		To:          opts.rateTo,
		Step:        opts.rateStep,
		UnitDivisor: opts.unitDivisor,
		Start:       start,
		End:         end,
		FilePrefix:  opts.filePrefix,
		FileSuffix:  opts.fileSuffix,
		Dir:         opts.outDir,
		Type:        pricingType,
		Name:        opts.schemeName,
		Description: opts.schemeDesc,
		Verbose:     opts.verbose,
	}
	// Fail fast before heavy network loading
	if err := sweep.Validate(); err != nil {
		return err
	}
	for _, code := range []string{opts.networkCRS, opts.zoneCRS} {
		if !tollzone.KnownCRS(code) {
			return errors.Errorf("unsupported coordinate reference system '%s'", code)
		}
	}

	net, err := loadNetwork(opts.networkFile, opts.networkCRS, opts.verbose)
	if err != nil {
		return err
	}
	logger.Info("network loaded", "path", opts.networkFile, "crs", net.CRS, "nodes", net.NumNodes(), "links", net.NumLinks())

	zone, err := tollzone.LoadZone(opts.zoneSource,
		tollzone.WithZoneCRS(opts.zoneCRS),
		tollzone.WithZoneIDProperty(opts.zoneIDProperty),
		tollzone.WithZoneOptions(tollzone.WithBoundaryPolicy(policy)),
		tollzone.WithZoneVerbose(opts.verbose),
	)
	if err != nil {
		return err
	}
	logger.Info("zone loaded", "path", opts.zoneSource, "crs", zone.CRS, "polygons", zone.Len(), "boundary", policy)

	transformer, err := tollzone.NewTransformer(net.CRS, zone.CRS)
	if err != nil {
		return err
	}
	classifier, err := tollzone.NewClassifier(
		tollzone.WithExcludedModes(strings.Split(opts.excludedModes, ",")),
		tollzone.WithTransformer(transformer),
		tollzone.WithClassifierVerbose(opts.verbose),
	)
	if err != nil {
		return err
	}
	crossings, err := classifier.Crossings(net, zone)
	if err != nil {
		return err
	}
	tolled := tollzone.NewTolledLinkSet()
	for _, crossing := range crossings {
		tolled[crossing.LinkID] = struct{}{}
	}
	logger.Info("links classified", "links", tolled.Len())

	results, err := sweep.Run(tolled)
	for _, result := range results {
		logger.Info("road pricing written", "path", result.Path, "rate", result.Rate, "per_unit", result.PerUnit, "links", tolled.Len())
	}
	if err != nil {
		return err
	}

	if opts.geojsonOut != "" {
		toWGS84, err := tollzone.NewTransformer(net.CRS, "EPSG:4326")
		if err != nil {
			return err
		}
		if err := tollzone.ExportTolledLinksGeoJSON(net, crossings, opts.geojsonOut, toWGS84); err != nil {
			return err
		}
		logger.Info("tolled links exported", "path", opts.geojsonOut)
	}
	if opts.csvOut != "" {
		if err := tollzone.ExportTolledLinksCSV(net, crossings, opts.csvOut, nil); err != nil {
			return err
		}
		logger.Info("tolled links exported", "path", opts.csvOut)
	}

	if opts.leakage && tolled.Len() > 0 {
		detours, err := tollzone.AnalyzeLeakage(net, tolled, tollzone.WithLeakageVerbose(opts.verbose))
		if err != nil {
			return err
		}
		summary := tollzone.SummarizeLeakage(detours, opts.leakageThreshold)
		logger.Info("cordon leakage", "links", summary.Links, "unreachable", summary.Unreachable, "leaking", summary.Leaking, "threshold", opts.leakageThreshold)
		for _, detour := range detours {
			if detour.Reachable && detour.Ratio() <= opts.leakageThreshold {
				logger.Warn("cheap detour", "link", detour.LinkID, "length", detour.LinkLength, "detour", detour.DetourLength)
			}
		}
	}
	return nil
}

func loadNetwork(fname, fallbackCRS string, verbose bool) (*tollzone.Network, error) {
	ext := strings.ToLower(filepath.Ext(fname))
	if ext == ".osm" || ext == ".pbf" {
		cfg := tollzone.DefaultOsmConfiguration()
		cfg.CRS = fallbackCRS
		cfg.Verbose = verbose
		return tollzone.ImportOSMNetwork(fname, cfg)
	}
	net, err := tollzone.ReadMATSimNetwork(fname, verbose)
	if err != nil {
		return nil, err
	}
	if net.CRS == "" {
		net.CRS = fallbackCRS
	}
	return net, nil
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
