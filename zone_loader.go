package tollzone

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/planar"
)

// ZoneLoader holds parameters for reading zone definitions
type ZoneLoader struct {
	ctx         context.Context
	client      *http.Client
	crs         string
	idProperty  string
	zoneOptions []func(*Zone)
	verbose     bool
}

// WithZoneCRS sets coordinate reference system of the zone source (shapefiles do not carry one in .shp)
func WithZoneCRS(crs string) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.crs = crs
	}
}

// WithZoneIDProperty sets GeoJSON feature property used as zone identifier
func WithZoneIDProperty(property string) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.idProperty = property
	}
}

// WithZoneOptions passes options to the created zone
func WithZoneOptions(options ...func(*Zone)) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.zoneOptions = append(loader.zoneOptions, options...)
	}
}

// WithZoneContext sets context for remote sources
func WithZoneContext(ctx context.Context) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.ctx = ctx
	}
}

// WithZoneHTTPClient sets HTTP client for remote sources
func WithZoneHTTPClient(client *http.Client) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.client = client
	}
}

// WithZoneVerbose enables progress output
func WithZoneVerbose(verbose bool) func(*ZoneLoader) {
	return func(loader *ZoneLoader) {
		loader.verbose = verbose
	}
}

// LoadZone reads polygons from local file or http(s) URL.
// Supported encodings (by extension): ESRI shapefile (.shp), GeoJSON (.geojson, .json), WKT (.wkt, one geometry per line)
func LoadZone(source string, options ...func(*ZoneLoader)) (*Zone, error) {
	loader := &ZoneLoader{
		ctx:        context.Background(),
		client:     &http.Client{Timeout: 5 * time.Minute},
		idProperty: "id",
	}
	for _, option := range options {
		option(loader)
	}
	if loader.verbose {
		fmt.Printf("Loading zone: '%s'...", source)
	}
	st := time.Now()

	remote := isRemote(source)
	name := source
	if remote {
		name = path.Base(strings.SplitN(source, "?", 2)[0])
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	ext := strings.ToLower(filepath.Ext(name))

	zone := NewZone(loader.crs, loader.zoneOptions...)
	var err error
	switch ext {
	case ".shp":
		localPath := source
		if remote {
			tmpDir, err := os.MkdirTemp("", "tollzone-shp-")
			if err != nil {
				return nil, ioError(err, "can't create temporary directory for '%s'", source)
			}
			defer os.RemoveAll(tmpDir)
			localPath = filepath.Join(tmpDir, base+".shp")
			if err := loader.download(source, localPath); err != nil {
				return nil, err
			}
		}
		err = loadShapefile(zone, localPath, base)
	case ".geojson", ".json":
		var data []byte
		data, err = loader.readAll(source, remote)
		if err != nil {
			return nil, err
		}
		err = loadGeoJSON(zone, data, base, loader.idProperty)
	case ".wkt":
		var data []byte
		data, err = loader.readAll(source, remote)
		if err != nil {
			return nil, err
		}
		err = loadWKT(zone, data, base)
	default:
		return nil, malformedError(nil, "zone file extension '%s' for '%s' is not handled", ext, source)
	}
	if err != nil {
		return nil, err
	}
	if zone.Len() == 0 {
		return nil, malformedError(nil, "no polygons found in '%s'", source)
	}
	if loader.verbose {
		fmt.Printf("Done in %v (%s)\n", time.Since(st), zoneSummary(zone))
	}
	return zone, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (loader *ZoneLoader) open(source string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(loader.ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, ioError(err, "can't prepare request for '%s'", source)
	}
	resp, err := loader.client.Do(req)
	if err != nil {
		return nil, ioError(err, "can't fetch '%s'", source)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, ioError(fmt.Errorf("unexpected status '%s'", resp.Status), "can't fetch '%s'", source)
	}
	return resp.Body, nil
}

func (loader *ZoneLoader) download(source, target string) error {
	body, err := loader.open(source)
	if err != nil {
		return err
	}
	defer body.Close()
	file, err := os.Create(target)
	if err != nil {
		return ioError(err, "can't create '%s'", target)
	}
	defer file.Close()
	if _, err = io.Copy(file, body); err != nil {
		return ioError(err, "can't download '%s'", source)
	}
	return nil
}

func (loader *ZoneLoader) readAll(source string, remote bool) ([]byte, error) {
	if !remote {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, ioError(err, "can't read zone file")
		}
		return data, nil
	}
	body, err := loader.open(source)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, ioError(err, "can't read '%s'", source)
	}
	return data, nil
}

// shapefileFileCode opens every .shp header
const shapefileFileCode = 9994

// checkShapefileHeader compares file length declared in .shp header (in 16-bit words) with actual size.
// Reader of go-shp ignores header errors, so truncated downloads would be read partially otherwise
func checkShapefileHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return ioError(err, "can't open shapefile")
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return ioError(err, "can't stat shapefile '%s'", filename)
	}
	header := make([]byte, 28)
	if _, err := io.ReadFull(file, header); err != nil {
		return malformedError(err, "shapefile '%s' has no header", filename)
	}
	if code := int32(binary.BigEndian.Uint32(header[0:4])); code != shapefileFileCode {
		return malformedError(nil, "shapefile '%s' has file code %d, but %d is expected", filename, code, shapefileFileCode)
	}
	declared := int64(binary.BigEndian.Uint32(header[24:28])) * 2
	if declared != info.Size() {
		return malformedError(nil, "shapefile '%s' is %d bytes long, but header declares %d bytes", filename, info.Size(), declared)
	}
	return nil
}

func loadShapefile(zone *Zone, filename, base string) error {
	if _, err := os.Stat(filename); err != nil {
		return ioError(err, "can't open shapefile")
	}
	if err := checkShapefileHeader(filename); err != nil {
		return err
	}
	reader, err := shp.Open(filename)
	if err != nil {
		return malformedError(err, "can't read shapefile '%s'", filename)
	}
	defer reader.Close()
	for reader.Next() {
		n, shape := reader.Shape()
		var points []shp.Point
		var parts []int32
		switch p := shape.(type) {
		case *shp.Polygon:
			points, parts = p.Points, p.Parts
		case *shp.PolygonZ:
			points, parts = p.Points, p.Parts
		case *shp.PolygonM:
			points, parts = p.Points, p.Parts
		default:
			// Non-areal shapes can't form a zone
			continue
		}
		polygons, err := assembleShapefileRings(points, parts)
		if err != nil {
			return malformedError(err, "shape #%d in '%s'", n, filename)
		}
		id := ZoneID(fmt.Sprintf("%s#%d", base, n))
		for _, polygon := range polygons {
			if err := zone.AddPolygon(id, polygon); err != nil {
				return err
			}
		}
	}
	if err := reader.Err(); err != nil {
		return malformedError(err, "can't read shapefile '%s'", filename)
	}
	return nil
}

// assembleShapefileRings splits shapefile parts into polygons. In ESRI convention outer rings are clockwise
// and holes are counter-clockwise; each hole is attached to the first outer ring containing it
func assembleShapefileRings(points []shp.Point, parts []int32) ([]orb.Polygon, error) {
	rings := make([]orb.Ring, 0, len(parts))
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || start > end || end > len(points) {
			return nil, fmt.Errorf("bad part offsets [%d; %d) for %d points", start, end, len(points))
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}

	polygons := []orb.Polygon{}
	holes := []orb.Ring{}
	for _, ring := range rings {
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
			continue
		}
		polygons = append(polygons, orb.Polygon{ring})
	}
	// Some writers ignore orientation: then every ring is an outer one
	if len(polygons) == 0 {
		for _, ring := range holes {
			polygons = append(polygons, orb.Polygon{ring})
		}
		return polygons, nil
	}
	for _, hole := range holes {
		if len(hole) == 0 {
			continue
		}
		attached := false
		for i := range polygons {
			if planar.RingContains(polygons[i][0], hole[0]) {
				polygons[i] = append(polygons[i], hole)
				attached = true
				break
			}
		}
		if !attached {
			polygons = append(polygons, orb.Polygon{hole})
		}
	}
	return polygons, nil
}

func loadGeoJSON(zone *Zone, data []byte, base, idProperty string) error {
	header := struct {
		Type string `json:"type"`
	}{}
	if err := json.Unmarshal(data, &header); err != nil {
		return malformedError(err, "can't parse GeoJSON")
	}
	switch header.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return malformedError(err, "can't parse GeoJSON feature collection")
		}
		for i, feature := range fc.Features {
			if err := addGeoJSONFeature(zone, feature, fmt.Sprintf("%s#%d", base, i), idProperty); err != nil {
				return err
			}
		}
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return malformedError(err, "can't parse GeoJSON feature")
		}
		return addGeoJSONFeature(zone, feature, base+"#0", idProperty)
	default:
		geometry, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return malformedError(err, "can't parse GeoJSON geometry")
		}
		return addGeoJSONGeometry(zone, ZoneID(base+"#0"), geometry)
	}
	return nil
}

func addGeoJSONFeature(zone *Zone, feature *geojson.Feature, fallbackID, idProperty string) error {
	id := ZoneID(fallbackID)
	if v, ok := feature.Properties[idProperty]; ok && v != nil {
		id = ZoneID(fmt.Sprintf("%v", v))
	} else if feature.ID != nil {
		id = ZoneID(fmt.Sprintf("%v", feature.ID))
	}
	if feature.Geometry == nil {
		return nil
	}
	return addGeoJSONGeometry(zone, id, feature.Geometry)
}

func addGeoJSONGeometry(zone *Zone, id ZoneID, geometry *geojson.Geometry) error {
	switch geometry.Type {
	case geojson.GeometryPolygon:
		return zone.AddPolygon(id, polygonFromCoordinates(geometry.Polygon))
	case geojson.GeometryMultiPolygon:
		for _, coordinates := range geometry.MultiPolygon {
			if err := zone.AddPolygon(id, polygonFromCoordinates(coordinates)); err != nil {
				return err
			}
		}
	case geojson.GeometryCollection:
		for _, child := range geometry.Geometries {
			if err := addGeoJSONGeometry(zone, id, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func polygonFromCoordinates(coordinates [][][]float64) orb.Polygon {
	polygon := make(orb.Polygon, 0, len(coordinates))
	for _, ringCoordinates := range coordinates {
		ring := make(orb.Ring, 0, len(ringCoordinates))
		for _, pt := range ringCoordinates {
			if len(pt) < 2 {
				continue
			}
			ring = append(ring, orb.Point{pt[0], pt[1]})
		}
		polygon = append(polygon, ring)
	}
	return polygon
}

func loadWKT(zone *Zone, data []byte, base string) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		geom, err := wkt.Unmarshal(line)
		if err != nil {
			return malformedError(err, "can't parse WKT at line %d", lineNo)
		}
		id := ZoneID(fmt.Sprintf("%s#%d", base, lineNo))
		switch g := geom.(type) {
		case orb.Polygon:
			err = zone.AddPolygon(id, g)
		case orb.MultiPolygon:
			for _, polygon := range g {
				if err = zone.AddPolygon(id, polygon); err != nil {
					break
				}
			}
		default:
			return malformedError(nil, "geometry at line %d is '%s', but polygon is expected", lineNo, geom.GeoJSONType())
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return ioError(err, "can't scan WKT data")
	}
	return nil
}
