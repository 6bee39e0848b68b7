package tollzone

import (
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

const (
	// CRSAtlantis is the framework's placeholder for "no particular coordinate system"
	CRSAtlantis = "ATLANTIS"
)

// crsDefinition binds normalized identifier to projection definition.
// Abstract systems (CRSAtlantis) have no definition and could be paired only with themselves
type crsDefinition struct {
	code     string
	identity bool
	system   wgs84.CoordinateReferenceSystem
}

// epsgRepository is read-only after initialization
var epsgRepository = newEPSGRepository()

// newEPSGRepository returns library codes with UTM and Gauss-Krueger families
// projected by transverseMercator
func newEPSGRepository() *wgs84.Repository {
	repo := wgs84.EPSG()
	for zone := 1; zone <= 60; zone++ {
		lon0 := float64(zone*6 - 183)
		repo.Add(32600+zone, transverseMercatorSystem(wgs84.WGS84(), lon0, 0.9996, 500000, 0))
		repo.Add(32700+zone, transverseMercatorSystem(wgs84.WGS84(), lon0, 0.9996, 500000, 10000000))
	}
	// ETRS89 / UTM
	for zone := 28; zone <= 38; zone++ {
		repo.Add(25800+zone, transverseMercatorSystem(wgs84.ETRS89(), float64(zone*6-183), 0.9996, 500000, 0))
	}
	// DHDN / 3-degree Gauss-Krueger zones 2..5
	for zone := 2; zone <= 5; zone++ {
		repo.Add(31464+zone, transverseMercatorSystem(wgs84.DHDN2001(), float64(zone*3), 1.0, float64(zone)*1000000+500000, 0))
	}
	return repo
}

// NormalizeCRS returns canonical form of CRS identifier: "EPSG:<code>" for numeric codes, upper-cased otherwise.
// Empty identifier is treated as CRSAtlantis
func NormalizeCRS(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return CRSAtlantis
	}
	if _, err := strconv.Atoi(c); err == nil {
		return "EPSG:" + c
	}
	return c
}

// KnownCRS returns true if identifier could be used with NewTransformer
func KnownCRS(code string) bool {
	_, err := lookupCRS(code)
	return err == nil
}

func lookupCRS(code string) (*crsDefinition, error) {
	normalized := NormalizeCRS(code)
	if normalized == CRSAtlantis {
		return &crsDefinition{code: CRSAtlantis, identity: true}, nil
	}
	if !strings.HasPrefix(normalized, "EPSG:") {
		return nil, configError("unrecognized coordinate reference system '%s'", code)
	}
	epsg, err := strconv.Atoi(strings.TrimPrefix(normalized, "EPSG:"))
	if err != nil {
		return nil, configError("unrecognized coordinate reference system '%s'", code)
	}
	system := epsgRepository.Code(epsg)
	if system == nil {
		return nil, configError("unsupported coordinate reference system '%s'", code)
	}
	return &crsDefinition{code: normalized, system: system}, nil
}
