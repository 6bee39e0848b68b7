package tollzone

type LinkType uint16

const (
	LINK_MOTORWAY = LinkType(iota + 1)
	LINK_TRUNK
	LINK_PRIMARY
	LINK_SECONDARY
	LINK_TERTIARY
	LINK_RESIDENTIAL
	LINK_LIVING_STREET
	LINK_SERVICE
	LINK_CYCLEWAY
	LINK_FOOTWAY
	LINK_TRACK
	LINK_UNCLASSIFIED
	LINK_BUSWAY
	LINK_RAILWAY
)

func (iotaIdx LinkType) String() string {
	return [...]string{"motorway", "trunk", "primary", "secondary", "tertiary", "residential", "living_street", "service", "cycleway", "footway", "track", "unclassified", "busway", "railway"}[iotaIdx-1]
}

var (
	linkTypeByHighway = map[string]LinkType{
		"motorway":       LINK_MOTORWAY,
		"motorway_link":  LINK_MOTORWAY,
		"trunk":          LINK_TRUNK,
		"trunk_link":     LINK_TRUNK,
		"primary":        LINK_PRIMARY,
		"primary_link":   LINK_PRIMARY,
		"secondary":      LINK_SECONDARY,
		"secondary_link": LINK_SECONDARY,
		"tertiary":       LINK_TERTIARY,
		"tertiary_link":  LINK_TERTIARY,
		"residential":    LINK_RESIDENTIAL,
		"living_street":  LINK_LIVING_STREET,
		"service":        LINK_SERVICE,
		"cycleway":       LINK_CYCLEWAY,
		"footway":        LINK_FOOTWAY,
		"pedestrian":     LINK_FOOTWAY,
		"steps":          LINK_FOOTWAY,
		"path":           LINK_FOOTWAY,
		"track":          LINK_TRACK,
		"unclassified":   LINK_UNCLASSIFIED,
		"busway":         LINK_BUSWAY,
		"bus_guideway":   LINK_BUSWAY,
	}
	// km/h
	defaultSpeedByLinkType = map[LinkType]float64{
		LINK_MOTORWAY:      120,
		LINK_TRUNK:         100,
		LINK_PRIMARY:       80,
		LINK_SECONDARY:     60,
		LINK_TERTIARY:      40,
		LINK_RESIDENTIAL:   30,
		LINK_LIVING_STREET: 10,
		LINK_SERVICE:       30,
		LINK_CYCLEWAY:      15,
		LINK_FOOTWAY:       5,
		LINK_TRACK:         30,
		LINK_UNCLASSIFIED:  30,
		LINK_BUSWAY:        50,
		LINK_RAILWAY:       60,
	}
	// vehicles per hour per lane
	defaultCapacityByLinkType = map[LinkType]float64{
		LINK_MOTORWAY:      2300,
		LINK_TRUNK:         2200,
		LINK_PRIMARY:       1800,
		LINK_SECONDARY:     1600,
		LINK_TERTIARY:      1200,
		LINK_RESIDENTIAL:   1000,
		LINK_LIVING_STREET: 600,
		LINK_SERVICE:       800,
		LINK_CYCLEWAY:      800,
		LINK_FOOTWAY:       800,
		LINK_TRACK:         800,
		LINK_UNCLASSIFIED:  800,
		LINK_BUSWAY:        800,
		LINK_RAILWAY:       9999,
	}
	defaultLanesByLinkType = map[LinkType]float64{
		LINK_MOTORWAY:  2,
		LINK_TRUNK:     2,
		LINK_PRIMARY:   2,
		LINK_SECONDARY: 1,
	}
)
