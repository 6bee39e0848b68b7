package tollzone

// AgentType is a travel mode which could be derived from OSM access tags
type AgentType uint16

const (
	AGENT_CAR = AgentType(iota + 1)
	AGENT_BIKE
	AGENT_WALK
	AGENT_PT
	AGENT_UNDEFINED = AgentType(0)
)

// String returns mode name as used in network files
func (iotaIdx AgentType) String() string {
	return [...]string{"undefined", "car", "bike", "walk", "pt"}[iotaIdx]
}

// ParseAgentType returns agent type by mode name
func ParseAgentType(mode string) AgentType {
	for agentType := range agentTypesAll {
		if agentType.String() == mode {
			return agentType
		}
	}
	return AGENT_UNDEFINED
}

// AccessType is an OSM key restricting access for some agents
type AccessType uint16

const (
	ACCESS_HIGHWAY = AccessType(iota + 1)
	ACCESS_MOTOR_VEHICLE
	ACCESS_MOTORCAR
	ACCESS_OSM_ACCESS
	ACCESS_SERVICE
	ACCESS_BICYCLE
	ACCESS_FOOT
	ACCESS_UNDEFINED = AccessType(0)
)

func (iotaIdx AccessType) String() string {
	return [...]string{"undefined", "highway", "motor_vehicle", "motorcar", "access", "service", "bicycle", "foot"}[iotaIdx]
}

var (
	agentTypesAll = map[AgentType]struct{}{
		AGENT_CAR:  {},
		AGENT_BIKE: {},
		AGENT_WALK: {},
		AGENT_PT:   {},
	}

	agentsAccessIncludeValues = map[AgentType]map[AccessType]map[string]struct{}{
		AGENT_CAR: {
			ACCESS_MOTOR_VEHICLE: {
				"yes": struct{}{},
			},
			ACCESS_MOTORCAR: {
				"yes": struct{}{},
			},
		},
		AGENT_BIKE: {
			ACCESS_BICYCLE: {
				"yes":        struct{}{},
				"designated": struct{}{},
			},
		},
		AGENT_WALK: {
			ACCESS_FOOT: {
				"yes":        struct{}{},
				"designated": struct{}{},
			},
		},
	}

	agentsAccessExcludeValues = map[AgentType]map[AccessType]map[string]struct{}{
		AGENT_CAR: {
			ACCESS_HIGHWAY: {
				"cycleway":     struct{}{},
				"footway":      struct{}{},
				"pedestrian":   struct{}{},
				"steps":        struct{}{},
				"track":        struct{}{},
				"corridor":     struct{}{},
				"elevator":     struct{}{},
				"escalator":    struct{}{},
				"path":         struct{}{},
				"busway":       struct{}{},
				"bus_guideway": struct{}{},
			},
			ACCESS_MOTOR_VEHICLE: {
				"no": struct{}{},
			},
			ACCESS_MOTORCAR: {
				"no": struct{}{},
			},
			ACCESS_OSM_ACCESS: {
				"private": struct{}{},
				"no":      struct{}{},
			},
			ACCESS_SERVICE: {
				"parking_aisle":    struct{}{},
				"emergency_access": struct{}{},
			},
		},
		AGENT_BIKE: {
			ACCESS_HIGHWAY: {
				"footway":       struct{}{},
				"steps":         struct{}{},
				"corridor":      struct{}{},
				"elevator":      struct{}{},
				"escalator":     struct{}{},
				"motorway":      struct{}{},
				"motorway_link": struct{}{},
				"busway":        struct{}{},
				"bus_guideway":  struct{}{},
			},
			ACCESS_BICYCLE: {
				"no": struct{}{},
			},
			ACCESS_OSM_ACCESS: {
				"private": struct{}{},
				"no":      struct{}{},
			},
		},
		AGENT_WALK: {
			ACCESS_HIGHWAY: {
				"cycleway":      struct{}{},
				"motorway":      struct{}{},
				"motorway_link": struct{}{},
				"trunk":         struct{}{},
				"trunk_link":    struct{}{},
				"busway":        struct{}{},
				"bus_guideway":  struct{}{},
			},
			ACCESS_FOOT: {
				"no": struct{}{},
			},
			ACCESS_OSM_ACCESS: {
				"private": struct{}{},
				"no":      struct{}{},
			},
		},
	}

	// Rail and dedicated bus infrastructure is served by public transport only
	ptRailways = map[string]struct{}{
		"rail":         {},
		"light_rail":   {},
		"subway":       {},
		"tram":         {},
		"narrow_gauge": {},
		"monorail":     {},
	}
	ptHighways = map[string]struct{}{
		"busway":       {},
		"bus_guideway": {},
	}
)
