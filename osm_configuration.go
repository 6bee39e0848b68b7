package tollzone

import (
	"strings"
)

// OsmConfiguration filters and converts OSM ways while importing network
type OsmConfiguration struct {
	// Highway tags to import. Empty means every highway tag with known link type
	Tags []string
	// Import public transport rails (tram, subway, etc.)
	Railways bool
	// Modes to derive from access tags. Empty means all of them
	Agents []AgentType
	// Target coordinate reference system of nodes. Empty means EPSG:4326
	CRS     string
	Verbose bool
}

// DefaultOsmConfiguration returns configuration for car network with public transport rails
func DefaultOsmConfiguration() *OsmConfiguration {
	return &OsmConfiguration{
		Tags:     strings.Split("motorway,motorway_link,trunk,trunk_link,primary,primary_link,secondary,secondary_link,tertiary,tertiary_link,residential,living_street,unclassified,service,busway", ","),
		Railways: true,
		Agents:   []AgentType{AGENT_CAR, AGENT_BIKE, AGENT_WALK, AGENT_PT},
		CRS:      "EPSG:4326",
	}
}

// CheckTag checks if incoming highway tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	if len(cfg.Tags) == 0 {
		_, ok := linkTypeByHighway[tag]
		return ok
	}
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}

func (cfg *OsmConfiguration) agents() map[AgentType]struct{} {
	if len(cfg.Agents) == 0 {
		return agentTypesAll
	}
	agents := make(map[AgentType]struct{}, len(cfg.Agents))
	for _, agentType := range cfg.Agents {
		agents[agentType] = struct{}{}
	}
	return agents
}
