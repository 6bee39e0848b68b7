package tollzone

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

var (
	numberRegExp = regexp.MustCompile(`\d+\.?\d*`)
)

// wayData is OSM way accepted for import
type wayData struct {
	ID       osm.WayID
	Nodes    []osm.NodeID
	linkType LinkType
	modes    ModeSet
	oneway   bool
	reversed bool
	maxSpeed float64
	lanes    int
}

// wayTags are OSM tags affecting access of agents
type wayTags struct {
	highway      string
	railway      string
	motorVehicle string
	motorcar     string
	access       string
	service      string
	foot         string
	bicycle      string
}

func wayTagsFromOSM(tags osm.Tags) wayTags {
	return wayTags{
		highway:      tags.Find("highway"),
		railway:      tags.Find("railway"),
		motorVehicle: tags.Find("motor_vehicle"),
		motorcar:     tags.Find("motorcar"),
		access:       tags.Find("access"),
		service:      tags.Find("service"),
		foot:         tags.Find("foot"),
		bicycle:      tags.Find("bicycle"),
	}
}

func (tags wayTags) value(accessType AccessType) string {
	switch accessType {
	case ACCESS_HIGHWAY:
		return tags.highway
	case ACCESS_MOTOR_VEHICLE:
		return tags.motorVehicle
	case ACCESS_MOTORCAR:
		return tags.motorcar
	case ACCESS_OSM_ACCESS:
		return tags.access
	case ACCESS_SERVICE:
		return tags.service
	case ACCESS_BICYCLE:
		return tags.bicycle
	case ACCESS_FOOT:
		return tags.foot
	default:
		return ""
	}
}

// findIncludedAgent checks if agent is explicitly allowed
func (tags wayTags) findIncludedAgent(agentType AgentType) bool {
	for accessType, values := range agentsAccessIncludeValues[agentType] {
		if _, ok := values[tags.value(accessType)]; ok {
			return true
		}
	}
	return false
}

// findExcludedAgent checks if agent is forbidden by any access tag
func (tags wayTags) findExcludedAgent(agentType AgentType) bool {
	for accessType, values := range agentsAccessExcludeValues[agentType] {
		if _, ok := values[tags.value(accessType)]; ok {
			return true
		}
	}
	return false
}

// allowedModes returns modes allowed on the way. Public transport infrastructure is pt-only
func (tags wayTags) allowedModes(agents map[AgentType]struct{}) ModeSet {
	modes := NewModeSet()
	_, ptRail := ptRailways[tags.railway]
	_, ptRoad := ptHighways[tags.highway]
	if ptRail || ptRoad {
		if _, ok := agents[AGENT_PT]; ok {
			modes[AGENT_PT.String()] = struct{}{}
		}
		return modes
	}
	for agentType := range agents {
		if agentType == AGENT_PT {
			continue
		}
		if tags.findIncludedAgent(agentType) || !tags.findExcludedAgent(agentType) {
			modes[agentType.String()] = struct{}{}
		}
	}
	return modes
}

func newOSMScanner(file *os.File, filename string) (OSMScanner, error) {
	// Guess file extension and prepare correct scanner
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(context.Background(), file), nil
	case ".pbf":
		return osmpbf.New(context.Background(), file, 4), nil
	default:
		return nil, malformedError(nil, "file extension '%s' for file '%s' is not handled", ext, filename)
	}
}

// ImportOSMNetwork builds network from OSM data (.osm, .xml or .osm.pbf).
// Each way is split at nodes shared with other ways; every piece becomes one link per allowed direction
func ImportOSMNetwork(filename string, cfg *OsmConfiguration) (*Network, error) {
	if cfg == nil {
		cfg = DefaultOsmConfiguration()
	}
	targetCRS := cfg.CRS
	if targetCRS == "" {
		targetCRS = "EPSG:4326"
	}
	transformer, err := NewTransformer("EPSG:4326", targetCRS)
	if err != nil {
		return nil, err
	}
	agents := cfg.agents()

	if cfg.Verbose {
		fmt.Printf("Opening file: '%s'...\n", filename)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, ioError(err, "can't open OSM file")
	}
	defer file.Close()

	/* Process ways */
	if cfg.Verbose {
		fmt.Printf("\tProcessing ways... ")
	}
	st := time.Now()
	ways := []*wayData{}
	nodesUseCount := make(map[osm.NodeID]int)
	{
		scannerWays, err := newOSMScanner(file, filename)
		if err != nil {
			return nil, err
		}
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != "way" {
				continue
			}
			way := obj.(*osm.Way)
			prepared := prepareWay(way, cfg, agents)
			if prepared == nil {
				continue
			}
			for i, nodeID := range prepared.Nodes {
				nodesUseCount[nodeID]++
				// Way endpoints always split
				if i == 0 || i == len(prepared.Nodes)-1 {
					nodesUseCount[nodeID]++
				}
			}
			ways = append(ways, prepared)
		}
		err = scannerWays.Err()
		scannerWays.Close()
		if err != nil {
			return nil, malformedError(err, "can't scan ways of '%s'", filename)
		}
	}
	if cfg.Verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	// Seek file to start
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return nil, ioError(err, "can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	if cfg.Verbose {
		fmt.Printf("\tProcessing nodes... ")
	}
	st = time.Now()
	coords := make(map[osm.NodeID]orb.Point, len(nodesUseCount))
	{
		scannerNodes, err := newOSMScanner(file, filename)
		if err != nil {
			return nil, err
		}
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != "node" {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodesUseCount[node.ID]; ok {
				coords[node.ID] = orb.Point{node.Lon, node.Lat}
			}
		}
		err = scannerNodes.Err()
		scannerNodes.Close()
		if err != nil {
			return nil, malformedError(err, "can't scan nodes of '%s'", filename)
		}
	}
	if cfg.Verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
	}

	/* Build links */
	if cfg.Verbose {
		fmt.Printf("\tPreparing links... ")
	}
	st = time.Now()
	net := NewNetwork(targetCRS)
	skippedWays := 0
	for _, way := range ways {
		added, err := addWayLinks(net, way, coords, nodesUseCount, transformer)
		if err != nil {
			return nil, errors.Wrapf(err, "way %d", way.ID)
		}
		if !added {
			skippedWays++
		}
	}
	if cfg.Verbose {
		fmt.Printf("Done in %v\n", time.Since(st))
		fmt.Printf("Number of ways: %d (skipped: %d)\n", len(ways), skippedWays)
		fmt.Printf("Number of nodes: %d\n", net.NumNodes())
		fmt.Printf("Number of links: %d\n", net.NumLinks())
	}
	return net, nil
}

func prepareWay(way *osm.Way, cfg *OsmConfiguration, agents map[AgentType]struct{}) *wayData {
	if len(way.Nodes) < 2 {
		return nil
	}
	tags := wayTagsFromOSM(way.Tags)
	linkType := LinkType(0)
	switch {
	case tags.highway != "":
		if !cfg.CheckTag(tags.highway) {
			return nil
		}
		linkType = linkTypeByHighway[tags.highway]
	case tags.railway != "" && cfg.Railways:
		if _, ok := ptRailways[tags.railway]; !ok {
			return nil
		}
		linkType = LINK_RAILWAY
	}
	if linkType == 0 {
		return nil
	}
	if area := way.Tags.Find("area"); area != "" && area != "no" {
		return nil
	}
	modes := tags.allowedModes(agents)
	if len(modes) == 0 {
		return nil
	}
	prepared := &wayData{
		ID:       way.ID,
		Nodes:    make([]osm.NodeID, 0, len(way.Nodes)),
		linkType: linkType,
		modes:    modes,
		maxSpeed: parseMaxSpeed(way.Tags.Find("maxspeed")),
		lanes:    -1,
	}
	for _, node := range way.Nodes {
		prepared.Nodes = append(prepared.Nodes, node.ID)
	}
	switch way.Tags.Find("oneway") {
	case "yes", "1", "true":
		prepared.oneway = true
	case "-1", "reverse":
		prepared.oneway = true
		prepared.reversed = true
	case "":
		junction := way.Tags.Find("junction")
		if junction == "roundabout" || junction == "circular" || linkType == LINK_MOTORWAY {
			prepared.oneway = true
		}
	}
	if lanesText := numberRegExp.FindString(way.Tags.Find("lanes")); lanesText != "" {
		if lanes, err := strconv.ParseFloat(lanesText, 64); err == nil && lanes > 0 {
			prepared.lanes = int(lanes)
		}
	}
	return prepared
}

// parseMaxSpeed returns speed in km/h or -1 if tag is absent or not numeric
func parseMaxSpeed(text string) float64 {
	numberText := numberRegExp.FindString(text)
	if numberText == "" {
		return -1
	}
	v, err := strconv.ParseFloat(numberText, 64)
	if err != nil {
		return -1
	}
	if strings.Contains(text, "mph") {
		v *= 1.609344
	}
	return v
}

// addWayLinks splits way into segments and adds links for them. Returns false if way has no usable nodes
func addWayLinks(net *Network, way *wayData, coords map[osm.NodeID]orb.Point, useCount map[osm.NodeID]int, transformer *Transformer) (bool, error) {
	nodes := make([]osm.NodeID, 0, len(way.Nodes))
	for _, nodeID := range way.Nodes {
		if _, ok := coords[nodeID]; ok {
			nodes = append(nodes, nodeID)
		}
	}
	if len(nodes) < 2 {
		return false, nil
	}

	speed := way.maxSpeed
	if speed <= 0 {
		speed = defaultSpeedByLinkType[way.linkType]
	}
	lanes := float64(way.lanes)
	if lanes <= 0 {
		lanes = defaultLanesByLinkType[way.linkType]
		if lanes <= 0 {
			lanes = 1
		}
	} else if !way.oneway {
		lanes = math.Max(1, math.Ceil(lanes/2.0))
	}

	segment := 0
	start := 0
	for i := 1; i < len(nodes); i++ {
		if i != len(nodes)-1 && useCount[nodes[i]] < 2 {
			continue
		}
		piece := nodes[start : i+1]
		start = i
		if piece[0] == piece[len(piece)-1] && len(piece) == 2 {
			continue
		}
		geom := make(orb.LineString, 0, len(piece))
		for _, nodeID := range piece {
			geom = append(geom, coords[nodeID])
		}
		for _, nodeID := range []osm.NodeID{piece[0], piece[len(piece)-1]} {
			id := NodeID(strconv.FormatInt(int64(nodeID), 10))
			if _, ok := net.Node(id); ok {
				continue
			}
			if err := net.AddNode(&Node{ID: id, Coord: transformer.Transform(coords[nodeID])}); err != nil {
				return false, err
			}
		}
		source := NodeID(strconv.FormatInt(int64(piece[0]), 10))
		target := NodeID(strconv.FormatInt(int64(piece[len(piece)-1]), 10))
		base := &Link{
			Length:    geo.LengthHaversign(geom),
			FreeSpeed: speed / 3.6,
			Capacity:  defaultCapacityByLinkType[way.linkType] * lanes,
			Lanes:     lanes,
			Modes:     way.modes,
		}
		if !way.oneway || !way.reversed {
			forward := *base
			forward.ID = LinkID(fmt.Sprintf("%d_%d", way.ID, segment))
			forward.From, forward.To = source, target
			forward.XMLAttrs = wayXMLAttrs(way)
			if err := net.AddLink(&forward); err != nil {
				return false, err
			}
		}
		if !way.oneway || way.reversed {
			backward := *base
			backward.ID = LinkID(fmt.Sprintf("%d_%d_r", way.ID, segment))
			backward.From, backward.To = target, source
			backward.XMLAttrs = wayXMLAttrs(way)
			if err := net.AddLink(&backward); err != nil {
				return false, err
			}
		}
		segment++
	}
	return true, nil
}

// wayXMLAttrs returns source way identifier and its road category as link XML attributes
func wayXMLAttrs(way *wayData) map[string]string {
	return map[string]string{
		"origid": strconv.FormatInt(int64(way.ID), 10),
		"type":   way.linkType.String(),
	}
}
