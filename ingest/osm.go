// Package ingest reads OpenStreetMap data and turns it into the raw way and
// node records the builder consumes. Only ways tagged as highways are kept,
// their road class, one-way rule and mode applicability are derived from the
// usual OSM tags.
package ingest

import (
	"context"
	"os"
	"strings"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"tobmap/builder"
	"tobmap/graph"
)

// highwayClass maps an OSM highway value onto a road priority and the modes
// the way is applicable to. Classes missing here get the residential
// defaults.
type highwayClass struct {
	priority uint8
	modes    graph.ModeSet
}

var highwayClasses = map[string]highwayClass{
	"motorway":       {10, graph.NewModeSet(graph.ModeCar, graph.ModeTransit)},
	"motorway_link":  {10, graph.NewModeSet(graph.ModeCar, graph.ModeTransit)},
	"trunk":          {9, graph.NewModeSet(graph.ModeCar, graph.ModeTransit)},
	"trunk_link":     {9, graph.NewModeSet(graph.ModeCar, graph.ModeTransit)},
	"primary":        {8, graph.AllModes},
	"primary_link":   {8, graph.AllModes},
	"secondary":      {7, graph.AllModes},
	"secondary_link": {7, graph.AllModes},
	"tertiary":       {6, graph.AllModes},
	"tertiary_link":  {6, graph.AllModes},
	"residential":    {5, graph.AllModes},
	"unclassified":   {5, graph.AllModes},
	"service":        {4, graph.AllModes},
	"living_street":  {3, graph.AllModes},
	"pedestrian":     {2, graph.NewModeSet(graph.ModeBike, graph.ModeWalk)},
	"cycleway":       {2, graph.NewModeSet(graph.ModeBike, graph.ModeWalk)},
	"footway":        {1, graph.NewModeSet(graph.ModeBike, graph.ModeWalk)},
	"path":           {1, graph.NewModeSet(graph.ModeBike, graph.ModeWalk)},
	"steps":          {1, graph.NewModeSet(graph.ModeWalk)},
}

// ReadOSM scans an .osm or .osm.pbf file and returns the node and way
// records of its street network.
func ReadOSM(inputFile string) ([]builder.NodeRecord, []builder.WayRecord, error) {
	file, scanner, err := getScanner(inputFile)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	defer scanner.Close()

	sigolo.Infof("Start reading OSM data from %s", inputFile)

	var nodes []builder.NodeRecord
	var ways []builder.WayRecord

	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			nodes = append(nodes, builder.NodeRecord{
				ID:      int64(osmObj.ID),
				Point:   orb.Point{osmObj.Lon, osmObj.Lat},
				Control: controlFromTags(osmObj.Tags),
			})
		case *osm.Way:
			highway := osmObj.Tags.Find("highway")
			if highway == "" {
				continue
			}

			class, ok := highwayClasses[highway]
			if !ok {
				class = highwayClasses["residential"]
			}

			way := builder.WayRecord{
				ID:       int64(osmObj.ID),
				Priority: class.priority,
				Modes:    class.modes,
				OneWay:   osmObj.Tags.Find("oneway") == "yes",
			}
			if name := osmObj.Tags.Find("name"); name != "" {
				way.Names = append(way.Names, name)
			}
			for _, wayNode := range osmObj.Nodes {
				way.NodeIDs = append(way.NodeIDs, int64(wayNode.ID))
			}

			ways = append(ways, way)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "Error scanning input file %s", inputFile)
	}

	sigolo.Infof("Read %d nodes and %d highway ways", len(nodes), len(ways))
	return nodes, ways, nil
}

func getScanner(inputFile string) (*os.File, osm.Scanner, error) {
	if !strings.HasSuffix(inputFile, ".osm") && !strings.HasSuffix(inputFile, ".pbf") {
		return nil, nil, errors.Errorf("Input file %s must be an .osm or .pbf file", inputFile)
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to open input file %s", inputFile)
	}

	var scanner osm.Scanner
	if strings.HasSuffix(inputFile, ".osm") {
		scanner = osmxml.New(context.Background(), f)
	} else {
		scanner = osmpbf.New(context.Background(), f, 1)
	}
	return f, scanner, nil
}

func controlFromTags(tags osm.Tags) graph.Interaction {
	switch tags.Find("highway") {
	case "traffic_signals":
		return graph.InteractionTrafficLight
	case "stop":
		return graph.InteractionStopSign
	case "give_way":
		return graph.InteractionYield
	default:
		return graph.InteractionNone
	}
}
