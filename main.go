package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"

	"tobmap/builder"
	"tobmap/graph"
	"tobmap/ingest"
	"tobmap/storage"
	"tobmap/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Output  string      `help:"Folder containing the graph and snap index files." short:"o" default:"tobmap-data"`
	Import  struct {
		Input string `help:"The input file. Either .osm or .osm.pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
	} `cmd:"" help:"Builds the graph and snap index from the given OSM file."`
	Snap struct {
		Lat float64 `help:"Latitude of the query point." arg:""`
		Lng float64 `help:"Longitude of the query point." arg:""`
	} `cmd:"" help:"Snaps the given coordinate to the nearest edge."`
	Route struct {
		StartEdge uint32 `help:"Index of the start edge." arg:""`
		EndEdge   uint32 `help:"Index of the end edge." arg:""`
		Mode      string `help:"Travel mode." enum:"car,bike,walk,transit" arg:""`
		MaxNodes  int    `help:"Abort after visiting this many nodes (0 = unbounded)." default:"0"`
	} `cmd:"" help:"Computes the least-cost path between two edges."`
	Serve struct {
		Port string `help:"Port to listen on." default:"8080"`
	} `cmd:"" help:"Starts the snap/route query server."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("tobmap"),
		kong.Description("A street network graph with nearest-edge snapping and least-cost routing."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	graphFile := path.Join(cli.Output, storage.GraphFileName)
	snapFile := path.Join(cli.Output, storage.SnapIndexFileName)

	switch ctx.Command() {
	case "import <input>":
		importOsmFile(cli.Import.Input, graphFile, snapFile)
	case "snap <lat> <lng>":
		snapshot, err := web.LoadSnapshot(graphFile, snapFile)
		sigolo.FatalCheck(err)

		edge, ok := snapshot.Index.Snap(cli.Snap.Lat, cli.Snap.Lng)
		if !ok {
			sigolo.Infof("No edge near (%f, %f)", cli.Snap.Lat, cli.Snap.Lng)
			return
		}
		sigolo.Infof("Nearest edge: %d", edge)
	case "route <start-edge> <end-edge> <mode>":
		snapshot, err := web.LoadSnapshot(graphFile, snapFile)
		sigolo.FatalCheck(err)

		mode, err := graph.ParseMode(cli.Route.Mode)
		sigolo.FatalCheck(err)

		result, err := snapshot.Planner.Route(cli.Route.StartEdge, cli.Route.EndEdge, mode, cli.Route.MaxNodes)
		sigolo.FatalCheck(err)

		sigolo.Infof("Cost: %d", result.Cost)
		sigolo.Infof("Path: %v", result.Path)
	case "serve":
		err := web.StartServer(cli.Serve.Port, graphFile, snapFile)
		sigolo.FatalCheck(err)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func importOsmFile(inputFile string, graphFile string, snapFile string) {
	nodes, ways, err := ingest.ReadOSM(inputFile)
	sigolo.FatalCheck(err)

	g, index, warnings, err := builder.Build(ways, nodes, builder.DefaultOptions(path.Base(inputFile)))
	sigolo.FatalCheck(err)

	for _, warning := range warnings {
		sigolo.Warnf("Build warning: %s", warning)
	}

	err = os.MkdirAll(path.Dir(graphFile), 0755)
	sigolo.FatalCheck(err)
	sigolo.FatalCheck(storage.WriteGraph(g, graphFile))
	sigolo.FatalCheck(storage.WriteSnapIndex(index, snapFile))

	sigolo.Infof("Import finished: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
}
