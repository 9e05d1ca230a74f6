package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dpup/prefab/logging"

	"github.com/dpup/routescore/internal/cache"
	"github.com/dpup/routescore/internal/config"
	"github.com/dpup/routescore/internal/lib/geo"
	"github.com/dpup/routescore/internal/lib/scoring"
	"github.com/dpup/routescore/internal/lib/trace"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "score":
		err = handleScore(args)
	case "batch":
		err = handleBatch(args)
	case "edges":
		err = handleEdges(args)
	case "decode-polyline":
		err = handleDecodePolyline(args)
	case "export-kml":
		err = handleExportKML(args)
	case "print-config":
		err = handlePrintConfig(args)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		log.Fatalf("%s: %v", command, err)
	}
}

// app bundles what every scoring command needs
type app struct {
	ctx    context.Context
	scorer scoring.Scorer
	close  func()
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.NewProdLogger()
	if cfg.Logging.Development {
		logger = logging.NewDevLogger()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = logging.With(ctx, logger)

	scoreCache := cache.NewCache()
	if cfg.Scoring.CleanupInterval > 0 {
		scoreCache.StartPeriodicCleanup(ctx, cfg.Scoring.CleanupInterval)
	}

	scorer, err := scoring.NewScorer(cfg.Scoring, scoreCache)
	if err != nil {
		cancel()
		return nil, err
	}

	logging.Debugw(ctx, "Scorer ready", "mode", cfg.Scoring.Mode, "workers", cfg.Scoring.Workers)

	return &app{
		ctx:    ctx,
		scorer: scorer,
		close:  cancel,
	}, nil
}

func handleScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	reference := fs.String("reference", "", "Reference route: a file or an encoded polyline")
	candidate := fs.String("candidate", "", "Candidate route: a file or an encoded polyline")
	format := fs.String("format", trace.FormatAuto, "Input format for files: auto, polyline, geojson or edges")
	configPath := fs.String("config", "", "Path to a YAML config file")
	asJSON := fs.Bool("json", false, "Print the result as JSON")

	fs.Parse(args)

	if *reference == "" || *candidate == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routescore score --reference \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --candidate trace.geojson")
		os.Exit(1)
	}

	ref, err := resolveRoute(*reference, *format)
	if err != nil {
		return errors.Wrap(err, "reference")
	}
	cand, err := resolveRoute(*candidate, *format)
	if err != nil {
		return errors.Wrap(err, "candidate")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.scorer.Score(a.ctx, cand, ref)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(os.Stdout, result)
	}

	bounds := ref.Bounds()
	fmt.Printf("Route similarity (%s):\n", result.Mode)
	fmt.Printf("  Reference: %d points, bounds (%.6f, %.6f) to (%.6f, %.6f)\n",
		result.ReferencePoints, bounds.Lo().X, bounds.Lo().Y, bounds.Hi().X, bounds.Hi().Y)
	fmt.Printf("  Candidate: %d points\n", result.CandidatePoints)
	fmt.Printf("  Forward:   %.8f\n", result.Forward)
	fmt.Printf("  Backward:  %.8f\n", result.Backward)
	fmt.Printf("  Symmetric: %.8f\n", result.Symmetric)
	fmt.Printf("  Grade:     %s\n", result.Grade)
	return nil
}

func handleBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	reference := fs.String("reference", "", "Reference file; its first route is used")
	candidates := fs.String("candidates", "", "File holding the candidate routes")
	format := fs.String("format", trace.FormatAuto, "Input format: auto, polyline, geojson or edges")
	configPath := fs.String("config", "", "Path to a YAML config file")
	asJSON := fs.Bool("json", false, "Print results as JSON")

	fs.Parse(args)

	if *reference == "" || *candidates == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routescore batch --reference hwy4.geojson --candidates traces.geojson")
		os.Exit(1)
	}

	ref, err := resolveRoute(*reference, *format)
	if err != nil {
		return errors.Wrap(err, "reference")
	}
	routes, err := trace.Load(*candidates, *format)
	if err != nil {
		return errors.Wrap(err, "candidates")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.scorer.ScoreBatch(a.ctx, ref, routes)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(os.Stdout, batchOutput(results))
	}

	fmt.Printf("Scored %d candidates:\n", len(results))
	for _, r := range results {
		printBatchLine(r)
	}
	return nil
}

func handleEdges(args []string) error {
	fs := flag.NewFlagSet("edges", flag.ExitOnError)
	file := fs.String("file", "", "Edge geometry file (edgeID^name^type^length^lat^lon...)")
	candidate := fs.String("candidate", "", "Candidate route: a file or an encoded polyline")
	top := fs.Int("top", 10, "Number of closest edges to print (0 for all)")
	configPath := fs.String("config", "", "Path to a YAML config file")

	fs.Parse(args)

	if *file == "" || *candidate == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routescore edges --file WA_EdgeGeometry.txt --candidate \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --top 5")
		os.Exit(1)
	}

	cand, err := resolveRoute(*candidate, trace.FormatAuto)
	if err != nil {
		return errors.Wrap(err, "candidate")
	}
	edges, err := trace.Load(*file, trace.FormatEdges)
	if err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// Edges take the candidate role so the trace is the shared reference.
	// Symmetric distance does not depend on that choice.
	results, err := a.scorer.ScoreBatch(a.ctx, cand, edges)
	if err != nil {
		return err
	}

	ranked := scoring.Rank(results, *top)
	fmt.Printf("Closest %d of %d edges:\n", len(ranked), len(edges))
	for _, r := range ranked {
		printBatchLine(r)
	}
	return nil
}

func handleDecodePolyline(args []string) error {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string to decode")
	verbose := fs.Bool("verbose", false, "Show all decoded points")

	fs.Parse(args)

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routescore decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --verbose")
		os.Exit(1)
	}

	route, err := trace.DecodePolyline(*polylineStr)
	if err != nil {
		return err
	}

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Points: %d\n", route.Size())
	fmt.Printf("  Length: %.6f (planar)\n", route.Length())

	points := route.Points()
	if *verbose || len(points) <= 10 {
		for i, p := range points {
			fmt.Printf("    %d: (%.6f, %.6f)\n", i, p.X, p.Y)
		}
	} else {
		fmt.Printf("  First: (%.6f, %.6f)\n", points[0].X, points[0].Y)
		fmt.Printf("  Last:  (%.6f, %.6f)\n", points[len(points)-1].X, points[len(points)-1].Y)
		fmt.Println("  (use --verbose to show all points)")
	}
	return nil
}

func handleExportKML(args []string) error {
	fs := flag.NewFlagSet("export-kml", flag.ExitOnError)
	input := fs.String("input", "", "Routes to export")
	output := fs.String("output", "-", "KML output path, - for stdout")
	format := fs.String("format", trace.FormatAuto, "Input format: auto, polyline, geojson or edges")
	title := fs.String("title", "Routes", "KML document name")

	fs.Parse(args)

	if *input == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routescore export-kml --input traces.geojson --output traces.kml")
		os.Exit(1)
	}

	routes, err := trace.Load(*input, *format)
	if err != nil {
		return err
	}

	if *output == "-" {
		return trace.WriteKML(os.Stdout, *title, routes...)
	}

	f, err := os.Create(*output)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", *output)
	}
	if err := trace.WriteKML(f, *title, routes...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d routes to %s\n", len(routes), *output)
	return nil
}

func handlePrintConfig(args []string) error {
	fs := flag.NewFlagSet("print-config", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")

	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// resolveRoute treats arg as a file when one exists at that path and
// otherwise as an encoded polyline. Files yield their first route.
func resolveRoute(arg, format string) (geo.Route, error) {
	if _, err := os.Stat(arg); err == nil {
		routes, err := trace.Load(arg, format)
		if err != nil {
			return geo.Route{}, err
		}
		if len(routes) == 0 {
			return geo.Route{}, errors.Newf("%s contains no routes", arg)
		}
		return routes[0].Route, nil
	}
	return trace.DecodePolyline(arg)
}

type batchLine struct {
	Name   string          `json:"name"`
	Result *scoring.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func batchOutput(results []scoring.BatchResult) []batchLine {
	lines := make([]batchLine, len(results))
	for i, r := range results {
		lines[i].Name = r.Name
		if r.Err != nil {
			lines[i].Error = r.Err.Error()
			continue
		}
		res := r.Result
		lines[i].Result = &res
	}
	return lines
}

func printBatchLine(r scoring.BatchResult) {
	if r.Err != nil {
		fmt.Printf("  %-24s error: %v\n", r.Name, r.Err)
		return
	}
	fmt.Printf("  %-24s %-8s symmetric=%.8f forward=%.8f backward=%.8f\n",
		r.Name, r.Result.Grade, r.Result.Symmetric, r.Result.Forward, r.Result.Backward)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	usage := []string{
		"routescore - route similarity scoring",
		"",
		"Usage: routescore <command> [flags]",
		"",
		"Commands:",
		"  score            Score one candidate route against a reference",
		"  batch            Score every route in a file against a reference",
		"  edges            Find the road network edges closest to a candidate",
		"  decode-polyline  Decode an encoded polyline",
		"  export-kml       Convert routes to KML",
		"  print-config     Print the effective configuration as YAML",
		"  help             Show this help",
		"",
		"Routes are read from .geojson, .edges or polyline files, or given inline as encoded polylines.",
		"Configuration comes from --config and ROUTESCORE__SECTION__KEY environment variables.",
	}
	fmt.Println(strings.Join(usage, "\n"))
}
