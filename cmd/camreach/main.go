// Command camreach computes how far a pole-mounted camera can resolve evenly
// spaced ground markings at a given zoom level.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/api"
	"github.com/banshee-data/camreach/internal/batch"
	"github.com/banshee-data/camreach/internal/camera"
	"github.com/banshee-data/camreach/internal/config"
	"github.com/banshee-data/camreach/internal/report"
	"github.com/banshee-data/camreach/internal/store"
	"github.com/banshee-data/camreach/internal/units"
	"github.com/banshee-data/camreach/internal/version"
)

// usageError marks bad flags or arguments; it exits with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, v ...interface{}) error {
	return usageError{fmt.Errorf(format, v...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `camreach - maximum viewing distance for ground markings

Usage: camreach [global flags] <command> [options]

Commands:
  analyze    Reach and tilt for one zoom level
  batch      Reach for a list of zoom levels (table or CSV)
  strip      Render an SVG strip of the projected markings
  serve      Serve the HTTP API
  help       Show this help message

Global Flags:
  -config <file>   Camera configuration (.json, .yaml, .yml)
  -version         Print version and exit

Examples:
  camreach analyze -zoom 5 -gap 10
  camreach batch -zooms 1-25 -gap 10 -format csv -units ft
  camreach strip -zoom 5 -gap 10 -o strip.svg
  camreach -config camera.yaml serve -listen :8080
`)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := flag.NewFlagSet("camreach", flag.ContinueOnError)
	root.SetOutput(stderr)
	root.Usage = func() { printUsage(stderr) }
	configPath := root.String("config", "", "Camera configuration file (.json, .yaml, .yml)")
	showVersion := root.Bool("version", false, "Print version and exit")
	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "camreach %s\n", version.Current())
		return 0
	}
	if root.NArg() < 1 {
		printUsage(stderr)
		return 2
	}

	command := root.Arg(0)
	cmdArgs := root.Args()[1:]
	if command == "help" {
		printUsage(stdout)
		return 0
	}

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		return exitCode(stderr, err)
	}
	analyzer, err := analysis.NewAnalyzer(cfg)
	if err != nil {
		return exitCode(stderr, usageError{err})
	}

	switch command {
	case "analyze":
		err = runAnalyze(analyzer, cmdArgs, stdout, stderr)
	case "batch":
		err = runBatch(analyzer, cmdArgs, stdout, stderr)
	case "strip":
		err = runStrip(analyzer, cmdArgs, stdout, stderr)
	case "serve":
		err = runServe(analyzer, cmdArgs, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}
	return exitCode(stderr, err)
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || analysis.IsUserError(err) {
		return 2
	}
	return 1
}

func loadConfiguration(path string) (camera.Configuration, error) {
	if path == "" {
		return camera.DefaultConfiguration(), nil
	}
	file, err := config.Load(path)
	if err != nil {
		return camera.Configuration{}, usageError{err}
	}
	return file.CameraConfiguration(), nil
}

// requestFlags registers the flags shared by analyze and strip.
func requestFlags(fs *flag.FlagSet) *analysis.Request {
	req := &analysis.Request{}
	fs.Float64Var(&req.ZoomLevel, "zoom", 1, "Zoom level (>= 1)")
	fs.Float64Var(&req.MinPixelGap, "gap", 10, "Minimum pixel gap between adjacent markings")
	fs.Float64Var(&req.CameraHeightMeters, "height", 0, "Camera height in meters (0 uses the configured rig)")
	fs.Float64Var(&req.MarkerGapMeters, "marker-gap", 0, "Marking spacing in meters (0 uses the configured rig)")
	return req
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %v", fs.Args())
	}
	return nil
}

func runAnalyze(a *analysis.Analyzer, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	req := requestFlags(fs)
	asJSON := fs.Bool("json", false, "Print the result record as JSON")
	unit := fs.String("units", units.Meters, "Distance units: "+units.GetValidUnitsString())
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !units.IsValid(*unit) {
		return usagef("invalid units %q, must be one of: %s", *unit, units.GetValidUnitsString())
	}

	res, err := a.Analyze(*req)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Record())
	}
	fmt.Fprintf(stdout, "zoom:          %g (focal length %.1f mm)\n", res.ZoomLevel, res.FocalLengthMM)
	fmt.Fprintf(stdout, "max distance:  %.1f %s (%d markings of %g m)\n",
		units.ConvertDistance(res.DistanceMeters, *unit), *unit, res.LineCount, res.MarkerGapMeters)
	fmt.Fprintf(stdout, "tilt:          %.4f deg (%.6f rad)\n", res.Tilt.Degrees(), res.Tilt.Radians())
	if !res.TiltConverged {
		fmt.Fprintln(stdout, "note:          tilt clamped near level; farthest marking sits above the target row")
	}
	return nil
}

func runBatch(a *analysis.Analyzer, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	zoomList := fs.String("zooms", "1-25", `Zoom list, e.g. "1-5,7" or "1:25:2"`)
	gap := fs.Float64("gap", 10, "Minimum pixel gap between adjacent markings")
	height := fs.Float64("height", 0, "Camera height in meters (0 uses the configured rig)")
	markerGap := fs.Float64("marker-gap", 0, "Marking spacing in meters (0 uses the configured rig)")
	format := fs.String("format", "table", "Output format: table or csv")
	unit := fs.String("units", units.Meters, "Distance units: "+units.GetValidUnitsString())
	workers := fs.Int("workers", 0, "Concurrent analyses (0 uses all CPUs)")
	dbPath := fs.String("db", "", "Save the run to this SQLite database")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *format != "table" && *format != "csv" {
		return usagef("invalid format %q, must be table or csv", *format)
	}
	if !units.IsValid(*unit) {
		return usagef("invalid units %q, must be one of: %s", *unit, units.GetValidUnitsString())
	}
	zooms, err := batch.ParseZoomList(*zoomList)
	if err != nil {
		return usageError{err}
	}

	runner := &batch.Runner{Analyzer: a, Workers: *workers, CameraHeightMeters: *height, MarkerGapMeters: *markerGap}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rows, err := runner.Run(ctx, zooms, *gap)
	if err != nil {
		return err
	}

	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		req := analysis.Request{CameraHeightMeters: *height, MarkerGapMeters: *markerGap}
		saved := store.NewRun(a.ConfigFor(req), *gap, rows)
		if err := st.SaveRun(ctx, saved); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "saved run %s to %s\n", saved.ID, *dbPath)
	}

	if *format == "csv" {
		return report.WriteCSV(stdout, rows, *unit)
	}
	return report.WriteTable(stdout, rows, *unit)
}

func runStrip(a *analysis.Analyzer, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("strip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	req := requestFlags(fs)
	extra := fs.Int("extra", report.DefaultExtraMarkings, "Markings to draw past the reach")
	out := fs.String("o", "strip.svg", "Output SVG path")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := report.ValidateExtra(float64(*extra)); err != nil {
		return usagef("%v", err)
	}

	res, err := a.Analyze(*req)
	if err != nil {
		return err
	}

	opts := report.StripOptions{Extra: *extra}
	if opts.Extra == 0 {
		opts.Extra = -1
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := report.RenderStrip(f, a.ConfigFor(*req), res, 0, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d markings to %.1f m)\n", *out, res.LineCount, res.DistanceMeters)
	return nil
}

func runServe(a *analysis.Analyzer, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen", ":8080", "Listen address")
	dbPath := fs.String("db", "", "Persist batch requests to this SQLite database")
	unit := fs.String("units", units.Meters, "Default chart units: "+units.GetValidUnitsString())
	workers := fs.Int("workers", 0, "Concurrent analyses per batch request (0 uses all CPUs)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !units.IsValid(*unit) {
		return usagef("invalid units %q, must be one of: %s", *unit, units.GetValidUnitsString())
	}

	opts := []api.Option{api.WithUnits(*unit), api.WithWorkers(*workers)}
	if *dbPath != "" {
		st, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, api.WithStore(st))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return api.NewServer(a, opts...).ListenAndServe(ctx, *listen)
}
