package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"avdeck/internal/app"
	"avdeck/internal/config"
	"avdeck/internal/deck"
	"avdeck/internal/exporter"
	"avdeck/internal/infrastructure"
	"avdeck/internal/validation"
	"avdeck/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("Deck build failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

// options are the command line flags
type options struct {
	configFile string
	manifest   string
	outDir     string
	ratesFile  string
	formats    string
	policy     string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("deckbuild", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml or $AVDECK_CONFIG)")
	fs.StringVar(&opts.manifest, "manifest", "", "deck manifest (defaults to paths.manifest_file)")
	fs.StringVar(&opts.outDir, "out", "", "output directory (defaults to the reports directory)")
	fs.StringVar(&opts.ratesFile, "rates", "", "offline exchange-rate file (YAML or JSON) instead of the rates endpoint")
	fs.StringVar(&opts.formats, "formats", "csv,json,xlsx", "comma separated export formats")
	fs.StringVar(&opts.policy, "policy", "", "coercion policy override: fail_fast or null_on_error")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.ratesFile != "" {
		cfg.Rates.File = opts.ratesFile
	}
	if opts.policy != "" {
		cfg.Processing.CoercionPolicy = opts.policy
	}
	return cfg, nil
}

// run builds the deck once and exports every dataset
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	formats, err := exporter.ParseFormats(opts.formats)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}

	manifestPath := opts.manifest
	if manifestPath == "" {
		manifestPath = paths.ManifestFile
	}
	m, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = paths.ReportsDir
	}

	if err := validation.NewPreflight(logger).Run(m, outDir); err != nil {
		return err
	}

	builder, err := app.NewDeckBuilder(cfg, paths, providers, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Starting deck build",
		slog.String("deck", m.Name),
		slog.String("manifest", manifestPath),
		slog.String("out", outDir))

	state, err := builder.Build(ctx, m)
	if state != nil {
		printSteps(stdout, state)
	}
	if err != nil {
		return err
	}

	files, err := exporter.NewExporter(paths).Export(outDir, m.Name, state.Tables(), formats)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(stdout, f)
	}

	logger.InfoContext(ctx, "Deck build exported",
		slog.String("build_id", state.ID),
		slog.Int("files", len(files)),
		slog.Int("nulled_cells", state.Nulled()))
	return nil
}

// printSteps writes one line per executed step
func printSteps(w io.Writer, state *deck.BuildState) {
	summary := state.Summary()
	for _, s := range summary.Steps {
		line := fmt.Sprintf("%-24s %-9s %6d rows %6dms", s.ID, s.Status, s.Rows, s.DurationMs)
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Fprintln(w, line)
	}
	if summary.NulledCells > 0 {
		fmt.Fprintf(w, "%d cells nulled by coercion\n", summary.NulledCells)
	}
}
