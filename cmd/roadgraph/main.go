// Package main provides the roadgraph binary entry point.
// Roadgraph converts road network graphs (GraphML) into RDF using the
// OpenTransportNet and GeoSPARQL vocabularies.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/roadgraph/config"
	"github.com/c360studio/roadgraph/convert"
	"github.com/c360studio/roadgraph/graph"
	"github.com/c360studio/roadgraph/watch"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "roadgraph"

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the command line settings. Only flags set explicitly override
// the loaded configuration.
type flags struct {
	configPath      string
	logLevel        string
	input           string
	output          string
	format          string
	missingData     string
	danglingRefs    string
	linkUpstream    bool
	watch           bool
	metricsTextfile string
	natsURL         string
}

func rootCmd() *cobra.Command {
	var f flags
	var logger *slog.Logger

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Convert road network graphs to RDF",
		Long: `Roadgraph reads a road network graph in GraphML and writes it as RDF.

Nodes become OTN nodes with a GeoSPARQL point geometry. Edges become road
elements with a line geometry, grouped into roads by their upstream ids and
linked to the nodes they start and end at.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), f.logLevel)
			slog.SetDefault(logger)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f, logger)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cfg, logger)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVarP(&f.input, "input", "i", "", "Input GraphML file or glob (default graph.graphml)")
	pf.StringVarP(&f.output, "output", "o", "", "Output file, or directory for a glob input (default output.ttl)")
	pf.StringVarP(&f.format, "format", "f", "", "Output format (turtle, ntriples)")
	pf.StringVar(&f.missingData, "missing-data", "", "Policy for incomplete nodes and edges (omit, skip, fail)")
	pf.StringVar(&f.danglingRefs, "dangling-refs", "", "Policy for edges referencing missing nodes (allow, skip, fail)")
	pf.BoolVar(&f.linkUpstream, "link-upstream", false, "Link roads and nodes to their OpenStreetMap objects")
	pf.StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each run")
	pf.StringVar(&f.natsURL, "nats-url", "", "Publish converted entities to this NATS server")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-run the conversion when the input changes")

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the input graph without writing output",
		Long: `Check loads the input graph, reports undeclared edge endpoints and
incomplete nodes and edges, and applies the configured policies exactly
as a conversion would. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f, logger)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, logger)
		},
	})

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers the command line over the loaded configuration.
func loadConfig(cmd *cobra.Command, f *flags, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).LoadUnvalidated(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input = f.input
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("missing-data") {
		cfg.Policy.MissingData = f.missingData
	}
	if changed("dangling-refs") {
		cfg.Policy.DanglingRefs = f.danglingRefs
	}
	if changed("link-upstream") {
		cfg.LinkUpstream = f.linkUpstream
	}
	if changed("watch") {
		cfg.Watch.Enabled = f.watch
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.metricsTextfile
	}
	if changed("nats-url") {
		cfg.NATS.URL = f.natsURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	conv, err := convert.New(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.NATS.URL != "" {
		logger.Info("Connecting to NATS", "url", cfg.NATS.URL)
		conn, err := graph.Connect(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer func() {
			_ = conn.Drain()
			conn.Close()
		}()
		conv.SetPublisher(conn)
	}

	results, err := conv.ConvertAll(signalCtx)
	for _, res := range results {
		fmt.Fprintf(out, "%s -> %s (%d statements)\n", res.Input, res.Output, res.Stats.Statements)
	}
	if !cfg.Watch.Enabled {
		return err
	}
	if err != nil {
		logger.Error("Initial conversion failed, watching for changes", "error", err)
	}
	return watchInputs(signalCtx, out, conv, cfg, logger)
}

// watchInputs converts each changed input again until ctx is done. Failed
// runs are logged and watching continues.
func watchInputs(ctx context.Context, out io.Writer, conv *convert.Converter, cfg *config.Config, logger *slog.Logger) error {
	w, err := watch.New(watch.Config{
		Root:     convert.WatchRoot(cfg.Input),
		Match:    func(path string) bool { return convert.MatchInput(cfg.Input, path) },
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Received shutdown signal")
			return nil
		case batch, ok := <-w.Changes():
			if !ok {
				return nil
			}
			for _, path := range batch {
				t := conv.TargetFor(path)
				res, err := conv.Convert(ctx, t.Input, t.Output)
				if err != nil {
					continue
				}
				fmt.Fprintf(out, "%s -> %s (%d statements)\n", res.Input, res.Output, res.Stats.Statements)
			}
		}
	}
}

func runCheck(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conv, err := convert.New(cfg, logger)
	if err != nil {
		return err
	}
	targets, err := conv.Targets()
	if err != nil {
		return err
	}

	for _, t := range targets {
		res, err := conv.Check(ctx, t.Input)
		if err != nil {
			return fmt.Errorf("check %s: %w", t.Input, err)
		}
		s := res.Stats
		fmt.Fprintf(out, "%s: %d nodes, %d roads, %d road elements; %d undeclared refs, %d nodes without coordinates, %d edges without geometry, %d edges without upstream id, %d invalid shapes\n",
			t.Input, s.Nodes, s.Roads, s.RoadElements, res.UndeclaredRefs,
			s.MissingPoints, s.MissingLines, s.MissingUpstreamIDs, s.InvalidShapes)
	}
	return nil
}
