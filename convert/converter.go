// Package convert runs whole conversions: it loads a road network graph,
// emits its entities into a fresh statement store, writes the output file and
// optionally publishes the entities.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/roadgraph/config"
	"github.com/c360studio/roadgraph/emit"
	"github.com/c360studio/roadgraph/export"
	"github.com/c360studio/roadgraph/graph"
	"github.com/c360studio/roadgraph/roadnet"
	"github.com/c360studio/roadgraph/vocabulary/road"
)

// Result describes one conversion run.
type Result struct {
	RunID  string
	Input  string
	Output string

	Stats          emit.Stats
	UndeclaredRefs int
	Published      int
	Duration       time.Duration
}

// Converter converts GraphML road networks to RDF. Runs are sequential; a
// Converter must not be used from several goroutines at once.
type Converter struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *Metrics
	serializer *export.Serializer
	publisher  graph.Publisher
}

// New creates a converter for a validated configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	serializer, err := export.NewSerializer(format, road.Prefixes())
	if err != nil {
		return nil, err
	}

	return &Converter{
		cfg:        cfg,
		logger:     logger,
		metrics:    NewMetrics(),
		serializer: serializer,
	}, nil
}

// SetPublisher enables publishing of converted entities. nil disables it.
func (c *Converter) SetPublisher(pub graph.Publisher) {
	c.publisher = pub
}

// Metrics returns the converter's metrics.
func (c *Converter) Metrics() *Metrics {
	return c.metrics
}

// Targets resolves the configured input into input/output pairs.
func (c *Converter) Targets() ([]Target, error) {
	inputs, err := ResolveInputs(c.cfg.Input)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, len(inputs))
	for i, in := range inputs {
		targets[i] = c.TargetFor(in)
	}
	return targets, nil
}

// TargetFor returns the target of one input file.
func (c *Converter) TargetFor(input string) Target {
	return Target{
		Input:  input,
		Output: OutputFor(c.cfg.Input, input, c.cfg.Output, c.serializer.Format()),
	}
}

// ConvertAll converts every configured input in order. It stops at the first
// failure and returns the results of the runs that completed.
func (c *Converter) ConvertAll(ctx context.Context) ([]*Result, error) {
	targets, err := c.Targets()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := c.Convert(ctx, t.Input, t.Output)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Convert runs one conversion from input to output. Every run starts from an
// empty store, so repeated runs never accumulate statements.
func (c *Converter) Convert(ctx context.Context, input, output string) (res *Result, err error) {
	res = &Result{RunID: uuid.NewString(), Input: input, Output: output}
	logger := c.logger.With("run_id", res.RunID)
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		c.metrics.observe(res.Stats, res.Published, res.Duration, err)
		c.writeMetrics(logger)
		if err != nil {
			logger.Error("Conversion failed", "input", input, "error", err)
		}
	}()

	logger.Info("Converting road network", "input", input, "output", output)

	store, err := c.build(ctx, logger, res)
	if err != nil {
		return res, err
	}

	if err := c.serializer.WriteFile(output, store); err != nil {
		return res, fmt.Errorf("write %s: %w", output, err)
	}

	if c.publisher != nil {
		sent, err := graph.PublishStore(ctx, c.publisher, c.cfg.NATS.Subject, store)
		res.Published = sent
		if err != nil {
			return res, fmt.Errorf("publish entities: %w", err)
		}
	}

	logger.Info("Conversion complete",
		"output", output,
		"statements", store.Len(),
		"nodes", res.Stats.Nodes,
		"roads", res.Stats.Roads,
		"road_elements", res.Stats.RoadElements,
		"skipped_nodes", res.Stats.SkippedNodes,
		"skipped_edges", res.Stats.SkippedEdges,
		"published", res.Published,
		"duration", time.Since(start))

	return res, nil
}

// Check loads input and runs the emitter without writing any output. It
// reports the same statistics and policy failures a conversion would.
func (c *Converter) Check(ctx context.Context, input string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Input: input}
	logger := c.logger.With("run_id", res.RunID)
	start := time.Now()

	_, err := c.build(ctx, logger, res)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	logger.Info("Check complete",
		"input", input,
		"nodes", res.Stats.Nodes,
		"road_elements", res.Stats.RoadElements,
		"undeclared_refs", res.UndeclaredRefs,
		"missing_points", res.Stats.MissingPoints,
		"missing_lines", res.Stats.MissingLines,
		"missing_upstream_ids", res.Stats.MissingUpstreamIDs,
		"invalid_shapes", res.Stats.InvalidShapes)
	return res, nil
}

func (c *Converter) build(ctx context.Context, logger *slog.Logger, res *Result) (*export.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := roadnet.LoadGraphML(res.Input)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	logger.Debug("Loaded graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	refs := g.DanglingRefs()
	for _, ref := range refs {
		logger.Warn("Edge endpoint is not a declared node",
			"edge", ref.Edge.String(),
			"end", ref.End,
			"node", ref.NodeID)
	}
	res.UndeclaredRefs = len(refs)

	opts := c.cfg.EmitOptions()
	opts.Logger = logger

	store := export.NewStore()
	stats, err := emit.New(store, opts).Run(g)
	res.Stats = stats
	if err != nil {
		return nil, fmt.Errorf("emit entities: %w", err)
	}
	return store, nil
}

func (c *Converter) writeMetrics(logger *slog.Logger) {
	path := c.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := c.metrics.WriteTextfile(path); err != nil {
		logger.Warn("Failed to write metrics", "path", path, "error", err)
	}
}
