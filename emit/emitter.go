// Package emit maps a road network graph onto OTN / GeoSPARQL entities and
// relationships, writing every statement into a sink.
package emit

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knakk/rdf"
	"github.com/paulmach/osm"

	"github.com/c360studio/roadgraph/geometry"
	"github.com/c360studio/roadgraph/roadid"
	"github.com/c360studio/roadgraph/roadnet"
	"github.com/c360studio/roadgraph/vocabulary/road"
)

// Sink receives statements. Add reports whether the statement was new.
type Sink interface {
	Add(t rdf.Triple) bool
}

// Options configures an Emitter.
type Options struct {
	MissingData  MissingDataPolicy
	DanglingRefs DanglingRefPolicy

	// LinkUpstream adds rdfs:seeAlso links to OpenStreetMap ways and nodes.
	LinkUpstream bool

	Logger *slog.Logger
}

// Stats summarizes one emission run.
type Stats struct {
	Nodes        int
	Roads        int
	RoadElements int

	// Statements counts statements new to the sink; Duplicates counts the rest.
	Statements int
	Duplicates int

	SkippedNodes int
	SkippedEdges int

	MissingPoints      int
	MissingLines       int
	MissingUpstreamIDs int
	InvalidShapes      int
	DanglingRefs       int
}

// Emitter converts nodes and edges into statements. An Emitter holds the
// road element counter and the set of emitted nodes for one conversion run;
// use a new Emitter per run.
type Emitter struct {
	sink   Sink
	opts   Options
	logger *slog.Logger

	counter *roadid.Counter
	emitted map[string]bool
	roads   map[string]bool
	stats   Stats
}

// New creates an Emitter writing into sink.
func New(sink Sink, opts Options) *Emitter {
	if opts.MissingData == "" {
		opts.MissingData = MissingOmit
	}
	if opts.DanglingRefs == "" {
		opts.DanglingRefs = DanglingAllow
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		sink:    sink,
		opts:    opts,
		logger:  logger,
		counter: roadid.NewCounter(),
		emitted: make(map[string]bool),
		roads:   make(map[string]bool),
	}
}

// Stats returns the counters accumulated so far.
func (e *Emitter) Stats() Stats {
	return e.stats
}

// Run emits every node, then every edge, in graph iteration order.
func (e *Emitter) Run(g *roadnet.Graph) (Stats, error) {
	for _, n := range g.Nodes() {
		if err := e.EmitNode(n); err != nil {
			return e.stats, err
		}
	}

	for _, edge := range g.Edges() {
		source, _ := g.Node(edge.Source)
		target, _ := g.Node(edge.Target)
		if err := e.EmitEdge(edge, source, target); err != nil {
			return e.stats, err
		}
	}

	return e.stats, nil
}

// EmitNode emits a node entity and its point geometry.
func (e *Emitter) EmitNode(n *roadnet.Node) error {
	wkt, hasPoint := geometry.PointWKT(n)
	if !hasPoint {
		e.stats.MissingPoints++
		switch e.opts.MissingData {
		case MissingFail:
			return fmt.Errorf("node %q: %w: missing or non-numeric x/y", n.ID, ErrIncompleteNode)
		case MissingSkip:
			e.stats.SkippedNodes++
			e.logger.Warn("Skipping node without coordinates", "node", n.ID)
			return nil
		default:
			e.logger.Warn("Node has no coordinates, omitting WKT", "node", n.ID)
		}
	}

	nodeIRI := road.NodeIRI(n.ID)
	geomIRI := road.GeometryIRI(n.ID)

	b := &batch{}
	b.link(nodeIRI, road.PropType, road.ClassNode)
	b.link(nodeIRI, road.PropType, road.ClassExtNode)
	b.link(road.ClassExtNode, road.PropSubClassOf, road.ClassNode)
	b.link(geomIRI, road.PropType, road.ClassPoint)
	b.link(road.ClassPoint, road.PropSubClassOf, road.ClassGeometry)
	if hasPoint {
		b.wkt(geomIRI, wkt)
	}
	b.link(nodeIRI, road.PropHasGeometry, geomIRI)

	if e.opts.LinkUpstream {
		if id, ok := roadid.NodeOSMID(n); ok {
			b.link(nodeIRI, road.PropSeeAlso, road.UpstreamIRI(string(osm.TypeNode), int64(id)))
		}
	}

	if err := e.commit(b); err != nil {
		return fmt.Errorf("node %q: %w", n.ID, err)
	}
	e.emitted[n.ID] = true
	e.stats.Nodes++
	return nil
}

// EmitEdge emits a road element, its line geometry, its road and the
// topology links to the endpoint nodes. source and target may be nil when the
// endpoints are not part of the graph.
func (e *Emitter) EmitEdge(edge *roadnet.Edge, source, target *roadnet.Node) error {
	var dangling []string
	if !e.emitted[edge.Source] {
		dangling = append(dangling, "source "+edge.Source)
	}
	if !e.emitted[edge.Target] {
		dangling = append(dangling, "target "+edge.Target)
	}
	if len(dangling) > 0 {
		e.stats.DanglingRefs += len(dangling)
		switch e.opts.DanglingRefs {
		case DanglingFail:
			return fmt.Errorf("edge %s: %w: %s", edge, ErrDanglingReference, strings.Join(dangling, ", "))
		case DanglingSkip:
			e.stats.SkippedEdges++
			e.logger.Warn("Skipping edge with dangling node reference",
				"edge", edge.String(),
				"refs", strings.Join(dangling, ", "))
			return nil
		default:
			e.logger.Debug("Edge references node that was not emitted",
				"edge", edge.String(),
				"refs", strings.Join(dangling, ", "))
		}
	}

	line, hasLine, shapeErr := geometry.EdgeLine(edge, source, target)
	if shapeErr != nil {
		e.stats.InvalidShapes++
		e.logger.Warn("Unusable edge shape, falling back to endpoints",
			"edge", edge.String(),
			"error", shapeErr)
	}

	var missing []string
	if !hasLine {
		e.stats.MissingLines++
		missing = append(missing, "geometry")
	}
	if !roadid.HasUpstreamID(edge) {
		e.stats.MissingUpstreamIDs++
		missing = append(missing, "upstream id")
	}
	if len(missing) > 0 {
		switch e.opts.MissingData {
		case MissingFail:
			return fmt.Errorf("edge %s: %w: missing %s", edge, ErrIncompleteEdge, strings.Join(missing, ", "))
		case MissingSkip:
			e.stats.SkippedEdges++
			e.logger.Warn("Skipping incomplete edge",
				"edge", edge.String(),
				"missing", strings.Join(missing, ", "))
			return nil
		default:
			e.logger.Warn("Edge is incomplete",
				"edge", edge.String(),
				"missing", strings.Join(missing, ", "))
		}
	}

	elementID := roadid.RoadElementID(edge, e.counter)
	roadID := roadid.RoadID(edge)

	elementIRI := road.RoadElementIRI(elementID)
	roadIRI := road.RoadIRI(roadID)
	geomIRI := road.GeometryIRI(elementID)

	b := &batch{}
	b.link(geomIRI, road.PropType, road.ClassLineString)
	b.link(road.ClassLineString, road.PropSubClassOf, road.ClassGeometry)
	if hasLine {
		b.wkt(geomIRI, line.WKT())
	}
	b.link(elementIRI, road.PropHasGeometry, geomIRI)
	b.link(roadIRI, road.PropType, road.ClassRoad)
	b.link(elementIRI, road.PropType, road.ClassRoadElement)
	b.link(roadIRI, road.PropContains, elementIRI)
	b.link(elementIRI, road.PropStartsAt, road.NodeIRI(edge.Source))
	b.link(elementIRI, road.PropEndsAt, road.NodeIRI(edge.Target))

	if e.opts.LinkUpstream {
		for _, way := range roadid.WayIDs(edge) {
			b.link(roadIRI, road.PropSeeAlso, road.UpstreamIRI(string(osm.TypeWay), int64(way)))
		}
	}

	if err := e.commit(b); err != nil {
		return fmt.Errorf("edge %s: %w", edge, err)
	}

	if !e.roads[roadID] {
		e.roads[roadID] = true
		e.stats.Roads++
	}
	e.stats.RoadElements++
	return nil
}

func (e *Emitter) commit(b *batch) error {
	if b.err != nil {
		return b.err
	}
	for _, t := range b.triples {
		if e.sink.Add(t) {
			e.stats.Statements++
		} else {
			e.stats.Duplicates++
		}
	}
	return nil
}

// batch collects the statements of one entity; the first IRI error sticks.
type batch struct {
	triples []rdf.Triple
	err     error
}

func (b *batch) iri(s string) rdf.IRI {
	i, err := rdf.NewIRI(s)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("build IRI %q: %w", s, err)
	}
	return i
}

func (b *batch) link(subject, predicate, object string) {
	b.triples = append(b.triples, rdf.Triple{
		Subj: b.iri(subject),
		Pred: b.iri(predicate),
		Obj:  b.iri(object),
	})
}

func (b *batch) wkt(subject, text string) {
	b.triples = append(b.triples, rdf.Triple{
		Subj: b.iri(subject),
		Pred: b.iri(road.PropAsWKT),
		Obj:  rdf.NewTypedLiteral(text, b.iri(road.DatatypeWKT)),
	})
}
