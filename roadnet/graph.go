// Package roadnet provides the in-memory road network graph read from an
// upstream graph file: nodes with coordinate attributes and directed edges
// carrying upstream identifiers and optional line shapes.
package roadnet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Well-known attribute names written by the upstream graph producer.
const (
	AttrX        = "x"
	AttrY        = "y"
	AttrOSMID    = "osmid"
	AttrGeometry = "geometry"
)

// Attributes holds the data values attached to a node or edge.
// Values are strings unless the graph file declared a typed key.
type Attributes map[string]any

// Get returns an attribute value and whether it is present.
func (a Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[key]
	return v, ok && v != nil
}

// Node is a graph vertex.
type Node struct {
	ID    string
	Attrs Attributes
}

// Ordinate returns the lexical text and numeric value of a coordinate
// attribute. ok is false when the attribute is absent, not numeric or not finite.
func (n *Node) Ordinate(key string) (text string, value float64, ok bool) {
	if n == nil {
		return "", 0, false
	}
	raw, present := n.Attrs.Get(key)
	if !present {
		return "", 0, false
	}

	switch v := raw.(type) {
	case float64:
		text, value = strconv.FormatFloat(v, 'f', -1, 64), v
	case float32:
		text, value = strconv.FormatFloat(float64(v), 'f', -1, 32), float64(v)
	case int:
		text, value = strconv.Itoa(v), float64(v)
	case int64:
		text, value = strconv.FormatInt(v, 10), float64(v)
	case string:
		s := strings.TrimSpace(v)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "", 0, false
		}
		text, value = s, f
	default:
		return "", 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", 0, false
	}
	return text, value, true
}

// HasCoordinates reports whether both x and y are present and numeric.
func (n *Node) HasCoordinates() bool {
	_, _, okX := n.Ordinate(AttrX)
	_, _, okY := n.Ordinate(AttrY)
	return okX && okY
}

// Edge is a directed road segment between two node ids.
type Edge struct {
	Source string
	Target string
	// Key distinguishes parallel edges; empty when the file gave none.
	Key   string
	Attrs Attributes
}

// String returns "source->target" for logging.
func (e *Edge) String() string {
	if e.Key != "" {
		return fmt.Sprintf("%s->%s[%s]", e.Source, e.Target, e.Key)
	}
	return e.Source + "->" + e.Target
}

// Graph is a directed multigraph. Nodes keep insertion order.
type Graph struct {
	Directed bool

	nodes []*Node
	index map[string]*Node
	edges []*Edge
}

// New creates an empty directed graph.
func New() *Graph {
	return &Graph{
		Directed: true,
		index:    make(map[string]*Node),
	}
}

// AddNode adds a node, or merges attrs into an existing node with the same id.
func (g *Graph) AddNode(id string, attrs Attributes) *Node {
	if n, ok := g.index[id]; ok {
		for k, v := range attrs {
			n.Attrs[k] = v
		}
		return n
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	n := &Node{ID: id, Attrs: attrs}
	g.nodes = append(g.nodes, n)
	g.index[id] = n
	return n
}

// AddEdge adds an edge. Endpoints are not required to exist; see DanglingRefs.
func (g *Graph) AddEdge(source, target string, attrs Attributes) *Edge {
	if attrs == nil {
		attrs = Attributes{}
	}
	e := &Edge{Source: source, Target: target, Attrs: attrs}
	g.edges = append(g.edges, e)
	return e
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edges returns the edges in iteration order: grouped by source node in node
// order, then by target in the order the (source, target) pair first
// appeared, parallel edges in insertion order. Edges whose source is not a
// declared node follow at the end in insertion order.
func (g *Graph) Edges() []*Edge {
	type bucket struct {
		targets []string
		byTgt   map[string][]*Edge
	}
	buckets := make(map[string]*bucket, len(g.nodes))
	var orphans []*Edge

	for _, e := range g.edges {
		if _, ok := g.index[e.Source]; !ok {
			orphans = append(orphans, e)
			continue
		}
		b := buckets[e.Source]
		if b == nil {
			b = &bucket{byTgt: make(map[string][]*Edge)}
			buckets[e.Source] = b
		}
		if _, seen := b.byTgt[e.Target]; !seen {
			b.targets = append(b.targets, e.Target)
		}
		b.byTgt[e.Target] = append(b.byTgt[e.Target], e)
	}

	ordered := make([]*Edge, 0, len(g.edges))
	for _, n := range g.nodes {
		b := buckets[n.ID]
		if b == nil {
			continue
		}
		for _, tgt := range b.targets {
			ordered = append(ordered, b.byTgt[tgt]...)
		}
	}
	return append(ordered, orphans...)
}

// DanglingRef is an edge endpoint that names no declared node.
type DanglingRef struct {
	Edge   *Edge
	NodeID string
	// End is "source" or "target".
	End string
}

// DanglingRefs returns every edge endpoint that is not a declared node,
// in edge iteration order.
func (g *Graph) DanglingRefs() []DanglingRef {
	var refs []DanglingRef
	for _, e := range g.Edges() {
		if _, ok := g.index[e.Source]; !ok {
			refs = append(refs, DanglingRef{Edge: e, NodeID: e.Source, End: "source"})
		}
		if _, ok := g.index[e.Target]; !ok {
			refs = append(refs, DanglingRef{Edge: e, NodeID: e.Target, End: "target"})
		}
	}
	return refs
}
