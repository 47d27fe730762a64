// Package roadid derives road and road element identifiers from the
// upstream ids attached to graph edges.
package roadid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/osm"

	"github.com/c360studio/roadgraph/roadnet"
)

var idCleaner = strings.NewReplacer(" ", "", "[", "", "]", "")

// UpstreamIDs normalizes an upstream id attribute to a list of strings.
// A string is split on ","; a list contributes its elements; any other
// value is a single id. nil yields an empty list.
func UpstreamIDs(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return strings.Split(v, ",")
	case []string:
		return v
	case []int64:
		ids := make([]string, len(v))
		for i, id := range v {
			ids[i] = strconv.FormatInt(id, 10)
		}
		return ids
	case []osm.WayID:
		ids := make([]string, len(v))
		for i, id := range v {
			ids[i] = strconv.FormatInt(int64(id), 10)
		}
		return ids
	case []any:
		ids := make([]string, len(v))
		for i, id := range v {
			ids[i] = scalarString(id)
		}
		return ids
	default:
		return []string{scalarString(v)}
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Base joins upstream ids with "_" and strips spaces and brackets left over
// from a stringified list.
func Base(ids []string) string {
	return idCleaner.Replace(strings.Join(ids, "_"))
}

// RoadID returns the logical road id of an edge. Edges without an upstream
// id yield "".
func RoadID(e *roadnet.Edge) string {
	raw, _ := e.Attrs.Get(roadnet.AttrOSMID)
	return Base(UpstreamIDs(raw))
}

// HasUpstreamID reports whether the edge carries a non-empty upstream id.
func HasUpstreamID(e *roadnet.Edge) bool {
	return RoadID(e) != ""
}

// Counter tracks how many road elements each road has produced. A Counter
// belongs to a single conversion run and is not safe for concurrent use.
type Counter struct {
	seen map[string]int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{seen: make(map[string]int)}
}

// Next increments and returns the occurrence count for base.
func (c *Counter) Next(base string) int {
	c.seen[base]++
	return c.seen[base]
}

// Count returns the current occurrence count for base.
func (c *Counter) Count(base string) int {
	return c.seen[base]
}

// Len returns the number of distinct bases seen.
func (c *Counter) Len() int {
	return len(c.seen)
}

// RoadElementID returns "<road id>_<n>" where n is the number of edges with
// the same road id processed so far, this one included. It advances c.
func RoadElementID(e *roadnet.Edge, c *Counter) string {
	base := RoadID(e)
	return base + "_" + strconv.Itoa(c.Next(base))
}

// WayIDs returns the upstream ids of an edge that parse as OpenStreetMap
// way ids. Non-numeric ids are left out.
func WayIDs(e *roadnet.Edge) []osm.WayID {
	raw, _ := e.Attrs.Get(roadnet.AttrOSMID)
	var ids []osm.WayID
	for _, s := range UpstreamIDs(raw) {
		n, err := strconv.ParseInt(idCleaner.Replace(s), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, osm.WayID(n))
	}
	return ids
}

// NodeOSMID returns the OpenStreetMap node id carried by a graph node, if any.
func NodeOSMID(n *roadnet.Node) (osm.NodeID, bool) {
	raw, ok := n.Attrs.Get(roadnet.AttrOSMID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idCleaner.Replace(scalarString(raw)), 10, 64)
	if err != nil {
		return 0, false
	}
	return osm.NodeID(id), true
}
