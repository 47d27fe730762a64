// Package geometry builds WKT point and line literals for road network
// nodes and edges.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"github.com/c360studio/roadgraph/roadnet"
)

// ErrInvalidShape is returned when an edge carries a shape that cannot be used.
var ErrInvalidShape = errors.New("invalid line shape")

// Coordinate is one lon/lat vertex.
type Coordinate struct {
	Lon float64
	Lat float64
}

func (c Coordinate) wkt() string {
	return formatFloat(c.Lon) + " " + formatFloat(c.Lat)
}

// LineString is an ordered vertex sequence.
type LineString []Coordinate

// WKT returns the LINESTRING(...) form of l.
func (l LineString) WKT() string {
	parts := make([]string, len(l))
	for i, c := range l {
		parts[i] = c.wkt()
	}
	return "LINESTRING(" + strings.Join(parts, ", ") + ")"
}

// PointWKT returns POINT(<x> <y>) for a node, using the coordinate text as
// supplied. ok is false when either coordinate is missing, not numeric or
// not finite.
func PointWKT(n *roadnet.Node) (string, bool) {
	lon, _, okX := n.Ordinate(roadnet.AttrX)
	lat, _, okY := n.Ordinate(roadnet.AttrY)
	if !okX || !okY {
		return "", false
	}
	return fmt.Sprintf("POINT(%s %s)", lon, lat), true
}

// LineWKT returns the LINESTRING literal for an edge; see EdgeLine.
func LineWKT(e *roadnet.Edge, source, target *roadnet.Node) (string, bool) {
	line, ok, _ := EdgeLine(e, source, target)
	if !ok {
		return "", false
	}
	return line.WKT(), true
}

// EdgeLine returns the best available line for an edge: its geometry
// attribute when usable, else the straight line between both endpoints.
// ok is false when neither exists. shapeErr reports a geometry attribute that
// was present but rejected; a non-nil shapeErr with ok true means the
// endpoint fallback was used.
func EdgeLine(e *roadnet.Edge, source, target *roadnet.Node) (line LineString, ok bool, shapeErr error) {
	if raw, present := e.Attrs.Get(roadnet.AttrGeometry); present {
		line, shapeErr = shapeFromValue(raw)
		if shapeErr == nil {
			return line, true, nil
		}
	}

	line, ok = endpointLine(source, target)
	return line, ok, shapeErr
}

func endpointLine(source, target *roadnet.Node) (LineString, bool) {
	_, x1, ok1 := source.Ordinate(roadnet.AttrX)
	_, y1, ok2 := source.Ordinate(roadnet.AttrY)
	_, x2, ok3 := target.Ordinate(roadnet.AttrX)
	_, y2, ok4 := target.Ordinate(roadnet.AttrY)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, false
	}
	return LineString{{Lon: x1, Lat: y1}, {Lon: x2, Lat: y2}}, true
}

func shapeFromValue(raw any) (LineString, error) {
	switch v := raw.(type) {
	case LineString:
		return checkVertices(v)
	case [][]float64:
		return fromPositions(v)
	case *geojson.Geometry:
		return fromGeoJSON(v)
	case string:
		text := strings.TrimSpace(v)
		if strings.HasPrefix(text, "{") {
			g, err := geojson.UnmarshalGeometry([]byte(text))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
			}
			return fromGeoJSON(g)
		}
		return ParseLineString(text)
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrInvalidShape, raw)
	}
}

func fromGeoJSON(g *geojson.Geometry) (LineString, error) {
	if g == nil || !g.IsLineString() {
		return nil, fmt.Errorf("%w: geojson geometry is not a LineString", ErrInvalidShape)
	}
	return fromPositions(g.LineString)
}

func fromPositions(positions [][]float64) (LineString, error) {
	line := make(LineString, 0, len(positions))
	for i, p := range positions {
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: position %d has %d ordinates", ErrInvalidShape, i, len(p))
		}
		line = append(line, Coordinate{Lon: p[0], Lat: p[1]})
	}
	return checkVertices(line)
}

// ParseLineString parses the coordinate list of a line shape such as
// "LINESTRING (12.1 45.1, 12.2 45.2)". The list is the text between the
// first "(" and the first ")"; each comma-separated pair must hold exactly
// two numeric tokens, and at least two vertices are required.
func ParseLineString(text string) (LineString, error) {
	start := strings.Index(text, "(")
	end := strings.Index(text, ")")
	if start < 0 || end < 0 || end < start {
		return nil, fmt.Errorf("%w: no parenthesized coordinate list in %q", ErrInvalidShape, text)
	}

	pairs := strings.Split(text[start+1:end], ",")
	line := make(LineString, 0, len(pairs))
	for i, pair := range pairs {
		tokens := strings.Fields(pair)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%w: vertex %d has %d tokens, want 2", ErrInvalidShape, i, len(tokens))
		}
		lon, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d longitude: %v", ErrInvalidShape, i, err)
		}
		lat, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d latitude: %v", ErrInvalidShape, i, err)
		}
		line = append(line, Coordinate{Lon: lon, Lat: lat})
	}
	return checkVertices(line)
}

func checkVertices(line LineString) (LineString, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("%w: %d vertices, want at least 2", ErrInvalidShape, len(line))
	}
	for i, c := range line {
		if !finite(c.Lon) || !finite(c.Lat) {
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidShape, i)
		}
	}
	return line, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
