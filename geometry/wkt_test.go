package geometry

import (
	"math"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/roadgraph/roadnet"
)

func node(id string, x, y any) *roadnet.Node {
	attrs := roadnet.Attributes{}
	if x != nil {
		attrs[roadnet.AttrX] = x
	}
	if y != nil {
		attrs[roadnet.AttrY] = y
	}
	return &roadnet.Node{ID: id, Attrs: attrs}
}

func TestPointWKT(t *testing.T) {
	tests := []struct {
		name   string
		node   *roadnet.Node
		want   string
		wantOK bool
	}{
		{"lexical values preserved", node("a", "12.30", "45.44"), "POINT(12.30 45.44)", true},
		{"typed values", node("b", 1.0, 1.5), "POINT(1 1.5)", true},
		{"origin", node("c", "0", "0"), "POINT(0 0)", true},
		{"missing y", node("d", "12.3", nil), "", false},
		{"missing x", node("e", nil, "45.4"), "", false},
		{"non numeric", node("f", "east", "45.4"), "", false},
		{"not a number", node("g", "NaN", "45.4"), "", false},
		{"infinite", node("h", "12.3", "Inf"), "", false},
		{"typed infinity", node("i", math.Inf(-1), 1.0), "", false},
		{"nil node", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PointWKT(tt.node)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineWKT_FromShape(t *testing.T) {
	e := &roadnet.Edge{Source: "a", Target: "b", Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: "LINESTRING (12.1 45.1, 12.2 45.2)",
	}}

	got, ok := LineWKT(e, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(12.1 45.1, 12.2 45.2)", got)
}

func TestLineWKT_ShapeWinsOverEndpoints(t *testing.T) {
	e := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: "LINESTRING (12.1 45.1, 12.15 45.15, 12.2 45.2)",
	}}

	got, ok := LineWKT(e, node("a", "0", "0"), node("b", "1", "1"))
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(12.1 45.1, 12.15 45.15, 12.2 45.2)", got)
}

func TestLineWKT_FromEndpoints(t *testing.T) {
	e := &roadnet.Edge{Source: "a", Target: "b", Attrs: roadnet.Attributes{}}

	got, ok := LineWKT(e, node("a", "12.30", "45.44"), node("b", "12.31", "45.45"))
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(12.3 45.44, 12.31 45.45)", got)
}

func TestLineWKT_NonFinite(t *testing.T) {
	e := &roadnet.Edge{Attrs: roadnet.Attributes{}}
	_, ok := LineWKT(e, node("a", "NaN", "Inf"), node("b", "1", "2"))
	assert.False(t, ok)

	structured := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: [][]float64{{math.NaN(), 1}, {2, 3}},
	}}
	line, ok, shapeErr := EdgeLine(structured, node("a", "0", "0"), node("b", "1", "1"))
	require.True(t, ok)
	assert.ErrorIs(t, shapeErr, ErrInvalidShape)
	assert.Equal(t, "LINESTRING(0 0, 1 1)", line.WKT())

	shaped := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: "LINESTRING (nan 1, 2 inf)",
	}}
	_, ok = LineWKT(shaped, nil, nil)
	assert.False(t, ok)
}

func TestLineWKT_Absent(t *testing.T) {
	e := &roadnet.Edge{Attrs: roadnet.Attributes{}}

	got, ok := LineWKT(e, node("a", "1", nil), node("b", "1", "1"))
	assert.False(t, ok)
	assert.Empty(t, got)

	_, ok = LineWKT(e, nil, nil)
	assert.False(t, ok)
}

func TestEdgeLine_InvalidShapeFallsBack(t *testing.T) {
	e := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: "LINESTRING (12.1 45.1 3, 12.2 45.2)",
	}}

	line, ok, shapeErr := EdgeLine(e, node("a", "0", "0"), node("b", "1", "1"))
	require.True(t, ok)
	require.Error(t, shapeErr)
	assert.ErrorIs(t, shapeErr, ErrInvalidShape)
	assert.Equal(t, "LINESTRING(0 0, 1 1)", line.WKT())

	_, ok, shapeErr = EdgeLine(e, nil, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, shapeErr, ErrInvalidShape)
}

func TestEdgeLine_GeoJSON(t *testing.T) {
	e := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: `{"type":"LineString","coordinates":[[12.1,45.1],[12.2,45.2]]}`,
	}}

	line, ok, shapeErr := EdgeLine(e, nil, nil)
	require.NoError(t, shapeErr)
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(12.1 45.1, 12.2 45.2)", line.WKT())

	structured := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: geojson.NewLineStringGeometry([][]float64{{1, 2}, {3, 4}}),
	}}
	got, ok := LineWKT(structured, nil, nil)
	require.True(t, ok)
	assert.Equal(t, "LINESTRING(1 2, 3 4)", got)

	point := &roadnet.Edge{Attrs: roadnet.Attributes{
		roadnet.AttrGeometry: `{"type":"Point","coordinates":[12.1,45.1]}`,
	}}
	_, _, shapeErr = EdgeLine(point, nil, nil)
	assert.ErrorIs(t, shapeErr, ErrInvalidShape)
}

func TestParseLineString(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    LineString
		wantErr bool
	}{
		{"shape literal", "LINESTRING (12.1 45.1, 12.2 45.2)", LineString{{12.1, 45.1}, {12.2, 45.2}}, false},
		{"bare pair list", "(12.1 45.1, 12.2 45.2)", LineString{{12.1, 45.1}, {12.2, 45.2}}, false},
		{"tight separators", "LINESTRING(1 2,3 4)", LineString{{1, 2}, {3, 4}}, false},
		{"no parentheses", "LINESTRING 1 2, 3 4", nil, true},
		{"reversed parentheses", ")1 2, 3 4(", nil, true},
		{"single vertex", "LINESTRING (1 2)", nil, true},
		{"empty list", "LINESTRING ()", nil, true},
		{"non numeric", "LINESTRING (a 2, 3 4)", nil, true},
		{"three tokens", "LINESTRING (1 2 3, 4 5 6)", nil, true},
		{"nan ordinate", "LINESTRING (nan 1, 2 3)", nil, true},
		{"infinite ordinate", "LINESTRING (1 2, 3 inf)", nil, true},
		{"signed infinity", "LINESTRING (-Inf 2, 3 4)", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLineString(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
