package road

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	tests := []struct {
		predicate string
		wantIRI   string
	}{
		{EntityType, PropType},
		{ClassSubClassOf, PropSubClassOf},
		{TopologyContains, PropContains},
		{TopologyStartsAt, PropStartsAt},
		{TopologyEndsAt, PropEndsAt},
		{GeometryHas, PropHasGeometry},
		{GeometryWKT, PropAsWKT},
		{UpstreamSeeAlso, PropSeeAlso},
	}

	for _, tt := range tests {
		t.Run(tt.predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(tt.predicate)
			if meta == nil {
				t.Fatalf("predicate %s not registered", tt.predicate)
			}
			if meta.Description == "" {
				t.Errorf("predicate %s missing description", tt.predicate)
			}
			if meta.StandardIRI != tt.wantIRI {
				t.Errorf("predicate %s: expected IRI %s, got %s", tt.predicate, tt.wantIRI, meta.StandardIRI)
			}

			name, ok := PredicateForIRI(tt.wantIRI)
			if !ok || name != tt.predicate {
				t.Errorf("PredicateForIRI(%s) = %q, %v", tt.wantIRI, name, ok)
			}
		})
	}
}

func TestPredicateForIRIUnknown(t *testing.T) {
	if _, ok := PredicateForIRI("http://example.org/unknown"); ok {
		t.Error("unknown IRI should not resolve")
	}
}

func TestEntityIRIs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"node", NodeIRI("42"), "https://www.extract-project.eu/ontology#Node/42"},
		{"node geometry", GeometryIRI("42"), "http://www.opengis.net/ont/geosparql#Geometry/42"},
		{"road", RoadIRI("123_456"), "http://www.pms.ifi.uni-muenchen.de/OTN#Road/123_456"},
		{"road element", RoadElementIRI("123_456_2"), "http://www.pms.ifi.uni-muenchen.de/OTN#Road_Element/123_456_2"},
		{"upstream way", UpstreamIRI("way", 7), "http://openstreetmap.org/way/7"},
		{"escaped id", NodeIRI("a b"), "https://www.extract-project.eu/ontology#Node/a%20b"},
		{"degenerate element", RoadElementIRI("_1"), "http://www.pms.ifi.uni-muenchen.de/OTN#Road_Element/_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestPrefixesContainBoundNamespaces(t *testing.T) {
	prefixes := Prefixes()
	for prefix, iri := range map[string]string{"otn": OTN, "geo": GEO, "ext": EXT, "sf": SF} {
		if prefixes[prefix] != iri {
			t.Errorf("prefix %s: got %s, want %s", prefix, prefixes[prefix], iri)
		}
	}
}
