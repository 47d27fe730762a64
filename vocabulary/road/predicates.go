package road

import "github.com/c360studio/semstreams/vocabulary"

// Dotted predicates used when road statements travel as semstreams triples.
// Each one maps onto exactly one RDF property IRI.
const (
	// EntityType declares the class of an entity.
	EntityType = "road.entity.type"

	// ClassSubClassOf declares a class hierarchy edge.
	ClassSubClassOf = "road.class.subclass_of"

	// TopologyContains links a road to one of its elements.
	TopologyContains = "road.topology.contains"

	// TopologyStartsAt links a road element to its source node.
	TopologyStartsAt = "road.topology.starts_at"

	// TopologyEndsAt links a road element to its target node.
	TopologyEndsAt = "road.topology.ends_at"

	// GeometryHas links a node or road element to its geometry.
	GeometryHas = "road.geometry.has"

	// GeometryWKT is the WKT serialization of a geometry.
	GeometryWKT = "road.geometry.wkt"

	// UpstreamSeeAlso links an entity to its OpenStreetMap object.
	UpstreamSeeAlso = "road.upstream.see_also"
)

var predicateByIRI = map[string]string{}

func register(name, iri, dataType, desc string) {
	vocabulary.Register(name,
		vocabulary.WithDescription(desc),
		vocabulary.WithDataType(dataType),
		vocabulary.WithIRI(iri))
	predicateByIRI[iri] = name
}

func init() {
	register(EntityType, PropType, "entity_id", "Class of the entity (rdf:type)")
	register(ClassSubClassOf, PropSubClassOf, "entity_id", "Class hierarchy declaration (rdfs:subClassOf)")
	register(TopologyContains, PropContains, "entity_id", "Road element that belongs to the road")
	register(TopologyStartsAt, PropStartsAt, "entity_id", "Node the road element starts at")
	register(TopologyEndsAt, PropEndsAt, "entity_id", "Node the road element ends at")
	register(GeometryHas, PropHasGeometry, "entity_id", "Geometry of the node or road element")
	register(GeometryWKT, PropAsWKT, "string", "Well-known text of the geometry")
	register(UpstreamSeeAlso, PropSeeAlso, "entity_id", "Upstream OpenStreetMap object")
}

// PredicateForIRI returns the dotted predicate registered for an RDF property IRI.
func PredicateForIRI(iri string) (string, bool) {
	name, ok := predicateByIRI[iri]
	return name, ok
}
