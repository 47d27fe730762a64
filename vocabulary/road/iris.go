package road

import (
	"net/url"
	"strconv"
	"strings"
)

// Namespace IRIs. These strings are part of the output contract and must not change.
const (
	// OTN is the OpenTransportNet ontology namespace.
	OTN = "http://www.pms.ifi.uni-muenchen.de/OTN#"

	// GEO is the GeoSPARQL namespace.
	GEO = "http://www.opengis.net/ont/geosparql#"

	// SF is the OGC simple features namespace.
	SF = "http://www.opengis.net/ont/sf#"

	// EXT is the extension namespace for entities the OTN model lacks.
	EXT = "https://www.extract-project.eu/ontology#"

	// OSM is the base IRI for upstream OpenStreetMap objects.
	OSM = "http://openstreetmap.org/"

	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
)

// Class IRIs.
const (
	// ClassNode is an OTN network node (intersection or shape point).
	ClassNode = OTN + "Node"

	// ClassRoad is a logical road identified by its upstream ids.
	ClassRoad = OTN + "Road"

	// ClassRoadElement is one physical segment of a road.
	ClassRoadElement = OTN + "Road_Element"

	// ClassExtNode is the extension node class.
	// Extends: ClassNode
	ClassExtNode = EXT + "Node"

	// ClassGeometry is the GeoSPARQL geometry superclass.
	ClassGeometry = GEO + "Geometry"

	// ClassPoint is a simple-features point.
	// Extends: ClassGeometry
	ClassPoint = SF + "Point"

	// ClassLineString is a simple-features line string.
	// Extends: ClassGeometry
	ClassLineString = SF + "LineString"
)

// Object property IRIs.
const (
	// PropContains links a road to each of its road elements.
	// Domain: ClassRoad, Range: ClassRoadElement
	PropContains = OTN + "contains"

	// PropStartsAt links a road element to its source node.
	// Domain: ClassRoadElement, Range: ClassNode
	PropStartsAt = OTN + "starts_at"

	// PropEndsAt links a road element to its target node.
	// Domain: ClassRoadElement, Range: ClassNode
	PropEndsAt = OTN + "ends_at"

	// PropHasGeometry links a feature to its geometry.
	PropHasGeometry = GEO + "hasGeometry"

	// PropType is rdf:type.
	PropType = RDF + "type"

	// PropSubClassOf is rdfs:subClassOf.
	PropSubClassOf = RDFS + "subClassOf"

	// PropSeeAlso is rdfs:seeAlso, used for upstream object links.
	PropSeeAlso = RDFS + "seeAlso"
)

// Data property and datatype IRIs.
const (
	// PropAsWKT carries the WKT serialization of a geometry.
	PropAsWKT = GEO + "asWKT"

	// DatatypeWKT is the datatype of PropAsWKT literals.
	DatatypeWKT = GEO + "wktLiteral"
)

// Prefixes returns the namespace prefixes bound in serialized output,
// keyed by prefix.
func Prefixes() map[string]string {
	return map[string]string{
		"otn":  OTN,
		"geo":  GEO,
		"sf":   SF,
		"ext":  EXT,
		"osm":  OSM,
		"rdf":  RDF,
		"rdfs": RDFS,
		"owl":  OWL,
		"xsd":  XSD,
	}
}

// NodeIRI returns the entity IRI for a graph node.
func NodeIRI(nodeID string) string {
	return EXT + "Node/" + EscapeID(nodeID)
}

// GeometryIRI returns the geometry IRI for a node id or road element id.
// Nodes and road elements share this space.
func GeometryIRI(id string) string {
	return GEO + "Geometry/" + EscapeID(id)
}

// RoadIRI returns the entity IRI for a road.
func RoadIRI(roadID string) string {
	return OTN + "Road/" + EscapeID(roadID)
}

// RoadElementIRI returns the entity IRI for a road element.
func RoadElementIRI(elementID string) string {
	return OTN + "Road_Element/" + EscapeID(elementID)
}

// UpstreamIRI returns the OpenStreetMap IRI for an object, e.g. "way/123".
func UpstreamIRI(objectType string, ref int64) string {
	return OSM + objectType + "/" + strconv.FormatInt(ref, 10)
}

// EscapeID percent-escapes an instance id so it can be appended to a namespace.
// Ids made of unreserved characters (the usual numeric ids) pass through unchanged.
func EscapeID(id string) string {
	if id == "" || strings.IndexFunc(id, needsEscape) < 0 {
		return id
	}
	return url.PathEscape(id)
}

func needsEscape(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '_' || r == '-' || r == '.' || r == '~':
		return false
	default:
		return true
	}
}
