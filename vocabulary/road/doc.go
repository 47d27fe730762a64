// Package road provides the road network vocabulary: namespace, class and
// property IRIs from OTN, GeoSPARQL and simple features, plus the extension
// namespace for node entities.
//
// # Entity IRIs
//
//	ext:Node/{node}                 graph node
//	geo:Geometry/{node}             point geometry of a node
//	otn:Road/{road}                 logical road, one per distinct upstream id set
//	otn:Road_Element/{road}_{n}     n-th segment of a road in processing order
//	geo:Geometry/{road}_{n}         line geometry of a road element
//
// The namespace strings are a wire contract with downstream consumers.
//
// # Semstreams Integration
//
// Each RDF property used in the output is also registered as a dotted
// semstreams predicate (road.topology.contains, road.geometry.wkt, ...) with
// its IRI, so published triples can be mapped back to RDF.
package road
