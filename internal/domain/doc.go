// Package domain defines the core domain types for the normcalc quantity derivation engine.
//
// This package contains the reference data (materials and the norms that bind
// them to calculation contexts) and the topology entities a calculation pass
// runs over.
//
// # Reference Data
//
// Material is identified by its Code. Two Material values with the same code
// are the same material, whatever their other fields say.
//
// MaterialNorm pairs a material with a formula under a context type such as
// NODE_CIRCUIT_BREAKER or CORRUGATED_PIPE_HORIZONTAL. A context type may carry
// any number of norms.
//
// # Topology
//
// NetworkNode, EndpointDevice, TopologyLink and InstallationRoute are the
// physical objects of a project. RouteSegmentLink records which links run
// through which route.
//
// Free-form type fields (device type, link type, route type, orientation,
// fixing method) are parsed into tagged variants with an explicit Unknown
// fallback. Parsing never fails.
//
// # Results
//
// QuantityMap maps material codes to quantities. BOM is the aggregated,
// material-resolved view handed to reporting.
package domain
