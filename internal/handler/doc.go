// Package handler implements the HTTP API of the normcalc server.
//
// # Endpoints
//
//	POST /api/calculations/{id}/run       run a pass, JSON result
//	GET  /api/calculations/{id}/bom.xlsx  run a pass, BOM workbook
//	GET  /api/norms/{context}             norms of one context type
//	POST /api/formula/evaluate            formula preview for norm authors
//	POST /api/catalog/import              replace the norm catalog
//	POST /api/projects/import             store a project YAML document
//
// # Errors
//
// Errors are returned as JSON {error, details, entity}. Unknown
// calculations map to 404, malformed catalogs and projects to 400, formula
// and fatal calculation errors to 422.
//
// # Middleware
//
// Chain composes Recover, Logger, Metrics and BodyLimit around the mux.
package handler
