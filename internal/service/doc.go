// Package service implements the application layer of normcalc.
//
// CalculationService sits between the HTTP handlers or CLI and the
// repository, norm store and calculation engine. It imports catalogs and
// projects, swaps the norm snapshot after a catalog change, runs
// calculation passes and renders their bills of materials.
//
// # Event System
//
// The service publishes events on an EventBus: calculation start,
// completion and failure, catalog reloads and project imports. The server
// relays them to Server-Sent Events clients. Publishing never blocks; a
// subscriber that is not ready misses the event.
package service
