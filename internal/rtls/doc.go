// Package rtls defines the core data model for real-time-location
// analysis: position samples, detected station geometries, station
// visits, and the per-entity records derived from them.
//
// The package performs no I/O. Detection, segmentation and
// aggregation live in subpackages (stations, segment, metrics) and
// operate on the types defined here; persistence and presentation are
// handled by internal/db and internal/api.
package rtls
