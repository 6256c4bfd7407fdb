package rtls

import (
	"errors"
	"fmt"
)

// Configuration errors. These abort detection before any clustering
// happens; nothing is published for the scope.
var (
	// ErrNoPositions is returned when detection is asked to cluster an
	// empty position set.
	ErrNoPositions = errors.New("no positions to cluster")

	// ErrInvalidStationCount is returned when the requested zone count
	// is non-positive or falls outside the candidate search range.
	ErrInvalidStationCount = errors.New("station count outside candidate range")
)

// GeometryError indicates that clustering resolved a zone with no
// member points. Detection fails for the whole scope rather than
// renumbering around the gap: consumers must never observe a station
// table with holes.
type GeometryError struct {
	Cluster int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("cluster %d resolved with no member points", e.Cluster)
}

// DataError wraps a per-entity input failure. Entities with malformed
// samples are reported and skipped; they never abort the rest of the
// scope.
type DataError struct {
	Entity string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("entity %s: %v", e.Entity, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
