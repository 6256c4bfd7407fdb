package rtls

import (
	"sort"

	"github.com/golang/geo/r2"
)

// Scope is one dataset partition sharing a single physical station
// layout (typically one workshop). A Scope is built once by ingestion
// and is immutable afterwards: detection runs over all of its
// positions, and every entity's segmentation pass reads the same
// geometry set.
type Scope struct {
	name     string
	entities []string
	samples  map[string][]Sample
}

// NewScope builds a scope from raw samples. Samples are grouped by
// entity and stable-sorted by timestamp; the input slice is not
// retained.
func NewScope(name string, samples []Sample) *Scope {
	byEntity := make(map[string][]Sample)
	for _, s := range samples {
		byEntity[s.Entity] = append(byEntity[s.Entity], s)
	}

	entities := make([]string, 0, len(byEntity))
	for entity, group := range byEntity {
		SortSamples(group)
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	return &Scope{name: name, entities: entities, samples: byEntity}
}

// Name returns the scope label (e.g. "Workshop1").
func (sc *Scope) Name() string { return sc.name }

// Entities lists the tracked entities in deterministic (sorted) order.
func (sc *Scope) Entities() []string {
	out := make([]string, len(sc.entities))
	copy(out, sc.entities)
	return out
}

// EntitySamples returns one entity's time-ordered samples. The
// returned slice is a copy; callers may not mutate scope state.
func (sc *Scope) EntitySamples(entity string) []Sample {
	group := sc.samples[entity]
	out := make([]Sample, len(group))
	copy(out, group)
	return out
}

// SampleCount returns the total number of samples across all entities.
func (sc *Scope) SampleCount() int {
	n := 0
	for _, group := range sc.samples {
		n += len(group)
	}
	return n
}

// Positions returns every observed position in the scope, ordered by
// entity then time. This is the input to station detection.
func (sc *Scope) Positions() []r2.Point {
	points := make([]r2.Point, 0, sc.SampleCount())
	for _, entity := range sc.entities {
		for _, s := range sc.samples[entity] {
			points = append(points, s.Point())
		}
	}
	return points
}

// AllSamples returns every sample in the scope, ordered by entity then
// time.
func (sc *Scope) AllSamples() []Sample {
	out := make([]Sample, 0, sc.SampleCount())
	for _, entity := range sc.entities {
		out = append(out, sc.samples[entity]...)
	}
	return out
}
