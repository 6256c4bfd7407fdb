// Package pipeline runs the full analysis pass for one scope:
// detection once, then segmentation and aggregation per entity.
//
// Detection failures abort the scope — no partial geometry set is ever
// published. Per-entity failures (an entity with no samples at all)
// are isolated: the entity is recorded as skipped with its cause and
// the rest of the scope proceeds. Entities share no mutable state once
// the geometry set exists, so the per-entity loop is sequential only
// for simplicity.
package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/dwell.report/internal/rtls"
	"github.com/banshee-data/dwell.report/internal/rtls/metrics"
	"github.com/banshee-data/dwell.report/internal/rtls/segment"
	"github.com/banshee-data/dwell.report/internal/rtls/stations"
)

// Params captures everything configurable about one run, recorded
// alongside the results for reproducibility.
type Params struct {
	Detector stations.Config
	Segment  segment.Config
}

// Result is the immutable outcome of one analysis run over a scope.
type Result struct {
	RunID     string
	Scope     string
	CreatedAt time.Time
	Params    Params

	Detection *stations.Detection
	Visits    map[string][]rtls.Visit

	Dwell       []rtls.DwellRecord
	Transitions []rtls.TransitionRecord
	Production  []rtls.ProductionRecord

	// Skipped maps entities that produced no results to their cause.
	Skipped map[string]error
}

// Run executes detection, segmentation and aggregation for one scope.
func Run(scope *rtls.Scope, params Params) (*Result, error) {
	detection, err := stations.Detect(scope.Positions(), params.Detector)
	if err != nil {
		return nil, fmt.Errorf("scope %s: station detection: %w", scope.Name(), err)
	}

	segmenter := segment.New(detection.Stations, params.Segment)
	aggregator := metrics.New(detection.Stations)

	res := &Result{
		RunID:     uuid.NewString(),
		Scope:     scope.Name(),
		CreatedAt: time.Now().UTC(),
		Params:    params,
		Detection: detection,
		Visits:    make(map[string][]rtls.Visit),
		Skipped:   make(map[string]error),
	}

	for _, entity := range scope.Entities() {
		samples := scope.EntitySamples(entity)
		if len(samples) == 0 {
			res.Skipped[entity] = &rtls.DataError{Entity: entity, Err: fmt.Errorf("no samples")}
			log.Printf("scope %s: skipping entity %s: no samples", scope.Name(), entity)
			continue
		}

		visits := segmenter.Segment(entity, samples)
		res.Visits[entity] = visits

		res.Dwell = append(res.Dwell, aggregator.Dwell(entity, visits)...)
		res.Transitions = append(res.Transitions, aggregator.Transitions(entity, visits)...)
		if prod, ok := aggregator.Production(entity, visits); ok {
			res.Production = append(res.Production, prod)
		}
	}

	log.Printf("scope %s: %d stations (k=%d silhouette=%.3f), %d entities, %d skipped",
		scope.Name(), len(detection.Stations), detection.K, detection.Silhouette,
		len(scope.Entities())-len(res.Skipped), len(res.Skipped))
	return res, nil
}
