// Package segment converts a raw per-entity sample stream into a
// clean sequence of station visits.
//
// The state machine walks the stream in timestamp order. Samples
// outside every zone are skipped entirely; the gap they leave between
// one visit's exit and the next visit's entry is exactly the
// transition time, so nothing is recorded for them. Two policies
// suppress sensor drift: an optional monotonic-progress constraint
// that discards readings at a lower station id than the highest one
// already reached, and a minimum-dwell post-filter that drops visits
// too short to be real.
package segment

import (
	"time"

	"github.com/banshee-data/dwell.report/internal/rtls"
	"github.com/banshee-data/dwell.report/internal/rtls/stations"
)

// Config holds segmentation policy.
type Config struct {
	// MinimumDwell drops any visit shorter than this after the full
	// sequence is built. The filter is a single pass: removing a short
	// visit never re-merges its neighbours, even when they are at the
	// same station.
	MinimumDwell time.Duration

	// MonotonicProgress discards samples assigned to a lower station
	// id than the highest id already reached, encoding the physical
	// prior that stations are worked in non-decreasing order.
	MonotonicProgress bool
}

// Segmenter turns sample streams into visit sequences against one
// fixed, read-only geometry set. A single Segmenter may be shared
// across entities; it holds no per-entity state.
type Segmenter struct {
	geometries []rtls.StationGeometry
	cfg        Config
}

// New builds a Segmenter over the given station set.
func New(geometries []rtls.StationGeometry, cfg Config) *Segmenter {
	return &Segmenter{geometries: geometries, cfg: cfg}
}

// Segment produces the filtered, time-ordered visit sequence for one
// entity. Non-chronological input is accepted and sorted rather than
// rejected. An entity with no qualifying samples yields an empty
// sequence.
//
// A visit closes at the timestamp of the last retained sample before
// the station change, not at the first sample of the new station; the
// interval between the two is transition time. A visit still open when
// the stream ends closes at the final retained sample's timestamp.
func (sg *Segmenter) Segment(entity string, samples []rtls.Sample) []rtls.Visit {
	ordered := make([]rtls.Sample, len(samples))
	copy(ordered, samples)
	rtls.SortSamples(ordered)

	var (
		visits     []rtls.Visit
		current    int
		open       bool
		entry      time.Time
		last       time.Time
		maxReached int
	)

	for _, s := range ordered {
		id, ok := stations.Assign(s.Point(), sg.geometries)
		if !ok {
			continue
		}
		if sg.cfg.MonotonicProgress && id < maxReached {
			continue // drift: a reading behind the furthest station reached
		}

		if !open || id != current {
			if open {
				visits = append(visits, rtls.Visit{Entity: entity, Station: current, Entry: entry, Exit: last})
			}
			current = id
			entry = s.Timestamp
			open = true
			if id > maxReached {
				maxReached = id
			}
		}
		last = s.Timestamp
	}
	if open {
		visits = append(visits, rtls.Visit{Entity: entity, Station: current, Entry: entry, Exit: last})
	}

	return sg.filterShortVisits(visits)
}

// filterShortVisits applies the minimum-dwell cut once over the built
// sequence.
func (sg *Segmenter) filterShortVisits(visits []rtls.Visit) []rtls.Visit {
	if sg.cfg.MinimumDwell <= 0 {
		return visits
	}
	kept := visits[:0]
	for _, v := range visits {
		if v.Duration() >= sg.cfg.MinimumDwell {
			kept = append(kept, v)
		}
	}
	return kept
}
