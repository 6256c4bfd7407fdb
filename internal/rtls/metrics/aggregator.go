// Package metrics reduces visit sequences into dwell, transition and
// production records.
package metrics

import (
	"github.com/banshee-data/dwell.report/internal/rtls"
)

// Aggregator derives per-entity metric records from visit sequences.
// It reads the station set only to emit zero-dwell rows for stations
// an entity never visited.
type Aggregator struct {
	geometries []rtls.StationGeometry
}

// New builds an Aggregator over the scope's station set.
func New(geometries []rtls.StationGeometry) *Aggregator {
	return &Aggregator{geometries: geometries}
}

// Dwell returns one record per station in ascending id order. Seconds
// is the summed duration of the entity's visits at that station, zero
// when it was never visited.
func (a *Aggregator) Dwell(entity string, visits []rtls.Visit) []rtls.DwellRecord {
	totals := make(map[int]float64, len(a.geometries))
	for _, v := range visits {
		totals[v.Station] += v.Duration().Seconds()
	}

	records := make([]rtls.DwellRecord, 0, len(a.geometries))
	for _, g := range a.geometries {
		records = append(records, rtls.DwellRecord{
			Entity:  entity,
			Station: g.ID,
			Seconds: totals[g.ID],
		})
	}
	return records
}

// Transitions returns one record per adjacent visit pair, in visit
// order. Raw transition events are never merged here; a presentation
// layer may sum by (entity, from, to) for display.
func (a *Aggregator) Transitions(entity string, visits []rtls.Visit) []rtls.TransitionRecord {
	if len(visits) < 2 {
		return nil
	}
	records := make([]rtls.TransitionRecord, 0, len(visits)-1)
	for i := 0; i+1 < len(visits); i++ {
		records = append(records, rtls.TransitionRecord{
			Entity:  entity,
			From:    visits[i].Station,
			To:      visits[i+1].Station,
			Seconds: visits[i+1].Entry.Sub(visits[i].Exit).Seconds(),
		})
	}
	return records
}

// Production returns the traversal span from the first retained
// visit's entry to the last retained visit's exit. Entities with no
// visits produce no record, not a zero-valued one; the second return
// is false in that case.
func (a *Aggregator) Production(entity string, visits []rtls.Visit) (rtls.ProductionRecord, bool) {
	if len(visits) == 0 {
		return rtls.ProductionRecord{}, false
	}
	return rtls.ProductionRecord{
		Entity:     entity,
		Start:      visits[0].Entry,
		End:        visits[len(visits)-1].Exit,
		VisitCount: len(visits),
	}, true
}
