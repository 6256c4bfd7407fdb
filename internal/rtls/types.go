package rtls

import (
	"sort"
	"time"

	"github.com/golang/geo/r2"
)

// Sample is one position observation for a tracked entity.
type Sample struct {
	Entity    string    `json:"entity"`
	Timestamp time.Time `json:"timestamp"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// Point returns the sample position as a planar point.
func (s Sample) Point() r2.Point {
	return r2.Point{X: s.X, Y: s.Y}
}

// SortSamples orders samples by timestamp. The sort is stable so that
// samples sharing a timestamp keep their original (insertion) order,
// which keeps downstream results reproducible.
func SortSamples(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}

// StationGeometry is one detected circular zone. IDs are assigned
// 1..k ascending by centre X within a scope and never reused.
type StationGeometry struct {
	ID          int      `json:"station_id"`
	Center      r2.Point `json:"-"`
	Radius      float64  `json:"radius"`
	MemberCount int      `json:"member_count"`

	// Flattened centre coordinates for JSON/SQL consumers.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// Contains reports whether p lies on or inside the station boundary.
func (g StationGeometry) Contains(p r2.Point) bool {
	return p.Sub(g.Center).Norm() <= g.Radius
}

// Visit is a maximal contiguous stay at one station.
type Visit struct {
	Entity  string    `json:"entity"`
	Station int       `json:"station_id"`
	Entry   time.Time `json:"entry_time"`
	Exit    time.Time `json:"exit_time"`
}

// Duration returns the time spent inside the station boundary.
func (v Visit) Duration() time.Duration {
	return v.Exit.Sub(v.Entry)
}

// DwellRecord is the summed time an entity spent at one station.
// A station the entity never visited still yields a zero-second row.
type DwellRecord struct {
	Entity  string  `json:"entity"`
	Station int     `json:"station_id"`
	Seconds float64 `json:"seconds"`
}

// TransitionRecord is the gap between one visit's exit and the next
// visit's entry. One record is kept per adjacent visit pair; records
// are never merged at computation time.
type TransitionRecord struct {
	Entity  string  `json:"entity"`
	From    int     `json:"from_station"`
	To      int     `json:"to_station"`
	Seconds float64 `json:"seconds"`
}

// ProductionRecord is the overall traversal span for one entity, from
// the entry of its first retained visit to the exit of its last.
type ProductionRecord struct {
	Entity     string    `json:"entity"`
	Start      time.Time `json:"start_time"`
	End        time.Time `json:"end_time"`
	VisitCount int       `json:"visit_count"`
}

// Seconds returns the production span in seconds.
func (p ProductionRecord) Seconds() float64 {
	return p.End.Sub(p.Start).Seconds()
}
