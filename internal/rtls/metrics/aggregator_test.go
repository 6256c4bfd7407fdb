package metrics

import (
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

var base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testGeometries() []rtls.StationGeometry {
	return []rtls.StationGeometry{
		{ID: 1, Center: r2.Point{X: 0, Y: 0}, Radius: 1},
		{ID: 2, Center: r2.Point{X: 10, Y: 0}, Radius: 1},
		{ID: 3, Center: r2.Point{X: 20, Y: 0}, Radius: 1},
	}
}

func visit(station int, entry, exit time.Duration) rtls.Visit {
	return rtls.Visit{Entity: "g1", Station: station, Entry: base.Add(entry), Exit: base.Add(exit)}
}

// walkVisits mirrors the canonical three-station walk.
func walkVisits() []rtls.Visit {
	return []rtls.Visit{
		visit(1, 0, 20*time.Second),
		visit(2, 25*time.Second, 90*time.Second),
		visit(3, 150*time.Second, 150*time.Second),
	}
}

func TestDwellSumsVisitDurations(t *testing.T) {
	agg := New(testGeometries())
	got := agg.Dwell("g1", walkVisits())

	want := []rtls.DwellRecord{
		{Entity: "g1", Station: 1, Seconds: 20},
		{Entity: "g1", Station: 2, Seconds: 65},
		{Entity: "g1", Station: 3, Seconds: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dwell mismatch (-want +got):\n%s", diff)
	}
}

func TestDwellRepeatVisitsAccumulate(t *testing.T) {
	visits := []rtls.Visit{
		visit(1, 0, 10*time.Second),
		visit(2, 20*time.Second, 30*time.Second),
		visit(1, 40*time.Second, 55*time.Second),
	}
	agg := New(testGeometries())
	got := agg.Dwell("g1", visits)

	if got[0].Seconds != 25 {
		t.Errorf("station 1 dwell = %v, want 25 (10 + 15)", got[0].Seconds)
	}
}

func TestDwellZeroRowsForUnvisitedStations(t *testing.T) {
	agg := New(testGeometries())
	got := agg.Dwell("g1", nil)
	if len(got) != 3 {
		t.Fatalf("expected one row per station, got %d", len(got))
	}
	for _, d := range got {
		if d.Seconds != 0 {
			t.Errorf("station %d dwell = %v, want 0", d.Station, d.Seconds)
		}
	}
}

func TestTransitionsOnePerAdjacentPair(t *testing.T) {
	agg := New(testGeometries())
	got := agg.Transitions("g1", walkVisits())

	want := []rtls.TransitionRecord{
		{Entity: "g1", From: 1, To: 2, Seconds: 5},
		{Entity: "g1", From: 2, To: 3, Seconds: 60},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionsRepeatedPairsNotMerged(t *testing.T) {
	visits := []rtls.Visit{
		visit(1, 0, 10*time.Second),
		visit(2, 15*time.Second, 20*time.Second),
		visit(1, 30*time.Second, 40*time.Second),
		visit(2, 42*time.Second, 50*time.Second),
	}
	agg := New(testGeometries())
	got := agg.Transitions("g1", visits)

	if len(got) != 3 {
		t.Fatalf("expected 3 raw transition events, got %d", len(got))
	}
	// Both 1→2 events must be retained individually.
	if got[0].Seconds != 5 || got[2].Seconds != 2 {
		t.Errorf("raw events merged or reordered: %+v", got)
	}
}

func TestTransitionsFewerThanTwoVisits(t *testing.T) {
	agg := New(testGeometries())
	if got := agg.Transitions("g1", nil); got != nil {
		t.Errorf("expected nil for no visits, got %v", got)
	}
	one := []rtls.Visit{visit(1, 0, 10*time.Second)}
	if got := agg.Transitions("g1", one); got != nil {
		t.Errorf("expected nil for a single visit, got %v", got)
	}
}

func TestProductionSpan(t *testing.T) {
	agg := New(testGeometries())
	got, ok := agg.Production("g1", walkVisits())
	if !ok {
		t.Fatal("expected a production record")
	}
	if got.Seconds() != 150 {
		t.Errorf("production span = %v, want 150", got.Seconds())
	}
	if got.VisitCount != 3 {
		t.Errorf("visit count = %d, want 3", got.VisitCount)
	}
}

func TestProductionNoneForZeroVisits(t *testing.T) {
	agg := New(testGeometries())
	if _, ok := agg.Production("g1", nil); ok {
		t.Error("expected no production record for zero visits")
	}
}

func TestProductionSingleVisitEqualsDuration(t *testing.T) {
	one := []rtls.Visit{visit(2, 10*time.Second, 70*time.Second)}
	agg := New(testGeometries())
	got, ok := agg.Production("g1", one)
	if !ok {
		t.Fatal("expected a production record")
	}
	if got.Seconds() != 60 {
		t.Errorf("production span = %v, want the visit duration 60", got.Seconds())
	}
}

func TestDwellTotalNeverExceedsProductionSpan(t *testing.T) {
	agg := New(testGeometries())
	visits := walkVisits()

	total := 0.0
	for _, d := range agg.Dwell("g1", visits) {
		total += d.Seconds
	}
	prod, ok := agg.Production("g1", visits)
	if !ok {
		t.Fatal("expected a production record")
	}
	if total > prod.Seconds() {
		t.Errorf("summed dwell %v exceeds production span %v", total, prod.Seconds())
	}
}
