package stations

import (
	"testing"

	"github.com/golang/geo/r2"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

func TestAssignFirstMatchUnderOverlap(t *testing.T) {
	// B's centre is much closer to the probe point, but A contains it
	// too and has the lower id, so A must win.
	geometries := []rtls.StationGeometry{
		{ID: 1, Center: r2.Point{X: 0, Y: 0}, Radius: 5},
		{ID: 2, Center: r2.Point{X: 4, Y: 0}, Radius: 5},
	}

	probe := r2.Point{X: 3.5, Y: 0} // 3.5m from A's centre, 0.5m from B's
	id, ok := Assign(probe, geometries)
	if !ok {
		t.Fatal("expected an assignment for a point inside both zones")
	}
	if id != 1 {
		t.Errorf("Assign = %d, want 1 (lower id wins under overlap)", id)
	}
}

func TestAssignOutsideAllZones(t *testing.T) {
	geometries := []rtls.StationGeometry{
		{ID: 1, Center: r2.Point{X: 0, Y: 0}, Radius: 1},
		{ID: 2, Center: r2.Point{X: 10, Y: 0}, Radius: 1},
	}
	if id, ok := Assign(r2.Point{X: 5, Y: 5}, geometries); ok {
		t.Errorf("expected no assignment in transit, got station %d", id)
	}
}

func TestAssignBoundaryInclusive(t *testing.T) {
	geometries := []rtls.StationGeometry{
		{ID: 1, Center: r2.Point{X: 0, Y: 0}, Radius: 2},
	}
	if id, ok := Assign(r2.Point{X: 2, Y: 0}, geometries); !ok || id != 1 {
		t.Errorf("point on the boundary should assign to station 1, got (%d, %v)", id, ok)
	}
}

func TestAssignNoStations(t *testing.T) {
	if id, ok := Assign(r2.Point{X: 0, Y: 0}, nil); ok {
		t.Errorf("expected no assignment with empty geometry set, got %d", id)
	}
}
