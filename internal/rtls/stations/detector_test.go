package stations

import (
	"errors"
	"sort"
	"testing"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

func fixedConfig(k int) Config {
	cfg := DefaultConfig()
	cfg.Stations = k
	return cfg
}

func TestDetectOrdersStationsByCentreX(t *testing.T) {
	det, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(det.Stations) != 3 {
		t.Fatalf("expected 3 stations, got %d", len(det.Stations))
	}
	for i, g := range det.Stations {
		if g.ID != i+1 {
			t.Errorf("station %d has id %d, want %d", i, g.ID, i+1)
		}
		if i > 0 && det.Stations[i-1].Center.X >= g.Center.X {
			t.Errorf("station ids not ascending in centre X: %v then %v",
				det.Stations[i-1].Center.X, g.Center.X)
		}
	}
}

func TestDetectMemberCounts(t *testing.T) {
	det, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	total := 0
	for _, g := range det.Stations {
		if g.MemberCount == 0 {
			t.Errorf("station %d has no members", g.ID)
		}
		total += g.MemberCount
	}
	if total != 60 {
		t.Errorf("member counts sum to %d, want 60", total)
	}
}

func TestDetectRadiusIsMemberDistancePercentile(t *testing.T) {
	det, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	// Recompute the expected radius for station 1 from its member
	// points (the group around x=0).
	var dists []float64
	for _, p := range threeClusters() {
		if p.X < 5 { // members of the left group
			dists = append(dists, p.Sub(det.Stations[0].Center).Norm())
		}
	}
	sort.Float64s(dists)
	want := stat.Quantile(0.75, stat.Empirical, dists, nil)

	got := det.Stations[0].Radius
	if got < 0 {
		t.Fatalf("radius = %v, want >= 0", got)
	}
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("radius = %v, want 75th-percentile member distance %v", got, want)
	}
}

func TestDetectDeterministic(t *testing.T) {
	first, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for i := range first.Stations {
		if first.Stations[i] != second.Stations[i] {
			t.Fatalf("station %d differs across identical runs: %+v vs %+v",
				i, first.Stations[i], second.Stations[i])
		}
	}
}

func TestDetectAutoSelectsThreeForThreeClusters(t *testing.T) {
	det, err := Detect(threeClusters(), fixedConfig(0))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if det.K != 3 {
		t.Errorf("auto-selected k = %d, want 3", det.K)
	}
	if det.Silhouette < 0.8 {
		t.Errorf("silhouette = %v, want near 1", det.Silhouette)
	}
}

func TestDetectAutoMatchesFixed(t *testing.T) {
	auto, err := Detect(threeClusters(), fixedConfig(0))
	if err != nil {
		t.Fatalf("auto Detect failed: %v", err)
	}
	fixed, err := Detect(threeClusters(), fixedConfig(3))
	if err != nil {
		t.Fatalf("fixed Detect failed: %v", err)
	}
	for i := range auto.Stations {
		if auto.Stations[i] != fixed.Stations[i] {
			t.Fatalf("auto and fixed k=3 disagree at station %d", i)
		}
	}
}

func TestDetectEmptyPositions(t *testing.T) {
	if _, err := Detect(nil, fixedConfig(3)); !errors.Is(err, rtls.ErrNoPositions) {
		t.Errorf("expected ErrNoPositions, got %v", err)
	}
}

func TestDetectInvalidStationCount(t *testing.T) {
	for _, k := range []int{-1, 1, 2, 10} {
		if _, err := Detect(threeClusters(), fixedConfig(k)); !errors.Is(err, rtls.ErrInvalidStationCount) {
			t.Errorf("k=%d: expected ErrInvalidStationCount, got %v", k, err)
		}
	}
}

func TestDetectEmptyClusterFails(t *testing.T) {
	// Three distinct positions cannot fill more zones than points; with
	// duplicated points a seed must end up shared and some cluster
	// empty.
	points := []r2.Point{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0},
		{X: 10, Y: 0}, {X: 10, Y: 0},
	}
	_, err := Detect(points, fixedConfig(3))
	var geomErr *rtls.GeometryError
	if !errors.As(err, &geomErr) {
		t.Errorf("expected GeometryError for degenerate input, got %v", err)
	}
}

func TestDetectTooFewPositionsForAuto(t *testing.T) {
	points := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	if _, err := Detect(points, fixedConfig(0)); !errors.Is(err, rtls.ErrInvalidStationCount) {
		t.Errorf("expected ErrInvalidStationCount, got %v", err)
	}
}
