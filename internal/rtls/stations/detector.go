// Package stations detects circular station zones from observed
// positions and assigns individual positions to them.
//
// Detection clusters the full position set of a scope with seeded
// k-means, sizes each zone boundary at the 75th percentile of member
// distances (readings just outside the circle are in transit, not
// mis-assigned), and numbers zones 1..k ascending by centre X so the
// numbering is stable across runs regardless of clustering label
// order. When no zone count is fixed, a bounded silhouette search
// picks one.
package stations

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/dwell.report/internal/rtls"
)

// Candidate zone counts for the automatic search. The low end keeps
// the silhouette meaningful; the high end keeps the search bounded.
const (
	MinAutoStations = 3
	MaxAutoStations = 9
)

// Config holds detection parameters.
type Config struct {
	Stations         int     // fixed zone count; 0 selects automatically
	RadiusPercentile float64 // boundary quantile of member distances
	Seed             int64   // clustering RNG seed
	Restarts         int     // independent k-means initialisations
	MaxIterations    int     // Lloyd iteration cap per restart
}

// DefaultConfig returns the production detection parameters.
func DefaultConfig() Config {
	return Config{
		Stations:         0,
		RadiusPercentile: 0.75,
		Seed:             42,
		Restarts:         10,
		MaxIterations:    300,
	}
}

// Detection is the immutable result of one detection pass. Stations
// are ordered by ascending ID and shared read-only by every entity's
// segmentation pass.
type Detection struct {
	Stations   []rtls.StationGeometry
	K          int
	Inertia    float64
	Silhouette float64
}

// Detect clusters the scope's positions into circular station zones.
// It fails with rtls.ErrNoPositions, rtls.ErrInvalidStationCount or
// *rtls.GeometryError; on failure nothing is published for the scope.
func Detect(positions []r2.Point, cfg Config) (*Detection, error) {
	if len(positions) == 0 {
		return nil, rtls.ErrNoPositions
	}
	if cfg.Stations < 0 || cfg.Stations > MaxAutoStations || (cfg.Stations > 0 && cfg.Stations < MinAutoStations) {
		return nil, fmt.Errorf("k=%d: %w", cfg.Stations, rtls.ErrInvalidStationCount)
	}

	k := cfg.Stations
	if k == 0 {
		var err error
		if k, err = selectStationCount(positions, cfg); err != nil {
			return nil, err
		}
	}

	// Re-seed so a fixed k and an auto-selected k yield the identical
	// clustering for the same data.
	rng := rand.New(rand.NewSource(cfg.Seed))
	res := runKMeans(positions, k, cfg.Restarts, cfg.MaxIterations, rng)

	geometries, err := buildGeometries(positions, res, cfg.RadiusPercentile)
	if err != nil {
		return nil, err
	}

	return &Detection{
		Stations:   geometries,
		K:          k,
		Inertia:    res.inertia,
		Silhouette: silhouetteScore(positions, res.labels, k),
	}, nil
}

// selectStationCount runs the bounded candidate search and returns the
// zone count with the highest silhouette coefficient. Ties resolve to
// the smallest such count.
func selectStationCount(positions []r2.Point, cfg Config) (int, error) {
	bestK, bestScore := 0, -2.0
	for k := MinAutoStations; k <= MaxAutoStations; k++ {
		if k > len(positions) {
			break
		}
		rng := rand.New(rand.NewSource(cfg.Seed))
		res := runKMeans(positions, k, cfg.Restarts, cfg.MaxIterations, rng)
		if score := silhouetteScore(positions, res.labels, k); score > bestScore {
			bestK, bestScore = k, score
		}
	}
	if bestK == 0 {
		return 0, fmt.Errorf("%d positions cannot fill %d zones: %w",
			len(positions), MinAutoStations, rtls.ErrInvalidStationCount)
	}
	return bestK, nil
}

// buildGeometries sizes each cluster's boundary and renumbers the set
// 1..k ascending by centre X. A cluster with no member points fails
// the whole detection.
func buildGeometries(positions []r2.Point, res kmeansResult, percentile float64) ([]rtls.StationGeometry, error) {
	k := len(res.centroids)
	members := make([][]float64, k) // distances from member points to centroid
	for i, p := range positions {
		c := res.labels[i]
		members[c] = append(members[c], p.Sub(res.centroids[c]).Norm())
	}

	geometries := make([]rtls.StationGeometry, 0, k)
	for c := 0; c < k; c++ {
		if len(members[c]) == 0 {
			return nil, &rtls.GeometryError{Cluster: c}
		}
		sort.Float64s(members[c])
		geometries = append(geometries, rtls.StationGeometry{
			Center:      res.centroids[c],
			CenterX:     res.centroids[c].X,
			CenterY:     res.centroids[c].Y,
			Radius:      stat.Quantile(percentile, stat.Empirical, members[c], nil),
			MemberCount: len(members[c]),
		})
	}

	sort.Slice(geometries, func(i, j int) bool {
		return geometries[i].Center.X < geometries[j].Center.X
	})
	for i := range geometries {
		geometries[i].ID = i + 1
	}
	return geometries, nil
}
