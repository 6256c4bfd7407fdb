package stations

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r2"
)

// kmeansResult holds one converged clustering of the input points.
type kmeansResult struct {
	centroids []r2.Point
	labels    []int
	inertia   float64
}

// runKMeans clusters points into k groups using Lloyd's algorithm with
// k-means++ seeding. It performs restarts independent initialisations
// and keeps the one with the lowest within-cluster inertia. All
// randomness comes from rng, so a fixed seed gives identical output
// on every run.
func runKMeans(points []r2.Point, k, restarts, maxIterations int, rng *rand.Rand) kmeansResult {
	best := kmeansResult{inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		res := lloyd(points, seedPlusPlus(points, k, rng), maxIterations)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

// seedPlusPlus picks k initial centroids with the k-means++ rule:
// the first uniformly, each subsequent one with probability
// proportional to its squared distance from the nearest chosen seed.
func seedPlusPlus(points []r2.Point, k int, rng *rand.Rand) []r2.Point {
	centroids := make([]r2.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d2[i] = nearestSquared(p, centroids)
			total += d2[i]
		}
		if total == 0 {
			// All points coincide with existing seeds; duplicate one so
			// the caller still gets k centroids. The empty-cluster check
			// in Detect rejects the degenerate outcome.
			centroids = append(centroids, centroids[0])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(points) - 1
		for i := range points {
			acc += d2[i]
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, points[pick])
	}
	return centroids
}

// lloyd iterates assign/update steps until labels stop changing or
// maxIterations is hit. A centroid that loses all members keeps its
// previous position rather than being relocated; a genuinely empty
// cluster then surfaces in the final labelling.
func lloyd(points []r2.Point, centroids []r2.Point, maxIterations int) kmeansResult {
	k := len(centroids)
	labels := make([]int, len(points))
	counts := make([]int, k)
	sumX := make([]float64, k)
	sumY := make([]float64, k)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			c := nearestCentroid(p, centroids)
			if labels[i] != c || iter == 0 {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := 0; c < k; c++ {
			counts[c], sumX[c], sumY[c] = 0, 0, 0
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			sumX[c] += p.X
			sumY[c] += p.Y
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = r2.Point{X: sumX[c] / float64(counts[c]), Y: sumY[c] / float64(counts[c])}
			}
		}
	}

	inertia := 0.0
	for i, p := range points {
		d := p.Sub(centroids[labels[i]]).Norm()
		inertia += d * d
	}
	return kmeansResult{centroids: centroids, labels: labels, inertia: inertia}
}

func nearestCentroid(p r2.Point, centroids []r2.Point) int {
	best, bestD2 := 0, math.Inf(1)
	for c, ct := range centroids {
		dx := p.X - ct.X
		dy := p.Y - ct.Y
		if d2 := dx*dx + dy*dy; d2 < bestD2 {
			best, bestD2 = c, d2
		}
	}
	return best
}

func nearestSquared(p r2.Point, centroids []r2.Point) float64 {
	best := math.Inf(1)
	for _, ct := range centroids {
		dx := p.X - ct.X
		dy := p.Y - ct.Y
		if d2 := dx*dx + dy*dy; d2 < best {
			best = d2
		}
	}
	return best
}
