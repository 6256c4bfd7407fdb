package stations

import "github.com/golang/geo/r2"

// silhouetteScore computes the mean silhouette coefficient over all
// points: s(i) = (b-a)/max(a,b), where a is the mean distance to the
// point's own cluster and b the smallest mean distance to any other
// cluster. The result lies in [-1, 1]; higher means better-separated
// clusters. Points alone in their cluster contribute 0, the usual
// convention.
//
// The computation is O(n²) in the number of points, which is fine for
// the bounded offline candidate search this supports.
func silhouetteScore(points []r2.Point, labels []int, k int) float64 {
	n := len(points)
	if n == 0 || k < 2 {
		return 0
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	sum := 0.0
	dists := make([]float64, k)
	for i, p := range points {
		for c := range dists {
			dists[c] = 0
		}
		for j, q := range points {
			if i == j {
				continue
			}
			dists[labels[j]] += p.Sub(q).Norm()
		}

		own := labels[i]
		if counts[own] <= 1 {
			continue // singleton: s(i) = 0
		}
		a := dists[own] / float64(counts[own]-1)

		b := -1.0
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			mean := dists[c] / float64(counts[c])
			if b < 0 || mean < b {
				b = mean
			}
		}
		if b < 0 {
			continue // no other populated cluster
		}

		max := a
		if b > max {
			max = b
		}
		if max > 0 {
			sum += (b - a) / max
		}
	}
	return sum / float64(n)
}
