package testutil

import "math/rand"

// GaussianClusters draws perCluster points around each center with the given
// standard deviation. Points are interleaved across clusters so the true
// label of point i is i % len(centers).
func GaussianClusters(seed int64, perCluster int, stddev float64, centers ...[]float64) (points [][]float64, labels []int) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < perCluster; i++ {
		for c, center := range centers {
			p := make([]float64, len(center))
			for d := range center {
				p[d] = center[d] + rng.NormFloat64()*stddev
			}
			points = append(points, p)
			labels = append(labels, c)
		}
	}
	return points, labels
}

// Center returns a dim-length vector with every component set to v.
func Center(dim int, v float64) []float64 {
	c := make([]float64, dim)
	for i := range c {
		c[i] = v
	}
	return c
}

// SamePartition reports whether two labelings group items identically,
// regardless of which integer each group carries.
func SamePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := map[int]int{}
	ba := map[int]int{}
	for i := range a {
		if x, ok := ab[a[i]]; ok && x != b[i] {
			return false
		}
		if y, ok := ba[b[i]]; ok && y != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}
