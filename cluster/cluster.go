// Package cluster groups speaker embeddings with agglomerative Ward
// clustering.
//
// Merges follow the Lance-Williams update over squared Euclidean
// distances. When several pairs share the smallest merge cost the pair
// with the lowest (i, j) wins, so results are reproducible. Output labels
// are renumbered by first appearance and are dense from 0.
package cluster

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
)

// Label identifies a speaker within one run. Labels are not stable across runs.
type Label = int

// DefaultClusters is the number of speakers assumed when none is configured.
const DefaultClusters = 2

// Clusterer assigns a label to every vector.
type Clusterer struct {
	// NumClusters is the number of clusters to stop at.
	NumClusters int
}

// New returns a clusterer stopping at k clusters. k <= 0 selects DefaultClusters.
func New(k int) *Clusterer {
	if k <= 0 {
		k = DefaultClusters
	}
	return &Clusterer{NumClusters: k}
}

// Cluster labels vectors. Fewer than two vectors are all labelled 0.
// Mismatched dimensions and non-finite components are CLUSTERING_FAILED.
func (c *Clusterer) Cluster(vectors []embedding.Vector, log *logger.Logger) ([]Label, error) {
	log = logger.OrNop(log).WithComponent("cluster")
	n := len(vectors)
	labels := make([]Label, n)
	if n < 2 {
		return labels, nil
	}
	if err := check(vectors); err != nil {
		return nil, errors.Clustering(err)
	}

	k := c.NumClusters
	if k <= 0 {
		k = DefaultClusters
	}

	start := time.Now()
	roots := ward(vectors, k)

	next := 0
	seen := make(map[int]Label, k)
	for i, r := range roots {
		l, ok := seen[r]
		if !ok {
			l = next
			seen[r] = l
			next++
		}
		labels[i] = l
	}

	log.Debug("clustered", logger.Fields(
		"vectors", n,
		"clusters", next,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return labels, nil
}

func check(vectors []embedding.Vector) error {
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("vector %d has a non-finite component", i)
			}
		}
	}
	return nil
}

// ward merges until k clusters remain and returns, for every point, the
// index of the cluster it ended in.
func ward(vectors []embedding.Vector, k int) []int {
	n := len(vectors)
	d := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := floats.Distance(vectors[i], vectors[j], 2)
			d[i*n+j] = dist * dist
			d[j*n+i] = dist * dist
		}
	}

	size := make([]int, n)
	owner := make([]int, n)
	active := make([]bool, n)
	for i := range size {
		size[i] = 1
		owner[i] = i
		active[i] = true
	}

	// nn[i] is the lowest-index partner j > i at minimum distance.
	nn := make([]int, n)
	nearest := func(i int) int {
		best := -1
		for j := i + 1; j < n; j++ {
			if !active[j] {
				continue
			}
			if best < 0 || d[i*n+j] < d[i*n+best] {
				best = j
			}
		}
		return best
	}
	for i := range nn {
		nn[i] = nearest(i)
	}

	for clusters := n; clusters > k; clusters-- {
		bi, bj := -1, -1
		for i := 0; i < n; i++ {
			if !active[i] || nn[i] < 0 {
				continue
			}
			if bi < 0 || d[i*n+nn[i]] < d[bi*n+bj] {
				bi, bj = i, nn[i]
			}
		}

		// Lance-Williams update for Ward linkage; bi absorbs bj.
		ni, nj, dij := float64(size[bi]), float64(size[bj]), d[bi*n+bj]
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			nm := float64(size[m])
			v := ((ni+nm)*d[bi*n+m] + (nj+nm)*d[bj*n+m] - nm*dij) / (ni + nj + nm)
			d[bi*n+m] = v
			d[m*n+bi] = v
		}
		active[bj] = false
		size[bi] += size[bj]
		for p := range owner {
			if owner[p] == bj {
				owner[p] = bi
			}
		}

		nn[bi] = nearest(bi)
		for m := 0; m < n; m++ {
			if !active[m] || m == bi {
				continue
			}
			switch {
			case nn[m] == bi || nn[m] == bj:
				nn[m] = nearest(m)
			case m < bi && (nn[m] < 0 || d[m*n+bi] < d[m*n+nn[m]] || (d[m*n+bi] == d[m*n+nn[m]] && bi < nn[m])):
				nn[m] = bi
			}
		}
	}
	return owner
}
