// Package confidence scores how well a labelling separates speaker
// embeddings, using the mean silhouette coefficient clamped to [0, 1].
package confidence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kbukum/speakerkit/cluster"
	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/errors"
	"github.com/kbukum/speakerkit/logger"
)

// Silhouette returns the mean silhouette coefficient of labels over vectors
// with Euclidean distance. A member of a singleton cluster scores 0.
func Silhouette(vectors []embedding.Vector, labels []cluster.Label) (float64, error) {
	n := len(vectors)
	if len(labels) != n {
		return 0, fmt.Errorf("%d labels for %d vectors", len(labels), n)
	}

	sizes := make(map[cluster.Label]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 || len(sizes) > n-1 {
		return 0, fmt.Errorf("silhouette needs between 2 and %d clusters, got %d", n-1, len(sizes))
	}

	scores := make([]float64, n)
	sums := make(map[cluster.Label]float64, len(sizes))
	for i := range vectors {
		if sizes[labels[i]] == 1 {
			continue
		}
		clear(sums)
		for j := range vectors {
			if i == j {
				continue
			}
			sums[labels[j]] += floats.Distance(vectors[i], vectors[j], 2)
		}

		a := sums[labels[i]] / float64(sizes[labels[i]]-1)
		b := -1.0
		for l, s := range sums {
			if l == labels[i] {
				continue
			}
			if mean := s / float64(sizes[l]); b < 0 || mean < b {
				b = mean
			}
		}

		if denom := max(a, b); denom > 0 {
			scores[i] = (b - a) / denom
		}
	}
	return floats.Sum(scores) / float64(n), nil
}

// Estimator turns a silhouette score into a run confidence.
type Estimator struct{}

// Estimate never fails: degenerate input, a negative score or any error
// yields 0, and the result is clamped to [0, 1].
func (Estimator) Estimate(vectors []embedding.Vector, labels []cluster.Label, log *logger.Logger) float64 {
	if len(vectors) < 2 {
		return 0
	}
	distinct := false
	for _, l := range labels {
		if l != labels[0] {
			distinct = true
			break
		}
	}
	if !distinct {
		return 0
	}

	score, err := Silhouette(vectors, labels)
	if err != nil {
		logger.OrNop(log).WithComponent("confidence").WithError(errors.Confidence(err)).
			Warn("confidence calculation failed, reporting 0")
		return 0
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
