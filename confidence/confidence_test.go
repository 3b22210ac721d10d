package confidence

import (
	"math"
	"testing"

	"github.com/kbukum/speakerkit/cluster"
	"github.com/kbukum/speakerkit/embedding"
	"github.com/kbukum/speakerkit/testutil"
)

func vecs(points [][]float64) []embedding.Vector {
	out := make([]embedding.Vector, len(points))
	for i, p := range points {
		out[i] = p
	}
	return out
}

func TestSilhouette_KnownValue(t *testing.T) {
	// Two pairs on a line: {0,1} and {4,5}.
	// Point 0: a=1, b=mean(4,5)=4.5, s=3.5/4.5.
	// Point 1: a=1, b=mean(3,4)=3.5, s=2.5/3.5. The layout is symmetric.
	in := vecs([][]float64{{0}, {1}, {4}, {5}})
	labels := []cluster.Label{0, 0, 1, 1}
	want := (3.5/4.5 + 2.5/3.5) / 2

	got, err := Silhouette(in, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSilhouette_SingletonScoresZero(t *testing.T) {
	in := vecs([][]float64{{0}, {1}, {10}})
	labels := []cluster.Label{0, 0, 1}
	// Points 0 and 1: a=1, b=10 and 9. Point 2 is a singleton.
	want := (9.0/10 + 8.0/9) / 3

	got, err := Silhouette(in, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSilhouette_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     []embedding.Vector
		labels []cluster.Label
	}{
		{"length mismatch", vecs([][]float64{{0}, {1}, {2}}), []cluster.Label{0, 1}},
		{"one cluster", vecs([][]float64{{0}, {1}, {2}}), []cluster.Label{0, 0, 0}},
		{"every point its own cluster", vecs([][]float64{{0}, {1}}), []cluster.Label{0, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Silhouette(tc.in, tc.labels); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name   string
		in     []embedding.Vector
		labels []cluster.Label
		want   float64
	}{
		{"no vectors", nil, nil, 0},
		{"one vector", vecs([][]float64{{1}}), []cluster.Label{0}, 0},
		{"identical labels", vecs([][]float64{{0}, {5}, {9}}), []cluster.Label{0, 0, 0}, 0},
		{"silhouette error", vecs([][]float64{{0}, {5}}), []cluster.Label{0, 1}, 0},
		{"length mismatch", vecs([][]float64{{0}, {5}, {6}}), []cluster.Label{0, 1}, 0},
		{"negative clamped", vecs([][]float64{{0}, {10}, {1}, {11}}), []cluster.Label{0, 0, 1, 1}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Estimator{}).Estimate(tc.in, tc.labels, nil); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEstimate_WellSeparated(t *testing.T) {
	points, labels := testutil.GaussianClusters(11, 20, 0.05, testutil.Center(8, 0), testutil.Center(8, 1))
	got := (Estimator{}).Estimate(vecs(points), labels, nil)
	if got <= 0.5 || got > 1 {
		t.Errorf("expected confidence in (0.5, 1], got %v", got)
	}
}

func TestEstimate_ClusterOutput(t *testing.T) {
	points, _ := testutil.GaussianClusters(5, 15, 0.1, testutil.Center(4, -1), testutil.Center(4, 1))
	in := vecs(points)
	labels, err := cluster.New(2).Cluster(in, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := (Estimator{}).Estimate(in, labels, nil)
	if got < 0 || got > 1 {
		t.Errorf("confidence out of range: %v", got)
	}
	if got < 0.5 {
		t.Errorf("expected high confidence for separated clusters, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.3, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {1.5, 1}, {math.NaN(), 0},
	}
	for _, tc := range tests {
		if got := clamp(tc.in); got != tc.want {
			t.Errorf("clamp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
