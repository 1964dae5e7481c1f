package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TreeBuildCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formtree_tree_build_total",
			Help: "Total number of times a tree has been built",
		},
	)

	TreeBuildFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_tree_build_failed_total",
			Help: "Number of times a tree has failed to build",
		},
		[]string{"tree"},
	)

	TreeBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formtree_tree_build_duration_seconds",
			Help:    "Tree build duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"tree"},
	)

	PatchApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_patch_applied_total",
			Help: "Number of patch applications",
		},
		[]string{"tree", "region"},
	)

	PatchSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_patch_skipped_total",
			Help: "Number of patch descriptors dropped at compile time",
		},
		[]string{"kind"},
	)

	PatchUnused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formtree_patch_unused_total",
			Help: "Number of compiled patches that matched no node during a build",
		},
		[]string{"tree", "region"},
	)
)

func TreeBuildSucceeded(tree, region string, applied, unused int, startTime time.Time) {
	TreeBuildCount.Inc()
	TreeBuildDuration.WithLabelValues(tree).Observe(time.Since(startTime).Seconds())
	PatchApplied.WithLabelValues(tree, region).Add(float64(applied))
	PatchUnused.WithLabelValues(tree, region).Add(float64(unused))
}

func TreeBuildFailure(tree string) {
	TreeBuildCount.Inc()
	TreeBuildFailed.WithLabelValues(tree).Inc()
}
