// Package metrics holds the Prometheus collectors of the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_like_toggles_total",
		Help: "Like toggles by target kind and outcome.",
	}, []string{"kind", "outcome"})

	LikeConflictsMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_like_conflicts_merged_total",
		Help: "Duplicate like edge inserts treated as success.",
	}, []string{"kind"})

	CounterDriftCorrected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_counter_drift_corrected_total",
		Help: "Absolute like_count drift repaired by reconciliation.",
	}, []string{"kind"})

	CascadeDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_cascade_deleted_total",
		Help: "Rows removed by cascading deletes.",
	}, []string{"entity"})

	OrphansPromoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_orphans_promoted_total",
		Help: "Orphaned replies promoted to root, counted on every thread rebuild.",
	})

	LastSweepCorrections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "threads_last_sweep_corrections",
		Help: "Targets whose counter was corrected by the most recent sweep.",
	})
)
