package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckpointHits tracks sheets found in the ledger
	CheckpointHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_checkpoint_hits_total",
			Help: "Total number of sheets skipped because the ledger marked them done",
		},
	)

	// CheckpointErrors tracks ledger operation errors
	CheckpointErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_checkpoint_errors_total",
			Help: "Total number of checkpoint ledger errors",
		},
		[]string{"operation"}, // "is_done", "mark_done", "reset", "done"
	)
)
