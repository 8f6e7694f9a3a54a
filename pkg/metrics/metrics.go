package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HistogramBuckets covers request latencies in milliseconds, from fast
// validator-only paths up to slow bulk settlements.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 7500, 10000, 15000,
	30000, 60000,
}

// ValidatorDecisions counts escrow validator outcomes per action. The
// outcome label is "accepted", "conflict" or the rejection code.
var ValidatorDecisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "escrow",
		Name:      "validator_decisions_total",
		Help:      "Escrow validator outcomes partitioned by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// SettlementBatchSize observes how many records each bulk settlement
// actually transitioned.
var SettlementBatchSize = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: "escrow",
		Name:      "settlement_batch_size",
		Help:      "Records settled per bulk settlement transaction.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55},
	},
)

// SettlementStaleDrops counts records dropped from a batch because another
// transaction consumed them first.
var SettlementStaleDrops = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: "escrow",
		Name:      "settlement_stale_drops_total",
		Help:      "Batch candidates dropped after losing a spend race.",
	},
)

// GateChecks counts service-access gate outcomes by status.
var GateChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "escrow",
		Name:      "gate_checks_total",
		Help:      "Service-access gate outcomes partitioned by status.",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(
		ValidatorDecisions,
		SettlementBatchSize,
		SettlementStaleDrops,
		GateChecks,
	)
}
