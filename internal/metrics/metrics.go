package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts ledger operations by name and outcome
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration tracks how long an operation holds the service, journal write included
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// TransferVolume tracks the whole-token amount moved by successful transfers
	TransferVolume = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_transfer_volume_tokens",
			Help:    "Amount of whole tokens moved per transfer",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000, 10000, 1e6, 1e9},
		},
		[]string{"operation", "token"},
	)

	// TotalSupply tracks the fixed supply of each loaded ledger in whole tokens
	TotalSupply = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_total_supply_tokens",
			Help: "Total supply by token in whole tokens",
		},
		[]string{"token"},
	)

	// EventsPersisted counts events handed to each sink
	EventsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_persisted_total",
			Help: "Total number of ledger events written to a sink",
		},
		[]string{"sink", "status"},
	)
)
