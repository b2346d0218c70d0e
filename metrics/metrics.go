package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DepositsFound = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_deposits_found_total", Help: "Qualifying deposits decoded from scanned blocks"},
	)
	MintsSucceeded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_mints_succeeded_total", Help: "REVO mint transactions accepted by the destination chain"},
	)
	MintsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_mints_failed_total", Help: "REVO mint submissions that errored"},
	)
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_poll_cycles_total", Help: "Completed poll cycles, no-op cycles included"},
	)
	LastBlockProcessed = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "bridge_last_block_processed", Help: "Source-chain watermark the ledger has advanced to"},
	)
)

func init() {
	prometheus.MustRegister(
		DepositsFound,
		MintsSucceeded,
		MintsFailed,
		CyclesTotal,
		LastBlockProcessed,
	)
}
