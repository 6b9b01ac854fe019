// Package obs exposes the strategy's Prometheus metrics: exit outcomes,
// open-trade and gross gauges, and persistence health. Served by the HTTP
// handler started in cmd/strategy at /metrics.
package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_exits_total",
			Help: "Trade exits by kind (stop|profit|time|flatten).",
		},
		[]string{"kind"},
	)

	exitRejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategy_exit_rejects_total",
			Help: "Exit order submissions rejected by the venue.",
		},
		[]string{"kind"},
	)

	openTrades = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategy_open_trades",
			Help: "Active trade slices currently tracked.",
		},
	)

	gross = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategy_gross",
			Help: "Running mark-to-market figure.",
		},
	)

	snapshotWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_snapshot_writes_total",
			Help: "Registry snapshots persisted.",
		},
	)

	snapshotErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_snapshot_errors_total",
			Help: "Registry snapshot writes that failed.",
		},
	)

	partialFills = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_partial_fills_total",
			Help: "Partial exit fills observed (informational only).",
		},
	)

	tickDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strategy_tick_drops_total",
			Help: "Market ticks dropped because the event queue was full.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		exitsTotal, exitRejectsTotal,
		openTrades, gross,
		snapshotWrites, snapshotErrors,
		partialFills, tickDrops,
	)
}

func IncExit(kind string)       { exitsTotal.WithLabelValues(kind).Inc() }
func IncExitReject(kind string) { exitRejectsTotal.WithLabelValues(kind).Inc() }
func SetOpenTrades(n int)       { openTrades.Set(float64(n)) }
func SetGross(v float64)        { gross.Set(v) }
func IncSnapshotWrite()         { snapshotWrites.Inc() }
func IncSnapshotError()         { snapshotErrors.Inc() }
func IncPartialFill()           { partialFills.Inc() }
func IncTickDrop()              { tickDrops.Inc() }
