package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BacktestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtests_total",
		Help: "Total number of backtests run",
	}, []string{"strategy"})

	ScenariosCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenarios_completed_total",
		Help: "Total number of (strategy, lot size) scenarios completed",
	})

	StrategyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strategy_failures_total",
		Help: "Strategies skipped because signal generation failed",
	}, []string{"strategy"})

	SimulationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "simulation_duration_seconds",
		Help: "Wall time of a single simulation pass",
	}, []string{"strategy"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	TicksReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticks_replayed_total",
		Help: "Total number of ticks republished by the replay feed",
	}, []string{"symbol"})

	DBInsertRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db_insert_total",
		Help: "Total number of records inserted into DB",
	}, []string{"table"})
)
