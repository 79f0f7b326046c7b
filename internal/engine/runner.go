package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fx-backtester/internal/config"
	"fx-backtester/internal/infrastructure"
	"fx-backtester/internal/model"
	"fx-backtester/internal/strategy"
)

// Runner applies the simulator across the configured lot sizes and, in
// batch mode, across a list of strategies. Signals are generated once
// per strategy; the simulation runs once at pip level and the economics
// are rescaled per lot size, which makes trade timing identical across
// lot sizes by construction.
type Runner struct {
	cfg    config.BacktestConfig
	logger *zap.Logger
	js     nats.JetStreamContext // nil disables result publishing
}

func NewRunner(cfg config.BacktestConfig, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// WithJetStream enables publishing of completed bundles to
// backtest.results.<strategy>.
func (r *Runner) WithJetStream(js nats.JetStreamContext) *Runner {
	r.js = js
	return r
}

// Backtest runs one strategy against one price series and returns a map
// keyed by canonical lot-size string. The keyed map, not positional
// order, is the aggregation contract.
func (r *Runner) Backtest(ctx context.Context, strat strategy.Strategy, series model.PriceSeries) (map[string]*model.ResultBundle, error) {
	if err := Validate(series); err != nil {
		return nil, err
	}

	signals, err := generateSignals(strat, series)
	if err != nil {
		return nil, fmt.Errorf("strategy %s failed to generate signals: %w", strat.Name(), err)
	}

	sim := NewSimulator(SimConfig{
		StopLossPips:   r.cfg.StopLossPips,
		TakeProfitPips: r.cfg.TakeProfitPips,
		PipValue:       r.cfg.PipValue(),
		CloseAtEnd:     r.cfg.CloseOpenPositionAtEnd,
	})

	var recorder *ContextRecorder
	if r.cfg.RecordContext {
		recorder = NewContextRecorder(series, r.cfg.PipValue().InexactFloat64(), r.cfg.ContextBarsBefore, r.cfg.ContextBarsAfter)
		sim.OnTradeClosed(recorder.Record)
	}

	start := time.Now()
	trades, err := sim.Run(series, signals)
	if err != nil {
		return nil, err
	}
	infrastructure.SimulationDuration.WithLabelValues(strat.Name()).Observe(time.Since(start).Seconds())
	infrastructure.BacktestsTotal.WithLabelValues(strat.Name()).Inc()

	econ := Economics{
		PipValuePerLot:   r.cfg.PipValuePerLot,
		CommissionPerLot: r.cfg.CommissionPerLot,
	}

	results := make(map[string]*model.ResultBundle, len(r.cfg.LotSizes))
	for _, lot := range r.cfg.LotSizes {
		// Cancellation is cooperative and checked between scenarios,
		// never mid-scan.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bundle := r.buildBundle(strat.Name(), lot, trades, econ)
		if recorder != nil {
			bundle.TradesDetailed = recorder.Contexts()
		}
		results[lot.String()] = bundle
		infrastructure.ScenariosCompleted.Inc()
		r.publish(bundle)
	}

	return results, nil
}

// TestStrategies backtests a batch of strategies over a bounded worker
// pool. A strategy whose signal generation fails or panics is skipped
// and logged, never fatal to the batch. Bundles arrive in completion
// order; each one identifies itself by strategy name and lot size.
func (r *Runner) TestStrategies(ctx context.Context, strategies []strategy.Strategy, series model.PriceSeries) []*model.ResultBundle {
	workers := r.cfg.MaxParallelScenarios
	if workers < 1 {
		workers = 1
	}
	if workers > len(strategies) {
		workers = len(strategies)
	}

	jobs := make(chan strategy.Strategy)
	var mu sync.Mutex
	var bundles []*model.ResultBundle
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for strat := range jobs {
				results, err := r.Backtest(ctx, strat, series)
				if err != nil {
					infrastructure.StrategyFailures.WithLabelValues(strat.Name()).Inc()
					r.logger.Warn("strategy skipped",
						zap.String("strategy", strat.Name()),
						zap.Error(err),
					)
					continue
				}
				mu.Lock()
				for _, b := range results {
					bundles = append(bundles, b)
				}
				mu.Unlock()
			}
		}()
	}

	for _, strat := range strategies {
		select {
		case <-ctx.Done():
			r.logger.Warn("batch cancelled", zap.Error(ctx.Err()))
			close(jobs)
			wg.Wait()
			return bundles
		case jobs <- strat:
		}
	}
	close(jobs)
	wg.Wait()

	return bundles
}

// buildBundle rescales the shared trade list to one lot size and
// aggregates its metrics.
func (r *Runner) buildBundle(name string, lot decimal.Decimal, trades []model.Trade, econ Economics) *model.ResultBundle {
	scaled := make([]model.Trade, len(trades))
	grossTotal := decimal.Zero
	commissionTotal := decimal.Zero
	netTotal := decimal.Zero
	for i, t := range trades {
		scaled[i] = econ.Apply(t, lot)
		grossTotal = grossTotal.Add(scaled[i].GrossPnL)
		commissionTotal = commissionTotal.Add(scaled[i].Commission)
		netTotal = netTotal.Add(scaled[i].NetPnL)
	}

	equity := BuildEquityCurve(r.cfg.InitialCapital, scaled)
	metrics := ComputeMetrics(scaled, equity, r.cfg.AnnualizationFactor)

	return &model.ResultBundle{
		StrategyName:    name,
		LotSize:         lot,
		Trades:          scaled,
		EquityCurve:     equity,
		Metrics:         metrics,
		GrossPnL:        grossTotal,
		TotalCommission: commissionTotal,
		NetPnL:          netTotal,
	}
}

func (r *Runner) publish(bundle *model.ResultBundle) {
	if r.js == nil {
		return
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		r.logger.Error("failed to marshal result bundle", zap.Error(err))
		return
	}
	subject := fmt.Sprintf("backtest.results.%s", bundle.StrategyName)
	if _, err := r.js.Publish(subject, data); err != nil {
		r.logger.Error("failed to publish result bundle",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// generateSignals recovers a panicking strategy into an error so the
// batch layer can skip it instead of crashing the run.
func generateSignals(strat strategy.Strategy, series model.PriceSeries) (signals []int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("signal generation panicked: %v", p)
		}
	}()
	return strat.GenerateSignals(series)
}
