package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fx-backtester/internal/config"
	"fx-backtester/internal/model"
	"fx-backtester/internal/strategy"
)

// stubStrategy returns canned signals, an error, or panics, depending on
// which field is set.
type stubStrategy struct {
	name    string
	signals []int
	err     error
	panics  bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) GenerateSignals(series model.PriceSeries) ([]int, error) {
	if s.panics {
		panic("bad strategy arithmetic")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.signals, nil
}

func runnerConfig(lots ...float64) config.BacktestConfig {
	cfg := config.DefaultBacktestConfig()
	cfg.LotSizes = nil
	for _, l := range lots {
		cfg.LotSizes = append(cfg.LotSizes, decimal.NewFromFloat(l))
	}
	cfg.MaxParallelScenarios = 2
	return cfg
}

func TestRunner_TakeProfitScenario(t *testing.T) {
	// Two bars, enter long at 1.0500, +20 pips available, 15 pip target:
	// one trade at +15 pips, $15.00 gross, $0.01 commission, $14.99 net.
	cfg := runnerConfig(0.1)
	cfg.StopLossPips = decimal.NewFromInt(20)
	cfg.TakeProfitPips = decimal.NewFromInt(15)

	runner := NewRunner(cfg, zap.NewNop())
	series := midSeries(1.0500, 1.0520)
	strat := &stubStrategy{name: "two_bar_long", signals: []int{1, 0}}

	results, err := runner.Backtest(context.Background(), strat, series)
	assert.NoError(t, err)
	assert.Len(t, results, 1)

	bundle, ok := results["0.1"]
	assert.True(t, ok, "bundle keyed by canonical lot string")
	assert.Len(t, bundle.Trades, 1)

	tr := bundle.Trades[0]
	assert.Equal(t, model.ExitTakeProfit, tr.ExitReason)
	assert.True(t, tr.PnLPips.Equal(decimal.NewFromInt(15)), "pips %s", tr.PnLPips)
	assert.True(t, tr.GrossPnL.Equal(decimal.RequireFromString("15")), "gross %s", tr.GrossPnL)
	assert.True(t, tr.Commission.Equal(decimal.RequireFromString("0.01")), "commission %s", tr.Commission)
	assert.True(t, tr.NetPnL.Equal(decimal.RequireFromString("14.99")), "net %s", tr.NetPnL)

	finalEquity := bundle.EquityCurve[len(bundle.EquityCurve)-1]
	assert.True(t, finalEquity.Equal(decimal.RequireFromString("10014.99")), "final equity %s", finalEquity)
}

func TestRunner_LotSizeLinearity(t *testing.T) {
	cfg := runnerConfig(0.01, 0.1, 1.0)
	runner := NewRunner(cfg, zap.NewNop())

	series := midSeries(1.0500, 1.0510, 1.0495, 1.0520, 1.0480, 1.0530)
	strat := &stubStrategy{name: "flipper", signals: []int{1, -1, 1, -1, 1, -1}}

	results, err := runner.Backtest(context.Background(), strat, series)
	assert.NoError(t, err)
	assert.Len(t, results, 3)

	small := results["0.01"]
	large := results["1"]
	assert.Equal(t, len(small.Trades), len(large.Trades))
	assert.NotEmpty(t, small.Trades)

	hundred := decimal.NewFromInt(100)
	for i := range small.Trades {
		// identical timing across lot sizes
		assert.Equal(t, small.Trades[i].EntryIndex, large.Trades[i].EntryIndex)
		assert.Equal(t, small.Trades[i].ExitIndex, large.Trades[i].ExitIndex)
		assert.Equal(t, small.Trades[i].ExitReason, large.Trades[i].ExitReason)
		assert.True(t, small.Trades[i].PnLPips.Equal(large.Trades[i].PnLPips))

		// economics scale exactly with the lot ratio
		assert.True(t, large.Trades[i].GrossPnL.Equal(small.Trades[i].GrossPnL.Mul(hundred)),
			"trade %d gross: %s != 100 * %s", i, large.Trades[i].GrossPnL, small.Trades[i].GrossPnL)
		assert.True(t, large.Trades[i].Commission.Equal(small.Trades[i].Commission.Mul(hundred)))
	}

	assert.True(t, large.GrossPnL.Equal(small.GrossPnL.Mul(hundred)))
	assert.True(t, large.TotalCommission.Equal(small.TotalCommission.Mul(hundred)))
}

func TestRunner_DetailedContextNeutrality(t *testing.T) {
	series := quoteSeries([][2]float64{
		{1.0499, 1.0501},
		{1.0509, 1.0511},
		{1.0489, 1.0491},
		{1.0519, 1.0521},
	})
	signals := []int{1, -1, 1, -1}
	strat := &stubStrategy{name: "flipper", signals: signals}

	plain := runnerConfig(0.1)
	plainResults, err := NewRunner(plain, zap.NewNop()).Backtest(context.Background(), strat, series)
	assert.NoError(t, err)

	detailed := runnerConfig(0.1)
	detailed.RecordContext = true
	detailedResults, err := NewRunner(detailed, zap.NewNop()).Backtest(context.Background(), strat, series)
	assert.NoError(t, err)

	p := plainResults["0.1"]
	d := detailedResults["0.1"]

	assert.Equal(t, p.Trades, d.Trades)
	assert.Equal(t, p.EquityCurve, d.EquityCurve)
	assert.Equal(t, p.Metrics, d.Metrics)

	assert.Empty(t, p.TradesDetailed)
	assert.Len(t, d.TradesDetailed, len(d.Trades))
}

func TestRunner_ValidationFailureAborts(t *testing.T) {
	runner := NewRunner(runnerConfig(0.1), zap.NewNop())
	strat := &stubStrategy{name: "any", signals: []int{1, 0}}

	constant := midSeries(1.0500, 1.0500)
	_, err := runner.Backtest(context.Background(), strat, constant)
	assert.ErrorIs(t, err, ErrConstantPrices)
}

func TestRunner_CancelledContext(t *testing.T) {
	runner := NewRunner(runnerConfig(0.1), zap.NewNop())
	strat := &stubStrategy{name: "any", signals: []int{1, 0}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Backtest(ctx, strat, midSeries(1.0500, 1.0520))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_TestStrategiesSkipsFailures(t *testing.T) {
	cfg := runnerConfig(0.01, 0.1)
	runner := NewRunner(cfg, zap.NewNop())

	series := midSeries(1.0500, 1.0510, 1.0495, 1.0520)
	bundles := runner.TestStrategies(context.Background(), []strategy.Strategy{
		&stubStrategy{name: "broken", err: errors.New("no data")},
		&stubStrategy{name: "panicky", panics: true},
		&stubStrategy{name: "good", signals: []int{1, -1, 1, -1}},
	}, series)

	// only the healthy strategy contributes, one bundle per lot size
	assert.Len(t, bundles, 2)
	for _, b := range bundles {
		assert.Equal(t, "good", b.StrategyName)
	}
}
