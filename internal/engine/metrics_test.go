package engine

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fx-backtester/internal/model"
)

func tradesFromNetPnL(pnls ...float64) []model.Trade {
	trades := make([]model.Trade, len(pnls))
	for i, p := range pnls {
		trades[i] = model.Trade{NetPnL: decimal.NewFromFloat(p)}
	}
	return trades
}

func TestBuildEquityCurve_MonotonicWithTrades(t *testing.T) {
	initial := decimal.NewFromInt(10000)
	trades := tradesFromNetPnL(10, -5, 3)

	curve := BuildEquityCurve(initial, trades)
	assert.Len(t, curve, len(trades)+1)
	assert.True(t, curve[0].Equal(initial))

	for i, tr := range trades {
		diff := curve[i+1].Sub(curve[i])
		assert.True(t, diff.Equal(tr.NetPnL), "equity step %d: %s != %s", i, diff, tr.NetPnL)
	}
}

func TestComputeMetrics_EmptyTradesAllZero(t *testing.T) {
	initial := decimal.NewFromInt(10000)
	curve := BuildEquityCurve(initial, nil)

	m := ComputeMetrics(nil, curve, 252)

	assert.Equal(t, 0, m.NTrades)
	assert.Zero(t, m.WinRate)
	assert.Zero(t, m.ProfitFactor)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
	assert.Zero(t, m.CalmarRatio)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.UlcerIndex)
	assert.Zero(t, m.RecoveryFactor)
	assert.Zero(t, m.Expectancy)
	assert.Zero(t, m.TotalReturn)
	assert.False(t, math.IsNaN(m.SharpeRatio))
}

func TestComputeMetrics_KnownValues(t *testing.T) {
	initial := decimal.NewFromInt(10000)
	trades := tradesFromNetPnL(10, -5, 3)
	curve := BuildEquityCurve(initial, trades)

	m := ComputeMetrics(trades, curve, 252)

	assert.Equal(t, 3, m.NTrades)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-12)
	assert.InDelta(t, 13.0/5.0, m.ProfitFactor, 1e-12)
	assert.InDelta(t, 6.5, m.AvgWin, 1e-12)
	assert.InDelta(t, -5.0, m.AvgLoss, 1e-12)
	assert.InDelta(t, 10.0, m.LargestWin, 1e-12)
	assert.InDelta(t, -5.0, m.LargestLoss, 1e-12)
	assert.InDelta(t, 8.0/10000.0, m.TotalReturn, 1e-12)

	// expectancy = win_rate*avg_win + (1-win_rate)*avg_loss
	assert.InDelta(t, (2.0/3.0)*6.5+(1.0/3.0)*(-5.0), m.Expectancy, 1e-12)

	// sharpe = sqrt(252) * mean / populationStd over [10,-5,3]
	avg := (10.0 - 5.0 + 3.0) / 3.0
	variance := ((10-avg)*(10-avg) + (-5-avg)*(-5-avg) + (3-avg)*(3-avg)) / 3.0
	wantSharpe := math.Sqrt(252) * avg / math.Sqrt(variance)
	assert.InDelta(t, wantSharpe, m.SharpeRatio, 1e-9)

	// single losing trade: downside deviation is zero, sortino guards to 0
	assert.Zero(t, m.SortinoRatio)

	// equity 10000, 10010, 10005, 10008: peak 10010
	wantMaxDD := 5.0 / 10010.0
	assert.InDelta(t, wantMaxDD, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, m.TotalReturn/wantMaxDD, m.CalmarRatio, 1e-9)
	assert.InDelta(t, m.TotalReturn/wantMaxDD, m.RecoveryFactor, 1e-9)

	dd2 := 100 * 5.0 / 10010.0
	dd3 := 100 * 2.0 / 10010.0
	wantUlcer := math.Sqrt((dd2*dd2 + dd3*dd3) / 4.0)
	assert.InDelta(t, wantUlcer, m.UlcerIndex, 1e-9)
}

func TestComputeMetrics_SortinoWithDownsideVariance(t *testing.T) {
	trades := tradesFromNetPnL(10, -5, -9, 4)
	curve := BuildEquityCurve(decimal.NewFromInt(10000), trades)

	m := ComputeMetrics(trades, curve, 252)

	returns := []float64{10, -5, -9, 4}
	avg := 0.0
	for _, r := range returns {
		avg += r
	}
	avg /= 4

	downAvg := (-5.0 + -9.0) / 2.0
	downVar := ((-5-downAvg)*(-5-downAvg) + (-9-downAvg)*(-9-downAvg)) / 2.0
	want := math.Sqrt(252) * avg / math.Sqrt(downVar)
	assert.InDelta(t, want, m.SortinoRatio, 1e-9)
}

func TestComputeMetrics_ZeroVarianceGuards(t *testing.T) {
	// identical returns: sharpe must be 0, not Inf
	trades := tradesFromNetPnL(5, 5, 5)
	curve := BuildEquityCurve(decimal.NewFromInt(10000), trades)

	m := ComputeMetrics(trades, curve, 252)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)   // no losing trades
	assert.Zero(t, m.ProfitFactor)   // no losses
	assert.Zero(t, m.MaxDrawdown)    // equity only rises
	assert.Zero(t, m.CalmarRatio)    // guarded by zero drawdown
	assert.Zero(t, m.RecoveryFactor) // same guard, distinct metric
	assert.False(t, math.IsInf(m.SharpeRatio, 0))
}

func TestComputeMetrics_SingleTrade(t *testing.T) {
	trades := tradesFromNetPnL(10)
	curve := BuildEquityCurve(decimal.NewFromInt(10000), trades)

	m := ComputeMetrics(trades, curve, 252)
	assert.Equal(t, 1, m.NTrades)
	assert.InDelta(t, 1.0, m.WinRate, 1e-12)
	assert.Zero(t, m.SharpeRatio) // fewer than 2 trades
}
