package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

// BuildEquityCurve derives the equity curve from a trade list: it starts
// at the initial capital and adds each trade's net PnL in order. Length
// is always len(trades)+1. Recomputed whenever the trade list changes,
// never mutated in place.
func BuildEquityCurve(initialCapital decimal.Decimal, trades []model.Trade) []decimal.Decimal {
	curve := make([]decimal.Decimal, 0, len(trades)+1)
	curve = append(curve, initialCapital)
	equity := initialCapital
	for _, t := range trades {
		equity = equity.Add(t.NetPnL)
		curve = append(curve, equity)
	}
	return curve
}

// ComputeMetrics reduces a closed trade list and its equity curve into
// the standard performance bundle. Degenerate inputs (no trades, zero
// variance, zero drawdown) resolve to 0.0 across the board; these values
// feed ranking code downstream, so NaN or Inf must never escape.
func ComputeMetrics(trades []model.Trade, equity []decimal.Decimal, annualization float64) model.Metrics {
	m := model.Metrics{NTrades: len(trades)}

	var wins, losses []float64
	returns := make([]float64, 0, len(trades))
	for _, t := range trades {
		pnl := t.NetPnL.InexactFloat64()
		returns = append(returns, pnl)
		if pnl > 0 {
			wins = append(wins, pnl)
		} else if pnl < 0 {
			losses = append(losses, pnl)
		}
	}

	if len(trades) > 0 {
		m.WinRate = float64(len(wins)) / float64(len(trades))
	}

	var winSum, lossSum float64
	for _, w := range wins {
		winSum += w
		if w > m.LargestWin {
			m.LargestWin = w
		}
	}
	for _, l := range losses {
		lossSum += l
		if l < m.LargestLoss {
			m.LargestLoss = l
		}
	}
	if len(wins) > 0 {
		m.AvgWin = winSum / float64(len(wins))
	}
	if len(losses) > 0 {
		m.AvgLoss = lossSum / float64(len(losses))
		m.ProfitFactor = winSum / math.Abs(lossSum)
	}

	// avg_loss is negative, so the expectancy terms oppose each other.
	m.Expectancy = m.WinRate*m.AvgWin + (1-m.WinRate)*m.AvgLoss

	if len(equity) > 0 {
		initial := equity[0].InexactFloat64()
		final := equity[len(equity)-1].InexactFloat64()
		if initial != 0 {
			m.TotalReturn = (final - initial) / initial
		}
	}

	m.SharpeRatio = sharpe(returns, annualization)
	m.SortinoRatio = sortino(returns, annualization)

	dd := drawdowns(equity)
	for _, d := range dd {
		if d > m.MaxDrawdown {
			m.MaxDrawdown = d
		}
	}
	m.UlcerIndex = ulcerIndex(dd)

	if m.MaxDrawdown != 0 {
		m.CalmarRatio = m.TotalReturn / m.MaxDrawdown
		m.RecoveryFactor = m.TotalReturn / m.MaxDrawdown
	}

	return m
}

// sharpe annualizes mean/std of the per-trade net PnL series. Zero when
// fewer than two trades or when the series has no variance.
func sharpe(returns []float64, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	avg := mean(returns)
	sd := stdDev(returns, avg)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(annualization) * avg / sd
}

// sortino keeps the Sharpe numerator but divides by the deviation of the
// losing subset only. Zero when there are no negative returns or the
// subset has no variance.
func sortino(returns []float64, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	sd := stdDev(downside, mean(downside))
	if sd == 0 {
		return 0
	}
	return math.Sqrt(annualization) * mean(returns) / sd
}

// drawdowns returns the per-point decline from the running equity peak,
// as positive fractions.
func drawdowns(equity []decimal.Decimal) []float64 {
	if len(equity) < 2 {
		return nil
	}
	dd := make([]float64, 0, len(equity))
	peak := equity[0]
	for _, e := range equity {
		if e.GreaterThan(peak) {
			peak = e
		}
		if peak.Sign() > 0 {
			dd = append(dd, peak.Sub(e).Div(peak).InexactFloat64())
		} else {
			dd = append(dd, 0)
		}
	}
	return dd
}

// ulcerIndex is the root-mean-square of percentage drawdowns.
func ulcerIndex(dd []float64) float64 {
	if len(dd) == 0 {
		return 0
	}
	var sumSq float64
	for _, d := range dd {
		pct := 100 * d
		sumSq += pct * pct
	}
	return math.Sqrt(sumSq / float64(len(dd)))
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, avg float64) float64 {
	var sumSq float64
	for _, x := range xs {
		d := x - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
