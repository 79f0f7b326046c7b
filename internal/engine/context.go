package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

const (
	volatilityWindow   = 20
	volumeWindow       = 20
	patternHistoryBars = 5
)

// ContextRecorder attaches a market snapshot and a bounded price window
// to every closed trade. It subscribes to the simulator's trade-closed
// events and never feeds anything back: enabling it cannot change trade
// timing, PnL, or any aggregated metric. Off by default because the
// per-trade window copy is O(window) on multi-million-row series.
type ContextRecorder struct {
	series     model.PriceSeries
	pipValue   float64
	barsBefore int
	barsAfter  int
	contexts   []model.TradeContext
}

func NewContextRecorder(series model.PriceSeries, pipValue float64, barsBefore, barsAfter int) *ContextRecorder {
	return &ContextRecorder{
		series:     series,
		pipValue:   pipValue,
		barsBefore: barsBefore,
		barsAfter:  barsAfter,
	}
}

// Record builds the snapshot for one closed trade. Wired as the
// simulator's OnTradeClosed observer.
func (r *ContextRecorder) Record(t model.Trade) {
	entry := r.series.Ticks[t.EntryIndex]

	ctx := model.TradeContext{
		EntryIndex:     t.EntryIndex,
		ExitIndex:      t.ExitIndex,
		Volatility:     r.volatility(t.EntryIndex),
		TrendStrength:  entry.Momentum.InexactFloat64(),
		RelativeVolume: r.relativeVolume(t.EntryIndex),
		Spread:         entry.Spread(),
		Pattern:        entry.Pattern,
		RecentPatterns: r.recentPatterns(t.EntryIndex),
		Hour:           entry.Timestamp.Hour(),
		Weekday:        entry.Timestamp.Weekday(),
		PriceWindow:    r.priceWindow(t.EntryIndex, t.ExitIndex),
	}
	r.contexts = append(r.contexts, ctx)
}

// Contexts returns the snapshots in trade-close order.
func (r *ContextRecorder) Contexts() []model.TradeContext {
	return r.contexts
}

// volatility is the standard deviation of pip changes over the trailing
// window before entry, falling back to the entry bar's high/low range
// when there is too little history.
func (r *ContextRecorder) volatility(entryIndex int) float64 {
	start := entryIndex - volatilityWindow
	if start < 0 {
		start = 0
	}
	changes := make([]float64, 0, entryIndex-start)
	for i := start + 1; i <= entryIndex; i++ {
		d := r.series.Ticks[i].Mid.Sub(r.series.Ticks[i-1].Mid).InexactFloat64()
		changes = append(changes, d/r.pipValue)
	}
	if len(changes) < 2 {
		tick := r.series.Ticks[entryIndex]
		if tick.High.IsZero() || tick.Low.IsZero() {
			return 0
		}
		return tick.High.Sub(tick.Low).InexactFloat64() / r.pipValue
	}

	avg := mean(changes)
	var sumSq float64
	for _, c := range changes {
		d := c - avg
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(changes)))
}

// relativeVolume compares the entry bar's volume to its trailing average.
func (r *ContextRecorder) relativeVolume(entryIndex int) float64 {
	start := entryIndex - volumeWindow
	if start < 0 {
		start = 0
	}
	var sum float64
	n := 0
	for i := start; i < entryIndex; i++ {
		sum += r.series.Ticks[i].Volume.InexactFloat64()
		n++
	}
	if n == 0 || sum == 0 {
		return 0
	}
	avg := sum / float64(n)
	return r.series.Ticks[entryIndex].Volume.InexactFloat64() / avg
}

func (r *ContextRecorder) recentPatterns(entryIndex int) []string {
	start := entryIndex - patternHistoryBars + 1
	if start < 0 {
		start = 0
	}
	patterns := make([]string, 0, entryIndex-start+1)
	for i := start; i <= entryIndex; i++ {
		if p := r.series.Ticks[i].Pattern; p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// priceWindow copies the mids from barsBefore bars ahead of entry through
// barsAfter bars past exit, clamped to the series bounds.
func (r *ContextRecorder) priceWindow(entryIndex, exitIndex int) []decimal.Decimal {
	start := entryIndex - r.barsBefore
	if start < 0 {
		start = 0
	}
	end := exitIndex + r.barsAfter
	if end > r.series.Len()-1 {
		end = r.series.Len() - 1
	}
	window := make([]decimal.Decimal, 0, end-start+1)
	for i := start; i <= end; i++ {
		window = append(window, r.series.Ticks[i].Mid)
	}
	return window
}
