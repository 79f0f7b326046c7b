package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

// MomentumStrategy goes long when the return over the lookback window
// exceeds the threshold, short when it falls below the negated threshold.
type MomentumStrategy struct {
	lookback  int
	threshold decimal.Decimal
}

func NewMomentumStrategy(lookback int, threshold decimal.Decimal) *MomentumStrategy {
	return &MomentumStrategy{
		lookback:  lookback,
		threshold: threshold,
	}
}

func (s *MomentumStrategy) Name() string {
	return fmt.Sprintf("momentum_%d", s.lookback)
}

func (s *MomentumStrategy) GenerateSignals(series model.PriceSeries) ([]int, error) {
	if s.lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d", s.lookback)
	}
	if s.threshold.Sign() <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %s", s.threshold)
	}

	signals := make([]int, series.Len())
	for i := range series.Ticks {
		if i < s.lookback {
			continue
		}
		base := series.Ticks[i-s.lookback].Mid
		if base.IsZero() {
			continue
		}
		ret := series.Ticks[i].Mid.Sub(base).Div(base)

		if ret.GreaterThan(s.threshold) {
			signals[i] = SignalLong
		} else if ret.LessThan(s.threshold.Neg()) {
			signals[i] = SignalShort
		}
	}
	return signals, nil
}
