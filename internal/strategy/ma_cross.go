package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

// MACrossStrategy emits +1 on a golden cross of the short moving average
// over the long one, and -1 on the death cross.
type MACrossStrategy struct {
	shortPeriod int
	longPeriod  int
}

func NewMACrossStrategy(shortPeriod, longPeriod int) *MACrossStrategy {
	return &MACrossStrategy{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}
}

func (s *MACrossStrategy) Name() string {
	return fmt.Sprintf("ma_cross_%d_%d", s.shortPeriod, s.longPeriod)
}

func (s *MACrossStrategy) GenerateSignals(series model.PriceSeries) ([]int, error) {
	if s.shortPeriod <= 0 || s.longPeriod <= s.shortPeriod {
		return nil, fmt.Errorf("invalid periods: short=%d long=%d", s.shortPeriod, s.longPeriod)
	}

	signals := make([]int, series.Len())
	for i := range series.Ticks {
		// Need one extra bar to compare against the previous crossing state.
		if i < s.longPeriod {
			continue
		}
		shortMA := s.movingAverage(series, i, s.shortPeriod)
		longMA := s.movingAverage(series, i, s.longPeriod)
		prevShort := s.movingAverage(series, i-1, s.shortPeriod)
		prevLong := s.movingAverage(series, i-1, s.longPeriod)

		if prevShort.LessThanOrEqual(prevLong) && shortMA.GreaterThan(longMA) {
			signals[i] = SignalLong
		} else if prevShort.GreaterThanOrEqual(prevLong) && shortMA.LessThan(longMA) {
			signals[i] = SignalShort
		}
	}
	return signals, nil
}

// movingAverage averages the mid price over the period ending at index i.
func (s *MACrossStrategy) movingAverage(series model.PriceSeries, i, period int) decimal.Decimal {
	sum := decimal.Zero
	for j := i - period + 1; j <= i; j++ {
		sum = sum.Add(series.Ticks[j].Mid)
	}
	return sum.Div(decimal.NewFromInt(int64(period)))
}
