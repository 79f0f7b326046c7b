package engine

import (
	"errors"

	"fx-backtester/internal/model"
)

// Validation failures are fatal for the backtest call that supplied the
// series; they are raised before any simulation so a bad input can never
// masquerade as a legitimate zero-trade result.
var (
	ErrEmptySeries    = errors.New("price series validation failed: empty data")
	ErrNullPrices     = errors.New("price series validation failed: all prices null")
	ErrNonPositive    = errors.New("price series validation failed: non-positive prices")
	ErrConstantPrices = errors.New("price series validation failed: constant prices")
)

// Validate rejects degenerate price series: empty input, all-null mids,
// zero or negative prices, and zero price variance.
func Validate(series model.PriceSeries) error {
	if series.Len() == 0 {
		return ErrEmptySeries
	}

	nulls := 0
	for _, t := range series.Ticks {
		if t.Mid.IsZero() {
			nulls++
		}
	}
	if nulls == series.Len() {
		return ErrNullPrices
	}

	for _, t := range series.Ticks {
		if t.Mid.Sign() <= 0 {
			return ErrNonPositive
		}
	}

	first := series.Ticks[0].Mid
	constant := true
	for _, t := range series.Ticks[1:] {
		if !t.Mid.Equal(first) {
			constant = false
			break
		}
	}
	if constant {
		return ErrConstantPrices
	}

	return nil
}
