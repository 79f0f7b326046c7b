package strategy

import (
	"fx-backtester/internal/model"
)

// Signal values, one per bar, aligned 1:1 with the price series.
const (
	SignalLong  = 1
	SignalShort = -1
	SignalNone  = 0
)

// Strategy turns a price series into a signal series. Generation must be
// deterministic and lot-size independent: the runner generates signals
// once per strategy and reuses them across every lot-size scenario.
type Strategy interface {
	Name() string
	GenerateSignals(series model.PriceSeries) ([]int, error)
}
