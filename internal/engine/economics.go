package engine

import (
	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

// Economics converts pip movement into account-currency amounts. All
// methods are pure decimal arithmetic, so results are bit-identical no
// matter how often or in what order they run. That property is what lets
// the runner simulate once and rescale per lot size.
type Economics struct {
	PipValuePerLot   decimal.Decimal
	CommissionPerLot decimal.Decimal
}

// PipsToCurrency returns pips * pipValuePerLot * lotSize.
func (e Economics) PipsToCurrency(pips, lotSize decimal.Decimal) decimal.Decimal {
	return pips.Mul(e.PipValuePerLot).Mul(lotSize)
}

// RoundTripCommission charges entry and exit once per closed trade,
// regardless of win or loss.
func (e Economics) RoundTripCommission(lotSize decimal.Decimal) decimal.Decimal {
	return e.CommissionPerLot.Mul(decimal.NewFromInt(2)).Mul(lotSize)
}

// Apply fills a trade's currency fields from its pip movement at the
// given lot size. The input trade is copied, never mutated.
func (e Economics) Apply(t model.Trade, lotSize decimal.Decimal) model.Trade {
	t.GrossPnL = e.PipsToCurrency(t.PnLPips, lotSize)
	t.Commission = e.RoundTripCommission(lotSize)
	t.NetPnL = t.GrossPnL.Sub(t.Commission)
	return t
}
