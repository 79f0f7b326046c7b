package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

type positionState int

const (
	stateFlat positionState = iota
	stateLong
	stateShort
)

// position is the simulator's only mutable state: one open or flat
// position carried across bars. Never persisted.
type position struct {
	state      positionState
	entryIndex int
	entryPrice decimal.Decimal
}

// SimConfig holds the per-run simulation parameters. Thresholds are in
// pips and therefore lot-size independent.
type SimConfig struct {
	StopLossPips   decimal.Decimal
	TakeProfitPips decimal.Decimal
	PipValue       decimal.Decimal
	// CloseAtEnd mark-to-market closes a position still open after the
	// last bar. Default false: the dangling position is dropped.
	CloseAtEnd bool
}

// Simulator walks a price series once, resolving each bar against
// stop-loss, take-profit and opposing signals, and emits closed trades.
// It is inherently sequential: each bar's decision depends on the
// position state carried from the previous bar.
type Simulator struct {
	cfg     SimConfig
	onClose func(model.Trade)
}

func NewSimulator(cfg SimConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// OnTradeClosed registers an optional observer for closed trades. The
// observer is diagnostic only; it must not (and cannot) alter the trade.
func (s *Simulator) OnTradeClosed(fn func(model.Trade)) {
	s.onClose = fn
}

// Run executes the single forward pass. Emitted trades carry pip results
// only; Economics.Apply fills the currency fields per lot size.
func (s *Simulator) Run(series model.PriceSeries, signals []int) ([]model.Trade, error) {
	if len(signals) != series.Len() {
		return nil, fmt.Errorf("signal series length %d does not match price series length %d", len(signals), series.Len())
	}
	if s.cfg.PipValue.Sign() <= 0 {
		return nil, fmt.Errorf("pip value must be positive, got %s", s.cfg.PipValue)
	}

	trades := make([]model.Trade, 0)
	pos := position{state: stateFlat}

	for i, tick := range series.Ticks {
		var closed *model.Trade
		pos, closed = s.step(pos, i, tick, signals[i], series.HasBidAsk)
		if closed != nil {
			trades = append(trades, *closed)
			if s.onClose != nil {
				s.onClose(*closed)
			}
		}
	}

	if pos.state != stateFlat && s.cfg.CloseAtEnd {
		last := series.Len() - 1
		tick := series.Ticks[last]
		exit := s.exitPrice(pos.state, tick, series.HasBidAsk)
		pips := s.pipMovement(pos, exit)
		t := s.close(pos, last, exit, pips, model.ExitEndOfData)
		trades = append(trades, t)
		if s.onClose != nil {
			s.onClose(t)
		}
	}

	return trades, nil
}

// step is the state transition function: (state, bar) -> (state', trade?).
// Exit conditions are evaluated before new entries; a new position may
// open on the same bar that closed the previous one.
func (s *Simulator) step(pos position, i int, tick model.Tick, signal int, hasBidAsk bool) (position, *model.Trade) {
	if pos.state == stateFlat {
		if signal != 0 {
			return s.open(i, tick, signal, hasBidAsk), nil
		}
		return pos, nil
	}

	exit := s.exitPrice(pos.state, tick, hasBidAsk)
	pips := s.pipMovement(pos, exit)

	// Fixed priority, mutually exclusive: stop-loss, then take-profit,
	// then an opposing signal. Stop and target results are capped at
	// the threshold, not the raw overshoot.
	switch {
	case pips.LessThanOrEqual(s.cfg.StopLossPips.Neg()):
		t := s.close(pos, i, s.impliedExit(pos, s.cfg.StopLossPips.Neg()), s.cfg.StopLossPips.Neg(), model.ExitStopLoss)
		return s.reopen(i, tick, signal, hasBidAsk), &t
	case pips.GreaterThanOrEqual(s.cfg.TakeProfitPips):
		t := s.close(pos, i, s.impliedExit(pos, s.cfg.TakeProfitPips), s.cfg.TakeProfitPips, model.ExitTakeProfit)
		return s.reopen(i, tick, signal, hasBidAsk), &t
	case s.opposes(pos.state, signal):
		t := s.close(pos, i, exit, pips, model.ExitSignal)
		return s.reopen(i, tick, signal, hasBidAsk), &t
	}

	return pos, nil
}

func (s *Simulator) open(i int, tick model.Tick, signal int, hasBidAsk bool) position {
	state := stateLong
	price := tick.Mid
	if hasBidAsk {
		price = tick.Ask
	}
	if signal < 0 {
		state = stateShort
		price = tick.Mid
		if hasBidAsk {
			price = tick.Bid
		}
	}
	return position{state: state, entryIndex: i, entryPrice: price}
}

// reopen enters a fresh position on the bar that just closed one, when
// the bar's signal warrants it.
func (s *Simulator) reopen(i int, tick model.Tick, signal int, hasBidAsk bool) position {
	if signal != 0 {
		return s.open(i, tick, signal, hasBidAsk)
	}
	return position{state: stateFlat}
}

// exitPrice uses the opposite side convention: longs exit at bid,
// shorts at ask, mid when no quote sides exist.
func (s *Simulator) exitPrice(state positionState, tick model.Tick, hasBidAsk bool) decimal.Decimal {
	if !hasBidAsk {
		return tick.Mid
	}
	if state == stateLong {
		return tick.Bid
	}
	return tick.Ask
}

func (s *Simulator) pipMovement(pos position, exit decimal.Decimal) decimal.Decimal {
	if pos.state == stateLong {
		return exit.Sub(pos.entryPrice).Div(s.cfg.PipValue)
	}
	return pos.entryPrice.Sub(exit).Div(s.cfg.PipValue)
}

// impliedExit back-computes the price consistent with a capped pip
// result, keeping exit_price and pnl_pips coherent on stop/target fills.
func (s *Simulator) impliedExit(pos position, pips decimal.Decimal) decimal.Decimal {
	delta := pips.Mul(s.cfg.PipValue)
	if pos.state == stateLong {
		return pos.entryPrice.Add(delta)
	}
	return pos.entryPrice.Sub(delta)
}

func (s *Simulator) opposes(state positionState, signal int) bool {
	return (state == stateLong && signal < 0) || (state == stateShort && signal > 0)
}

func (s *Simulator) close(pos position, exitIndex int, exitPrice, pips decimal.Decimal, reason string) model.Trade {
	direction := model.DirectionLong
	if pos.state == stateShort {
		direction = model.DirectionShort
	}
	return model.Trade{
		EntryIndex: pos.entryIndex,
		ExitIndex:  exitIndex,
		EntryPrice: pos.entryPrice,
		ExitPrice:  exitPrice,
		Direction:  direction,
		PnLPips:    pips,
		ExitReason: reason,
	}
}
