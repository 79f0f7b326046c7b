package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exit reasons, in resolution priority order.
const (
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
	ExitSignal     = "signal"
	ExitEndOfData  = "end_of_data"
)

const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Trade is one closed round trip. Created exactly once per closed
// position and immutable afterwards.
type Trade struct {
	EntryIndex int             `json:"entry_index"`
	ExitIndex  int             `json:"exit_index"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	ExitPrice  decimal.Decimal `json:"exit_price"`
	Direction  string          `json:"direction"`
	PnLPips    decimal.Decimal `json:"pnl_pips"`
	GrossPnL   decimal.Decimal `json:"gross_pnl"`
	Commission decimal.Decimal `json:"commission"`
	NetPnL     decimal.Decimal `json:"net_pnl"`
	ExitReason string          `json:"exit_reason"`
}

// Metrics is the performance-statistics bundle computed from a closed
// trade list and its equity curve. Every ratio degrades to 0.0 on
// degenerate input (no trades, zero variance, zero drawdown) so that
// downstream ranking code can sort these values without NaN checks.
type Metrics struct {
	NTrades        int     `json:"n_trades"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalReturn    float64 `json:"total_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	CalmarRatio    float64 `json:"calmar_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	LargestWin     float64 `json:"largest_win"`
	LargestLoss    float64 `json:"largest_loss"`
	Expectancy     float64 `json:"expectancy"`
	RecoveryFactor float64 `json:"recovery_factor"`
	UlcerIndex     float64 `json:"ulcer_index"`
}

// ResultBundle is the outcome of one (strategy, lot size) scenario.
type ResultBundle struct {
	StrategyName    string            `json:"strategy_name"`
	LotSize         decimal.Decimal   `json:"lot_size"`
	Trades          []Trade           `json:"trades"`
	EquityCurve     []decimal.Decimal `json:"equity_curve"`
	Metrics         Metrics           `json:"metrics"`
	GrossPnL        decimal.Decimal   `json:"gross_pnl"`
	TotalCommission decimal.Decimal   `json:"total_commission"`
	NetPnL          decimal.Decimal   `json:"net_pnl"`
	TradesDetailed  []TradeContext    `json:"trades_detailed,omitempty"`
}

// TradeContext is the optional per-trade diagnostic snapshot. It is
// purely additive: the metrics aggregator never reads it.
type TradeContext struct {
	EntryIndex     int               `json:"entry_index"`
	ExitIndex      int               `json:"exit_index"`
	Volatility     float64           `json:"volatility"`
	TrendStrength  float64           `json:"trend_strength"`
	RelativeVolume float64           `json:"relative_volume"`
	Spread         decimal.Decimal   `json:"spread"`
	Pattern        string            `json:"pattern"`
	RecentPatterns []string          `json:"recent_patterns"`
	Hour           int               `json:"hour"`
	Weekday        time.Weekday      `json:"weekday"`
	PriceWindow    []decimal.Decimal `json:"price_window"`
}
