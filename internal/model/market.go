package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is a single bar of a price series: a tradable mid price plus
// optional bid/ask and auxiliary fields used by the context recorder.
type Tick struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Bid       decimal.Decimal `json:"bid" db:"bid"`
	Ask       decimal.Decimal `json:"ask" db:"ask"`
	Mid       decimal.Decimal `json:"mid" db:"mid"`
	High      decimal.Decimal `json:"high" db:"high"`
	Low       decimal.Decimal `json:"low" db:"low"`
	Volume    decimal.Decimal `json:"volume" db:"volume"`
	Momentum  decimal.Decimal `json:"momentum" db:"momentum"`
	Pattern   string          `json:"pattern" db:"pattern"`
	Timestamp time.Time       `json:"ts" db:"time"`
}

// Spread returns ask-bid, or zero when the tick carries no quote sides.
func (t Tick) Spread() decimal.Decimal {
	if t.Bid.IsZero() || t.Ask.IsZero() {
		return decimal.Zero
	}
	return t.Ask.Sub(t.Bid)
}

// PriceSeries is an ordered sequence of ticks, immutable during a
// simulation run. HasBidAsk marks whether entries and exits should use
// the quote sides instead of the mid price.
type PriceSeries struct {
	Ticks     []Tick `json:"ticks"`
	HasBidAsk bool   `json:"has_bid_ask"`
}

func (s PriceSeries) Len() int { return len(s.Ticks) }

// Bar is a fixed-interval OHLC aggregation of raw ticks, produced by the
// bar processor for downsampled series and dashboard streams.
type Bar struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Period    string          `json:"period" db:"period"`
	Open      decimal.Decimal `json:"o" db:"open"`
	High      decimal.Decimal `json:"h" db:"high"`
	Low       decimal.Decimal `json:"l" db:"low"`
	Close     decimal.Decimal `json:"c" db:"close"`
	BidClose  decimal.Decimal `json:"bc" db:"bid_close"`
	AskClose  decimal.Decimal `json:"ac" db:"ask_close"`
	Volume    decimal.Decimal `json:"v" db:"volume"`
	Timestamp time.Time       `json:"t" db:"time"`
}
