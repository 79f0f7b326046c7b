package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"fx-backtester/internal/model"
)

// LoadCSV reads a recorded tick file into a price series. Expected
// header: time,symbol,bid,ask,mid[,volume]. Bid/ask columns may be
// empty; the series then falls back to mid-price execution.
func LoadCSV(path string) (model.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.PriceSeries{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"time", "symbol", "mid"} {
		if _, ok := col[required]; !ok {
			return model.PriceSeries{}, fmt.Errorf("csv missing required column %q", required)
		}
	}

	series := model.PriceSeries{HasBidAsk: true}
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		line++

		tick, err := parseTick(record, col)
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("csv line %d: %w", line, err)
		}
		if tick.Bid.IsZero() || tick.Ask.IsZero() {
			series.HasBidAsk = false
		}
		series.Ticks = append(series.Ticks, tick)
	}
	if series.Len() == 0 {
		series.HasBidAsk = false
	}
	return series, nil
}

func parseTick(record []string, col map[string]int) (model.Tick, error) {
	var t model.Tick
	ts, err := time.Parse(time.RFC3339, record[col["time"]])
	if err != nil {
		return model.Tick{}, fmt.Errorf("invalid time %q: %w", record[col["time"]], err)
	}
	t.Timestamp = ts
	t.Symbol = record[col["symbol"]]

	t.Mid, err = decimal.NewFromString(record[col["mid"]])
	if err != nil {
		return model.Tick{}, fmt.Errorf("invalid mid %q: %w", record[col["mid"]], err)
	}

	t.Bid = optionalDecimal(record, col, "bid")
	t.Ask = optionalDecimal(record, col, "ask")
	t.Volume = optionalDecimal(record, col, "volume")
	return t, nil
}

func optionalDecimal(record []string, col map[string]int, name string) decimal.Decimal {
	i, ok := col[name]
	if !ok || i >= len(record) || record[i] == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(record[i])
	if err != nil {
		return decimal.Zero
	}
	return d
}
