package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fx-backtester/internal/infrastructure"
	"fx-backtester/internal/model"
)

// SeriesLoader is the slice of the tick store the feed needs.
type SeriesLoader interface {
	LoadSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error)
}

// ReplayFeed re-emits a recorded price series onto a channel at a fixed
// pace, giving live-style consumers (bar processor, dashboard stream)
// something to chew on without an exchange connection.
type ReplayFeed struct {
	loader   SeriesLoader
	logger   *zap.Logger
	symbol   string
	start    time.Time
	end      time.Time
	interval time.Duration
}

func NewReplayFeed(loader SeriesLoader, logger *zap.Logger, symbol string, start, end time.Time, interval time.Duration) *ReplayFeed {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ReplayFeed{
		loader:   loader,
		logger:   logger,
		symbol:   symbol,
		start:    start,
		end:      end,
		interval: interval,
	}
}

// Run streams the series into tickChan until the series is exhausted or
// the context is cancelled. Ticks are dropped, not queued, when the
// channel is full.
func (f *ReplayFeed) Run(ctx context.Context, tickChan chan<- model.Tick) {
	series, err := f.loader.LoadSeries(ctx, f.symbol, f.start, f.end)
	if err != nil {
		f.logger.Error("failed to load series for replay",
			zap.String("symbol", f.symbol),
			zap.Error(err),
		)
		return
	}
	if series.Len() == 0 {
		f.logger.Warn("no ticks to replay", zap.String("symbol", f.symbol))
		return
	}

	f.logger.Info("starting replay feed",
		zap.String("symbol", f.symbol),
		zap.Int("ticks", series.Len()),
	)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for _, tick := range series.Ticks {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case tickChan <- tick:
			infrastructure.TicksReplayed.WithLabelValues(tick.Symbol).Inc()
		default:
			f.logger.Warn("tick channel full, dropping tick", zap.String("symbol", tick.Symbol))
		}
	}

	f.logger.Info("replay feed finished", zap.String("symbol", f.symbol))
}
