package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fx-backtester/internal/feed"
	"fx-backtester/internal/model"
	"fx-backtester/internal/storage"
)

// startReplayService streams recorded ticks back through NATS so the bar
// processor and dashboard clients see a live-style feed. Enabled by the
// REPLAY_SYMBOL environment knob via config; a missing symbol simply
// means no replay.
func (a *App) startReplayService(ctx context.Context) {
	symbol := a.Config.ReplaySymbol
	if symbol == "" {
		return
	}

	store := storage.NewTickStore(a.DB, a.Logger)
	end := time.Now()
	start := end.Add(-24 * time.Hour)
	replay := feed.NewReplayFeed(store, a.Logger, symbol, start, end, 100*time.Millisecond)

	tickChan := make(chan model.Tick, 1000)
	go replay.Run(ctx, tickChan)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-tickChan:
				subject := fmt.Sprintf("ticks.raw.%s", tick.Symbol)
				data, err := json.Marshal(tick)
				if err != nil {
					a.Logger.Error("failed to marshal tick", zap.Error(err))
					continue
				}
				if _, err := a.JS.Publish(subject, data); err != nil {
					a.Logger.Error("failed to publish tick to NATS", zap.Error(err))
				}
			}
		}
	}()
}
