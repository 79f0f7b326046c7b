package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"fx-backtester/internal/model"
)

// BarProcessor aggregates the raw tick stream into fixed-interval OHLC
// bars and republishes completed bars for downsampled backtests and the
// dashboard stream.
type BarProcessor struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	bars   map[string]*model.Bar
	mu     sync.Mutex
}

func NewBarProcessor(js nats.JetStreamContext, logger *zap.Logger) *BarProcessor {
	return &BarProcessor{
		js:     js,
		logger: logger,
		bars:   make(map[string]*model.Bar),
	}
}

func (p *BarProcessor) Run(ctx context.Context) error {
	_, err := p.js.Subscribe("ticks.raw.*", func(msg *nats.Msg) {
		var tick model.Tick
		if err := json.Unmarshal(msg.Data, &tick); err != nil {
			p.logger.Error("failed to unmarshal tick in processor", zap.Error(err))
			return
		}
		p.processTick(tick)
		msg.Ack()
	}, nats.Durable("bar-processor"), nats.ManualAck())

	if err != nil {
		return err
	}

	go p.flushLoop(ctx)
	p.logger.Info("bar processor started")
	return nil
}

func (p *BarProcessor) processTick(tick model.Tick) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 1 minute resolution
	window := tick.Timestamp.Truncate(time.Minute)
	key := fmt.Sprintf("%s:%s", tick.Symbol, window.Format(time.RFC3339))

	bar, ok := p.bars[key]
	if !ok {
		bar = &model.Bar{
			Symbol:    tick.Symbol,
			Period:    "1m",
			Open:      tick.Mid,
			High:      tick.Mid,
			Low:       tick.Mid,
			Close:     tick.Mid,
			BidClose:  tick.Bid,
			AskClose:  tick.Ask,
			Volume:    tick.Volume,
			Timestamp: window,
		}
		p.bars[key] = bar
		return
	}

	if tick.Mid.GreaterThan(bar.High) {
		bar.High = tick.Mid
	}
	if tick.Mid.LessThan(bar.Low) {
		bar.Low = tick.Mid
	}
	bar.Close = tick.Mid
	bar.BidClose = tick.Bid
	bar.AskClose = tick.Ask
	bar.Volume = bar.Volume.Add(tick.Volume)
}

func (p *BarProcessor) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *BarProcessor) flush() {
	p.mu.Lock()
	now := time.Now().Truncate(time.Minute)
	toFlush := make([]*model.Bar, 0)

	for key, bar := range p.bars {
		// A bar stamped before the current minute is completed
		if bar.Timestamp.Before(now) {
			toFlush = append(toFlush, bar)
			delete(p.bars, key)
		}
	}
	p.mu.Unlock()

	for _, bar := range toFlush {
		subject := fmt.Sprintf("bars.1m.%s", bar.Symbol)
		data, _ := json.Marshal(bar)
		if _, err := p.js.Publish(subject, data); err != nil {
			p.logger.Error("failed to publish bar", zap.Error(err))
		}
	}
}
