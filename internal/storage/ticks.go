package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"fx-backtester/internal/infrastructure"
	"fx-backtester/internal/model"
)

// TickStore loads and persists price series in Postgres.
type TickStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewTickStore(pool *pgxpool.Pool, logger *zap.Logger) *TickStore {
	return &TickStore{pool: pool, logger: logger}
}

// LoadSeries returns the ticks for a symbol in the window, ordered by
// time ascending. HasBidAsk is set when every loaded tick carries both
// quote sides.
func (s *TickStore) LoadSeries(ctx context.Context, symbol string, start, end time.Time) (model.PriceSeries, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT time, symbol, bid, ask, mid, high, low, volume, momentum, pattern
		FROM ticks
		WHERE symbol = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC`,
		symbol, start, end)
	if err != nil {
		return model.PriceSeries{}, err
	}
	defer rows.Close()

	series := model.PriceSeries{HasBidAsk: true}
	for rows.Next() {
		var t model.Tick
		if err := rows.Scan(&t.Timestamp, &t.Symbol, &t.Bid, &t.Ask, &t.Mid, &t.High, &t.Low, &t.Volume, &t.Momentum, &t.Pattern); err != nil {
			return model.PriceSeries{}, err
		}
		if t.Bid.IsZero() || t.Ask.IsZero() {
			series.HasBidAsk = false
		}
		series.Ticks = append(series.Ticks, t)
	}
	if rows.Err() != nil {
		return model.PriceSeries{}, rows.Err()
	}
	if series.Len() == 0 {
		series.HasBidAsk = false
	}
	return series, nil
}

// SaveTicks batch-inserts ticks.
func (s *TickStore) SaveTicks(ctx context.Context, ticks []model.Tick) error {
	batch := &pgx.Batch{}
	for _, t := range ticks {
		batch.Queue(`
			INSERT INTO ticks (time, symbol, bid, ask, mid, high, low, volume, momentum, pattern)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT DO NOTHING`,
			t.Timestamp, t.Symbol, t.Bid, t.Ask, t.Mid, t.High, t.Low, t.Volume, t.Momentum, t.Pattern)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ticks {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	infrastructure.DBInsertRate.WithLabelValues("ticks").Add(float64(len(ticks)))
	return nil
}
