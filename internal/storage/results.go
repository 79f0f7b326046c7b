package storage

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"fx-backtester/internal/infrastructure"
	"fx-backtester/internal/model"
)

// ResultStore persists result bundles flattened to one row per
// (strategy, lot size, metric), the storage contract for reporting
// consumers.
type ResultStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewResultStore(pool *pgxpool.Pool, logger *zap.Logger) *ResultStore {
	return &ResultStore{pool: pool, logger: logger}
}

func (s *ResultStore) SaveBundle(ctx context.Context, b *model.ResultBundle) error {
	rows := flattenMetrics(b)

	batch := &pgx.Batch{}
	for metric, value := range rows {
		batch.Queue(`
			INSERT INTO backtest_results (strategy, lot_size, metric, value)
			VALUES ($1, $2, $3, $4)`,
			b.StrategyName, b.LotSize.String(), metric, value)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	infrastructure.DBInsertRate.WithLabelValues("backtest_results").Add(float64(len(rows)))
	return nil
}

func flattenMetrics(b *model.ResultBundle) map[string]float64 {
	m := b.Metrics
	return map[string]float64{
		"n_trades":         float64(m.NTrades),
		"win_rate":         m.WinRate,
		"profit_factor":    m.ProfitFactor,
		"total_return":     m.TotalReturn,
		"sharpe_ratio":     m.SharpeRatio,
		"sortino_ratio":    m.SortinoRatio,
		"calmar_ratio":     m.CalmarRatio,
		"max_drawdown":     m.MaxDrawdown,
		"avg_win":          m.AvgWin,
		"avg_loss":         m.AvgLoss,
		"largest_win":      m.LargestWin,
		"largest_loss":     m.LargestLoss,
		"expectancy":       m.Expectancy,
		"recovery_factor":  m.RecoveryFactor,
		"ulcer_index":      m.UlcerIndex,
		"gross_pnl":        b.GrossPnL.InexactFloat64(),
		"total_commission": b.TotalCommission.InexactFloat64(),
		"net_pnl":          b.NetPnL.InexactFloat64(),
	}
}
