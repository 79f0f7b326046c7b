package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseLotSizes(t *testing.T) {
	sizes, err := parseLotSizes("0.01, 0.1,1.0")
	assert.NoError(t, err)
	assert.Len(t, sizes, 3)
	assert.True(t, sizes[0].Equal(decimal.RequireFromString("0.01")))
	assert.True(t, sizes[2].Equal(decimal.NewFromInt(1)))

	_, err = parseLotSizes("0.01,abc")
	assert.Error(t, err)

	_, err = parseLotSizes("0.01,-0.1")
	assert.Error(t, err)

	_, err = parseLotSizes("0")
	assert.Error(t, err)
}

func TestBacktestConfig_PipValue(t *testing.T) {
	cfg := BacktestConfig{PipDecimalPlaces: 4}
	assert.True(t, cfg.PipValue().Equal(decimal.RequireFromString("0.0001")))

	// JPY-style quoting
	cfg.PipDecimalPlaces = 2
	assert.True(t, cfg.PipValue().Equal(decimal.RequireFromString("0.01")))
}

func TestDefaultBacktestConfig(t *testing.T) {
	cfg := DefaultBacktestConfig()

	assert.True(t, cfg.InitialCapital.Equal(decimal.NewFromInt(10000)))
	assert.Len(t, cfg.LotSizes, 3)
	assert.True(t, cfg.PipValuePerLot.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 4, cfg.PipDecimalPlaces)
	assert.True(t, cfg.CommissionPerLot.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, cfg.StopLossPips.Equal(decimal.NewFromInt(20)))
	assert.True(t, cfg.TakeProfitPips.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 252.0, cfg.AnnualizationFactor)
	assert.False(t, cfg.CloseOpenPositionAtEnd)
	assert.False(t, cfg.RecordContext)
}

func TestConfig_BacktestOverrides(t *testing.T) {
	c := Config{
		InitialCapital:   5000,
		LotSizesRaw:      "0.5,2",
		PipValuePerLot:   9.1,
		PipDecimalPlaces: 2,
		CommissionPerLot: 0.07,
		StopLossPips:     35,
		TakeProfitPips:   70,
		Annualization:    98280,
		CloseAtEnd:       true,
		RecordContext:    true,
		MaxParallel:      4,
	}

	bc, err := c.Backtest()
	assert.NoError(t, err)
	assert.True(t, bc.InitialCapital.Equal(decimal.NewFromInt(5000)))
	assert.Len(t, bc.LotSizes, 2)
	assert.True(t, bc.LotSizes[1].Equal(decimal.NewFromInt(2)))
	assert.True(t, bc.PipValuePerLot.Equal(decimal.RequireFromString("9.1")))
	assert.Equal(t, 2, bc.PipDecimalPlaces)
	assert.True(t, bc.StopLossPips.Equal(decimal.NewFromInt(35)))
	assert.True(t, bc.TakeProfitPips.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, 98280.0, bc.AnnualizationFactor)
	assert.True(t, bc.CloseOpenPositionAtEnd)
	assert.True(t, bc.RecordContext)
	assert.Equal(t, 4, bc.MaxParallelScenarios)
}

func TestConfig_BacktestZeroValuesKeepDefaults(t *testing.T) {
	bc, err := Config{}.Backtest()
	assert.NoError(t, err)

	defaults := DefaultBacktestConfig()
	assert.True(t, bc.InitialCapital.Equal(defaults.InitialCapital))
	assert.Equal(t, len(defaults.LotSizes), len(bc.LotSizes))
	assert.True(t, bc.StopLossPips.Equal(defaults.StopLossPips))
	assert.Equal(t, defaults.AnnualizationFactor, bc.AnnualizationFactor)
}

func TestConfig_BacktestBadLotSizes(t *testing.T) {
	_, err := Config{LotSizesRaw: "0.01,zero"}.Backtest()
	assert.Error(t, err)
}
