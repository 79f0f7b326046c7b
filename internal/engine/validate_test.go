package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fx-backtester/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  model.PriceSeries
		wantErr error
	}{
		{
			name:    "empty series",
			series:  model.PriceSeries{},
			wantErr: ErrEmptySeries,
		},
		{
			name:    "all null prices",
			series:  model.PriceSeries{Ticks: []model.Tick{{}, {}, {}}},
			wantErr: ErrNullPrices,
		},
		{
			name: "negative price",
			series: model.PriceSeries{Ticks: []model.Tick{
				{Mid: decimal.NewFromFloat(1.05)},
				{Mid: decimal.NewFromFloat(-1.05)},
			}},
			wantErr: ErrNonPositive,
		},
		{
			name: "null price among valid ones",
			series: model.PriceSeries{Ticks: []model.Tick{
				{Mid: decimal.NewFromFloat(1.05)},
				{},
			}},
			wantErr: ErrNonPositive,
		},
		{
			name: "constant prices",
			series: model.PriceSeries{Ticks: []model.Tick{
				{Mid: decimal.NewFromFloat(1.05)},
				{Mid: decimal.NewFromFloat(1.05)},
				{Mid: decimal.NewFromFloat(1.05)},
			}},
			wantErr: ErrConstantPrices,
		},
		{
			name: "valid series",
			series: model.PriceSeries{Ticks: []model.Tick{
				{Mid: decimal.NewFromFloat(1.05)},
				{Mid: decimal.NewFromFloat(1.06)},
			}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.series)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
