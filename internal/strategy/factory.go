package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func NewStrategy(strategyType string, config map[string]interface{}) (Strategy, error) {
	switch strategyType {
	case "ma_cross":
		short, ok1 := config["short_period"].(float64)
		long, ok2 := config["long_period"].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid config for ma_cross: need short_period and long_period")
		}
		return NewMACrossStrategy(int(short), int(long)), nil
	case "momentum":
		lookback, ok1 := config["lookback"].(float64)
		threshold, ok2 := config["threshold"].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid config for momentum: need lookback and threshold")
		}
		return NewMomentumStrategy(int(lookback), decimal.NewFromFloat(threshold)), nil
	default:
		return nil, fmt.Errorf("unknown strategy type: %s", strategyType)
	}
}
