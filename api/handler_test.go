package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"EURUSD", "EURUSD"},
		{"eurusd", "EURUSD"},
		{"EUR/USD", "EURUSD"},
		{"EUR-USD", "EURUSD"},
		{"eur_usd", "EURUSD"},
		{"gbp/JPY", "GBPJPY"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSymbol(tt.in), "input %q", tt.in)
	}
}
