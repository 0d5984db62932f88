package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RobbyMo81/trade-analyst/pkg/guardrail"
)

func TestValidateBar(t *testing.T) {
	valid := OHLCBar{
		Open: 100, High: 110, Low: 95, Close: 105,
		Volume:    1000,
		Timestamp: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ValidateBar(valid))

	cases := []struct {
		name string
		bar  OHLCBar
	}{
		{"high below low", OHLCBar{Open: 100, High: 90, Low: 95, Close: 96, Volume: 1}},
		{"high below close", OHLCBar{Open: 100, High: 101, Low: 95, Close: 102, Volume: 1}},
		{"low above open", OHLCBar{Open: 94, High: 110, Low: 95, Close: 100, Volume: 1}},
		{"negative volume", OHLCBar{Open: 100, High: 110, Low: 95, Close: 105, Volume: -1}},
		{"zero prices", OHLCBar{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBar(tc.bar)
			require.Error(t, err)
			require.Equal(t, guardrail.CodeValidation, guardrail.CodeOf(err))
		})
	}
}

func TestValidateQuote(t *testing.T) {
	require.NoError(t, ValidateQuote(QuoteSnapshot{Bid: 100, Ask: 100.05}))
	require.NoError(t, ValidateQuote(QuoteSnapshot{Bid: 100, Ask: 100})) // locked market

	err := ValidateQuote(QuoteSnapshot{Bid: 100.1, Ask: 100}) // crossed
	require.Error(t, err)
	require.Equal(t, guardrail.CodeValidation, guardrail.CodeOf(err))

	require.Error(t, ValidateQuote(QuoteSnapshot{Bid: 0, Ask: 100}))
}
