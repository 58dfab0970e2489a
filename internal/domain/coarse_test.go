package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_CoarseLine_RoundTrip(t *testing.T) {
	t.Run("with usd volume", func(t *testing.T) {
		usd := decimal.NewFromFloat(123.45)
		record := CoarseFundamental{
			SecurityID: "BITFINEX.BTCUSD",
			Ticker:     "BTCUSD",
			Open:       decimal.NewFromInt(100),
			High:       decimal.NewFromFloat(110.5),
			Low:        decimal.NewFromInt(90),
			Close:      decimal.NewFromInt(105),
			Volume:     decimal.NewFromInt(10),
			USDVolume:  &usd,
		}

		line := record.MarshalLine()
		require.Equal(t, "BITFINEX.BTCUSD,BTCUSD,100,110.5,90,105,10,123.45", line)

		parsed, err := ParseCoarseLine(line)
		require.NoError(t, err)
		require.Equal(t, line, parsed.MarshalLine())
	})

	t.Run("unresolved usd volume stays empty", func(t *testing.T) {
		record := CoarseFundamental{
			SecurityID: "BITFINEX.XMRLTC",
			Ticker:     "XMRLTC",
			Open:       decimal.NewFromInt(1),
			High:       decimal.NewFromInt(1),
			Low:        decimal.NewFromInt(1),
			Close:      decimal.NewFromInt(1),
			Volume:     decimal.NewFromInt(2),
		}

		line := record.MarshalLine()
		require.Equal(t, "BITFINEX.XMRLTC,XMRLTC,1,1,1,1,2,", line)

		parsed, err := ParseCoarseLine(line)
		require.NoError(t, err)
		require.Nil(t, parsed.USDVolume)
	})

	t.Run("rejects malformed lines", func(t *testing.T) {
		_, err := ParseCoarseLine("too,few,fields")
		require.Error(t, err)

		_, err = ParseCoarseLine("id,TICK,x,1,1,1,1,")
		require.Error(t, err)
	})
}

func Test_SplitPair(t *testing.T) {
	base, quote, ok := SplitPair("ETHBTC", "BTC")
	require.True(t, ok)
	require.Equal(t, "ETH", base)
	require.Equal(t, "BTC", quote)

	_, _, ok = SplitPair("ETHBTC", "USD")
	require.False(t, ok)

	// quote equal to the whole ticker leaves no base
	_, _, ok = SplitPair("BTC", "BTC")
	require.False(t, ok)
}

func Test_SmartRound(t *testing.T) {
	require.Equal(t, "0.3333", SmartRound(decimal.NewFromFloat(0.33333333)).String())
	require.Equal(t, "1000", SmartRound(decimal.NewFromInt(1000)).String())
	require.Equal(t, "1234567.89", SmartRound(decimal.NewFromFloat(1234567.8912)).String())
}
