package service

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/util"
)

func newBar(ticker string, t time.Time, open, high, low, close, volume int64) domain.TradeBar {
	return domain.TradeBar{
		Symbol: domain.NewSymbol(ticker, "bitfinex"),
		Time:   t,
		Open:   decimal.NewFromInt(open),
		High:   decimal.NewFromInt(high),
		Low:    decimal.NewFromInt(low),
		Close:  decimal.NewFromInt(close),
		Volume: decimal.NewFromInt(volume),
	}
}

func Test_DailyAggregator_Fold(t *testing.T) {
	day := util.NewDate(2020, 6, 1)

	t.Run("single bar", func(t *testing.T) {
		a := NewDailyAggregator()
		a.Fold(newBar("BTCUSD", day.Add(time.Hour), 100, 110, 90, 105, 10))

		aggregates := a.Day(day)
		require.Len(t, aggregates, 1)
		require.Equal(
			t,
			"",
			cmp.Diff(
				&domain.DailyAggregate{
					Symbol: domain.NewSymbol("BTCUSD", "bitfinex"),
					Date:   day,
					Open:   decimal.NewFromInt(100),
					High:   decimal.NewFromInt(110),
					Low:    decimal.NewFromInt(90),
					Close:  decimal.NewFromInt(105),
					Volume: decimal.NewFromInt(10),
				},
				aggregates[0],
			),
		)
	})

	t.Run("folds multiple bars chronologically", func(t *testing.T) {
		a := NewDailyAggregator()
		a.Fold(newBar("BTCUSD", day.Add(1*time.Hour), 100, 110, 90, 105, 10))
		a.Fold(newBar("BTCUSD", day.Add(2*time.Hour), 105, 120, 95, 101, 7))
		a.Fold(newBar("BTCUSD", day.Add(3*time.Hour), 101, 104, 80, 99, 3))

		aggregates := a.Day(day)
		require.Len(t, aggregates, 1)
		got := aggregates[0]

		// first open, max high, min low, last close, summed volume
		require.True(t, got.Open.Equal(decimal.NewFromInt(100)))
		require.True(t, got.High.Equal(decimal.NewFromInt(120)))
		require.True(t, got.Low.Equal(decimal.NewFromInt(80)))
		require.True(t, got.Close.Equal(decimal.NewFromInt(99)))
		require.True(t, got.Volume.Equal(decimal.NewFromInt(20)))
		require.True(t, got.QuoteVolume().Equal(decimal.NewFromInt(99*20)))
	})

	t.Run("separates symbols and dates", func(t *testing.T) {
		day2 := util.NewDate(2020, 6, 2)

		a := NewDailyAggregator()
		a.Fold(newBar("BTCUSD", day.Add(time.Hour), 100, 110, 90, 105, 10))
		a.Fold(newBar("ETHBTC", day.Add(time.Hour), 2, 3, 1, 2, 5))
		a.Fold(newBar("BTCUSD", day2.Add(time.Hour), 105, 115, 100, 110, 4))

		require.Equal(t, "", cmp.Diff([]time.Time{day, day2}, a.Dates()))
		require.Len(t, a.Day(day), 2)
		require.Len(t, a.Day(day2), 1)

		// sorted by security id
		require.Equal(t, "BITFINEX.BTCUSD", a.Day(day)[0].Symbol.SecurityID())
		require.Equal(t, "BITFINEX.ETHBTC", a.Day(day)[1].Symbol.SecurityID())
	})
}
