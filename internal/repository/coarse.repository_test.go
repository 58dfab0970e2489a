package repository

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/util"
)

func record(securityID, ticker string, close, volume int64, usdVolume *int64) *domain.CoarseFundamental {
	r := &domain.CoarseFundamental{
		SecurityID: securityID,
		Ticker:     ticker,
		Open:       decimal.NewFromInt(close),
		High:       decimal.NewFromInt(close),
		Low:        decimal.NewFromInt(close),
		Close:      decimal.NewFromInt(close),
		Volume:     decimal.NewFromInt(volume),
	}
	if usdVolume != nil {
		usd := decimal.NewFromInt(*usdVolume)
		r.USDVolume = &usd
	}
	return r
}

func int64Ptr(i int64) *int64 { return &i }

func Test_CoarseFileRepository_Merge(t *testing.T) {
	date := util.NewDate(2020, 6, 1)

	t.Run("writes sorted by security id", func(t *testing.T) {
		h := NewCoarseFileRepository(t.TempDir())

		err := h.Merge("bitfinex", date, []*domain.CoarseFundamental{
			record("BITFINEX.ETHBTC", "ETHBTC", 2, 5, nil),
			record("BITFINEX.BTCUSD", "BTCUSD", 100, 10, int64Ptr(1000)),
		})
		require.NoError(t, err)

		content, err := os.ReadFile(h.FilePath("bitfinex", date))
		require.NoError(t, err)
		require.Equal(t,
			"BITFINEX.BTCUSD,BTCUSD,100,100,100,100,10,1000\n"+
				"BITFINEX.ETHBTC,ETHBTC,2,2,2,2,5,\n",
			string(content),
		)
	})

	t.Run("merge is idempotent", func(t *testing.T) {
		h := NewCoarseFileRepository(t.TempDir())
		records := []*domain.CoarseFundamental{
			record("BITFINEX.BTCUSD", "BTCUSD", 100, 10, int64Ptr(1000)),
			record("BITFINEX.ETHBTC", "ETHBTC", 2, 5, nil),
		}

		require.NoError(t, h.Merge("bitfinex", date, records))
		first, err := os.ReadFile(h.FilePath("bitfinex", date))
		require.NoError(t, err)

		require.NoError(t, h.Merge("bitfinex", date, records))
		second, err := os.ReadFile(h.FilePath("bitfinex", date))
		require.NoError(t, err)

		require.Equal(t, string(first), string(second))
	})

	t.Run("new values win on key collision, other rows survive", func(t *testing.T) {
		h := NewCoarseFileRepository(t.TempDir())

		require.NoError(t, h.Merge("bitfinex", date, []*domain.CoarseFundamental{
			record("BITFINEX.BTCUSD", "BTCUSD", 100, 10, int64Ptr(1000)),
			record("BITFINEX.LTCBTC", "LTCBTC", 1, 3, nil),
		}))

		require.NoError(t, h.Merge("bitfinex", date, []*domain.CoarseFundamental{
			record("BITFINEX.BTCUSD", "BTCUSD", 105, 12, int64Ptr(1260)),
		}))

		records, err := h.Read("bitfinex", date)
		require.NoError(t, err)
		require.Len(t, records, 2)
		require.True(t, records[0].Close.Equal(decimal.NewFromInt(105)))
		require.True(t, records[0].USDVolume.Equal(decimal.NewFromInt(1260)))
		require.Equal(t, "LTCBTC", records[1].Ticker)
	})

	t.Run("read of missing file errors with not-exist", func(t *testing.T) {
		h := NewCoarseFileRepository(t.TempDir())
		_, err := h.Read("bitfinex", date)
		require.True(t, os.IsNotExist(err))
	})
}
