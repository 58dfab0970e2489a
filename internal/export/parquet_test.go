package export

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/repository"
	"cryptocoarse/internal/util"
)

func Test_DayToParquet(t *testing.T) {
	outputRoot := t.TempDir()
	coarseFiles := repository.NewCoarseFileRepository(outputRoot)
	date := util.NewDate(2020, 6, 1)

	usd := decimal.NewFromInt(1000)
	require.NoError(t, coarseFiles.Merge("bitfinex", date, []*domain.CoarseFundamental{
		{
			SecurityID: "BITFINEX.BTCUSD",
			Ticker:     "BTCUSD",
			Open:       decimal.NewFromInt(100),
			High:       decimal.NewFromInt(110),
			Low:        decimal.NewFromInt(90),
			Close:      decimal.NewFromInt(100),
			Volume:     decimal.NewFromInt(10),
			USDVolume:  &usd,
		},
		{
			SecurityID: "BITFINEX.XMRDOGE",
			Ticker:     "XMRDOGE",
			Open:       decimal.NewFromInt(3),
			High:       decimal.NewFromInt(3),
			Low:        decimal.NewFromInt(3),
			Close:      decimal.NewFromInt(3),
			Volume:     decimal.NewFromInt(7),
		},
	}))

	outPath := filepath.Join(t.TempDir(), "20200601.parquet")
	require.NoError(t, DayToParquet(coarseFiles, "bitfinex", date, outPath))

	rows, err := parquet.ReadFile[CoarseRow](outPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "BITFINEX.BTCUSD", rows[0].SecurityID)
	require.NotNil(t, rows[0].USDVolume)
	require.Equal(t, float64(1000), *rows[0].USDVolume)
	require.Nil(t, rows[1].USDVolume)
}

func Test_DayToParquet_missingDay(t *testing.T) {
	coarseFiles := repository.NewCoarseFileRepository(t.TempDir())
	err := DayToParquet(coarseFiles, "bitfinex", util.NewDate(2020, 6, 1),
		filepath.Join(t.TempDir(), "out.parquet"))
	require.Error(t, err)
}
