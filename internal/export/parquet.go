package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"cryptocoarse/internal/repository"
)

// CoarseRow is the columnar projection of one coarse fundamental record.
// Decimals are exported as float64 - the parquet copy is for analytics,
// the csv files remain the source of truth.
type CoarseRow struct {
	SecurityID string   `parquet:"security_id"`
	Ticker     string   `parquet:"ticker"`
	Open       float64  `parquet:"open"`
	High       float64  `parquet:"high"`
	Low        float64  `parquet:"low"`
	Close      float64  `parquet:"close"`
	Volume     float64  `parquet:"volume"`
	USDVolume  *float64 `parquet:"usd_volume,optional"`
}

// DayToParquet converts one generated coarse day file into a parquet file
// at outPath.
func DayToParquet(coarseFiles repository.CoarseFileRepository, market string, date time.Time, outPath string) error {
	records, err := coarseFiles.Read(market, date)
	if err != nil {
		return fmt.Errorf("failed to read coarse file for %s: %w", date.Format(time.DateOnly), err)
	}

	rows := make([]CoarseRow, 0, len(records))
	for _, record := range records {
		row := CoarseRow{
			SecurityID: record.SecurityID,
			Ticker:     record.Ticker,
			Open:       record.Open.InexactFloat64(),
			High:       record.High.InexactFloat64(),
			Low:        record.Low.InexactFloat64(),
			Close:      record.Close.InexactFloat64(),
			Volume:     record.Volume.InexactFloat64(),
		}
		if record.USDVolume != nil {
			usd := record.USDVolume.InexactFloat64()
			row.USDVolume = &usd
		}
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	if err := parquet.WriteFile(outPath, rows); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}
