package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"cryptocoarse/internal/domain"
)

// CoarseSelectionInput mirrors how consumers filter the generated dataset:
// drop thin symbols, rank the rest by converted volume, keep the top N.
type CoarseSelectionInput struct {
	MinVolume    decimal.Decimal
	MinUSDVolume decimal.Decimal
	Top          int
}

// SelectCoarse applies the coarse universe filter to one day's records.
// Records without a resolved USD volume never pass the USD threshold.
func SelectCoarse(records []*domain.CoarseFundamental, in CoarseSelectionInput) []*domain.CoarseFundamental {
	filtered := []*domain.CoarseFundamental{}
	for _, record := range records {
		if record.Volume.LessThan(in.MinVolume) {
			continue
		}
		if record.USDVolume == nil || !record.USDVolume.GreaterThan(in.MinUSDVolume) {
			continue
		}
		filtered = append(filtered, record)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].USDVolume.GreaterThan(*filtered[j].USDVolume)
	})

	if in.Top > 0 && len(filtered) > in.Top {
		filtered = filtered[:in.Top]
	}
	return filtered
}
