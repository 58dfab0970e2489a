package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CoarseFundamental is one persisted dataset row: per-symbol, per-day OHLCV
// plus the volume re-expressed in the market's reference currency. USDVolume
// is nil when no conversion path existed that day - absent, never zero.
type CoarseFundamental struct {
	SecurityID string
	Ticker     string
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
	USDVolume  *decimal.Decimal
}

const coarseFieldCount = 8

// MarshalLine renders the row in the persisted csv field order.
func (c CoarseFundamental) MarshalLine() string {
	usd := ""
	if c.USDVolume != nil {
		usd = c.USDVolume.String()
	}
	return strings.Join([]string{
		c.SecurityID,
		c.Ticker,
		c.Open.String(),
		c.High.String(),
		c.Low.String(),
		c.Close.String(),
		c.Volume.String(),
		usd,
	}, ",")
}

// ParseCoarseLine parses one persisted row. The inverse of MarshalLine.
func ParseCoarseLine(line string) (*CoarseFundamental, error) {
	parts := strings.Split(line, ",")
	if len(parts) != coarseFieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d in %q", coarseFieldCount, len(parts), line)
	}

	decimals := make([]decimal.Decimal, 5)
	for i, raw := range parts[2:7] {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse field %d of %q: %w", i+2, line, err)
		}
		decimals[i] = d
	}

	c := &CoarseFundamental{
		SecurityID: parts[0],
		Ticker:     parts[1],
		Open:       decimals[0],
		High:       decimals[1],
		Low:        decimals[2],
		Close:      decimals[3],
		Volume:     decimals[4],
	}
	if parts[7] != "" {
		usd, err := decimal.NewFromString(parts[7])
		if err != nil {
			return nil, fmt.Errorf("failed to parse usd volume of %q: %w", line, err)
		}
		c.USDVolume = &usd
	}
	return c, nil
}
