package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeBar is one OHLCV observation from a source archive. Prices are in
// quote-currency units, volume in base-currency units.
type TradeBar struct {
	Symbol Symbol
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Date truncates the bar's timestamp to its UTC day.
func (b TradeBar) Date() time.Time {
	return time.Date(b.Time.Year(), b.Time.Month(), b.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyAggregate holds one symbol's rolled-up OHLCV for one date. Built
// incrementally by folding bars in chronological order - see
// service.DailyAggregator.
type DailyAggregate struct {
	Symbol Symbol
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// QuoteVolume is the day's traded value in quote-currency units. Computed
// from the final close and cumulative volume rather than accumulated per
// bar, so per-bar rounding never compounds.
func (a DailyAggregate) QuoteVolume() decimal.Decimal {
	return a.Close.Mul(a.Volume)
}
