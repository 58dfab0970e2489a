package service

import (
	"github.com/shopspring/decimal"

	"cryptocoarse/internal/domain"
)

// PairObservation is one symbol's view of a trading day, decomposed into
// base/quote currencies: the close marks the pair to market and the quote
// volume is what gets re-expressed in the target currency.
type PairObservation struct {
	Symbol      domain.Symbol
	Base        string
	Quote       string
	Close       decimal.Decimal
	QuoteVolume decimal.Decimal
}

// ConversionResult is either a resolved target-currency volume or an
// explicit miss. A miss is an absent value, never zero.
type ConversionResult struct {
	USDVolume decimal.Decimal
	Resolved  bool
}

// ConversionService converts each symbol's quote-currency volume into the
// target currency using only pairs observed on the same day. The search is
// bounded: direct pair, inverse pair, then one intermediate hop through the
// configured bridge currencies in priority order. The first path found wins;
// ties break by list order, never by any numeric criterion.
type ConversionService interface {
	ResolveDay(observations []PairObservation) map[string]ConversionResult
}

func NewConversionService(targetCurrency string, bridgeCurrencies []string, smartRounding bool) ConversionService {
	return &conversionServiceHandler{
		TargetCurrency:   targetCurrency,
		BridgeCurrencies: bridgeCurrencies,
		SmartRounding:    smartRounding,
	}
}

type conversionServiceHandler struct {
	TargetCurrency   string
	BridgeCurrencies []string
	SmartRounding    bool
}

// priceSnapshot holds one day's mark-to-market closes keyed by the pair's
// BASEQUOTE spelling. Rebuilt fresh every day so a stale price from another
// day can never leak into a conversion.
type priceSnapshot map[string]decimal.Decimal

func (h *conversionServiceHandler) ResolveDay(observations []PairObservation) map[string]ConversionResult {
	snapshot := make(priceSnapshot, len(observations))
	for _, o := range observations {
		if !o.Close.IsZero() {
			snapshot[o.Base+o.Quote] = o.Close
		}
	}

	results := make(map[string]ConversionResult, len(observations))
	for _, o := range observations {
		key := o.Symbol.SecurityID()

		// identity conversions are exact - no rounding
		if o.Quote == h.TargetCurrency {
			results[key] = ConversionResult{USDVolume: o.QuoteVolume, Resolved: true}
			continue
		}

		rate, ok := h.conversionRate(snapshot, o.Quote)
		if !ok {
			results[key] = ConversionResult{}
			continue
		}

		converted := o.QuoteVolume.Mul(rate)
		if h.SmartRounding {
			converted = domain.SmartRound(converted)
		}
		results[key] = ConversionResult{USDVolume: converted, Resolved: true}
	}
	return results
}

// conversionRate finds a rate from the given currency to the target: one
// direct or inverse hop first, then two hops through each bridge currency
// in priority order.
func (h *conversionServiceHandler) conversionRate(snapshot priceSnapshot, from string) (decimal.Decimal, bool) {
	if rate, ok := directRate(snapshot, from, h.TargetCurrency); ok {
		return rate, true
	}

	for _, bridge := range h.BridgeCurrencies {
		if bridge == from || bridge == h.TargetCurrency {
			continue
		}
		first, ok := directRate(snapshot, from, bridge)
		if !ok {
			continue
		}
		second, ok := directRate(snapshot, bridge, h.TargetCurrency)
		if !ok {
			continue
		}
		return first.Mul(second), true
	}

	return decimal.Zero, false
}

// directRate returns the single-hop rate from -> to. The pair spelled
// FROM+TO converts by its close; the inverse spelling TO+FROM converts by
// the reciprocal.
func directRate(snapshot priceSnapshot, from, to string) (decimal.Decimal, bool) {
	if close, ok := snapshot[from+to]; ok {
		return close, true
	}
	if close, ok := snapshot[to+from]; ok {
		return decimal.NewFromInt(1).Div(close), true
	}
	return decimal.Zero, false
}
