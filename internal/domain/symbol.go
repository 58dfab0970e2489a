package domain

import (
	"fmt"
	"strings"
	"time"
)

// Symbol identifies one traded pair on one exchange. Ticker is the raw
// pair spelling from the data files (e.g. BTCUSD), Market is the exchange
// name (e.g. bitfinex). Two symbols are equal iff ticker and market match.
type Symbol struct {
	Ticker string
	Market string
}

func NewSymbol(ticker, market string) Symbol {
	return Symbol{
		Ticker: strings.ToUpper(ticker),
		Market: strings.ToLower(market),
	}
}

// SecurityID is the stable identifier rows are keyed and sorted by
// in the persisted dataset.
func (s Symbol) SecurityID() string {
	return fmt.Sprintf("%s.%s", strings.ToUpper(s.Market), s.Ticker)
}

func (s Symbol) String() string {
	return s.SecurityID()
}

// SplitPair decomposes a pair ticker into base and quote given the quote
// currency from reference data. Returns false when the ticker does not end
// with the quote currency, meaning reference data disagrees with the file
// the ticker came from.
func SplitPair(ticker, quoteCurrency string) (base string, quote string, ok bool) {
	ticker = strings.ToUpper(ticker)
	quoteCurrency = strings.ToUpper(quoteCurrency)
	if len(quoteCurrency) == 0 || len(ticker) <= len(quoteCurrency) {
		return "", "", false
	}
	if !strings.HasSuffix(ticker, quoteCurrency) {
		return "", "", false
	}
	return strings.TrimSuffix(ticker, quoteCurrency), quoteCurrency, true
}

// DateWindow is an inclusive [From, To] date filter. Nil bounds are open.
type DateWindow struct {
	From *time.Time
	To   *time.Time
}

func (w DateWindow) Contains(date time.Time) bool {
	if w.From != nil && date.Before(*w.From) {
		return false
	}
	if w.To != nil && date.After(*w.To) {
		return false
	}
	return true
}
