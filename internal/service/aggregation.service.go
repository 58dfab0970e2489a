package service

import (
	"sort"
	"sync"
	"time"

	"cryptocoarse/internal/domain"
)

// DailyAggregator folds trade bars into one aggregate per (date, symbol).
// Folding is chronological within a symbol's archive: first open wins, last
// close wins, highs/lows widen, volume sums. Reordering bars within a day
// changes the result, so callers must feed each archive in file order.
//
// Safe for concurrent folding from multiple archive readers.
type DailyAggregator struct {
	mu   sync.Mutex
	days map[time.Time]map[string]*domain.DailyAggregate
}

func NewDailyAggregator() *DailyAggregator {
	return &DailyAggregator{
		days: map[time.Time]map[string]*domain.DailyAggregate{},
	}
}

func (a *DailyAggregator) Fold(bar domain.TradeBar) {
	date := bar.Date()

	a.mu.Lock()
	defer a.mu.Unlock()

	day, ok := a.days[date]
	if !ok {
		day = map[string]*domain.DailyAggregate{}
		a.days[date] = day
	}

	key := bar.Symbol.SecurityID()
	existing, ok := day[key]
	if !ok {
		day[key] = &domain.DailyAggregate{
			Symbol: bar.Symbol,
			Date:   date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
		return
	}

	if bar.High.GreaterThan(existing.High) {
		existing.High = bar.High
	}
	if bar.Low.LessThan(existing.Low) {
		existing.Low = bar.Low
	}
	existing.Close = bar.Close
	existing.Volume = existing.Volume.Add(bar.Volume)
}

// Dates returns every aggregated date in ascending order.
func (a *DailyAggregator) Dates() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	dates := make([]time.Time, 0, len(a.days))
	for date := range a.days {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Day returns the date's aggregates sorted by security id.
func (a *DailyAggregator) Day(date time.Time) []*domain.DailyAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	day := a.days[date]
	keys := make([]string, 0, len(day))
	for key := range day {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	aggregates := make([]*domain.DailyAggregate, 0, len(keys))
	for _, key := range keys {
		aggregates = append(aggregates, day[key])
	}
	return aggregates
}
