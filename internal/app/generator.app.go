package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/logger"
	"cryptocoarse/internal/repository"
	"cryptocoarse/internal/service"
)

// GeneratorHandler runs the coarse fundamental pipeline for one market:
// read every archive, fold bars into per-day aggregates, then resolve and
// merge each day. The full read happens before any day resolves because a
// day's conversion graph needs that day's complete symbol set.
type GeneratorHandler struct {
	ArchiveRepository    repository.TradeBarArchiveRepository
	ReferenceRepository  repository.ReferenceRepository
	CoarseFileRepository repository.CoarseFileRepository
	Config               *Config
}

type GenerateInput struct {
	Market string
	From   *time.Time
	To     *time.Time
}

type GenerateResult struct {
	RunID           uuid.UUID
	Market          string
	ArchivesRead    int
	SkippedArchives []string
	DatesWritten    int
	RecordsWritten  int
	// Unresolved maps ticker -> dates with no conversion path, in
	// ascending date order
	Unresolved  map[string][]time.Time
	FailedDates []string
}

// currencyPair caches a ticker's base/quote decomposition for the run.
type currencyPair struct {
	Base  string
	Quote string
}

func (h *GeneratorHandler) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	log := logger.FromContext(ctx).With("market", in.Market)
	runID := uuid.New()
	log.Infow("starting coarse fundamental generation", "runId", runID)

	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()

	_, endSpan := profile.StartNewSpan("load reference data")
	quoteCurrencies, err := h.ReferenceRepository.QuoteCurrencies(ctx, in.Market)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	endSpan()

	archives, err := h.ArchiveRepository.List(in.Market)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate archives: %w", err)
	}
	log.Infow("enumerated archives", "count", len(archives))

	result := &GenerateResult{
		RunID:      runID,
		Market:     in.Market,
		Unresolved: map[string][]time.Time{},
	}

	_, endSpan = profile.StartNewSpan("fold archives")
	aggregator := service.NewDailyAggregator()
	window := domain.DateWindow{From: in.From, To: in.To}
	result.ArchivesRead, result.SkippedArchives = h.foldArchives(log, archives, aggregator, window)
	endSpan()

	pairs := decomposeTickers(archives, quoteCurrencies)

	marketConfig := h.Config.Market(in.Market)
	converter := service.NewConversionService(
		marketConfig.TargetCurrency,
		marketConfig.BridgeCurrencies,
		h.Config.SmartRounding,
	)

	_, endSpan = profile.StartNewSpan("resolve and merge days")
	h.resolveAndMergeDays(log, aggregator, pairs, converter, in.Market, result)
	endSpan()

	for _, dates := range result.Unresolved {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}
	if len(result.Unresolved) > 0 {
		h.reportUnresolved(log, in.Market, result)
	}

	log.Infow("finished coarse fundamental generation",
		"runId", runID,
		"datesWritten", result.DatesWritten,
		"recordsWritten", result.RecordsWritten,
		"skippedArchives", len(result.SkippedArchives),
		"unresolvedSymbols", len(result.Unresolved),
	)
	if spans, err := profile.ToJsonBytes(); err == nil {
		log.Debugw("run profile", "spans", string(spans))
	}

	if len(result.FailedDates) > 0 {
		return result, fmt.Errorf("failed to write output for %d dates: %s",
			len(result.FailedDates), strings.Join(result.FailedDates, ", "))
	}
	return result, nil
}

// foldArchives streams every archive through the aggregator on a bounded
// worker pool. A corrupt archive is logged and skipped - siblings keep going.
func (h *GeneratorHandler) foldArchives(
	log *zap.SugaredLogger,
	archives []repository.TradeBarArchive,
	aggregator *service.DailyAggregator,
	window domain.DateWindow,
) (read int, skipped []string) {
	workers := h.Config.ReadWorkers
	if workers < 1 {
		workers = 1
	}

	pending := make(chan repository.TradeBarArchive, len(archives))
	for _, archive := range archives {
		pending <- archive
	}
	close(pending)

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for archive := range pending {
				err := h.ArchiveRepository.ReadBars(archive, window, func(bar domain.TradeBar) error {
					aggregator.Fold(bar)
					return nil
				})

				mu.Lock()
				var decodeErr *repository.DecodeError
				if errors.As(err, &decodeErr) {
					log.Warnw("skipping unreadable archive", "archive", archive.Path, "error", err)
					skipped = append(skipped, archive.Path)
				} else if err != nil {
					log.Warnw("failed to read archive", "archive", archive.Path, "error", err)
					skipped = append(skipped, archive.Path)
				} else {
					read++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Strings(skipped)
	return read, skipped
}

// resolveAndMergeDays runs the per-day resolution and merge passes. Days
// are independent once folding is done, so they run on their own pool. A
// failed write poisons that date only.
func (h *GeneratorHandler) resolveAndMergeDays(
	log *zap.SugaredLogger,
	aggregator *service.DailyAggregator,
	pairs map[string]currencyPair,
	converter service.ConversionService,
	market string,
	result *GenerateResult,
) {
	dates := aggregator.Dates()
	workers := h.Config.ResolveWorkers
	if workers < 1 {
		workers = 1
	}

	pending := make(chan time.Time, len(dates))
	for _, date := range dates {
		pending <- date
	}
	close(pending)

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for date := range pending {
				records, unresolved := resolveDay(aggregator.Day(date), pairs, converter)

				if err := h.CoarseFileRepository.Merge(market, date, records); err != nil {
					log.Errorw("failed to write coarse file", "date", date.Format(time.DateOnly), "error", err)
					mu.Lock()
					result.FailedDates = append(result.FailedDates, date.Format(time.DateOnly))
					mu.Unlock()
					continue
				}

				logDaySummary(log, date, records, unresolved)

				mu.Lock()
				result.DatesWritten++
				result.RecordsWritten += len(records)
				for _, ticker := range unresolved {
					result.Unresolved[ticker] = append(result.Unresolved[ticker], date)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Strings(result.FailedDates)
}

// resolveDay turns one day's aggregates into output records. Symbols whose
// ticker cannot be decomposed, or whose quote currency has no path to the
// target, come through with an absent usd volume and land in the unresolved
// list.
func resolveDay(
	aggregates []*domain.DailyAggregate,
	pairs map[string]currencyPair,
	converter service.ConversionService,
) (records []*domain.CoarseFundamental, unresolved []string) {
	observations := make([]service.PairObservation, 0, len(aggregates))
	for _, aggregate := range aggregates {
		pair, ok := pairs[aggregate.Symbol.Ticker]
		if !ok {
			continue
		}
		observations = append(observations, service.PairObservation{
			Symbol:      aggregate.Symbol,
			Base:        pair.Base,
			Quote:       pair.Quote,
			Close:       aggregate.Close,
			QuoteVolume: aggregate.QuoteVolume(),
		})
	}

	results := converter.ResolveDay(observations)

	records = make([]*domain.CoarseFundamental, 0, len(aggregates))
	for _, aggregate := range aggregates {
		record := &domain.CoarseFundamental{
			SecurityID: aggregate.Symbol.SecurityID(),
			Ticker:     aggregate.Symbol.Ticker,
			Open:       aggregate.Open,
			High:       aggregate.High,
			Low:        aggregate.Low,
			Close:      aggregate.Close,
			Volume:     aggregate.Volume,
		}
		if conversion, ok := results[record.SecurityID]; ok && conversion.Resolved {
			usd := conversion.USDVolume
			record.USDVolume = &usd
		} else {
			unresolved = append(unresolved, aggregate.Symbol.Ticker)
		}
		records = append(records, record)
	}
	return records, unresolved
}

func logDaySummary(log *zap.SugaredLogger, date time.Time, records []*domain.CoarseFundamental, unresolved []string) {
	samples := []float64{}
	for _, record := range records {
		if record.USDVolume != nil {
			samples = append(samples, record.USDVolume.InexactFloat64())
		}
	}

	fields := []interface{}{
		"date", date.Format(time.DateOnly),
		"symbols", len(records),
		"unresolved", len(unresolved),
	}
	if median, err := stats.Median(samples); err == nil {
		fields = append(fields, "medianUsdVolume", median)
	}
	log.Infow("resolved day", fields...)
}

// unresolvedReportRow is one line of the end-of-run unresolved report.
type unresolvedReportRow struct {
	Ticker string `csv:"symbol"`
	Date   string `csv:"date"`
}

// reportUnresolved writes the unresolved (symbol, date) pairs next to the
// dataset so operators can audit conversion misses per run.
func (h *GeneratorHandler) reportUnresolved(log *zap.SugaredLogger, market string, result *GenerateResult) {
	tickers := make([]string, 0, len(result.Unresolved))
	for ticker := range result.Unresolved {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	rows := []unresolvedReportRow{}
	for _, ticker := range tickers {
		for _, date := range result.Unresolved[ticker] {
			rows = append(rows, unresolvedReportRow{
				Ticker: ticker,
				Date:   date.Format(time.DateOnly),
			})
		}
		log.Warnw("no conversion path", "symbol", ticker, "dates", len(result.Unresolved[ticker]))
	}

	path := filepath.Join(h.Config.OutputRoot, strings.ToLower(market), "reports",
		fmt.Sprintf("unresolved-%s.csv", result.RunID))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warnw("could not write unresolved report", "path", path, "error", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warnw("could not write unresolved report", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		log.Warnw("could not write unresolved report", "path", path, "error", err)
		return
	}
	log.Infow("unresolved report saved", "path", path, "rows", len(rows))
}

// decomposeTickers derives each ticker's base/quote split once per run.
func decomposeTickers(archives []repository.TradeBarArchive, quoteCurrencies map[string]string) map[string]currencyPair {
	pairs := map[string]currencyPair{}
	for _, archive := range archives {
		ticker := archive.Symbol.Ticker
		if _, ok := pairs[ticker]; ok {
			continue
		}
		quote, ok := quoteCurrencies[ticker]
		if !ok {
			continue
		}
		base, quote, ok := domain.SplitPair(ticker, quote)
		if !ok {
			continue
		}
		pairs[ticker] = currencyPair{Base: base, Quote: quote}
	}
	return pairs
}
