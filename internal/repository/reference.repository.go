package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
)

// ErrNoReferenceData means the reference source had no symbol properties for
// the requested market. Fatal - without quote currencies nothing can be
// decomposed or converted.
var ErrNoReferenceData = errors.New("no reference data for market")

// SymbolProperties is one row of the symbol-properties reference file.
type SymbolProperties struct {
	Market        string `csv:"market"`
	Ticker        string `csv:"symbol"`
	QuoteCurrency string `csv:"quote_currency"`
}

// ReferenceRepository supplies the (market, ticker) -> quote currency
// mapping the resolver needs. Fetched once per run.
type ReferenceRepository interface {
	QuoteCurrencies(ctx context.Context, market string) (map[string]string, error)
}

// NewReferenceRepository picks an implementation by source: http(s) urls
// fetch over the network, anything else is treated as a local csv path.
func NewReferenceRepository(source string) ReferenceRepository {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return &httpReferenceRepositoryHandler{
			URL:    source,
			Client: resty.New(),
		}
	}
	return &fileReferenceRepositoryHandler{
		Path: source,
	}
}

type fileReferenceRepositoryHandler struct {
	Path string
}

func (h *fileReferenceRepositoryHandler) QuoteCurrencies(ctx context.Context, market string) (map[string]string, error) {
	f, err := os.Open(h.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol properties file: %w", err)
	}
	defer f.Close()

	rows := []SymbolProperties{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse symbol properties file: %w", err)
	}

	return quoteCurrenciesForMarket(rows, market)
}

type httpReferenceRepositoryHandler struct {
	URL    string
	Client *resty.Client
}

func (h *httpReferenceRepositoryHandler) QuoteCurrencies(ctx context.Context, market string) (map[string]string, error) {
	resp, err := h.Client.R().SetContext(ctx).Get(h.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch symbol properties: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch symbol properties: status %d", resp.StatusCode())
	}

	rows := []SymbolProperties{}
	if err := gocsv.UnmarshalBytes(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse symbol properties response: %w", err)
	}

	return quoteCurrenciesForMarket(rows, market)
}

func quoteCurrenciesForMarket(rows []SymbolProperties, market string) (map[string]string, error) {
	market = strings.ToLower(market)
	out := map[string]string{}
	for _, row := range rows {
		if strings.ToLower(row.Market) != market {
			continue
		}
		out[strings.ToUpper(row.Ticker)] = strings.ToUpper(row.QuoteCurrency)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReferenceData, market)
	}
	return out, nil
}
