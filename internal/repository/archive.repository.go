package repository

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cryptocoarse/internal/domain"

	"github.com/shopspring/decimal"
)

// DecodeError marks one archive as unreadable - corrupt contents or a file
// name that cannot be mapped to a symbol. Callers skip the archive and keep
// processing siblings.
type DecodeError struct {
	Archive string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode archive %s: %s", e.Archive, e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TradeBarArchive is one enumerated source file plus the symbol derived
// from its name. The symbol always comes from the path, never the contents.
type TradeBarArchive struct {
	Symbol domain.Symbol
	Path   string
}

type TradeBarArchiveRepository interface {
	// List enumerates the market's daily archives under the input root.
	List(market string) ([]TradeBarArchive, error)
	// ReadBars streams the archive's rows through fn, skipping rows outside
	// the window while scanning. Rows are never materialized as a whole.
	ReadBars(archive TradeBarArchive, window domain.DateWindow, fn func(domain.TradeBar) error) error
}

func NewTradeBarArchiveRepository(inputRoot string) TradeBarArchiveRepository {
	return &tradeBarArchiveRepositoryHandler{
		InputRoot: inputRoot,
	}
}

type tradeBarArchiveRepositoryHandler struct {
	InputRoot string
}

func (h *tradeBarArchiveRepositoryHandler) List(market string) ([]TradeBarArchive, error) {
	dir := filepath.Join(h.InputRoot, strings.ToLower(market), "daily")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives in %s: %w", dir, err)
	}

	archives := []TradeBarArchive{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".zip" && ext != ".csv" {
			continue
		}
		ticker := strings.TrimSuffix(name, filepath.Ext(name))
		if ticker == "" {
			continue
		}
		archives = append(archives, TradeBarArchive{
			Symbol: domain.NewSymbol(ticker, market),
			Path:   filepath.Join(dir, name),
		})
	}
	return archives, nil
}

func (h *tradeBarArchiveRepositoryHandler) ReadBars(archive TradeBarArchive, window domain.DateWindow, fn func(domain.TradeBar) error) error {
	reader, closer, err := openArchive(archive.Path)
	if err != nil {
		return &DecodeError{Archive: archive.Path, Err: err}
	}
	defer closer()

	rows := csv.NewReader(reader)
	rows.FieldsPerRecord = 6
	rows.ReuseRecord = true

	for {
		record, err := rows.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &DecodeError{Archive: archive.Path, Err: err}
		}

		bar, err := parseBarRow(archive.Symbol, record)
		if err != nil {
			return &DecodeError{Archive: archive.Path, Err: err}
		}
		if !window.Contains(bar.Date()) {
			continue
		}
		if err := fn(bar); err != nil {
			return err
		}
	}
}

// openArchive returns a reader over the archive's csv content. Zip archives
// must hold exactly one file entry.
func openArchive(path string) (io.Reader, func(), error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, err
	}
	if len(zr.File) != 1 {
		zr.Close()
		return nil, nil, fmt.Errorf("expected 1 entry in zip, got %d", len(zr.File))
	}
	entry, err := zr.File[0].Open()
	if err != nil {
		zr.Close()
		return nil, nil, err
	}
	return entry, func() {
		entry.Close()
		zr.Close()
	}, nil
}

// parseBarRow decodes one fixed-order row: epoch-ms,open,high,low,close,volume.
func parseBarRow(symbol domain.Symbol, record []string) (domain.TradeBar, error) {
	millis, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return domain.TradeBar{}, fmt.Errorf("bad timestamp %q: %w", record[0], err)
	}

	fields := make([]decimal.Decimal, 5)
	for i, raw := range record[1:] {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return domain.TradeBar{}, fmt.Errorf("bad field %q: %w", raw, err)
		}
		fields[i] = d
	}

	return domain.TradeBar{
		Symbol: symbol,
		Time:   time.UnixMilli(millis).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
