package repository

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/util"
)

// CoarseFileRepository owns the persisted per-day dataset files. Merge is
// additive and idempotent: rerunning the pipeline over the same inputs
// produces byte-identical files.
type CoarseFileRepository interface {
	Read(market string, date time.Time) ([]*domain.CoarseFundamental, error)
	Merge(market string, date time.Time, records []*domain.CoarseFundamental) error
	FilePath(market string, date time.Time) string
}

func NewCoarseFileRepository(outputRoot string) CoarseFileRepository {
	return &coarseFileRepositoryHandler{
		OutputRoot: outputRoot,
	}
}

type coarseFileRepositoryHandler struct {
	OutputRoot string
}

func (h *coarseFileRepositoryHandler) FilePath(market string, date time.Time) string {
	return filepath.Join(
		h.OutputRoot,
		strings.ToLower(market),
		"fundamental",
		"coarse",
		util.DayKey(date)+".csv",
	)
}

func (h *coarseFileRepositoryHandler) Read(market string, date time.Time) ([]*domain.CoarseFundamental, error) {
	lines, err := readLines(h.FilePath(market, date))
	if err != nil {
		return nil, err
	}

	records := make([]*domain.CoarseFundamental, 0, len(lines))
	for _, line := range lines {
		record, err := domain.ParseCoarseLine(line)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Merge overlays the new records onto whatever the file already holds,
// keyed by security id with new values winning, then rewrites the file
// sorted by id. The write goes to a temp file in the destination directory
// and is renamed into place, so a crash mid-write never corrupts the
// existing file.
func (h *coarseFileRepositoryHandler) Merge(market string, date time.Time, records []*domain.CoarseFundamental) error {
	path := h.FilePath(market, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir for %s: %w", path, err)
	}

	existing, err := readLines(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing output %s: %w", path, err)
	}

	// existing rows stay as raw lines so an unchanged row is rewritten
	// byte for byte
	merged := map[string]string{}
	for _, line := range existing {
		key, _, found := strings.Cut(line, ",")
		if !found {
			continue
		}
		merged[key] = line
	}
	for _, record := range records {
		merged[record.SecurityID] = record.MarshalLine()
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp output for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, key := range keys {
		if _, err := w.WriteString(merged[key] + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write output %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp output for %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place at %s: %w", path, err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
