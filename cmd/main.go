package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cryptocoarse/internal/app"
	"cryptocoarse/internal/domain"
	"cryptocoarse/internal/export"
	"cryptocoarse/internal/logger"
	"cryptocoarse/internal/repository"
	"cryptocoarse/internal/util"
)

var (
	configPath string
	market     string
	fromStr    string
	toStr      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cryptocoarse",
		Short: "Generates the crypto coarse fundamental dataset from daily trade archives",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&market, "market", "", "market to process, e.g. bitfinex")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Aggregate trade archives and write per-day coarse fundamental files",
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVar(&fromStr, "from", "", "start date (yyyy-mm-dd, inclusive)")
	generateCmd.Flags().StringVar(&toStr, "to", "", "end date (yyyy-mm-dd, inclusive)")

	var exportDate, exportOut string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Convert one generated coarse day file to parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(exportDate, exportOut)
		},
	}
	exportCmd.Flags().StringVar(&exportDate, "date", "", "date to export (yyyy-mm-dd)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output parquet path (defaults next to the csv)")

	rootCmd.AddCommand(generateCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if market == "" {
		return fmt.Errorf("--market is required")
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	in := app.GenerateInput{Market: market}
	if fromStr != "" {
		from, err := util.ParseDate(fromStr)
		if err != nil {
			return fmt.Errorf("bad --from date: %w", err)
		}
		in.From = &from
	}
	if toStr != "" {
		to, err := util.ParseDate(toStr)
		if err != nil {
			return fmt.Errorf("bad --to date: %w", err)
		}
		in.To = &to
	}

	log := logger.New()
	defer log.Sync()

	profile, endProfile := domain.NewProfile()
	defer endProfile()

	ctx := context.WithValue(context.Background(), logger.ContextKey, log)
	ctx = context.WithValue(ctx, domain.ContextProfileKey, profile)

	handler := &app.GeneratorHandler{
		ArchiveRepository:    repository.NewTradeBarArchiveRepository(config.InputRoot),
		ReferenceRepository:  repository.NewReferenceRepository(config.ReferenceSource),
		CoarseFileRepository: repository.NewCoarseFileRepository(config.OutputRoot),
		Config:               config,
	}

	_, err = handler.Generate(ctx, in)
	return err
}

func runExport(dateStr, out string) error {
	if market == "" {
		return fmt.Errorf("--market is required")
	}
	if dateStr == "" {
		return fmt.Errorf("--date is required")
	}
	date, err := util.ParseDate(dateStr)
	if err != nil {
		return fmt.Errorf("bad --date: %w", err)
	}

	config, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	coarseFiles := repository.NewCoarseFileRepository(config.OutputRoot)
	if out == "" {
		csvPath := coarseFiles.FilePath(market, date)
		out = filepath.Join(filepath.Dir(csvPath), util.DayKey(date)+".parquet")
	}

	if err := export.DayToParquet(coarseFiles, market, date, out); err != nil {
		return err
	}
	fmt.Printf("exported %s %s to %s\n", market, date.Format(time.DateOnly), out)
	return nil
}
