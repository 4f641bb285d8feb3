package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalletarpila/swingmaster/internal/storage/market"
)

var importTicker string

var importCmd = &cobra.Command{
	Use:   "import [csv files...]",
	Short: "Load daily bars from CSV files",
	Long: `Load daily OHLCV bars into the market store. Each file needs a header with
date, open, high, low and close columns; volume and ticker are optional. Without
a ticker column the ticker comes from --ticker or the file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTicker, "ticker", "", "Ticker for files without a ticker column")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		total := 0
		for _, path := range args {
			n, err := importFile(ctx, env.bars, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			env.log.Info("bars imported", zap.String("file", path), zap.Int("bars", n))
			total += n
		}
		fmt.Printf("Imported %d bars from %d files\n", total, len(args))
		return nil
	})
}

func importFile(ctx context.Context, store market.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ticker := importTicker
	if ticker == "" {
		ticker = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	bars, err := market.ReadCSV(f, ticker)
	if err != nil {
		return 0, err
	}
	if err := store.Upsert(ctx, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}
