package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/core"
)

var (
	rangeFrom    string
	rangeTo      string
	rangeTickers []string
)

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Evaluate every trading day in a date range",
	Long:  "Run one daily evaluation per trading day between --from and --to, oldest first.",
	RunE:  runRange,
}

func init() {
	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "Start date YYYY-MM-DD (required)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "End date YYYY-MM-DD (required)")
	rangeCmd.Flags().StringSliceVar(&rangeTickers, "tickers", nil, "Tickers to evaluate")

	rangeCmd.MarkFlagRequired("from")
	rangeCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(rangeCmd)
}

func runRange(cmd *cobra.Command, args []string) error {
	from, err := core.ParseDate(rangeFrom)
	if err != nil {
		return err
	}
	to, err := core.ParseDate(rangeTo)
	if err != nil {
		return err
	}

	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		r, err := env.runner()
		if err != nil {
			return err
		}
		summaries, err := r.RunRange(ctx, from, to, rangeTickers)
		for _, s := range summaries {
			printSummary(s)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d runs committed\n", len(summaries))
		return nil
	})
}
