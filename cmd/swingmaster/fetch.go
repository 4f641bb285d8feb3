package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/core"
)

var (
	fetchDate    string
	fetchTickers []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily bars from the configured source",
	Long: `Download fetch.days calendar days of daily bars ending at --date for each
ticker and store them. Tickers default to the universe, then to the tickers of
the latest stored trading day. Existing bars for the same day are replaced.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDate, "date", "", "Last day to fetch YYYY-MM-DD (default today)")
	fetchCmd.Flags().StringSliceVar(&fetchTickers, "tickers", nil, "Tickers to fetch")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	asOf := core.TruncateDay(time.Now())
	if fetchDate != "" {
		var err error
		if asOf, err = core.ParseDate(fetchDate); err != nil {
			return err
		}
	}

	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		src, err := env.source()
		if err != nil {
			return err
		}
		tickers, err := env.fetchTickers(ctx, fetchTickers, asOf)
		if err != nil {
			return err
		}

		results, syncErr := env.fetch(ctx, src, tickers, asOf)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TICKER\tBARS\tSKIPPED\tERROR")
		total := 0
		for _, r := range results {
			msg := ""
			if r.Err != nil {
				msg = r.Err.Error()
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.Ticker, r.Bars, r.Skipped, msg)
			total += r.Bars
		}
		w.Flush()
		fmt.Printf("Stored %d bars for %d tickers from %s\n", total, len(tickers), src.Name())
		return syncErr
	})
}
