package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/app"
	"github.com/kalletarpila/swingmaster/internal/core"
)

var (
	runDate    string
	runTickers []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate one trading day",
	Long:  "Evaluate every ticker for one trading day and commit the states and transitions as one run.",
	RunE:  runDaily,
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "Trading date YYYY-MM-DD (default today)")
	runCmd.Flags().StringSliceVar(&runTickers, "tickers", nil, "Tickers to evaluate (default: universe, then all with bars)")

	rootCmd.AddCommand(runCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	date := core.TruncateDay(time.Now())
	if runDate != "" {
		var err error
		if date, err = core.ParseDate(runDate); err != nil {
			return err
		}
	}

	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		r, err := env.runner()
		if err != nil {
			return err
		}
		summary, err := r.RunDaily(ctx, date, runTickers)
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	})
}

func printSummary(s *app.Summary) {
	fmt.Printf("Run %s  %s  tickers=%d transitions=%d blocked=%d insufficient=%d\n",
		s.RunID, s.AsOf.Format(core.DateLayout), s.Tickers, len(s.Transitions), s.Blocked, s.Insufficient)

	states := make([]string, 0, len(s.StateCounts))
	for st, n := range s.StateCounts {
		states = append(states, fmt.Sprintf("%s=%d", st, n))
	}
	sort.Strings(states)
	fmt.Printf("  states: %s\n", strings.Join(states, " "))
	if s.ArchivePath != "" {
		fmt.Printf("  archived: %s\n", s.ArchivePath)
	}
	if s.Notified > 0 {
		fmt.Printf("  notified: %d transitions\n", s.Notified)
	}
	for _, f := range s.HealthAlerts {
		fmt.Printf("  alert: %s\n", f.Message)
	}

	if len(s.Transitions) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TICKER\tFROM\tTO\tREASONS")
	for _, tr := range s.Transitions {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", tr.Ticker, tr.From, tr.To, joinReasons(tr.Reasons))
	}
	w.Flush()
}

func joinReasons(reasons []core.ReasonCode) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
