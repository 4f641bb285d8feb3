package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
)

var (
	historyLimit int
	runsLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history [ticker]",
	Short: "Show recent states and transitions of a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	RunE:  runRuns,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of days to show")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ticker := args[0]

	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		days, err := env.states.Days(ctx, ticker, historyLimit)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			fmt.Printf("No states recorded for %s\n", ticker)
			return nil
		}

		fmt.Printf("=== %s ===\n", ticker)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSTATE\tAGE\tCONF\tREASONS\tSTATUS")
		for _, d := range days {
			conf := "-"
			if d.Attrs.Confidence != nil {
				conf = fmt.Sprintf("%d", *d.Attrs.Confidence)
			}
			status := "-"
			if raw, err := policy.EncodeStatus(d.Attrs.Status); err == nil && raw != nil {
				status = string(raw)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				d.Date.Format(core.DateLayout), d.State, d.Attrs.Age, conf, joinReasons(d.Reasons), status)
		}
		w.Flush()

		transitions, err := env.states.Transitions(ctx, ticker, historyLimit)
		if err != nil {
			return err
		}
		if len(transitions) == 0 {
			return nil
		}
		fmt.Println()
		fmt.Println("Transitions:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tFROM\tTO\tREASONS\tRUN")
		for _, tr := range transitions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				tr.Date.Format(core.DateLayout), tr.From, tr.To, joinReasons(tr.Reasons), tr.RunID)
		}
		return w.Flush()
	})
}

func runRuns(cmd *cobra.Command, args []string) error {
	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		runs, err := env.states.Runs(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tDATE\tPOLICY\tTICKERS\tTRANSITIONS\tSTATUS\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID, r.AsOf.Format(core.DateLayout), r.PolicyVersion, r.Tickers, r.Transitions,
				r.Status, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		}
		return w.Flush()
	})
}
