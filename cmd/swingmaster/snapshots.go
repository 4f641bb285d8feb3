package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/storage/archive"
)

var snapshotsDate string

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List archived run snapshots",
	RunE:  runSnapshots,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print one archived run snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsDate, "date", "", "Only snapshots of this date YYYY-MM-DD")
	snapshotsCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	var day time.Time
	if snapshotsDate != "" {
		var err error
		if day, err = core.ParseDate(snapshotsDate); err != nil {
			return err
		}
	}

	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		if env.archive == nil {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.type is not configured"))
		}
		paths, err := archive.ListSnapshots(ctx, env.archive, day)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	})
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	return withEnvironment(cmd.Context(), func(ctx context.Context, env *environment) error {
		if env.archive == nil {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.type is not configured"))
		}
		snap, err := archive.LoadSnapshot(ctx, env.archive, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run %s  %s  policy=%s tickers=%d\n", snap.RunID, snap.AsOf, snap.PolicyVersion, snap.Tickers)
		fmt.Printf("  finished %s in %s\n", snap.FinishedAt.Format(time.RFC3339), snap.FinishedAt.Sub(snap.StartedAt))
		for _, st := range core.AllStates {
			if n := snap.StateCounts[st]; n > 0 {
				fmt.Printf("  %-16s %d\n", st, n)
			}
		}
		for _, tr := range snap.Transitions {
			fmt.Printf("  %s: %s -> %s (%s)\n", tr.Ticker, tr.From, tr.To, joinReasons(tr.Reasons))
		}
		return nil
	})
}
