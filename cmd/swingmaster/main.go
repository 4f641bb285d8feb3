package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "swingmaster",
	Short: "swingmaster - equity trading-state lifecycle",
	Long: `swingmaster classifies tickers into a trading-state lifecycle
(NO_TRADE, DOWNTREND_EARLY, DOWNTREND_LATE, STABILIZING, ENTRY_WINDOW, PASS)
from daily bars and keeps an auditable history of states and transitions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
