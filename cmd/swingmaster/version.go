package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/policy"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swingmaster %s\n", Version)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Policies:   %s\n", strings.Join(policy.Versions(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
