package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalletarpila/swingmaster/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only query API",
	Long:  "Serve runs, ticker states and transitions as JSON on api.addr until interrupted.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withEnvironment(ctx, func(ctx context.Context, env *environment) error {
		return env.apiServer().Start(ctx)
	})
}

func (e *environment) apiServer() *api.Server {
	return api.NewServer(api.Config{
		Addr:   e.cfg.API.Addr,
		APIKey: e.cfg.API.APIKey,
	}, e.states, e.metrics, e.log)
}
