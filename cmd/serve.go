package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manna-labs/manna/api"
)

var (
	serveAddr      string
	serveRateLimit float64
	serveRateBurst int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 5, "sustained requests per second on ask endpoints (0 disables)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 10, "burst size for the rate limiter")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	server, err := api.New(api.Config{
		Addr:      serveAddr,
		Engine:    a.engine,
		DB:        a.pool,
		RateLimit: serveRateLimit,
		RateBurst: serveRateBurst,
		Logger:    a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}
