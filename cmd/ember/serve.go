package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/davidbz/ember/internal/http"
	"github.com/davidbz/ember/internal/observability"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the completion HTTP API",
	Long: `Serve blocking and streaming completions over HTTP.

Routes:
  POST /v1/completions   completion, or SSE when "stream": true
  GET  /v1/usage         usage ledger snapshot
  GET  /health           liveness
  GET  /metrics          Prometheus metrics (METRICS_PATH)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(globalOverrides(false))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(server *http.Server) error {
		errs := make(chan error, 1)
		go func() {
			errs <- server.Start()
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}

		observability.FromContext(ctx).Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		return <-errs
	})
}
