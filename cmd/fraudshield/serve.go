package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fraudshield/internal/api"
	"fraudshield/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Runs the HTTP API and telephony webhooks. When queue brokers are configured the ingestion worker runs alongside it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath)
		},
	}
}

func runServe(cmd *cobra.Command, configPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	// Build the worker before anything starts listening.
	var w *worker.Consumer
	if a.cfg.Queue.Enabled() {
		if w, err = a.ingestWorker(); err != nil {
			return err
		}
	}

	server := api.NewServer(a.gateway, a.scorer, a.log)
	errc := make(chan error, 2)

	go func() {
		a.log.Info().Str("addr", a.cfg.Server.Port).Msg("server starting")
		errc <- server.Start(a.cfg.Server.Port)
	}()

	if w != nil {
		go func() {
			a.log.Info().Str("topic", a.cfg.Queue.InboundTopic).Msg("ingestion started")
			errc <- w.Start(ctx)
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errc:
		if err != nil {
			a.log.Error().Err(err).Msg("component stopped")
		}
	}

	a.log.Info().Msg("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		a.log.Warn().Err(serr).Msg("server shutdown")
	}
	return err
}
