package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newConsumeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run the ingestion worker only",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsume(cmd, *configPath)
		},
	}
}

func runConsume(cmd *cobra.Command, configPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Queue.Enabled() {
		return errors.New("consume: queue.brokers is not configured")
	}

	w, err := a.ingestWorker()
	if err != nil {
		return err
	}

	a.log.Info().Str("topic", a.cfg.Queue.InboundTopic).Msg("consumer started")
	err = w.Start(ctx)
	a.log.Info().Msg("shutting down")
	return err
}
