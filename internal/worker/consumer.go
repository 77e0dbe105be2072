package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
	"fraudshield/internal/queue"
)

// Recorder is the part of the gateway the worker drives.
type Recorder interface {
	ClassifyAndRecord(ctx context.Context, userID string, req domain.ClassificationRequest) (*domain.ClassificationResponse, *domain.Message, error)
}

// Consumer feeds queued envelopes through the classification pipeline.
type Consumer struct {
	consumer queue.Consumer
	recorder Recorder
	log      zerolog.Logger
}

func NewConsumer(c queue.Consumer, r Recorder, log zerolog.Logger) *Consumer {
	return &Consumer{
		consumer: c,
		recorder: r,
		log:      log.With().Str("component", "ingest").Logger(),
	}
}

func (w *Consumer) Start(ctx context.Context) error {
	return w.consumer.Consume(ctx, w.handleEnvelope)
}

// handleEnvelope drops envelopes that can never succeed and returns
// persistence failures so they are redelivered.
func (w *Consumer) handleEnvelope(ctx context.Context, env queue.Envelope) error {
	if channel, ok := domain.ParseChannel(string(env.Channel)); ok {
		env.Channel = channel
	}
	req := domain.ClassificationRequest{Message: env.Message, Channel: env.Channel}

	w.log.Debug().Str("user_id", env.UserID).Str("channel", string(env.Channel)).Msg("envelope received")

	_, msg, err := w.recorder.ClassifyAndRecord(ctx, env.UserID, req)
	switch {
	case errors.Is(err, domain.ErrValidation):
		w.log.Warn().Err(err).Str("user_id", env.UserID).Msg("dropping invalid envelope")
		metrics.IngestedTotal.WithLabelValues("invalid").Inc()
		return nil
	case err != nil:
		metrics.IngestedTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.IngestedTotal.WithLabelValues("recorded").Inc()
	w.log.Info().Str("message_id", msg.ID).Str("label", string(msg.Label)).Msg("envelope recorded")
	return nil
}
