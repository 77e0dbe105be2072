// Package notifier is the extension point for high-risk detections. Only a
// logging implementation ships; delivery channels plug in behind Notifier.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
)

type Notification struct {
	Message domain.Message
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Log records high-risk detections in the service log.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notifier").Logger()}
}

func (l *Log) Notify(_ context.Context, n Notification) error {
	l.log.Warn().
		Str("message_id", n.Message.ID).
		Str("user_id", n.Message.UserID).
		Str("channel", string(n.Message.Channel)).
		Float64("risk_score", n.Message.RiskScore).
		Msg("high-risk message detected")
	return nil
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
