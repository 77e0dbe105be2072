package queue

import (
	"context"

	"fraudshield/internal/domain"
)

// Envelope is an inbound classification request carried on the queue.
type Envelope struct {
	UserID  string         `json:"userId"`
	Message string         `json:"message"`
	Channel domain.Channel `json:"channel"`
}

// Publisher emits persisted messages to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
	Close() error
}

// Handler processes one envelope. A non-nil error leaves the offset
// uncommitted so the envelope is redelivered.
type Handler func(ctx context.Context, env Envelope) error

type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
