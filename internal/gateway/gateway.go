// Package gateway runs the classification pipeline: validate, consult the
// cache or classify, persist, return.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fraudshield/internal/cache"
	"fraudshield/internal/classifier"
	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
	"fraudshield/internal/notifier"
	"fraudshield/internal/queue"
	"fraudshield/internal/storage"
)

const (
	AnonymousUser = "anonymous"

	DefaultStatsWindow    = 7 * 24 * time.Hour
	DefaultHighRiskWindow = 24 * time.Hour
	DefaultPageSize       = 20
	MaxPageSize           = 100
)

type Gateway struct {
	classifier classifier.Classifier
	cache      cache.Cache
	store      storage.MessageStore
	notifier   notifier.Notifier
	publisher  queue.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

type Option func(*Gateway)

func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) { g.log = l.With().Str("component", "gateway").Logger() }
}

// WithNotifier sets the hook invoked for persisted HIGH messages.
func WithNotifier(n notifier.Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

// WithPublisher emits every persisted message as an event.
func WithPublisher(p queue.Publisher) Option {
	return func(g *Gateway) { g.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(cl classifier.Classifier, c cache.Cache, s storage.MessageStore, opts ...Option) *Gateway {
	g := &Gateway{
		classifier: cl,
		cache:      c,
		store:      s,
		notifier:   notifier.Nop{},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ClassifyAndRecord scores req and persists the result. Scorer failures are
// absorbed into the fallback verdict; a failed write is returned as a
// *domain.PersistenceError. Caller cancellation does not interrupt a
// request once validated.
func (g *Gateway) ClassifyAndRecord(ctx context.Context, userID string, req domain.ClassificationRequest) (*domain.ClassificationResponse, *domain.Message, error) {
	if err := Validate(req); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(userID) == "" {
		userID = AnonymousUser
	}
	ctx = context.WithoutCancel(ctx)

	verdict := g.cache.GetOrCompute(ctx, cache.Fingerprint(req.Message), func() domain.Verdict {
		return g.classifier.Classify(ctx, req.Message)
	})
	resp := verdict.Response()

	msg, err := g.store.Save(ctx, userID, req, resp)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Msg("failed to persist classification")
		return nil, nil, &domain.PersistenceError{Op: "save", Err: err}
	}
	metrics.ClassificationsTotal.WithLabelValues(string(msg.Channel), string(msg.Label)).Inc()

	g.log.Info().
		Str("message_id", msg.ID).
		Str("user_id", userID).
		Str("channel", string(msg.Channel)).
		Str("label", string(msg.Label)).
		Float64("risk_score", msg.RiskScore).
		Bool("fallback", verdict.Fallback).
		Msg("message classified")

	g.afterSave(ctx, *msg)

	return &resp, msg, nil
}

func (g *Gateway) afterSave(ctx context.Context, msg domain.Message) {
	if msg.Label == domain.RiskHigh {
		if err := g.notifier.Notify(ctx, notifier.Notification{Message: msg}); err != nil {
			g.log.Error().Err(err).Str("message_id", msg.ID).Msg("high-risk hook failed")
		}
	}

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, msg); err != nil {
			g.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to publish classified event")
		}
	}
}

// Validate rejects blank text and unknown channels.
func Validate(req domain.ClassificationRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return &domain.ValidationError{Field: "message", Reason: "must not be blank"}
	}
	if !req.Channel.Valid() {
		return &domain.ValidationError{Field: "channel", Reason: "must be one of EMAIL, SMS, CALL"}
	}
	return nil
}
