package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"fraudshield/internal/cache"
	"fraudshield/internal/classifier"
	"fraudshield/internal/config"
	"fraudshield/internal/gateway"
	"fraudshield/internal/logging"
	"fraudshield/internal/notifier"
	"fraudshield/internal/queue"
	"fraudshield/internal/redis"
	"fraudshield/internal/storage"
	"fraudshield/internal/worker"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   storage.MessageStore
	scorer  *classifier.HTTPScorer
	gateway *gateway.Gateway
	closers []io.Closer
}

func setup(ctx context.Context, configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logOut, cfg.Log.Level, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	a.store, err = storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to storage: %w", err)
	}
	a.closers = append(a.closers, a.store)

	c, err := a.buildCache()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.scorer = classifier.NewHTTPScorer(cfg.Scorer.URL, cfg.Scorer.Timeout)

	opts := []gateway.Option{
		gateway.WithLogger(log),
		gateway.WithNotifier(notifier.NewLog(log)),
	}
	if cfg.Queue.Enabled() && cfg.Queue.ClassifiedTopic != "" {
		pub, err := queue.NewKafka(cfg.Queue.Brokers, cfg.Queue.ClassifiedTopic)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create publisher: %w", err)
		}
		a.closers = append(a.closers, pub)
		opts = append(opts, gateway.WithPublisher(pub))
	}

	a.gateway = gateway.New(classifier.NewRisk(a.scorer, log), c, a.store, opts...)

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("cache", cfg.Cache.Driver).
		Str("scorer", cfg.Scorer.URL).
		Bool("queue", cfg.Queue.Enabled()).
		Msg("components ready")

	return a, nil
}

func (a *app) buildCache() (cache.Cache, error) {
	if a.cfg.Cache.Driver != "redis" {
		return cache.NewMemory(), nil
	}

	rdb, err := redis.New(a.cfg.Cache.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, rdb)
	return cache.NewRedis(rdb, a.cfg.Cache.TTL, a.log), nil
}

func (a *app) ingestWorker() (*worker.Consumer, error) {
	q := a.cfg.Queue
	consumer, err := queue.NewKafkaConsumer(q.Brokers, q.GroupID, q.InboundTopic, a.log)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	a.closers = append(a.closers, consumer)
	return worker.NewConsumer(consumer, a.gateway, a.log), nil
}

// Close releases components in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
