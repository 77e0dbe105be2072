package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
)

const keyPrefix = "classification:"

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Redis shares verdicts across processes.
type Redis struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

type entry struct {
	RiskScore float64          `json:"riskScore"`
	Label     domain.RiskLabel `json:"label"`
}

func NewRedis(s Store, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{
		store: s,
		ttl:   ttl,
		log:   log.With().Str("component", "cache").Logger(),
	}
}

func (r *Redis) GetOrCompute(ctx context.Context, fingerprint string, compute func() domain.Verdict) domain.Verdict {
	key := keyPrefix + fingerprint

	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if ok {
		var e entry
		if err := json.Unmarshal(data, &e); err == nil {
			if _, valid := domain.ParseRiskLabel(string(e.Label)); valid {
				metrics.CacheRequests.WithLabelValues("hit").Inc()
				return domain.Verdict{RiskScore: e.RiskScore, Label: e.Label}
			}
		}
		r.log.Warn().Str("key", key).Msg("discarding corrupt cache entry")
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v := compute()
	if v.Fallback {
		return v
	}

	data, err = json.Marshal(entry{RiskScore: v.RiskScore, Label: v.Label})
	if err != nil {
		return v
	}
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v
}
