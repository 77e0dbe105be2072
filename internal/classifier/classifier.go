package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
	"fraudshield/internal/metrics"
)

// ErrScorerUnavailable wraps every failure of the delegate scorer.
var ErrScorerUnavailable = errors.New("scorer unavailable")

const (
	FallbackScore = 0.1
	FallbackLabel = domain.RiskLow
)

// Prediction is the delegate scorer's response.
type Prediction struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Label         string             `json:"label"`
	RiskScore     float64            `json:"riskScore"`
}

type Scorer interface {
	Score(ctx context.Context, text string) (*Prediction, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) domain.Verdict
}

// Risk turns scorer predictions into verdicts. It never fails: any scorer
// error yields the fallback verdict.
type Risk struct {
	scorer Scorer
	log    zerolog.Logger
}

func NewRisk(s Scorer, log zerolog.Logger) *Risk {
	return &Risk{
		scorer: s,
		log:    log.With().Str("component", "classifier").Logger(),
	}
}

func (r *Risk) Classify(ctx context.Context, text string) domain.Verdict {
	pred, err := r.scorer.Score(ctx, text)
	if err == nil {
		err = checkPrediction(pred)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("text", truncate(text, 50)).Msg("scorer failed, using fallback verdict")
		metrics.ScorerFallbacks.Inc()
		return Fallback()
	}

	return domain.Verdict{
		RiskScore: pred.RiskScore,
		Label:     MapLabel(pred.Label),
	}
}

func Fallback() domain.Verdict {
	return domain.Verdict{
		RiskScore: FallbackScore,
		Label:     FallbackLabel,
		Fallback:  true,
	}
}

// MapLabel maps the scorer's free-form label onto the risk taxonomy. The
// numeric score plays no part.
func MapLabel(label string) domain.RiskLabel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "fraud", "spam", "high":
		return domain.RiskHigh
	case "suspicious", "medium":
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// checkPrediction rejects a missing prediction or a score outside [0,1].
func checkPrediction(p *Prediction) error {
	if p == nil {
		return fmt.Errorf("%w: empty prediction", ErrScorerUnavailable)
	}
	if math.IsNaN(p.RiskScore) || p.RiskScore < 0 || p.RiskScore > 1 {
		return fmt.Errorf("%w: riskScore %v out of range", ErrScorerUnavailable, p.RiskScore)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
