package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fraudshield/internal/metrics"
)

// HTTPScorer calls the delegate scoring service's /predict endpoint.
type HTTPScorer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPScorer(baseURL string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPScorer) Score(ctx context.Context, text string) (*Prediction, error) {
	start := time.Now()
	defer func() { metrics.ScorerLatency.Observe(time.Since(start).Seconds()) }()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrScorerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	}

	var apiResp struct {
		Probabilities map[string]float64 `json:"probabilities"`
		Label         string             `json:"label"`
		RiskScore     *float64           `json:"riskScore"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrScorerUnavailable, err)
	}

	if apiResp.RiskScore == nil {
		return nil, fmt.Errorf("%w: response has no riskScore", ErrScorerUnavailable)
	}
	pred := &Prediction{
		Probabilities: apiResp.Probabilities,
		Label:         apiResp.Label,
		RiskScore:     *apiResp.RiskScore,
	}
	if err := checkPrediction(pred); err != nil {
		return nil, err
	}
	return pred, nil
}

// Health reports whether the scorer answers its health endpoint.
func (h *HTTPScorer) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scorer health: status %d", resp.StatusCode)
	}
	return nil
}
