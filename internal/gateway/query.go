package gateway

import (
	"context"
	"time"

	"fraudshield/internal/domain"
)

// ListMessages returns userID's messages, highest risk first. The caller is
// assumed to be authorized for userID.
func (g *Gateway) ListMessages(ctx context.Context, userID string, since *time.Time, page, pageSize int) (*domain.Page, error) {
	if page < 0 {
		return nil, &domain.ValidationError{Field: "page", Reason: "must not be negative"}
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, &domain.ValidationError{Field: "size", Reason: "must be between 1 and 100"}
	}
	return g.store.ListByRiskPriority(ctx, userID, since, page, pageSize)
}

// Stats counts userID's messages since the cutoff, seven days by default.
func (g *Gateway) Stats(ctx context.Context, userID string, since *time.Time) (*domain.Stats, error) {
	cutoff := g.now().Add(-DefaultStatsWindow)
	if since != nil {
		cutoff = *since
	}

	n, err := g.store.CountSince(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		UserID:        userID,
		TotalMessages: n,
		Since:         cutoff,
	}, nil
}

// HighRiskSince lists HIGH messages across all users, newest first. The
// cutoff defaults to the last 24 hours.
func (g *Gateway) HighRiskSince(ctx context.Context, since *time.Time) ([]domain.Message, error) {
	cutoff := g.now().Add(-DefaultHighRiskWindow)
	if since != nil {
		cutoff = *since
	}
	return g.store.ListByLabelSince(ctx, domain.RiskHigh, cutoff)
}

func (g *Gateway) FindMessage(ctx context.Context, id string) (*domain.Message, error) {
	return g.store.FindByID(ctx, id)
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
