package storage

import (
	"context"
	"fmt"
	"time"

	"fraudshield/internal/domain"
)

// MessageStore owns persisted messages. Listings put higher severity first,
// then newer messages first.
type MessageStore interface {
	Save(ctx context.Context, userID string, req domain.ClassificationRequest, resp domain.ClassificationResponse) (*domain.Message, error)
	ListByRiskPriority(ctx context.Context, userID string, since *time.Time, page, pageSize int) (*domain.Page, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListByLabelSince(ctx context.Context, label domain.RiskLabel, since time.Time) ([]domain.Message, error)
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	Ping(ctx context.Context) error
	Close() error
}

// Clock returns the persistence timestamp for new records.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (MessageStore, error) {
	switch driver {
	case "postgres":
		p, err := NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if err := p.Migrate(ctx); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	case "sqlite":
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

// pageOffset returns the first row of page, or false when the page starts at
// or past total. The offset never exceeds total, so it cannot overflow.
func pageOffset(page, pageSize int, total int64) (int, bool) {
	if page < 0 || pageSize < 1 || total == 0 {
		return 0, false
	}
	if int64(page) > (total-1)/int64(pageSize) {
		return 0, false
	}
	return page * pageSize, true
}
