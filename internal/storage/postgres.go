package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"fraudshield/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		channel    TEXT NOT NULL,
		text       TEXT NOT NULL,
		risk_score DOUBLE PRECISION NOT NULL,
		label      TEXT NOT NULL,
		severity   SMALLINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_user_priority ON messages (user_id, severity, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_label_created ON messages (label, created_at);
`

const messageColumns = `id, user_id, channel, text, risk_score, label, created_at`

type Postgres struct {
	db  *sql.DB
	now Clock
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}

	return &Postgres{db: db, now: systemClock}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Migrate creates the messages table and its indexes if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, userID string, req domain.ClassificationRequest, resp domain.ClassificationResponse) (*domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Channel:   req.Channel,
		Text:      req.Message,
		RiskScore: resp.RiskScore,
		Label:     resp.Label,
		CreatedAt: p.now(),
	}

	query := `
		INSERT INTO messages (id, user_id, channel, text, risk_score, label, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.db.ExecContext(ctx, query,
		msg.ID,
		msg.UserID,
		string(msg.Channel),
		msg.Text,
		msg.RiskScore,
		string(msg.Label),
		domain.SeverityRank(msg.Label),
		msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: save: %w", err)
	}

	return &msg, nil
}

func (p *Postgres) ListByRiskPriority(ctx context.Context, userID string, since *time.Time, page, pageSize int) (*domain.Page, error) {
	filter := `WHERE user_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)`

	var total int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages `+filter, userID, since).Scan(&total); err != nil {
		return nil, fmt.Errorf("storage: count %s: %w", userID, err)
	}

	off, ok := pageOffset(page, pageSize, total)
	if !ok {
		return domain.NewPage(nil, page, pageSize, total), nil
	}

	query := `SELECT ` + messageColumns + ` FROM messages ` + filter + `
		ORDER BY severity ASC, created_at DESC, id ASC
		LIMIT $3 OFFSET $4`

	rows, err := p.db.QueryContext(ctx, query, userID, since, pageSize, off)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", userID, err)
	}
	items, err := scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", userID, err)
	}

	return domain.NewPage(items, page, pageSize, total), nil
}

func (p *Postgres) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM messages WHERE user_id = $1 AND created_at >= $2`

	var n int64
	if err := p.db.QueryRowContext(ctx, query, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: count %s: %w", userID, err)
	}
	return n, nil
}

func (p *Postgres) ListByLabelSince(ctx context.Context, label domain.RiskLabel, since time.Time) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE label = $1 AND created_at > $2
		ORDER BY created_at DESC, id ASC`

	rows, err := p.db.QueryContext(ctx, query, string(label), since)
	if err != nil {
		return nil, fmt.Errorf("storage: list label %s: %w", label, err)
	}
	items, err := scanMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("storage: list label %s: %w", label, err)
	}
	return items, nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var msg domain.Message
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.Channel,
		&msg.Text,
		&msg.RiskScore,
		&msg.Label,
		&msg.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: find %s: %w", id, err)
	}

	return &msg, nil
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Channel,
			&msg.Text,
			&msg.RiskScore,
			&msg.Label,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
