package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fraudshield/internal/domain"
)

// messageRecord is the gorm row for a message. Severity holds
// domain.SeverityRank(Label) so ordering is a plain column sort.
type messageRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:128;not null;index:idx_user_priority,priority:1"`
	Channel   string    `gorm:"size:8;not null"`
	Text      string    `gorm:"type:text;not null"`
	RiskScore float64   `gorm:"not null"`
	Label     string    `gorm:"size:8;not null;index:idx_label_created,priority:1"`
	Severity  int       `gorm:"not null;index:idx_user_priority,priority:2"`
	CreatedAt time.Time `gorm:"not null;index:idx_user_priority,priority:3;index:idx_label_created,priority:2"`
}

func (messageRecord) TableName() string { return "messages" }

func (r messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:        r.ID,
		UserID:    r.UserID,
		Channel:   domain.Channel(r.Channel),
		Text:      r.Text,
		RiskScore: r.RiskScore,
		Label:     domain.RiskLabel(r.Label),
		CreatedAt: r.CreatedAt,
	}
}

// SQLite is the gorm-backed store used for local runs and tests.
type SQLite struct {
	db  *gorm.DB
	now Clock
}

// NewSQLite opens path (":memory:" for an ephemeral store) and migrates the
// schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	return NewGorm(db)
}

// NewGorm wraps an existing gorm connection.
func NewGorm(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &SQLite{db: db, now: systemClock}, nil
}

// WithClock replaces the persistence clock.
func (s *SQLite) WithClock(c Clock) *SQLite {
	s.now = c
	return s
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLite) Save(ctx context.Context, userID string, req domain.ClassificationRequest, resp domain.ClassificationResponse) (*domain.Message, error) {
	rec := messageRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Channel:   string(req.Channel),
		Text:      req.Message,
		RiskScore: resp.RiskScore,
		Label:     string(resp.Label),
		Severity:  domain.SeverityRank(resp.Label),
		CreatedAt: s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("storage: save: %w", err)
	}

	msg := rec.toDomain()
	return &msg, nil
}

func (s *SQLite) ListByRiskPriority(ctx context.Context, userID string, since *time.Time, page, pageSize int) (*domain.Page, error) {
	q := s.db.WithContext(ctx).Model(&messageRecord{}).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	// Shared by the count and the page query below.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("storage: count %s: %w", userID, err)
	}

	off, ok := pageOffset(page, pageSize, total)
	if !ok {
		return domain.NewPage(nil, page, pageSize, total), nil
	}

	var recs []messageRecord
	if err := q.Order("severity ASC").Order("created_at DESC").Order("id ASC").
		Limit(pageSize).Offset(off).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", userID, err)
	}

	return domain.NewPage(toDomain(recs), page, pageSize, total), nil
}

func (s *SQLite) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&messageRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("storage: count %s: %w", userID, err)
	}
	return n, nil
}

func (s *SQLite) ListByLabelSince(ctx context.Context, label domain.RiskLabel, since time.Time) ([]domain.Message, error) {
	var recs []messageRecord
	if err := s.db.WithContext(ctx).
		Where("label = ? AND created_at > ?", string(label), since.UTC()).
		Order("created_at DESC").Order("id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("storage: list label %s: %w", label, err)
	}
	return toDomain(recs), nil
}

func (s *SQLite) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var rec messageRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: find %s: %w", id, err)
	}
	msg := rec.toDomain()
	return &msg, nil
}

func toDomain(recs []messageRecord) []domain.Message {
	out := make([]domain.Message, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out
}
