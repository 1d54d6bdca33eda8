package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sharehub/sharehub/internal/domain"
	"github.com/sharehub/sharehub/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL event journal
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the journal tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schema.HubEvent{}); err != nil {
		return fmt.Errorf("failed to migrate hub_events: %w", err)
	}
	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// AppendEvent journals one hub event
func (s *pgStore) AppendEvent(ctx context.Context, event *schema.HubEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEventsAfter returns up to limit events with an id strictly greater
// than afterID, in id order.
func (s *pgStore) ListEventsAfter(ctx context.Context, afterID string, limit int) ([]schema.HubEvent, error) {
	var events []schema.HubEvent
	q := s.db.WithContext(ctx).Order("id").Limit(limit)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListEventsByType returns up to limit events of one type, newest first
func (s *pgStore) ListEventsByType(ctx context.Context, eventType domain.HubEventType, limit int) ([]schema.HubEvent, error) {
	var events []schema.HubEvent
	err := s.db.WithContext(ctx).
		Where("type = ?", eventType).
		Order("id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events by type: %w", err)
	}
	return events, nil
}
