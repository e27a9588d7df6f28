// Package storage keeps a diagnostics journal of received events and emitted notifications.
// The journal is never replayed into the mirror.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradedesk/internal/domain"
	"tradedesk/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JournalEntry is one received server event.
type JournalEntry struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"index;size:36"`
	Seq        uint64    `gorm:"index"`
	Kind       string    `gorm:"index;size:32"`
	Payload    string    `gorm:"type:text"`
	ReceivedAt time.Time `gorm:"index"`
}

// NotificationRecord is one notification shown to the local actor.
type NotificationRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"index;size:36"`
	ActorID     string `gorm:"index"`
	Kind        string `gorm:"size:32"`
	Severity    string `gorm:"size:16"`
	Title       string
	Description string
	At          time.Time `gorm:"index"`
}

// Journal is the sqlite-backed diagnostics store.
type Journal struct {
	db *gorm.DB
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// Pure Go sqlite
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	if err := db.AutoMigrate(&JournalEntry{}, &NotificationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordEvent appends one received event.
func (j *Journal) RecordEvent(ctx context.Context, sessionID string, ev event.ServerEvent) error {
	payload, err := event.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.GetType(), err)
	}
	received := time.Now()
	if ts := ev.GetTs(); ts != 0 {
		received = time.UnixMicro(ts)
	}
	entry := JournalEntry{
		SessionID:  sessionID,
		Seq:        ev.GetSeq(),
		Kind:       ev.GetType().String(),
		Payload:    string(payload),
		ReceivedAt: received,
	}
	return j.db.WithContext(ctx).Create(&entry).Error
}

// RecordNotification appends one emitted notification.
func (j *Journal) RecordNotification(ctx context.Context, sessionID string, n domain.Notification) error {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	rec := NotificationRecord{
		SessionID:   sessionID,
		ActorID:     n.ActorID,
		Kind:        n.Kind,
		Severity:    string(n.Severity),
		Title:       n.Title,
		Description: n.Description,
		At:          at,
	}
	return j.db.WithContext(ctx).Create(&rec).Error
}

// RecentEvents returns up to limit entries, newest first. kind filters when non-empty.
func (j *Journal) RecentEvents(ctx context.Context, kind string, limit int) ([]JournalEntry, error) {
	var entries []JournalEntry
	q := j.db.WithContext(ctx).Order("id desc").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// RecentNotifications returns up to limit notifications, newest first.
func (j *Journal) RecentNotifications(ctx context.Context, limit int) ([]NotificationRecord, error) {
	var recs []NotificationRecord
	err := j.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&recs).Error
	return recs, err
}

// Decode turns a journal entry back into its event for inspection.
func (e JournalEntry) Decode() (event.ServerEvent, error) {
	return event.Decode([]byte(e.Payload))
}
