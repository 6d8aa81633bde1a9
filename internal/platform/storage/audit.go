package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformerrors "sketchwall-server-go/internal/platform/errors"
)

// Audit actions recorded for moderation decisions.
const (
	AuditActionFlagged  = "flagged"
	AuditActionRemoved  = "removed"
	AuditActionPardoned = "pardoned"
)

// AuditRecord is one row of the append-only moderation trail. Drawing state
// itself is process-lifetime only; the trail records decisions, not content.
type AuditRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	DrawingID string         `gorm:"index;size:64" json:"drawing_id"`
	Action    string         `gorm:"size:16" json:"action"`
	Reasons   datatypes.JSON `json:"reasons,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists moderation decisions to SQLite.
type AuditStore struct {
	db *gorm.DB
}

// OpenAudit opens (and migrates) the audit database at path.
func OpenAudit(path string) (*AuditStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindStorage, "open",
				"create audit directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "open",
			"open audit database", err)
	}

	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "open",
			"migrate audit schema", err)
	}

	return &AuditStore{db: db}, nil
}

// RecordFlagged appends a flag decision with its accumulated reasons.
func (s *AuditStore) RecordFlagged(drawingID string, reasons []string) error {
	payload, err := json.Marshal(reasons)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "record", "marshal reasons", err)
	}
	return s.append(&AuditRecord{
		DrawingID: drawingID,
		Action:    AuditActionFlagged,
		Reasons:   datatypes.JSON(payload),
	})
}

// RecordRemoved appends a removal (manual or automatic) with its reason text.
func (s *AuditStore) RecordRemoved(drawingID, reason string) error {
	return s.append(&AuditRecord{
		DrawingID: drawingID,
		Action:    AuditActionRemoved,
		Detail:    reason,
	})
}

// RecordPardoned appends a moderator pardon.
func (s *AuditStore) RecordPardoned(drawingID string) error {
	return s.append(&AuditRecord{
		DrawingID: drawingID,
		Action:    AuditActionPardoned,
	})
}

func (s *AuditStore) append(record *AuditRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "record", "append audit record", err)
	}
	return nil
}

// Recent returns up to limit audit records, newest first.
func (s *AuditStore) Recent(limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []AuditRecord
	err := s.db.Order("id desc").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "recent", "query audit records", err)
	}
	return records, nil
}

// ForDrawing returns the trail for one drawing id, oldest first.
func (s *AuditStore) ForDrawing(drawingID string) ([]AuditRecord, error) {
	var records []AuditRecord
	err := s.db.Where("drawing_id = ?", drawingID).Order("id asc").Find(&records).Error
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "for_drawing", "query audit records", err)
	}
	return records, nil
}

// Close releases the underlying database handle.
func (s *AuditStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
