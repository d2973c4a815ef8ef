// History persistence: one row per session-scoped storage key holding the
// JSON-encoded entry list. The cache layer treats this as best-effort storage;
// errors are reported but never fatal to callers.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/averios/go-style-studio/internal/domain"
)

// ErrNotFound is returned when no record exists for a storage key.
var ErrNotFound = errors.New("record not found")

// HistoryStore persists bounded history entry lists keyed by session.
// It satisfies the history.Store contract.
type HistoryStore struct {
	DB *gorm.DB
}

// Save upserts the entry list for key as a single JSON array row.
func (s *HistoryStore) Save(ctx context.Context, key string, entries []domain.HistoryEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	rec := domain.HistoryRecord{
		SessionKey: key,
		Entries:    raw,
		UpdatedAt:  time.Now().UTC(),
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entries", "updated_at"}),
		}).
		Create(&rec).Error
}

// Load returns the entry list stored for key, or ErrNotFound.
func (s *HistoryStore) Load(ctx context.Context, key string) ([]domain.HistoryEntry, error) {
	var rec domain.HistoryRecord
	err := s.DB.WithContext(ctx).First(&rec, "session_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var entries []domain.HistoryEntry
	if err := json.Unmarshal(rec.Entries, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes the stored list for key. Missing rows are not an error.
func (s *HistoryStore) Delete(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).
		Delete(&domain.HistoryRecord{}, "session_key = ?", key).Error
}
