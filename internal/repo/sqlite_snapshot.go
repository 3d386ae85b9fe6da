// Package repo implements the snapshot backends behind the record store.
// This file provides the SQLite snapshot: the whole entry sequence is
// stored in feedback_entries and replaced atomically on every save.
//
// Error semantics:
//   - Save runs delete+insert in one transaction; on failure the previous
//     snapshot is left intact and the raw gorm error is returned.
//   - Load returns rows ordered by seq. Rows whose category is unknown are
//     reported as ErrCorrupt.
package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-retrobot/internal/domain"
)

// saveBatchSize bounds the number of rows per INSERT statement.
const saveBatchSize = 200

// SQLiteSnapshot stores the feedback sequence in a GORM-managed table.
type SQLiteSnapshot struct {
	DB *gorm.DB
}

// NewSQLiteSnapshot returns a snapshot backend bound to db, creating the
// table if needed.
func NewSQLiteSnapshot(db *gorm.DB) (*SQLiteSnapshot, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return &SQLiteSnapshot{DB: db}, nil
}

// Load returns every stored entry in insertion order. An empty table is an
// empty store, not an error.
func (s *SQLiteSnapshot) Load(ctx context.Context) ([]domain.FeedbackEntry, error) {
	var rows []domain.EntryRow
	if err := s.DB.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackEntry, 0, len(rows))
	for _, r := range rows {
		if _, ok := domain.ParseCategory(r.Category); !ok {
			return nil, fmt.Errorf("%w: row %d has category %q", ErrCorrupt, r.Seq, r.Category)
		}
		if r.Reactions != nil && *r.Reactions < 0 {
			return nil, fmt.Errorf("%w: row %d has negative reactions", ErrCorrupt, r.Seq)
		}
		out = append(out, r.Entry())
	}
	return out, nil
}

// Save replaces the stored sequence with entries.
func (s *SQLiteSnapshot) Save(ctx context.Context, entries []domain.FeedbackEntry) error {
	rows := make([]domain.EntryRow, len(entries))
	for i, e := range entries {
		rows[i] = domain.ToRow(i+1, e)
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.EntryRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, saveBatchSize).Error
	})
}
