package domain

import "time"

// EntryRow is the GORM mapping of a FeedbackEntry in the SQLite snapshot
// table. Seq is the entry's 1-based position in the sequence and doubles as
// the primary key, so reading rows ordered by seq restores insertion order.
type EntryRow struct {
	Seq       int       `gorm:"primaryKey;autoIncrement:false"`
	Category  string    `gorm:"type:varchar(16);not null;check:category IN ('start','stop','continue','kudo')"`
	User      string    `gorm:"type:varchar(255);not null"`
	Channel   string    `gorm:"type:varchar(64);not null;index:idx_entries_channel_time,priority:1"`
	Command   string    `gorm:"type:text;not null"`
	Time      time.Time `gorm:"not null;index:idx_entries_channel_time,priority:2"`
	Timestamp string    `gorm:"type:varchar(32);not null"`
	Reactions *int
}

// TableName returns the database table name for EntryRow.
func (EntryRow) TableName() string { return "feedback_entries" }

// ToRow maps an entry at position seq to its table row.
func ToRow(seq int, e FeedbackEntry) EntryRow {
	return EntryRow{
		Seq:       seq,
		Category:  string(e.Category),
		User:      e.Author,
		Channel:   e.Channel,
		Command:   e.Command,
		Time:      e.RecordedAt,
		Timestamp: e.Ref.Timestamp,
		Reactions: e.Reactions,
	}
}

// Entry maps a table row back to a FeedbackEntry. The message reference
// channel is the entry channel, matching how entries are recorded.
func (r EntryRow) Entry() FeedbackEntry {
	return FeedbackEntry{
		Category:   Category(r.Category),
		Author:     r.User,
		Channel:    r.Channel,
		Command:    r.Command,
		RecordedAt: r.Time,
		Ref:        MessageRef{Channel: r.Channel, Timestamp: r.Timestamp},
		Reactions:  r.Reactions,
	}
}
