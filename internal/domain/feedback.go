// Package domain defines the retro feedback model shared by the record store,
// the snapshot backends, the summary engine, and the HTTP layer.
package domain

import (
	"strings"
	"time"
)

// Category is the kind of retrospective item a mention records.
type Category string

const (
	CategoryStart    Category = "start"
	CategoryStop     Category = "stop"
	CategoryContinue Category = "continue"
	CategoryKudo     Category = "kudo"
)

// Categories lists the recording categories in report order.
var Categories = []Category{CategoryStart, CategoryStop, CategoryContinue, CategoryKudo}

// ParseCategory maps a stored category string back to a Category.
// It reports false for anything outside the four recognized values.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.TrimSpace(s)); c {
	case CategoryStart, CategoryStop, CategoryContinue, CategoryKudo:
		return c, true
	default:
		return "", false
	}
}

// Valid reports whether c is one of the four recording categories.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// MessageRef identifies the chat message an entry was recorded from. The
// gateway uses it to look up reactions later.
type MessageRef struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}

// FeedbackEntry is one recorded retro item.
//
// Every field except Reactions is fixed at creation. Reactions stays nil
// until the first enrichment pass and is overwritten on each summarize.
type FeedbackEntry struct {
	Category   Category   `json:"category"`
	Author     string     `json:"author"`
	Channel    string     `json:"channel"`
	Command    string     `json:"command"`
	RecordedAt time.Time  `json:"recorded_at"`
	Ref        MessageRef `json:"message_ref"`
	Reactions  *int       `json:"reactions,omitempty"`
}

// ReactionCount returns the popularity count used for ranking; unset counts
// rank as zero.
func (e FeedbackEntry) ReactionCount() int {
	if e.Reactions == nil {
		return 0
	}
	return *e.Reactions
}

// WithReactions returns a copy of e carrying count n.
func (e FeedbackEntry) WithReactions(n int) FeedbackEntry {
	e.Reactions = &n
	return e
}
