package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"start", CategoryStart, true},
		{"stop", CategoryStop, true},
		{" continue ", CategoryContinue, true},
		{"kudo", CategoryKudo, true},
		{"kudos", "", false},
		{"summarize", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseCategory(%q) = (%q,%v); want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if Category("bogus").Valid() {
		t.Fatalf("bogus category reported valid")
	}
}

func TestReactionCount_UnsetIsZero(t *testing.T) {
	e := FeedbackEntry{Category: CategoryKudo}
	if e.ReactionCount() != 0 {
		t.Fatalf("unset reactions should rank as 0")
	}
	e2 := e.WithReactions(7)
	if e2.ReactionCount() != 7 || e.Reactions != nil {
		t.Fatalf("WithReactions must copy: orig=%v new=%v", e.Reactions, e2.Reactions)
	}
}

func TestEntryRow_RoundTripAndMigration(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:domain_entries?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&EntryRow{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if (EntryRow{}).TableName() != "feedback_entries" {
		t.Fatalf("unexpected table name %q", (EntryRow{}).TableName())
	}
	if !db.Migrator().HasIndex(&EntryRow{}, "idx_entries_channel_time") {
		t.Fatalf("expected idx_entries_channel_time index")
	}

	at := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	in := FeedbackEntry{
		Category:   CategoryStop,
		Author:     "ada",
		Channel:    "C1",
		Command:    "stop long meetings",
		RecordedAt: at,
		Ref:        MessageRef{Channel: "C1", Timestamp: "1704191400.000100"},
	}.WithReactions(2)

	row := ToRow(1, in)
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got EntryRow
	if err := db.First(&got, "seq = ?", 1).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	out := got.Entry()
	if out.Category != in.Category || out.Author != in.Author || out.Command != in.Command ||
		out.Ref != in.Ref || !out.RecordedAt.Equal(at) || out.ReactionCount() != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	bad := ToRow(2, FeedbackEntry{Category: "bogus", Author: "x", Channel: "C1", Command: "x", RecordedAt: at})
	if err := db.Create(&bad).Error; err == nil {
		t.Fatalf("expected check constraint to reject unknown category")
	}
}
