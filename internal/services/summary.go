// Package services – SummaryEngine
//
// This file implements the summary report: it pulls two dates out of a
// summarize command, keeps the requesting channel's entries whose calendar
// date falls in (start, end], groups them by category, ranks each group by
// reaction count (ties keep insertion order), and renders the chat text.
//
// Bad input is answered with a fixed chat message rather than an error: the
// caller always gets text to post back.
package services

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tbourn/go-retrobot/internal/domain"
)

// Fixed replies.
const (
	MsgBadDateCount = "Too many or too few complete dates."
	MsgNoFeedback   = "No feedback during this period."
)

const dateLayout = "2006-01-02"

var dateRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ErrDateCount is returned by ParseWindow when the text does not hold exactly
// two usable YYYY-MM-DD dates.
var ErrDateCount = errors.New("summary needs exactly two YYYY-MM-DD dates")

// DateOrderError is returned by ParseWindow when the first date is after the
// second.
type DateOrderError struct {
	Start, End string
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("%s is greater than %s", e.Start, e.End)
}

// Window is a report range in YYYY-MM-DD form. An entry is inside when its
// calendar date is strictly after Start and on or before End.
type Window struct {
	Start string
	End   string
}

// Contains reports whether the calendar date day (YYYY-MM-DD) is in w.
func (w Window) Contains(day string) bool {
	return day > w.Start && day <= w.End
}

// ParseWindow scans text for YYYY-MM-DD tokens, left to right.
func ParseWindow(text string) (Window, error) {
	dates := dateRE.FindAllString(text, -1)
	if len(dates) != 2 {
		return Window{}, ErrDateCount
	}
	if dates[0] > dates[1] {
		return Window{}, &DateOrderError{Start: dates[0], End: dates[1]}
	}
	for _, d := range dates {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return Window{}, ErrDateCount
		}
	}
	return Window{Start: dates[0], End: dates[1]}, nil
}

// FilterWindow returns the entries of channel whose local calendar date is
// inside w, in their original order.
func FilterWindow(entries []domain.FeedbackEntry, channel string, w Window, loc *time.Location) []domain.FeedbackEntry {
	var out []domain.FeedbackEntry
	for _, e := range entries {
		if e.Channel != channel {
			continue
		}
		if w.Contains(e.RecordedAt.In(loc).Format(dateLayout)) {
			out = append(out, e)
		}
	}
	return out
}

// GroupByCategory partitions entries by category, preserving order within
// each group.
func GroupByCategory(entries []domain.FeedbackEntry) map[domain.Category][]domain.FeedbackEntry {
	groups := make(map[domain.Category][]domain.FeedbackEntry, len(domain.Categories))
	for _, e := range entries {
		groups[e.Category] = append(groups[e.Category], e)
	}
	return groups
}

// RankByReactions returns a copy of entries sorted by reaction count,
// highest first. Equal counts keep their relative order.
func RankByReactions(entries []domain.FeedbackEntry) []domain.FeedbackEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b domain.FeedbackEntry) int {
		return cmp.Compare(b.ReactionCount(), a.ReactionCount())
	})
	return out
}

var sectionTitles = map[domain.Category]string{
	domain.CategoryStart:    "Starts",
	domain.CategoryStop:     "Stops",
	domain.CategoryContinue: "Continues",
	domain.CategoryKudo:     "Kudos",
}

// RenderReport formats ranked groups as the chat report.
func RenderReport(w Window, groups map[domain.Category][]domain.FeedbackEntry, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of Feedback from %s to %s\n", w.Start, w.End)
	for _, c := range domain.Categories {
		fmt.Fprintf(&b, "*%s*\n", sectionTitles[c])
		for _, e := range groups[c] {
			fmt.Fprintf(&b, "%s %s --> %s -- Reactions: %d\n",
				e.RecordedAt.In(loc).Format(dateLayout), e.Author, e.Command, e.ReactionCount())
		}
	}
	return b.String()
}

// SummaryEngine builds reports in a fixed time zone.
type SummaryEngine struct {
	// Location decides which calendar day an entry belongs to.
	Location *time.Location
}

// NewSummaryEngine returns an engine using loc, or time.Local when nil.
func NewSummaryEngine(loc *time.Location) *SummaryEngine {
	if loc == nil {
		loc = time.Local
	}
	return &SummaryEngine{Location: loc}
}

// Summarize returns the report text for channel, or one of the fixed
// replies when the dates are unusable or nothing matches.
func (s *SummaryEngine) Summarize(entries []domain.FeedbackEntry, channel, commandText string) string {
	w, err := ParseWindow(commandText)
	if err != nil {
		var order *DateOrderError
		if errors.As(err, &order) {
			return order.Error()
		}
		return MsgBadDateCount
	}

	groups := GroupByCategory(FilterWindow(entries, channel, w, s.loc()))
	empty := true
	for _, c := range domain.Categories {
		if len(groups[c]) > 0 {
			empty = false
			groups[c] = RankByReactions(groups[c])
		}
	}
	if empty {
		return MsgNoFeedback
	}
	return RenderReport(w, groups, s.loc())
}

func (s *SummaryEngine) loc() *time.Location {
	if s == nil || s.Location == nil {
		return time.Local
	}
	return s.Location
}
