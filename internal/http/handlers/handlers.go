package handlers

import (
	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/services"
)

// EntryReader is the read side of the record store.
type EntryReader interface {
	All() []domain.FeedbackEntry
}

// EventSink accepts inbound chat events for the bot loop. It reports false
// for a duplicate delivery and an error when the event cannot be queued.
type EventSink interface {
	Enqueue(eventID string, ev gateway.Event) (bool, error)
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	entries       EntryReader
	summary       *services.SummaryEngine
	events        EventSink
	signingSecret string
}

// New returns Handlers reading from entries and queueing Slack events into
// events after verifying them with signingSecret.
func New(entries EntryReader, summary *services.SummaryEngine, events EventSink, signingSecret string) *Handlers {
	if summary == nil {
		summary = services.NewSummaryEngine(nil)
	}
	return &Handlers{
		entries:       entries,
		summary:       summary,
		events:        events,
		signingSecret: signingSecret,
	}
}
