package slackgw

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/observability"
)

// ErrQueueFull is returned by Enqueue when the bot has fallen behind. The
// event is not marked as seen, so a redelivery can still be accepted.
var ErrQueueFull = errors.New("event queue full")

// sweepEvery is how many Enqueue calls pass between expiry sweeps.
const sweepEvery = 1000

// queue buffers inbound events between the webhook and the bot loop and
// drops Slack redeliveries of an event_id already accepted within the TTL.
type queue struct {
	events chan gateway.Event
	batch  int

	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	sweepN int
	now    func() time.Time
}

func newQueue(size, batch int, ttl time.Duration) *queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &queue{
		events: make(chan gateway.Event, size),
		batch:  batch,
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enqueue hands ev to the bot loop. It reports false with a nil error when
// eventID was already accepted within the TTL. An empty eventID is never
// deduplicated.
func (q *queue) Enqueue(eventID string, ev gateway.Event) (bool, error) {
	now := q.now()

	q.mu.Lock()
	q.sweepN++
	if q.sweepN >= sweepEvery {
		for id, at := range q.seen {
			if now.Sub(at) >= q.ttl {
				delete(q.seen, id)
			}
		}
		q.sweepN = 0
	}
	if eventID != "" {
		if at, ok := q.seen[eventID]; ok && now.Sub(at) < q.ttl {
			q.mu.Unlock()
			observability.EventsDropped.WithLabelValues("duplicate").Inc()
			return false, nil
		}
		q.seen[eventID] = now
	}
	q.mu.Unlock()

	select {
	case q.events <- ev:
		return true, nil
	default:
		if eventID != "" {
			q.mu.Lock()
			delete(q.seen, eventID)
			q.mu.Unlock()
		}
		observability.EventsDropped.WithLabelValues("queue_full").Inc()
		return false, ErrQueueFull
	}
}

// PollEvents returns up to one batch of queued events without waiting.
func (q *queue) PollEvents(ctx context.Context) ([]gateway.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []gateway.Event
	for len(out) < q.batch {
		select {
		case ev := <-q.events:
			out = append(out, ev)
		default:
			return out, nil
		}
	}
	return out, nil
}

// Pending returns the number of queued events.
func (q *queue) Pending() int { return len(q.events) }
