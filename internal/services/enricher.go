// Package services – ReactionEnricher
//
// This file implements the ReactionEnricher, which refreshes the popularity
// count of every stored entry right before a summary is built. Lookups are
// fail-soft: a deleted message or a gateway error counts as zero reactions
// and never aborts the refresh. Lookups may run in parallel, but results are
// published to the store in a single SetReactionCounts call.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/observability"
)

// ReactionCounter is the slice of the gateway the enricher needs.
type ReactionCounter interface {
	ReactionCount(ctx context.Context, channel, ts string) (int, error)
}

// ReactionEnricher recomputes reaction counts through the gateway.
type ReactionEnricher struct {
	// Gateway answers per-message reaction lookups.
	Gateway ReactionCounter
	// Concurrency caps in-flight lookups. Values <= 1 run sequentially.
	Concurrency int
}

// NewReactionEnricher returns an enricher with the given lookup concurrency.
func NewReactionEnricher(gw ReactionCounter, concurrency int) *ReactionEnricher {
	return &ReactionEnricher{Gateway: gw, Concurrency: concurrency}
}

// Refresh looks up the current reaction count for every entry in store and
// overwrites all counts at once.
func (e *ReactionEnricher) Refresh(ctx context.Context, store *RecordStore) error {
	start := time.Now()
	defer func() { observability.EnrichDuration.Observe(time.Since(start).Seconds()) }()

	entries := store.All()
	counts := make([]int, len(entries))

	limit := e.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, entry := range entries {
		g.Go(func() error {
			n, err := e.Gateway.ReactionCount(gctx, entry.Ref.Channel, entry.Ref.Timestamp)
			if err != nil {
				reason := "lookup_failed"
				if errors.Is(err, gateway.ErrMessageNotFound) {
					reason = "message_missing"
				}
				observability.GatewayErrors.WithLabelValues("reaction_count").Inc()
				log.Debug().
					Err(err).
					Str("channel", entry.Ref.Channel).
					Str("ts", entry.Ref.Timestamp).
					Str("reason", reason).
					Msg("reaction lookup failed, counting 0")
				n = 0
			}
			counts[i] = n
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return store.SetReactionCounts(counts)
}
