// Package bot runs the command loop: it polls the gateway for mentions,
// classifies each one, and either records a feedback entry or answers a
// summarize request. Events are handled one at a time, to completion, in the
// order the gateway delivers them.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/observability"
	"github.com/tbourn/go-retrobot/internal/services"
	"github.com/tbourn/go-retrobot/internal/sysutil"
)

// ErrBotUserNotFound is returned by New when no workspace member carries the
// configured bot name.
var ErrBotUserNotFound = errors.New("bot user not found")

// Defaults applied by New.
const (
	DefaultPollInterval = time.Second
	DefaultAckReaction  = "white_check_mark"
)

// Refresher recomputes reaction counts on every stored entry.
type Refresher interface {
	Refresh(ctx context.Context, store *services.RecordStore) error
}

// Options configures a Bot. Zero values fall back to the defaults.
type Options struct {
	BotName      string
	PollInterval time.Duration
	AckReaction  string
	Summary      *services.SummaryEngine
	Now          func() time.Time
}

// Bot is the command interpreter bound to one gateway and one store.
type Bot struct {
	gw       gateway.Gateway
	store    *services.RecordStore
	enricher Refresher
	summary  *services.SummaryEngine

	botID        string
	mention      string
	pollInterval time.Duration
	ackReaction  string
	now          func() time.Time
}

// New resolves the bot's own user id by name and returns a ready Bot.
func New(ctx context.Context, gw gateway.Gateway, store *services.RecordStore, enricher Refresher, opts Options) (*Bot, error) {
	users, err := gw.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var botID string
	for _, u := range users {
		if u.Name == opts.BotName {
			botID = u.ID
			break
		}
	}
	if botID == "" {
		return nil, fmt.Errorf("%w: %q", ErrBotUserNotFound, opts.BotName)
	}

	b := &Bot{
		gw:           gw,
		store:        store,
		enricher:     enricher,
		summary:      opts.Summary,
		botID:        botID,
		mention:      Mention(botID),
		pollInterval: opts.PollInterval,
		ackReaction:  opts.AckReaction,
		now:          opts.Now,
	}
	if b.summary == nil {
		b.summary = services.NewSummaryEngine(nil)
	}
	if b.pollInterval <= 0 {
		b.pollInterval = DefaultPollInterval
	}
	if b.ackReaction == "" {
		b.ackReaction = DefaultAckReaction
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b, nil
}

// ID returns the bot's resolved user id.
func (b *Bot) ID() string { return b.botID }

// Run polls and handles events until ctx is cancelled. Gateway and handler
// errors are logged; only cancellation ends the loop.
func (b *Bot) Run(ctx context.Context) error {
	log.Info().Str("bot_id", b.botID).Dur("poll_interval", b.pollInterval).Msg("bot loop started")
	t := time.NewTicker(b.pollInterval)
	defer t.Stop()

	for {
		events, err := b.gw.PollEvents(ctx)
		if err != nil && ctx.Err() == nil {
			observability.GatewayErrors.WithLabelValues("poll_events").Inc()
			log.Warn().Err(err).Msg("poll events failed")
		}
		for _, ev := range events {
			if ctx.Err() != nil {
				break
			}
			if err := b.Handle(ctx, ev); err != nil {
				log.Error().Err(err).Str("channel", ev.Channel).Str("ts", ev.Timestamp).Msg("command failed")
			}
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("bot loop stopped")
			return nil
		case <-t.C:
		}
	}
}

// Handle processes one event. Events that do not mention the bot, come from
// the bot itself, or carry no known command are ignored without error.
func (b *Bot) Handle(ctx context.Context, ev gateway.Event) error {
	if ev.User == b.botID {
		return nil
	}
	text, ok := ExtractCommand(ev.Text, b.mention)
	if !ok {
		return nil
	}
	cmd, ok := Classify(text)
	if !ok {
		observability.CommandsTotal.WithLabelValues("ignored").Inc()
		log.Debug().Str("channel", ev.Channel).Str("command", text).Msg("ignoring unknown command")
		return nil
	}

	ctx, span := observability.StartCommandSpan(ctx, string(cmd), ev.Channel)
	defer span.End()
	observability.CommandsTotal.WithLabelValues(string(cmd)).Inc()

	var err error
	if cat, ok := cmd.Category(); ok {
		err = b.record(ctx, cat, text, ev)
	} else {
		err = b.summarize(ctx, text, ev)
	}
	if err != nil {
		observability.CommandFailures.WithLabelValues(string(cmd)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (b *Bot) record(ctx context.Context, cat domain.Category, text string, ev gateway.Event) error {
	user, err := b.gw.LookupUser(ctx, ev.User)
	if err != nil {
		observability.GatewayErrors.WithLabelValues("lookup_user").Inc()
		log.Warn().Err(err).Str("user", ev.User).Msg("user lookup failed, recording user id")
	}

	entry := domain.FeedbackEntry{
		Category:   cat,
		Author:     sysutil.FirstNonEmpty(user.Name, ev.User),
		Channel:    ev.Channel,
		Command:    text,
		RecordedAt: b.now(),
		Ref:        domain.MessageRef{Channel: ev.Channel, Timestamp: ev.Timestamp},
	}
	if err := b.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("record %s: %w", cat, err)
	}
	log.Info().
		Str("channel", ev.Channel).
		Str("category", string(cat)).
		Str("author", entry.Author).
		Str("ts", ev.Timestamp).
		Msg("feedback recorded")

	if err := b.gw.AddReaction(ctx, ev.Channel, ev.Timestamp, b.ackReaction); err != nil {
		observability.GatewayErrors.WithLabelValues("add_reaction").Inc()
		log.Warn().Err(err).Str("channel", ev.Channel).Str("ts", ev.Timestamp).Msg("acknowledgement failed")
	}
	return nil
}

func (b *Bot) summarize(ctx context.Context, text string, ev gateway.Event) error {
	if err := b.enricher.Refresh(ctx, b.store); err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Warn().Err(err).Msg("reaction refresh failed, using stored counts")
	}
	if err := b.store.Persist(ctx); err != nil {
		log.Error().Err(err).Msg("persist after refresh failed")
	}

	report := b.summary.Summarize(b.store.All(), ev.Channel, text)
	if err := b.gw.PostMessage(ctx, ev.Channel, report); err != nil {
		observability.GatewayErrors.WithLabelValues("post_message").Inc()
		return fmt.Errorf("post summary: %w", err)
	}
	log.Info().Str("channel", ev.Channel).Str("command", text).Msg("summary posted")
	return nil
}
