// Package slackgw implements gateway.Gateway on top of the Slack Web API
// (outbound calls) and the Slack Events API (inbound mentions, delivered by
// the HTTP layer through Enqueue).
package slackgw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-retrobot/internal/gateway"
)

// Defaults applied by New for zero-valued Options.
const (
	DefaultRPS       = 1.0
	DefaultBurst     = 5
	DefaultQueueSize = 256
	DefaultBatchSize = 32
	DefaultDedupeTTL = 10 * time.Minute
)

// Options configures a Client.
type Options struct {
	// APIURL overrides the Web API base URL; it must end with "/".
	APIURL    string
	RPS       float64
	Burst     int
	QueueSize int
	BatchSize int
	DedupeTTL time.Duration
	// HTTPClient is used for Web API calls; nil means a 30s-timeout client.
	HTTPClient *http.Client
}

// Client is a Slack-backed gateway.Gateway. It is safe for concurrent use.
type Client struct {
	api     *slack.Client
	limiter *rate.Limiter

	*queue
}

var _ gateway.Gateway = (*Client)(nil)

// New returns a Client authenticated with the bot token.
func New(token string, opts Options) *Client {
	if opts.RPS <= 0 {
		opts.RPS = DefaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	apiOpts := []slack.Option{slack.OptionHTTPClient(opts.HTTPClient)}
	if opts.APIURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(opts.APIURL))
	}
	return &Client{
		api:     slack.New(token, apiOpts...),
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		queue:   newQueue(opts.QueueSize, opts.BatchSize, opts.DedupeTTL),
	}
}

// ListUsers returns every workspace member, following pagination.
func (c *Client) ListUsers(ctx context.Context) ([]gateway.User, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	members, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}
	out := make([]gateway.User, 0, len(members))
	for _, m := range members {
		out = append(out, gateway.User{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

// LookupUser resolves id to the member's user name.
func (c *Client) LookupUser(ctx context.Context, id string) (gateway.User, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gateway.User{}, err
	}
	u, err := c.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return gateway.User{}, fmt.Errorf("users.info %s: %w", id, err)
	}
	return gateway.User{ID: u.ID, Name: u.Name}, nil
}

// ReactionCount returns the number of distinct reactions on the message at
// (channel, ts). Thread replies are counted like top-level messages. A
// message that was deleted, or a channel the bot can no longer read, yields
// gateway.ErrMessageNotFound.
func (c *Client) ReactionCount(ctx context.Context, channel, ts string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	reactions, err := c.api.GetReactionsContext(ctx, slack.NewRefToMessage(channel, ts), slack.NewGetReactionsParameters())
	if err != nil {
		switch errorCode(err) {
		case "channel_not_found", "not_in_channel", "message_not_found":
			return 0, fmt.Errorf("%w: %s/%s: %v", gateway.ErrMessageNotFound, channel, ts, err)
		}
		return 0, fmt.Errorf("reactions.get: %w", err)
	}
	return len(reactions), nil
}

// AddReaction attaches name to the message. Reacting twice is not an error.
func (c *Client) AddReaction(ctx context.Context, channel, ts, name string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	err := c.api.AddReactionContext(ctx, name, slack.NewRefToMessage(channel, ts))
	if err != nil && errorCode(err) != "already_reacted" {
		return fmt.Errorf("reactions.add: %w", err)
	}
	return nil
}

// PostMessage posts plain text to channel.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, _, err := c.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}
	return nil
}

// errorCode extracts the Slack error string ("channel_not_found", ...).
func errorCode(err error) string {
	var se slack.SlackErrorResponse
	if errors.As(err, &se) {
		return se.Err
	}
	return err.Error()
}
