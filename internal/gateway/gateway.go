// Package gateway defines the narrow messaging contract the bot core uses to
// talk to a chat platform. Implementations live in subpackages (see
// gateway/slackgw); tests use in-package fakes.
package gateway

import (
	"context"
	"errors"
)

// ErrMessageNotFound is returned by ReactionCount when the referenced
// message no longer exists or is not visible to the bot.
var ErrMessageNotFound = errors.New("message not found")

// User is a chat user as reported by the platform.
type User struct {
	ID   string
	Name string
}

// Event is one inbound message event.
type Event struct {
	Type      string
	Text      string
	Channel   string
	User      string
	Timestamp string
}

// Gateway is everything the bot needs from the chat platform. Every call
// blocks until the platform answers or ctx is done.
type Gateway interface {
	// ListUsers returns the workspace members; used once at startup to find
	// the bot's own id.
	ListUsers(ctx context.Context) ([]User, error)
	// PollEvents returns the next batch of inbound events, possibly empty.
	PollEvents(ctx context.Context) ([]Event, error)
	// LookupUser resolves a user id to its display name.
	LookupUser(ctx context.Context, id string) (User, error)
	// ReactionCount returns the number of reactions on the message at
	// (channel, ts), or ErrMessageNotFound.
	ReactionCount(ctx context.Context, channel, ts string) (int, error)
	// AddReaction attaches the named reaction to the message at (channel, ts).
	AddReaction(ctx context.Context, channel, ts, name string) error
	// PostMessage posts text to channel.
	PostMessage(ctx context.Context, channel, text string) error
}
