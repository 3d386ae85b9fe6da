package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/tbourn/go-retrobot/internal/gateway"
	"github.com/tbourn/go-retrobot/internal/http/middleware"
)

// SlackEvents receives Slack Events API deliveries.
//
// Requests must carry a valid v0 signature for the configured signing
// secret. url_verification challenges are echoed; app_mention callbacks are
// queued for the bot loop. Other event types are acknowledged and dropped so
// Slack does not retry them.
func (h *Handlers) SlackEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	sv, err := slack.NewSecretsVerifier(c.Request.Header, h.signingSecret)
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing or expired signature")
		return
	}
	if _, err := sv.Write(body); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "signature check failed")
		return
	}
	if err := sv.Ensure(); err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid signature")
		return
	}

	outer, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed event payload")
		return
	}

	switch outer.Type {
	case slackevents.URLVerification:
		v, isChallenge := outer.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !isChallenge {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed challenge")
			return
		}
		c.String(http.StatusOK, v.Challenge)
		return
	case slackevents.CallbackEvent:
	default:
		c.Status(http.StatusOK)
		return
	}

	mention, isMention := outer.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !isMention {
		c.Status(http.StatusOK)
		return
	}
	var eventID string
	if cb, isCallback := outer.Data.(*slackevents.EventsAPICallbackEvent); isCallback {
		eventID = cb.EventID
	}

	lg := middleware.LoggerFrom(c)
	accepted, err := h.events.Enqueue(eventID, gateway.Event{
		Type:      "app_mention",
		Text:      mention.Text,
		Channel:   mention.Channel,
		User:      mention.User,
		Timestamp: mention.TimeStamp,
	})
	switch {
	case err == nil && accepted:
		lg.Debug().Str("event_id", eventID).Str("channel", mention.Channel).Msg("mention queued")
	case err == nil:
		lg.Debug().Str("event_id", eventID).Msg("duplicate delivery dropped")
	default:
		lg.Warn().Err(err).Str("event_id", eventID).Msg("mention not queued")
		c.Header("Retry-After", "1")
		fail(c, http.StatusServiceUnavailable, ErrCodeBusy, "event queue full")
		return
	}
	c.Status(http.StatusOK)
}
