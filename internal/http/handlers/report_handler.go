package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/services"
	"github.com/tbourn/go-retrobot/internal/utils"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 200
)

// Pagination describes the returned slice of a channel's entries.
type Pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// ListEntriesResponse is a page of a channel's feedback entries in
// insertion order.
type ListEntriesResponse struct {
	Channel    string                 `json:"channel"`
	Entries    []domain.FeedbackEntry `json:"entries"`
	Pagination Pagination             `json:"pagination"`
}

// SummaryResponse carries a rendered report.
type SummaryResponse struct {
	Channel string `json:"channel"`
	From    string `json:"from"`
	To      string `json:"to"`
	Report  string `json:"report"`
}

// ListEntries godoc
// @ID          listEntries
// @Summary     List a channel's feedback entries
// @Description Returns stored entries for the channel in insertion order, with offset pagination.
// @Tags        Reports
// @Produce     json
//
// @Param       channel  path   string  true  "Channel ID"      example(C024BE91L)
// @Param       limit    query  int     false "Items per page"  minimum(1) maximum(200) default(50)
// @Param       offset   query  int     false "Items to skip"   minimum(0) default(0)
//
// @Success     200  {object} handlers.ListEntriesResponse
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /channels/{channel}/entries [get]
func (h *Handlers) ListEntries(c *gin.Context) {
	channel := strings.TrimSpace(c.Param("channel"))
	limit, offset := utils.ClampLimitOffset(c.Query("limit"), c.Query("offset"), defaultEntriesLimit, maxEntriesLimit)

	var matched []domain.FeedbackEntry
	for _, e := range h.entries.All() {
		if e.Channel == channel {
			matched = append(matched, e)
		}
	}
	lo, hi := utils.PageBounds(len(matched), offset, limit)

	ok(c, http.StatusOK, ListEntriesResponse{
		Channel: channel,
		Entries: append([]domain.FeedbackEntry{}, matched[lo:hi]...),
		Pagination: Pagination{
			Offset:  offset,
			Limit:   limit,
			Total:   len(matched),
			HasNext: hi < len(matched),
		},
	})
}

// Summary godoc
// @ID          channelSummary
// @Summary     Render a channel's feedback report
// @Description Builds the report the bot would post for (from, to], using the reaction counts saved at the last refresh. Slack is not contacted.
// @Tags        Reports
// @Produce     json
//
// @Param       channel  path   string  true  "Channel ID"                  example(C024BE91L)
// @Param       from     query  string  true  "Start date, exclusive"       example(2024-01-01)
// @Param       to       query  string  true  "End date, inclusive"         example(2024-01-31)
//
// @Success     200  {object} handlers.SummaryResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing or invalid dates"
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /channels/{channel}/summary [get]
func (h *Handlers) Summary(c *gin.Context) {
	channel := strings.TrimSpace(c.Param("channel"))
	from, to := strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "from and to are required")
		return
	}

	text := from + " " + to
	if _, err := services.ParseWindow(text); err != nil {
		var order *services.DateOrderError
		if errors.As(err, &order) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidWindow, order.Error())
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeInvalidWindow, services.MsgBadDateCount)
		return
	}

	ok(c, http.StatusOK, SummaryResponse{
		Channel: channel,
		From:    from,
		To:      to,
		Report:  h.summary.Summarize(h.entries.All(), channel, text),
	})
}
