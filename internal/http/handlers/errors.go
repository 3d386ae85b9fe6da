package handlers

// Stable error codes returned in ErrorResponse.Code. Clients branch on these,
// not on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// ErrCodeInvalidWindow means the from/to dates could not form a report window.
	ErrCodeInvalidWindow = "invalid_window"
	// ErrCodeBusy means the bot's event queue is full; Slack will redeliver.
	ErrCodeBusy = "busy"
)
