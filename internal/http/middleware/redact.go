package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

var (
	slackTokenRE = regexp.MustCompile(`xox[abposr]-[A-Za-z0-9-]+`)
	emailRE      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// Redactor scrubs secrets from values before they reach the access log.
// Headers in the mask set are logged as "[REDACTED]"; headers outside the
// allow set are not logged at all.
type Redactor struct {
	mask  map[string]struct{}
	allow map[string]struct{}
}

// NewRedactor masks Authorization, Cookie and the Slack signature headers in
// addition to extraMask, and logs only those plus the Slack retry headers.
func NewRedactor(extraMask ...string) *Redactor {
	r := &Redactor{
		mask: map[string]struct{}{
			"authorization":             {},
			"cookie":                    {},
			"x-slack-signature":         {},
			"x-slack-request-timestamp": {},
		},
		allow: map[string]struct{}{
			"content-type":         {},
			"x-slack-retry-num":    {},
			"x-slack-retry-reason": {},
		},
	}
	for _, h := range extraMask {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.mask[h] = struct{}{}
		}
	}
	return r
}

// Scrub replaces Slack tokens and email addresses in s.
func (r *Redactor) Scrub(s string) string {
	if s == "" {
		return s
	}
	s = slackTokenRE.ReplaceAllString(s, "[REDACTED:token]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

// Headers returns the loggable subset of h with masked and scrubbed values.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string)
	for k, vv := range h {
		lk := strings.ToLower(k)
		if _, ok := r.mask[lk]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		if _, ok := r.allow[lk]; ok {
			out[k] = r.Scrub(strings.Join(vv, ", "))
		}
	}
	return out
}
