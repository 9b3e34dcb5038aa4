package domain

import (
	"net/http"
	"net/url"
	"strings"
)

const MaxURLLen = 2048

// ConnectionParams is supplied by the caller at connect time.
type ConnectionParams struct {
	URL    string
	Header http.Header
}

// Validate fails fast on a missing or malformed channel endpoint.
func (p ConnectionParams) Validate() error {
	raw := strings.TrimSpace(p.URL)
	if raw == "" {
		return &ValidationError{Field: "url", Reason: "websocket URL is required"}
	}
	if len(raw) > MaxURLLen {
		return &ValidationError{Field: "url", Reason: "websocket URL too long"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "malformed websocket URL", Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &ValidationError{Field: "url", Reason: "scheme must be ws or wss"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Reason: "host is required"}
	}
	return nil
}
