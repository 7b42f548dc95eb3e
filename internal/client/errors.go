package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ConnectivityMessage is shown when no response was received at all.
const ConnectivityMessage = "Unable to reach the server. Check your connection and try again."

// InvalidLinkMessage is shown when an invitation or join token lookup 404s.
const InvalidLinkMessage = "This link is invalid or has expired."

// ErrInvalidOrExpired marks a 404 on a token-addressed resource.
var ErrInvalidOrExpired = errors.New("invalid or expired link")

// UnauthorizedError is returned for every 401. The caller must send the user
// to LoginURL instead of rendering a result.
type UnauthorizedError struct {
	LoginURL string
}

func (e *UnauthorizedError) Error() string {
	return "authentication required"
}

// APIError is any non-2xx response other than 401, or a transport failure
// (StatusCode 0). Message is already fit to show to a user.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsUnauthorized extracts an UnauthorizedError from err.
func AsUnauthorized(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 redirect signal.
func IsUnauthorized(err error) bool {
	_, ok := AsUnauthorized(err)
	return ok
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if IsUnauthorized(err) {
		return http.StatusUnauthorized
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Message returns the single human-readable message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if IsUnauthorized(err) {
		return "Please sign in to continue."
	}
	return "Something went wrong. Please try again."
}

// serverErrorMessage is the fallback when the body carries no message.
func serverErrorMessage(status int) string {
	return fmt.Sprintf("Server error (%d)", status)
}

// extractMessage looks for a structured message in an error body,
// preferring message, then error, then detail.
func extractMessage(body []byte) (code, message string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", ""
	}

	if raw, ok := obj["code"]; ok {
		_ = json.Unmarshal(raw, &code)
	}
	if raw, ok := obj["message"]; ok {
		if s := rawString(raw); s != "" {
			return code, s
		}
	}
	if raw, ok := obj["error"]; ok {
		if s := rawString(raw); s != "" {
			return code, s
		}
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			if nested.Code != "" {
				code = nested.Code
			}
			return code, nested.Message
		}
	}
	if raw, ok := obj["detail"]; ok {
		if s := rawString(raw); s != "" {
			return code, s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return code, strings.Join(msgs, "; ")
			}
		}
	}
	return code, ""
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// classifyTransportError categorizes a failed round trip for metrics.
func classifyTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		if netErr.Op == "dial" {
			return "connection_refused"
		}
		return "network"
	}
	return "other"
}
