package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNetwork wraps transport failures (no response from the backend).
	ErrNetwork = errors.New("network error")
	// ErrAuthFailed is matched by 401 and 403 responses.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotFound is matched by 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrRejected is matched by the remaining 4xx responses.
	ErrRejected = errors.New("request rejected")
	// ErrServer is matched by 5xx responses.
	ErrServer = errors.New("server error")
	// ErrDecode signals a response body that could not be parsed.
	ErrDecode = errors.New("malformed response")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Unwrap maps the status code onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrAuthFailed
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrRejected
	}
}

// Message returns the detail, or the first field error in key order.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if msgs := e.Fields[key]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Field returns the first error reported for field.
func (e *APIError) Field(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Detail = strings.TrimSpace(string(body))
		if len(apiErr.Detail) > 200 {
			apiErr.Detail = ""
		}
		return apiErr
	}
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			if key == "detail" || key == "error" || key == "message" {
				if apiErr.Detail == "" || key == "detail" {
					apiErr.Detail = text
				}
				continue
			}
			apiErr.addField(key, text)
			continue
		}
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, item := range list {
				apiErr.addField(key, item)
			}
		}
	}
	return apiErr
}

func (e *APIError) addField(key, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[key] = append(e.Fields[key], msg)
}

// UserMessage picks the alert text for err.
// Transport failures read "Network error"; backend errors use their message or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNetwork) {
		return "Network error"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}
