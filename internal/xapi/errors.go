package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotFound is returned when a lookup succeeds but carries no data.
	ErrNotFound = errors.New("not found")
	// ErrUserContextRequired is returned by write operations when the client
	// only holds an app-only bearer token.
	ErrUserContextRequired = errors.New("operation requires OAuth 1.0a user context")
	// ErrReadOnly is returned by write operations on a read-only client.
	ErrReadOnly = errors.New("operation not allowed in read-only mode (unset X_READ_ONLY to post)")
)

// ValidationError reports a missing or out-of-range argument. It is returned
// before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments: %s %s", e.Field, e.Reason)
}

// TransportError covers network failures, timeouts, undecodable bodies and
// non-2xx responses without a structured error body.
type TransportError struct {
	StatusCode int
	Body       string
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("transport error: request timed out: %v", e.Err)
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("transport error: status %d: %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("transport error: %v", e.Err)
	default:
		return fmt.Sprintf("transport error: unexpected status %d: %s", e.StatusCode, truncate(e.Body, 512))
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a structured error returned by the X API.
type APIError struct {
	StatusCode int
	Code       int
	Title      string
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("x api error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("x api error (status %d): %s", e.StatusCode, e.Message)
}

// apiErrorObject is one entry of the upstream "errors" array. v2 endpoints
// send title/detail/type, v1.1 style bodies send code/message.
type apiErrorObject struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (o apiErrorObject) text() string {
	switch {
	case o.Message != "":
		return o.Message
	case o.Detail != "":
		return o.Detail
	case o.Title != "":
		return o.Title
	case o.Code != 0:
		return fmt.Sprintf("error code %d", o.Code)
	default:
		return "unknown error"
	}
}

func (o apiErrorObject) toAPIError(status int) *APIError {
	return &APIError{
		StatusCode: status,
		Code:       o.Code,
		Title:      o.Title,
		Type:       o.Type,
		Message:    o.text(),
	}
}

type errorEnvelope struct {
	Errors []apiErrorObject `json:"errors"`
	Title  string           `json:"title"`
	Detail string           `json:"detail"`
	Type   string           `json:"type"`
}

// errorFromResponse maps a non-2xx response to an APIError when the body is a
// recognizable error envelope, and to a TransportError otherwise.
func errorFromResponse(status int, body []byte) error {
	var env errorEnvelope
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &env) == nil {
		if len(env.Errors) > 0 {
			return env.Errors[0].toAPIError(status)
		}
		if env.Title != "" || env.Detail != "" {
			return apiErrorObject{Title: env.Title, Detail: env.Detail, Type: env.Type}.toAPIError(status)
		}
	}
	return &TransportError{StatusCode: status, Body: string(body)}
}

// partialError turns the "errors" array of a 2xx response without data into an
// APIError, or returns fallback.
func partialError(status int, errs []apiErrorObject, fallback error) error {
	if len(errs) > 0 {
		return errs[0].toAPIError(status)
	}
	return fallback
}

func transportError(err error) *TransportError {
	te := &TransportError{Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		te.Timeout = true
	}
	return te
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
