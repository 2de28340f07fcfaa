package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"
)

// ErrNoResultInResponse is returned when a provider answered successfully
// but none of the known response shapes held a result.
var ErrNoResultInResponse = errors.New("no result in response")

// ErrorKind categorizes provider failures.
type ErrorKind int

const (
	// KindRequestFailed covers network errors and non-2xx responses.
	KindRequestFailed ErrorKind = iota
	// KindTimeout means the provider did not answer within the configured timeout.
	KindTimeout
	// KindNoResult means the response shape was not recognized.
	KindNoResult
)

// String returns the name recorded in run summaries.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "provider_timeout"
	case KindNoResult:
		return "no_result_in_response"
	default:
		return "provider_request_failed"
	}
}

// Error is a provider failure with a kind the caller can branch on.
type Error struct {
	Kind       ErrorKind
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Model != "" {
		msg = fmt.Sprintf("%s (model %s)", msg, e.Model)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a provider error, and false for any other error.
func KindOf(err error) (ErrorKind, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	if errors.Is(err, ErrNoResultInResponse) {
		return KindNoResult, true
	}
	return 0, false
}

// classifyError wraps a transport-level failure as a provider Error.
func classifyError(model string, err error) *Error {
	if isTimeout(err) {
		return &Error{Kind: KindTimeout, Model: model, Message: "provider timed out", Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:       KindRequestFailed,
			Model:      model,
			StatusCode: apiErr.Code,
			Message:    fmt.Sprintf("provider returned status %d", apiErr.Code),
			Err:        err,
		}
	}

	return &Error{Kind: KindRequestFailed, Model: model, Message: "provider request failed", Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Wrap classifies err as a provider Error unless it already carries a kind.
func Wrap(model string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return err
	}
	return classifyError(model, err)
}
