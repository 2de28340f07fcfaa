package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

// ValidationError represents a specific type of API key validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	ErrTypeInvalidKey ValidationErrorType = iota
	ErrTypeNetworkError
	ErrTypeQuotaExceeded
	ErrTypeUnknown
)

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateGeminiKey makes a minimal text call to confirm the key works
// before a run spends time on the queue.
func ValidateGeminiKey(ctx context.Context, client *genai.Client, model string) error {
	log.Debug().Str("model", model).Msg("Validating Gemini API key")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text("hi"), nil)
	elapsed := time.Since(start)
	if err != nil {
		return classifyError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		log.Warn().Msg("API key validation returned empty response")
		return &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	log.Info().Dur("duration", elapsed).Msg("Gemini API key validated")
	return nil
}

// keyFailureHints maps lower-cased error text to a failure type when the
// error carries no HTTP status.
var keyFailureHints = []struct {
	substr string
	kind   ValidationErrorType
}{
	{"api key not valid", ErrTypeInvalidKey},
	{"invalid api key", ErrTypeInvalidKey},
	{"permission denied", ErrTypeInvalidKey},
	{"quota", ErrTypeQuotaExceeded},
	{"resource exhausted", ErrTypeQuotaExceeded},
	{"rate limit", ErrTypeQuotaExceeded},
	{"connection", ErrTypeNetworkError},
	{"dial", ErrTypeNetworkError},
	{"no such host", ErrTypeNetworkError},
}

var validationMessages = map[ValidationErrorType]string{
	ErrTypeInvalidKey:    "API key is invalid, expired, or lacks permissions",
	ErrTypeQuotaExceeded: "API quota exceeded or rate limited",
	ErrTypeNetworkError:  "Network or server error - try again later",
	ErrTypeUnknown:       "Failed to validate API key",
}

// classifyError reuses the provider error taxonomy, then narrows it to the
// failure types a key check can report.
func classifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	kind := ErrTypeUnknown

	var perr *provider.Error
	if errors.As(provider.Wrap("", err), &perr) {
		switch {
		case perr.Kind == provider.KindTimeout:
			kind = ErrTypeNetworkError
		case perr.StatusCode == 400 || perr.StatusCode == 401 || perr.StatusCode == 403:
			kind = ErrTypeInvalidKey
		case perr.StatusCode == 429:
			kind = ErrTypeQuotaExceeded
		case perr.StatusCode >= 500:
			kind = ErrTypeNetworkError
		}
	}

	if kind == ErrTypeUnknown {
		text := strings.ToLower(err.Error())
		for _, h := range keyFailureHints {
			if strings.Contains(text, h.substr) {
				kind = h.kind
				break
			}
		}
	}

	return &ValidationError{Type: kind, Message: validationMessages[kind], Err: err}
}
