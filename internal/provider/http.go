package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds one provider round trip.
const DefaultTimeout = 120 * time.Second

// HTTPClient calls a fal-style REST provider: POST {baseURL}/{model} with the
// payload as JSON and an "Authorization: Key ..." header.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a provider client. A zero timeout means DefaultTimeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit implements Client.
func (c *HTTPClient) Submit(ctx context.Context, model string, payload map[string]any) (map[string]any, error) {
	log.Debug().
		Str("model", model).
		Int("payload_fields", len(payload)).
		Msg("Submitting request to provider")

	startTime := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(model, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	httpDuration := time.Since(startTime)
	if err != nil {
		perr := classifyError(model, err)
		log.Error().Err(err).Str("model", model).Str("kind", perr.Kind.String()).Dur("duration", httpDuration).Msg("Provider request failed")
		return nil, perr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(model, fmt.Errorf("failed to read response: %w", err))
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Dur("duration", httpDuration).
		Msg("Provider HTTP call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Provider returned error")
		return nil, &Error{
			Kind:       KindRequestFailed,
			Model:      model,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, truncateString(string(respBody), 200)),
		}
	}

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &Error{Kind: KindNoResult, Model: model, Message: "provider response is not a JSON object", Err: err}
	}

	log.Debug().
		Str("model", model).
		Int("response_bytes", len(respBody)).
		Dur("duration", time.Since(startTime)).
		Msg("Provider request completed successfully")

	return out, nil
}
