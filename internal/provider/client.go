// Package provider talks to the remote generation services.
//
// A Client submits one payload to a named model and returns the decoded JSON
// response. Extract then finds the artifact in that response by trying the
// known response shapes in order, and Fetch resolves it to bytes.
package provider

import (
	"context"
	"strings"
)

// DefaultBaseURL is the queue-free synchronous endpoint of the default provider.
const DefaultBaseURL = "https://fal.run"

// Client submits a generation request to a remote model.
type Client interface {
	Submit(ctx context.Context, model string, payload map[string]any) (map[string]any, error)
}

// Router sends gemini-* models to the Gemini client and everything else to
// the HTTP provider. Either side may be nil when not configured.
type Router struct {
	HTTP   Client
	Gemini Client
}

// Submit implements Client.
func (r *Router) Submit(ctx context.Context, model string, payload map[string]any) (map[string]any, error) {
	target := r.HTTP
	if IsGeminiModel(model) {
		target = r.Gemini
	}
	if target == nil {
		return nil, &Error{Kind: KindRequestFailed, Model: model, Message: "no provider configured for model"}
	}
	return target.Submit(ctx, model, payload)
}

// IsGeminiModel reports whether model is served through the Gemini API.
func IsGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gemini-")
}
