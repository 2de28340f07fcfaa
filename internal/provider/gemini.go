package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiClient generates images through the Gemini API. Its responses are
// reshaped into the images[0].content form that Extract understands.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiClient creates a Gemini client. baseURL is only set in tests.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*GeminiClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, timeout: timeout}, nil
}

// GenAI exposes the underlying SDK client.
func (c *GeminiClient) GenAI() *genai.Client {
	return c.client
}

// Submit implements Client. Only "prompt" and an optional integer "seed"
// are read from the payload.
func (c *GeminiClient) Submit(ctx context.Context, model string, payload map[string]any) (map[string]any, error) {
	prompt, _ := payload["prompt"].(string)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	seed, err := seedParam(payload["seed"])
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Model: model, Message: err.Error()}
	}
	config.Seed = seed

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	log.Info().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Msg("Sending prompt to Gemini for image generation")

	resp, err := c.client.Models.GenerateContent(callCtx, model, genai.Text(prompt), config)
	duration := time.Since(startTime)
	if err != nil {
		perr := classifyError(model, err)
		log.Error().Err(err).Str("kind", perr.Kind.String()).Dur("duration", duration).Msg("Gemini image generation failed")
		return nil, perr
	}
	if resp == nil {
		return nil, &Error{Kind: KindNoResult, Model: model, Message: "received empty response from Gemini API"}
	}

	var images []any
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			images = append(images, map[string]any{
				"content":      base64.StdEncoding.EncodeToString(part.InlineData.Data),
				"content_type": part.InlineData.MIMEType,
			})
		}
	}

	log.Debug().
		Int("image_count", len(images)).
		Dur("duration", duration).
		Msg("Gemini response received")

	out := map[string]any{}
	if len(images) > 0 {
		out["images"] = images
	}
	if text.Len() > 0 {
		out["text"] = text.String()
	}
	return out, nil
}

// seedParam reads an integer seed. Gemini seeds are int32; anything wider
// is rejected rather than truncated.
func seedParam(v any) (*int32, error) {
	var n float64
	switch x := v.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case float64:
		n = x
	default:
		return nil, nil
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("seed %v is outside the int32 range", v)
	}
	s := int32(n)
	return &s, nil
}
