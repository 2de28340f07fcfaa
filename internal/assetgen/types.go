// Package assetgen turns one queued request into one file on disk.
//
// Generate prices the request, calls the provider (or renders locally),
// normalizes the bytes for the asset type, names the file, writes it with a
// JSON sidecar and records a manifest entry. Every failure is returned inside
// the Result; Generate never aborts a run.
package assetgen

import (
	"fmt"
	"strings"
)

// Priority is reporting metadata only; it never changes execution order.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority accepts any casing and defaults to MEDIUM.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// UnmarshalText lets Priority decode from YAML and JSON leniently.
func (p *Priority) UnmarshalText(text []byte) error {
	*p = ParsePriority(string(text))
	return nil
}

// Request is one queued asset.
type Request struct {
	ID                 string         `json:"id" yaml:"id"`
	Name               string         `json:"name" yaml:"name"`
	AssetType          string         `json:"asset_type" yaml:"asset_type"`
	SceneNumber        *int           `json:"scene_number,omitempty" yaml:"scene_number,omitempty"`
	Priority           Priority       `json:"priority" yaml:"priority"`
	Prompt             string         `json:"prompt" yaml:"prompt"`
	ProviderModel      string         `json:"provider_model" yaml:"provider_model"`
	ProviderParameters map[string]any `json:"provider_parameters,omitempty" yaml:"provider_parameters,omitempty"`
}

// Label is a short identifier for log lines and summaries.
func (r Request) Label() string {
	if r.Name == "" {
		return r.ID
	}
	return fmt.Sprintf("%s (%s)", r.ID, r.Name)
}

// Error kinds recorded in Result.ErrorKind.
const (
	KindCostThresholdExceeded  = "cost_threshold_exceeded"
	KindInvalidRequest         = "invalid_request"
	KindUnsupportedImageFormat = "unsupported_image_format"
	KindIO                     = "io_error"
)

// Result is the outcome of one Generate call. It is not mutated after return.
type Result struct {
	Success        bool    `json:"success"`
	OutputURL      string  `json:"output_url,omitempty"`
	LocalPath      string  `json:"local_path,omitempty"`
	Filename       string  `json:"filename,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	ErrorKind      string  `json:"error_kind,omitempty"`
	SkippedForCost bool    `json:"skipped_for_cost"`
	EstimatedCost  float64 `json:"estimated_cost"`
	DurationMs     int64   `json:"duration_ms"`
}
