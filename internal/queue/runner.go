// Package queue runs a list of asset requests through the generator, one at
// a time and in list order, and writes the run summary and manifest.
package queue

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/weekly-asset-pipeline/internal/assetgen"
	"github.com/fpang/weekly-asset-pipeline/internal/fsutil"
	"github.com/fpang/weekly-asset-pipeline/internal/manifest"
)

// SummaryFilename is written to the output directory after every run.
const SummaryFilename = "generation_summary.json"

// Generator produces one asset per request.
type Generator interface {
	Generate(ctx context.Context, req assetgen.Request) assetgen.Result
}

// CredentialCheck reports why the provider cannot be reached, or nil.
type CredentialCheck func() error

// Options configures a Runner.
type Options struct {
	Generator Generator
	OutputDir string
	// AssetType is the queue-level default, reported in the summary.
	AssetType string
	// Manifest is flushed to ManifestPath when set.
	Manifest *manifest.Store
	// ManifestPath defaults to OutputDir/manifest.json.
	ManifestPath string
	Credentials  CredentialCheck
	// Report receives the human-readable summary; nil disables it.
	Report io.Writer
	// Limit caps how many requests run; 0 means all.
	Limit int
}

// Runner executes queues sequentially.
type Runner struct {
	opts  Options
	newID func() string
	now   func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		opts:  opts,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Run generates every request in order and returns the summary. Priority
// never changes the order. A missing credential returns an empty summary
// with a diagnostic before anything runs. Cancelling ctx stops the run
// between items; what finished is still flushed.
func (r *Runner) Run(ctx context.Context, requests []assetgen.Request) Summary {
	summary := Summary{
		RunID:               r.newID(),
		AssetType:           r.opts.AssetType,
		StartedAt:           r.now().UTC().Format(time.RFC3339),
		PendingCostApproval: []PendingApproval{},
		Results:             []ItemResult{},
	}

	if r.opts.Credentials != nil {
		if err := r.opts.Credentials(); err != nil {
			summary.Diagnostic = err.Error()
			summary.CompletedAt = r.now().UTC().Format(time.RFC3339)
			log.Error().Err(err).Msg("Provider credential missing, nothing was generated")
			r.report(summary)
			return summary
		}
	}
	if r.opts.Generator == nil {
		summary.Diagnostic = "no generator configured"
		return summary
	}

	if r.opts.Limit > 0 && r.opts.Limit < len(requests) {
		log.Info().Int("limit", r.opts.Limit).Int("queued", len(requests)).Msg("Queue limited")
		summary.NotStarted = len(requests) - r.opts.Limit
		requests = requests[:r.opts.Limit]
	}

	log.Info().
		Str("run_id", summary.RunID).
		Int("queued", len(requests)).
		Str("output_dir", r.opts.OutputDir).
		Msg("Starting queue run")

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			summary.NotStarted += len(requests) - i
			log.Warn().Err(err).Int("completed", i).Int("remaining", len(requests)-i).Msg("Run cancelled")
			break
		}

		log.Debug().Int("index", i+1).Int("of", len(requests)).Str("asset", req.Label()).Msg("Processing queue item")
		res := r.opts.Generator.Generate(ctx, req)
		summary.add(req, res)
	}

	summary.CompletedAt = r.now().UTC().Format(time.RFC3339)
	r.persist(summary)
	r.report(summary)

	log.Info().
		Str("run_id", summary.RunID).
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("skipped_for_cost", summary.SkippedForCost).
		Msg("Queue run complete")

	return summary
}

// persist writes the summary and manifest. Failures are logged, not
// returned, so a summary always reaches the caller.
func (r *Runner) persist(summary Summary) {
	if r.opts.OutputDir == "" {
		return
	}
	if err := fsutil.Mkdir(r.opts.OutputDir); err != nil {
		log.Error().Err(err).Msg("Failed to create output directory")
		return
	}
	if err := fsutil.WriteJSON(filepath.Join(r.opts.OutputDir, SummaryFilename), summary); err != nil {
		log.Error().Err(err).Msg("Failed to write run summary")
	}
	if path := r.ManifestPath(); path != "" {
		if err := r.opts.Manifest.Flush(path); err != nil {
			log.Error().Err(err).Msg("Failed to write manifest")
		}
	}
}

// ManifestPath is where the manifest is flushed, or "" when none is kept.
func (r *Runner) ManifestPath() string {
	if r.opts.Manifest == nil {
		return ""
	}
	if r.opts.ManifestPath != "" {
		return r.opts.ManifestPath
	}
	return filepath.Join(r.opts.OutputDir, manifest.Filename)
}

func (r *Runner) report(summary Summary) {
	if r.opts.Report == nil {
		return
	}
	PrintReport(r.opts.Report, summary)
}
