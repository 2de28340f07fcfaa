package queue

import (
	"path/filepath"
	"strings"

	"github.com/fpang/weekly-asset-pipeline/internal/assetgen"
)

// ItemResult is one generation result tagged with its request.
type ItemResult struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	AssetType     string            `json:"asset_type"`
	Priority      assetgen.Priority `json:"priority"`
	ProviderModel string            `json:"provider_model,omitempty"`
	assetgen.Result
}

// Label names the item the way its request does.
func (r ItemResult) Label() string {
	return assetgen.Request{ID: r.ID, Name: r.Name}.Label()
}

// PendingApproval keeps everything needed to rerun a cost-skipped request
// after someone approves the spend.
type PendingApproval struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Prompt        string  `json:"prompt"`
	ProviderModel string  `json:"provider_model"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID          string `json:"run_id"`
	AssetType      string `json:"asset_type,omitempty"`
	StartedAt      string `json:"started_at"`
	CompletedAt    string `json:"completed_at,omitempty"`
	Total          int    `json:"total"`
	Successful     int    `json:"successful"`
	Failed         int    `json:"failed"`
	SkippedForCost int    `json:"skipped_for_cost"`
	NotStarted     int    `json:"not_started,omitempty"`
	Cancelled      bool   `json:"cancelled,omitempty"`
	// Diagnostic explains an empty run, e.g. a missing credential.
	Diagnostic          string            `json:"diagnostic,omitempty"`
	PendingCostApproval []PendingApproval `json:"pending_cost_approval"`
	Results             []ItemResult      `json:"results"`
}

func (s *Summary) add(req assetgen.Request, res assetgen.Result) {
	s.Total++
	s.Results = append(s.Results, ItemResult{
		ID:            req.ID,
		Name:          req.Name,
		AssetType:     req.AssetType,
		Priority:      assetgen.ParsePriority(string(req.Priority)),
		ProviderModel: req.ProviderModel,
		Result:        res,
	})

	switch {
	case res.Success:
		s.Successful++
	case res.SkippedForCost:
		s.SkippedForCost++
		s.PendingCostApproval = append(s.PendingCostApproval, PendingApproval{
			ID:            req.ID,
			Name:          req.Name,
			Prompt:        req.Prompt,
			ProviderModel: req.ProviderModel,
			EstimatedCost: res.EstimatedCost,
		})
	default:
		s.Failed++
	}
}

// Successes returns the successful results in run order.
func (s Summary) Successes() []ItemResult {
	return s.filter(func(r ItemResult) bool { return r.Success })
}

// Failures returns the failed results in run order, excluding cost skips.
func (s Summary) Failures() []ItemResult {
	return s.filter(func(r ItemResult) bool { return !r.Success && !r.SkippedForCost })
}

// ProducedFiles lists what this run wrote: each successful asset and its
// sidecar, the run summary, and manifestPath when non-empty. Files left in
// outputDir by earlier runs are not included.
func (s Summary) ProducedFiles(outputDir, manifestPath string) []string {
	var files []string
	for _, r := range s.Successes() {
		if r.LocalPath == "" {
			continue
		}
		files = append(files, r.LocalPath, strings.TrimSuffix(r.LocalPath, filepath.Ext(r.LocalPath))+".json")
	}
	files = append(files, filepath.Join(outputDir, SummaryFilename))
	if manifestPath != "" {
		files = append(files, manifestPath)
	}
	return files
}

func (s Summary) filter(keep func(ItemResult) bool) []ItemResult {
	var out []ItemResult
	for _, r := range s.Results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
