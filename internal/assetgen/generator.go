package assetgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/weekly-asset-pipeline/internal/cost"
	"github.com/fpang/weekly-asset-pipeline/internal/diagram"
	"github.com/fpang/weekly-asset-pipeline/internal/filehandler"
	"github.com/fpang/weekly-asset-pipeline/internal/fsutil"
	"github.com/fpang/weekly-asset-pipeline/internal/manifest"
	"github.com/fpang/weekly-asset-pipeline/internal/metrics"
	"github.com/fpang/weekly-asset-pipeline/internal/naming"
	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

// Fetcher resolves an extracted provider result to bytes.
type Fetcher interface {
	Fetch(ctx context.Context, res provider.Result) ([]byte, string, error)
}

// Options configures a Generator.
type Options struct {
	Provider  provider.Client
	Fetcher   Fetcher
	Policy    cost.Policy
	Types     TypeTable
	Payload   PayloadBuilder
	OutputDir string
	Version   int
	Timeout   time.Duration
	// Manifest is optional; nil skips manifest bookkeeping.
	Manifest *manifest.Store
	// Metrics is optional; nil discards.
	Metrics *metrics.Sink
}

// Generator produces assets one request at a time.
type Generator struct {
	opts Options
}

// NewGenerator fills defaults for zero-valued options.
func NewGenerator(opts Options) *Generator {
	if opts.Fetcher == nil {
		opts.Fetcher = provider.NewDownloader(opts.Timeout)
	}
	if opts.Types == nil {
		opts.Types = DefaultTypeTable
	}
	if opts.Payload == nil {
		opts.Payload = DefaultPayload
	}
	if opts.Version < 1 {
		opts.Version = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = provider.DefaultTimeout
	}
	if opts.Policy.Threshold <= 0 {
		opts.Policy = cost.NewPolicy(opts.Policy.Pricing, opts.Policy.Threshold)
	}
	return &Generator{opts: opts}
}

// OutputDir is where assets and sidecars are written.
func (g *Generator) OutputDir() string {
	return g.opts.OutputDir
}

// sidecar is written next to every asset as <stem>.json.
type sidecar struct {
	Request
	SceneNumber   int     `json:"scene_number"`
	Filename      string  `json:"filename"`
	ResultURL     string  `json:"result_url,omitempty"`
	ContentType   string  `json:"content_type,omitempty"`
	EstimatedCost float64 `json:"estimated_cost"`
	Version       int     `json:"version"`
	GeneratedAt   string  `json:"generated_at"`
	// StrippedMetadata names the EXIF groups the provider's file carried
	// that normalization removed.
	StrippedMetadata []string `json:"stripped_metadata,omitempty"`
}

// Generate produces one asset. It never returns an error; failures are
// reported in the Result and the caller moves on to the next request.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	start := time.Now()
	scene := g.sceneNumber(req)
	priority := ParsePriority(string(req.Priority))

	log.Info().
		Str("asset_id", req.ID).
		Str("name", req.Name).
		Str("asset_type", req.AssetType).
		Int("scene", scene).
		Str("priority", string(priority)).
		Msg("Generating asset")

	spec := g.opts.Types.ForRequest(req)

	var decision cost.Decision
	if spec.Local {
		decision = cost.Decision{Proceed: true}
	} else {
		decision = g.opts.Policy.Evaluate(req.ProviderModel)
	}
	if !decision.Proceed {
		res := Result{
			SkippedForCost: true,
			EstimatedCost:  decision.EstimatedCost,
			ErrorMessage:   "cost threshold exceeded",
			ErrorKind:      KindCostThresholdExceeded,
			DurationMs:     time.Since(start).Milliseconds(),
		}
		g.record(req, res)
		return res
	}

	res, err := g.produce(ctx, req, spec, scene, decision.EstimatedCost)
	res.EstimatedCost = decision.EstimatedCost
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Success = false
		res.ErrorMessage = err.Error()
		res.ErrorKind = classify(err)
		log.Error().
			Err(err).
			Str("asset_id", req.ID).
			Str("kind", res.ErrorKind).
			Int64("duration_ms", res.DurationMs).
			Msg("Asset generation failed")
	} else {
		log.Info().
			Str("asset_id", req.ID).
			Str("file", res.Filename).
			Int64("duration_ms", res.DurationMs).
			Msg("Asset generated")
	}
	g.record(req, res)
	return res
}

func (g *Generator) produce(ctx context.Context, req Request, spec TypeSpec, scene int, estimated float64) (Result, error) {
	stem, err := naming.GenerateFilename(scene, req.AssetType, req.Name, g.opts.Version)
	if err != nil {
		return Result{}, err
	}
	filename := stem + "." + spec.Extension

	var (
		data        []byte
		contentType string
		resultURL   string
	)
	if spec.Local {
		data, err = g.renderLocal(req)
		if err != nil {
			return Result{}, err
		}
		contentType = "image/png"
	} else {
		data, contentType, resultURL, err = g.callProvider(ctx, req, spec)
		if err != nil {
			return Result{}, err
		}
	}

	var stripped []string
	if spec.Encoding != filehandler.EncodingPassthrough {
		stripped = filehandler.StrippedMetadata(data)
	}
	data, err = filehandler.Normalize(data, spec.Encoding)
	if err != nil {
		return Result{}, err
	}
	switch spec.Encoding {
	case filehandler.EncodingFixedRaster:
		contentType = "image/png"
	case filehandler.EncodingCompressed:
		contentType = "image/jpeg"
	default:
		if contentType == "" {
			contentType = filehandler.ContentTypeFor("." + spec.Extension)
		}
		if contentType == "application/octet-stream" {
			contentType = filehandler.DetectMIME(data)
		}
	}

	if err := fsutil.Mkdir(g.opts.OutputDir); err != nil {
		return Result{}, err
	}
	localPath := filepath.Join(g.opts.OutputDir, filename)
	if err := fsutil.WriteBytes(localPath, data); err != nil {
		return Result{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	meta := sidecar{
		Request:       req,
		SceneNumber:   scene,
		Filename:      filename,
		ResultURL:     resultURL,
		ContentType:   contentType,
		EstimatedCost: estimated,
		Version:       g.opts.Version,
		GeneratedAt:   now,

		StrippedMetadata: stripped,
	}
	if err := fsutil.WriteJSON(filepath.Join(g.opts.OutputDir, stem+".json"), meta); err != nil {
		if rmErr := os.Remove(localPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", localPath).Msg("Failed to remove asset after sidecar error")
		}
		return Result{}, err
	}

	if g.opts.Manifest != nil {
		g.opts.Manifest.Append(manifest.Entry{
			Filename:  filename,
			Prompt:    req.Prompt,
			Timestamp: now,
			AssetType: req.AssetType,
			AssetID:   req.ID,
			ResultURL: resultURL,
			LocalPath: localPath,
			Metadata:  entryMetadata(req, scene, stripped),
		})
	}

	return Result{
		Success:   true,
		OutputURL: resultURL,
		LocalPath: localPath,
		Filename:  filename,
	}, nil
}

func (g *Generator) callProvider(ctx context.Context, req Request, spec TypeSpec) ([]byte, string, string, error) {
	if g.opts.Provider == nil {
		return nil, "", "", &provider.Error{Kind: provider.KindRequestFailed, Model: req.ProviderModel, Message: "no provider configured"}
	}
	if req.ProviderModel == "" {
		return nil, "", "", fmt.Errorf("%w: provider model is required", errInvalidRequest)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	resp, err := g.opts.Provider.Submit(callCtx, req.ProviderModel, g.opts.Payload(req))
	if err != nil {
		return nil, "", "", provider.Wrap(req.ProviderModel, err)
	}
	found, err := provider.Extract(resp, spec.Extraction)
	if err != nil {
		return nil, "", "", err
	}
	log.Debug().Str("asset_id", req.ID).Str("shape", found.Shape).Msg("Provider result located")

	data, contentType, err := g.opts.Fetcher.Fetch(callCtx, found)
	if err != nil {
		return nil, "", "", provider.Wrap(req.ProviderModel, err)
	}
	resultURL := found.URL
	if strings.HasPrefix(resultURL, "data:") {
		resultURL = ""
	}
	return data, contentType, resultURL, nil
}

func (g *Generator) renderLocal(req Request) ([]byte, error) {
	d, err := diagram.FromParameters(req.ProviderParameters, req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	img, err := diagram.Render(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	var buf bytes.Buffer
	if err := filehandler.EncodeRGBAPNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sceneNumber prefers an explicit scene number over the id prefix.
func (g *Generator) sceneNumber(req Request) int {
	if req.SceneNumber != nil {
		return *req.SceneNumber
	}
	return naming.ExtractSceneNumber(req.ID)
}

func (g *Generator) record(req Request, res Result) {
	outcome := "success"
	switch {
	case res.SkippedForCost:
		outcome = "skipped_for_cost"
	case !res.Success:
		outcome = "failed"
	}
	g.opts.Metrics.New(metrics.Namespace).
		Dimension("AssetType", req.AssetType).
		Dimension("Result", outcome).
		Metric("GenerationMs", float64(res.DurationMs), metrics.UnitMilliseconds).
		Metric("EstimatedCost", res.EstimatedCost, metrics.UnitNone).
		Count("Assets").
		Property("assetId", req.ID).
		Property("providerModel", req.ProviderModel).
		Flush()
}

func entryMetadata(req Request, scene int, stripped []string) map[string]any {
	meta := map[string]any{
		"scene":          scene,
		"priority":       string(ParsePriority(string(req.Priority))),
		"provider_model": req.ProviderModel,
	}
	if seed, ok := req.ProviderParameters["seed"]; ok {
		meta["seed"] = seed
	}
	if len(stripped) > 0 {
		meta["stripped_metadata"] = stripped
	}
	return meta
}

var errInvalidRequest = errors.New("invalid request")

func classify(err error) string {
	if kind, ok := provider.KindOf(err); ok {
		return kind.String()
	}
	switch {
	case errors.Is(err, filehandler.ErrUnsupportedImageFormat):
		return KindUnsupportedImageFormat
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, naming.ErrInvalidDescription),
		errors.Is(err, naming.ErrInvalidSceneNumber),
		errors.Is(err, naming.ErrInvalidVersion):
		return KindInvalidRequest
	default:
		return KindIO
	}
}
