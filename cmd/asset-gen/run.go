package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/weekly-asset-pipeline/internal/assetgen"
	"github.com/fpang/weekly-asset-pipeline/internal/auth"
	"github.com/fpang/weekly-asset-pipeline/internal/config"
	"github.com/fpang/weekly-asset-pipeline/internal/fsutil"
	"github.com/fpang/weekly-asset-pipeline/internal/logging"
	"github.com/fpang/weekly-asset-pipeline/internal/manifest"
	"github.com/fpang/weekly-asset-pipeline/internal/metrics"
	"github.com/fpang/weekly-asset-pipeline/internal/provider"
	"github.com/fpang/weekly-asset-pipeline/internal/queue"
	"github.com/fpang/weekly-asset-pipeline/internal/s3util"
)

// metricsFilename receives one EMF line per generated asset.
const metricsFilename = "metrics.jsonl"

// run flags
var (
	queueFlag      string
	outputFlag     string
	versionFlag    int
	thresholdFlag  float64
	manifestFlag   string
	noManifestFlag bool
	mirrorFlag     bool
	limitFlag      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate every asset in a queue file",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

func init() {
	runCmd.Flags().StringVarP(&queueFlag, "queue", "q", "", "Queue file (YAML or JSON)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default $ASSETGEN_OUTPUT_DIR or ./output)")
	runCmd.Flags().IntVar(&versionFlag, "version", 0, "Asset version carried in filenames (default: the queue's version, else 1)")
	runCmd.Flags().Float64Var(&thresholdFlag, "threshold", 0, "Per-asset cost threshold in USD (default: the queue's, else $ASSETGEN_COST_THRESHOLD)")
	runCmd.Flags().StringVar(&manifestFlag, "manifest", "", "Manifest path (default <output>/manifest.json)")
	runCmd.Flags().BoolVar(&noManifestFlag, "no-manifest", false, "Do not write a manifest")
	runCmd.Flags().BoolVar(&mirrorFlag, "mirror", false, "Upload the finished run to $ASSETGEN_S3_BUCKET")
	runCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum queue items to process (0 = all)")
	_ = runCmd.MarkFlagRequired("queue")
}

func runQueue(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := config.LoadQueue(queueFlag)
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir
	if outputFlag != "" {
		outputDir = outputFlag
	}
	if err := fsutil.Mkdir(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	version := q.Version
	if versionFlag != 0 {
		version = versionFlag
	}
	if version < 1 {
		return fmt.Errorf("--version must be at least 1, got %d", version)
	}

	threshold := thresholdFlag
	if threshold <= 0 && q.Threshold <= 0 {
		threshold = cfg.CostThreshold
	}
	policy := q.Policy(threshold)

	creds := resolveCredentials(ctx, cfg)
	router := &provider.Router{}
	if creds.FAL != "" {
		router.HTTP = provider.NewHTTPClient(cfg.ProviderBaseURL, creds.FAL, cfg.Timeout)
	}
	if creds.Gemini != "" {
		gemini, err := provider.NewGeminiClient(ctx, creds.Gemini, "", cfg.Timeout)
		if err != nil {
			return err
		}
		router.Gemini = gemini
	}

	metricsFile := metrics.NewFile(filepath.Join(outputDir, metricsFilename))
	defer metricsFile.Close()

	var store *manifest.Store
	if !noManifestFlag {
		store = manifest.NewStore()
	}

	gen := assetgen.NewGenerator(assetgen.Options{
		Provider:  router,
		Policy:    policy,
		OutputDir: outputDir,
		Version:   version,
		Timeout:   cfg.Timeout,
		Manifest:  store,
		Metrics:   metrics.NewSink(metricsFile),
	})

	runner := queue.NewRunner(queue.Options{
		Generator:    gen,
		OutputDir:    outputDir,
		AssetType:    q.AssetType,
		Manifest:     store,
		ManifestPath: manifestFlag,
		Credentials:  creds.Check(providerModels(q.Assets)),
		Report:       os.Stdout,
		Limit:        limitFlag,
	})

	logging.NewStartupLogger("asset-gen run").
		Version(buildVersion).
		Path("queue", queueFlag).
		Path("output", outputDir).
		Feature("manifest", store != nil).
		Feature("mirror", mirrorFlag).
		Feature("gemini", router.Gemini != nil).
		Feature("fal", router.HTTP != nil).
		Config("providerBaseURL", cfg.ProviderBaseURL).
		Config("threshold", strconv.FormatFloat(policy.Threshold, 'f', 2, 64)).
		Config("version", strconv.Itoa(version)).
		Config("timeout", cfg.Timeout.String()).
		InitDuration(time.Since(initStart)).
		Log()

	summary := runner.Run(ctx, q.Assets)
	if summary.Diagnostic != "" {
		return fmt.Errorf("run did not start: %s", summary.Diagnostic)
	}

	if mirrorFlag {
		if err := metricsFile.Sync(); err != nil {
			log.Warn().Err(err).Msg("Failed to sync metrics file")
		}
		files := summary.ProducedFiles(outputDir, runner.ManifestPath())
		if err := mirrorRun(ctx, cfg.Mirror, summary.RunID, files); err != nil {
			return err
		}
	}

	if summary.Cancelled {
		return fmt.Errorf("run cancelled with %d items not started", summary.NotStarted)
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d assets failed", summary.Failed, summary.Total)
	}
	return nil
}

// resolveCredentials reads provider keys. The FAL key falls back to SSM when
// a parameter name is configured. A missing key is reported by the runner's
// credential check, not here.
func resolveCredentials(ctx context.Context, cfg config.Config) auth.Credentials {
	creds := auth.Credentials{FAL: cfg.FALKey, Gemini: cfg.GeminiAPIKey}
	if creds.FAL != "" || cfg.APIKeySSMParam == "" {
		return creds
	}

	client, err := auth.NewParameterStore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("SSM unavailable, using environment only")
		return creds
	}
	if key, err := auth.GetAPIKey(ctx, auth.FALKeyEnv, cfg.APIKeySSMParam, client); err == nil {
		creds.FAL = key
	} else {
		log.Debug().Err(err).Msg("FAL key not resolved")
	}
	return creds
}

// providerModels lists the model each request will call. Locally rendered
// types need no provider and contribute an empty name.
func providerModels(requests []assetgen.Request) []string {
	models := make([]string, 0, len(requests))
	for _, req := range requests {
		if assetgen.DefaultTypeTable.ForRequest(req).Local {
			models = append(models, "")
			continue
		}
		models = append(models, req.ProviderModel)
	}
	return models
}

func mirrorRun(ctx context.Context, cfg config.MirrorConfig, runID string, files []string) error {
	if !cfg.Enabled() {
		return fmt.Errorf("--mirror needs ASSETGEN_S3_BUCKET")
	}
	m, err := s3util.FromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to configure mirror: %w", err)
	}
	n, err := m.Upload(ctx, runID, files)
	if err != nil {
		return fmt.Errorf("mirror failed after %d files: %w", n, err)
	}
	fmt.Printf("Mirrored %d files to %s\n", n, m.Key(runID, ""))
	return nil
}
