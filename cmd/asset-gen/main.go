package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fpang/weekly-asset-pipeline/internal/config"
	"github.com/fpang/weekly-asset-pipeline/internal/logging"
)

// buildVersion is set at link time with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

// rootCmd is the main Cobra command for the asset-gen CLI.
var rootCmd = &cobra.Command{
	Use:   "asset-gen",
	Short: "Generate a week's video assets from a queue file",
	Long: `asset-gen turns a queue of asset requests into finished files for the editor.

Each request is priced against the cost threshold, sent to the generation
provider (or rendered locally for diagrams), normalized to the format its
asset type needs, and written with a deterministic name such as
001_image_hero_v1.jpeg. A manifest and a run summary are written next to
the assets.

Examples:
  asset-gen run -q week-42.yaml
  asset-gen run -q week-42.yaml -o ./out --version 2 --threshold 0.35
  asset-gen run -q week-42.json --limit 3 --no-manifest
  asset-gen run -q week-42.yaml --mirror
  asset-gen bundle -o ./out
  asset-gen check`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
		config.LoadDotEnv()
	},
}

func init() {
	rootCmd.AddCommand(runCmd, bundleCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
