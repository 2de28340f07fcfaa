package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fpang/weekly-asset-pipeline/internal/bundle"
	"github.com/fpang/weekly-asset-pipeline/internal/config"
)

var (
	bundleDirFlag  string
	bundleDestFlag string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Zip a run directory for the editor",
	Args:  cobra.NoArgs,
	RunE:  runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleDirFlag, "output", "o", "", "Run output directory (default $ASSETGEN_OUTPUT_DIR or ./output)")
	bundleCmd.Flags().StringVar(&bundleDestFlag, "dest", "", "Archive path (default <output>.zip)")
}

func runBundle(cmd *cobra.Command, args []string) error {
	dir := bundleDirFlag
	if dir == "" {
		dir = config.Load().OutputDir
	}
	dest := bundleDestFlag
	if dest == "" {
		dest = filepath.Clean(dir) + ".zip"
	}

	stats, err := bundle.Write(dir, dest)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Bundle Written")
	fmt.Println("============================================")
	fmt.Printf("Archive: %s\n", stats.Path)
	fmt.Printf("Files: %d\n", stats.Files)
	fmt.Printf("Size: %d bytes (from %d)\n", stats.ZipBytes, stats.RawBytes)
	return nil
}
