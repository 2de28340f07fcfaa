package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fpang/weekly-asset-pipeline/internal/auth"
	"github.com/fpang/weekly-asset-pipeline/internal/config"
	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

var checkModelFlag string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify provider credentials before a run",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkModelFlag, "model", "m", "gemini-2.5-flash", "Gemini model used for the key check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	creds := resolveCredentials(ctx, cfg)

	fmt.Println("============================================")
	fmt.Println("Credential Check")
	fmt.Println("============================================")

	ok := creds.FAL != "" || creds.Gemini != ""
	if creds.FAL != "" {
		fmt.Printf("%s: present\n", auth.FALKeyEnv)
	} else {
		fmt.Printf("%s: missing\n", auth.FALKeyEnv)
	}

	if creds.Gemini == "" {
		fmt.Printf("%s: missing\n", auth.GeminiKeyEnv)
	} else {
		client, err := provider.NewGeminiClient(ctx, creds.Gemini, "", cfg.Timeout)
		if err != nil {
			return err
		}
		if err := auth.ValidateGeminiKey(ctx, client.GenAI(), checkModelFlag); err != nil {
			var verr *auth.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("%s: %s\n", auth.GeminiKeyEnv, verr.Message)
			} else {
				fmt.Printf("%s: %v\n", auth.GeminiKeyEnv, err)
			}
			ok = false
		} else {
			fmt.Printf("%s: valid\n", auth.GeminiKeyEnv)
		}
	}

	if !ok {
		return fmt.Errorf("credential check failed")
	}
	return nil
}
