// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yimsun97/zotero-kbase/internal/models"
	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	defaultModelsTimeout   = 10 * time.Minute
	defaultUserAgent       = "zotero-kbase/0.1"
	defaultModelsURL       = "https://huggingface.co/opendatalab/PDF-Extract-Kit-1.0/resolve/main/models"
	defaultLayoutReaderURL = "https://huggingface.co/hantian/layoutreader/resolve/main"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Download the MinerU model weights and write magic-pdf.json",
	Long: `Models provisions the document-analysis engine: it downloads the
PDF-Extract-Kit and layoutreader weights into the MinerU directory and
writes the magic-pdf.json configuration the convert stage mounts into the
container. Files that already exist are skipped, so an interrupted download
resumes where it stopped.

A Hugging Face access token is read from --token or .secrets/huggingface-token.`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().String("mineru-dir", defaultMinerUDir, "directory to install model weights and magic-pdf.json into")
	modelsCmd.Flags().String("models-url", defaultModelsURL, "base URL for the PDF-Extract-Kit weights")
	modelsCmd.Flags().String("layoutreader-url", defaultLayoutReaderURL, "base URL for the layoutreader weights")
	modelsCmd.Flags().String("token", "", "Hugging Face access token (default: .secrets/huggingface-token)")
	modelsCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 10m)")
	modelsCmd.Flags().Int("max-retries", 0, "retry attempts on rate-limited downloads (default 5)")

	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultModelsTimeout
	}
	token, _ := cmd.Flags().GetString("token")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	cfg := types.ModelsConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MinerUDir:           stringSetting(cmd, "mineru-dir", "models.mineru_dir"),
		ModelsBaseURL:       stringSetting(cmd, "models-url", "models.models_base_url"),
		LayoutReaderBaseURL: stringSetting(cmd, "layoutreader-url", "models.layoutreader_base_url"),
		Token:               secretDefault("huggingface-token", token),
		MaxRetries:          maxRetries,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	summary, err := models.Fetch(context.Background(), client, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d model asset(s) failed to download", summary.Failed)
	}
	return nil
}
