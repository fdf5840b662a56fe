// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yimsun97/zotero-kbase/internal/container"
	"github.com/Yimsun97/zotero-kbase/internal/convert"
	"github.com/Yimsun97/zotero-kbase/internal/tabular"
	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	defaultOutputDir  = "fulltexts"
	defaultMaxPages   = 100
	defaultImage      = "opendatalab/mineru:latest"
	defaultMinerUDir  = "mineru"
	defaultConfigName = "magic-pdf.json"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF attachments to Markdown via the MinerU engine",
	Long: `Convert runs the MinerU document-analysis container over PDF files and
writes Markdown plus extracted image assets. Without arguments it reads the
metadata CSV and converts every PDF attachment; pass PDF paths to convert
specific files instead.

Outputs land in the output directory as ID_NAME.md with images under a
shared images/ subdirectory, prefixed by attachment ID. Existing outputs
are skipped, so an interrupted batch resumes where it stopped.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("metadata", defaultMetadataCSV, "metadata CSV file (ignored when PDF paths are given)")
	convertCmd.Flags().String("output-dir", defaultOutputDir, "directory for Markdown output and images/")
	convertCmd.Flags().Int("max-pages", defaultMaxPages, "skip documents longer than this many pages (0 = no limit)")
	convertCmd.Flags().Bool("force", false, "delete the output directory and reconvert everything")
	convertCmd.Flags().String("image", defaultImage, "MinerU container image")
	convertCmd.Flags().String("mineru-dir", defaultMinerUDir, "directory holding magic-pdf.json and model weights")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	cfg := types.ConversionConfig{
		OutputDir:      stringSetting(cmd, "output-dir", "convert.output_dir"),
		MaxPages:       intSetting(cmd, "max-pages", "convert.max_pages"),
		ForceRebuild:   force,
		Image:          stringSetting(cmd, "image", "convert.image"),
		MinerUDir:      stringSetting(cmd, "mineru-dir", "convert.mineru_dir"),
		ConfigFilename: defaultConfigName,
	}

	requests, err := conversionRequests(cmd, args)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Println("Nothing to convert.")
		return nil
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	engine, err := convert.NewMinerUEngine(rt, cfg, os.Stderr)
	if err != nil {
		return err
	}

	summary, err := convert.ConvertBatch(engine, requests, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d attachment(s) failed conversion", summary.Failed)
	}
	return nil
}

// conversionRequests builds the batch: explicit PDF paths get ordinal IDs,
// otherwise the metadata CSV supplies the PDF attachments and their IDs.
func conversionRequests(cmd *cobra.Command, args []string) ([]types.ConversionRequest, error) {
	if len(args) > 0 {
		requests := make([]types.ConversionRequest, 0, len(args))
		for i, path := range args {
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return nil, fmt.Errorf("not a PDF file: %s", path)
			}
			if _, err := os.Stat(path); err != nil {
				return nil, fmt.Errorf("source file not found: %s", path)
			}
			requests = append(requests, types.ConversionRequest{SourcePath: path, ID: int64(i + 1)})
		}
		return requests, nil
	}

	metadataCSV := stringSetting(cmd, "metadata", "convert.metadata")
	records, err := tabular.ReadMetadata(metadataCSV)
	if err != nil {
		return nil, fmt.Errorf("reading metadata (run the metadata command first): %w", err)
	}

	var requests []types.ConversionRequest
	for _, r := range tabular.PDFAttachments(records) {
		if r.FullPath == "" {
			continue
		}
		requests = append(requests, types.ConversionRequest{
			SourcePath: r.FullPath,
			ID:         r.AttachmentID,
		})
	}
	return requests, nil
}
