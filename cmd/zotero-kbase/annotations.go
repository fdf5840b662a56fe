// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Yimsun97/zotero-kbase/internal/annotations"
	"github.com/Yimsun97/zotero-kbase/internal/tabular"
	"github.com/Yimsun97/zotero-kbase/internal/zotero"
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Extract and render Zotero annotations (highlights, notes)",
	Long: `Annotations works with the highlights, notes, and drawings stored in
the Zotero database. Use the extract subcommand to pull them into a CSV
file, and render to turn that CSV into per-attachment Markdown files.`,
}

// --- extract subcommand ---

var annotationsExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract annotations from the Zotero library to CSV",
	Long: `Extract queries the Zotero SQLite database (read-only) for every
annotation joined to its attachment and parent paper, normalizes the
highlighted text, and writes the result to a CSV file.`,
	RunE: runAnnotationsExtract,
}

func runAnnotationsExtract(cmd *cobra.Command, args []string) error {
	cfg, err := libraryConfig(cmd)
	if err != nil {
		return err
	}
	output := stringSetting(cmd, "output", "annotations.output")

	store, err := zotero.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Annotations(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No annotations found in the library.")
		return nil
	}

	if err := tabular.WriteAnnotations(output, records); err != nil {
		return err
	}

	attachments := make(map[int64]bool)
	typeCounts := make(map[string]int)
	for _, r := range records {
		attachments[r.AttachmentID] = true
		typeCounts[string(r.Type)]++
	}
	fmt.Printf("Wrote %d annotations (%d attachments) to %s\n",
		len(records), len(attachments), output)
	fmt.Println("\nAnnotation types:")
	printCounts(typeCounts)
	return nil
}

// --- render subcommand ---

var annotationsRenderCmd = &cobra.Command{
	Use:   "render [attachment-ids...]",
	Short: "Render extracted annotations to per-attachment Markdown",
	Long: `Render reads the annotations CSV and writes one Markdown file per
attachment, grouped by page. Without arguments every attachment in the
CSV is rendered; pass attachment IDs to render a subset.`,
	RunE: runAnnotationsRender,
}

func runAnnotationsRender(cmd *cobra.Command, args []string) error {
	input := stringSetting(cmd, "input", "annotations.input")
	outputDir := stringSetting(cmd, "output-dir", "annotations.output_dir")

	records, err := tabular.ReadAnnotations(input)
	if err != nil {
		return err
	}

	// Explicit IDs: render just those attachments.
	if len(args) > 0 {
		failed := 0
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attachment ID %q: %w", arg, err)
			}
			path, n, err := annotations.Render(id, records, outputDir)
			switch {
			case err != nil:
				fmt.Fprintf(os.Stdout, "failed: attachment %d (%v)\n", id, err)
				failed++
			case n == 0:
				fmt.Fprintf(os.Stdout, "no annotations for attachment %d\n", id)
			default:
				fmt.Fprintf(os.Stdout, "wrote %s (%d annotations)\n", path, n)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d attachment(s) failed rendering", failed)
		}
		return nil
	}

	summary := annotations.RenderAll(records, outputDir, os.Stdout)
	if summary.HasFailures() {
		return fmt.Errorf("%d attachment(s) failed rendering", summary.Failed)
	}
	return nil
}

func init() {
	annotationsExtractCmd.Flags().String("data-dir", "", "Zotero data directory (contains zotero.sqlite and storage/)")
	annotationsExtractCmd.Flags().String("database", "", "path to zotero.sqlite (default: DATA_DIR/zotero.sqlite)")
	annotationsExtractCmd.Flags().String("output", defaultAnnotationsCSV, "output CSV file")

	annotationsRenderCmd.Flags().String("input", defaultAnnotationsCSV, "annotations CSV file")
	annotationsRenderCmd.Flags().String("output-dir", "annotations", "directory for per-attachment Markdown files")

	annotationsCmd.AddCommand(annotationsExtractCmd)
	annotationsCmd.AddCommand(annotationsRenderCmd)

	rootCmd.AddCommand(annotationsCmd)
}
