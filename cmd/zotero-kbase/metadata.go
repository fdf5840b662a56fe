// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Yimsun97/zotero-kbase/internal/tabular"
	"github.com/Yimsun97/zotero-kbase/internal/zotero"
	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	defaultMetadataCSV    = "zotero_metadata.csv"
	defaultAnnotationsCSV = "zotero_annotations.csv"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Extract attachment metadata from the Zotero library to CSV",
	Long: `Metadata queries the Zotero SQLite database (read-only) for every
paper-attachment pair, resolves stored attachment paths against the Zotero
storage directory, and writes the result to a CSV file. The CSV feeds the
convert stage.`,
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().String("data-dir", "", "Zotero data directory (contains zotero.sqlite and storage/)")
	metadataCmd.Flags().String("database", "", "path to zotero.sqlite (default: DATA_DIR/zotero.sqlite)")
	metadataCmd.Flags().String("output", defaultMetadataCSV, "output CSV file")

	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	cfg, err := libraryConfig(cmd)
	if err != nil {
		return err
	}
	output := stringSetting(cmd, "output", "metadata.output")

	store, err := zotero.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Attachments(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No attachments found in the library.")
		return nil
	}

	if err := tabular.WriteMetadata(output, records); err != nil {
		return err
	}

	printMetadataStats(records, output)
	return nil
}

// printMetadataStats summarizes the extracted records: totals, then
// content types and link modes by frequency.
func printMetadataStats(records []types.AttachmentRecord, output string) {
	papers := make(map[int64]bool)
	contentTypes := make(map[string]int)
	linkModes := make(map[string]int)
	pdfs := 0
	for _, r := range records {
		papers[r.PaperID] = true
		contentTypes[r.ContentType]++
		linkModes[string(r.LinkMode)]++
		if r.ContentType == "application/pdf" {
			pdfs++
		}
	}

	fmt.Printf("Wrote %d attachment records (%d papers, %d PDFs) to %s\n",
		len(records), len(papers), pdfs, output)
	fmt.Println("\nContent types:")
	printCounts(contentTypes)
	fmt.Println("\nLink modes:")
	printCounts(linkModes)
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		fmt.Printf("  %6d  %s\n", counts[k], name)
	}
}

// libraryConfig builds the library settings shared by the extraction
// commands. The data directory is required; the database path defaults
// to DATA_DIR/zotero.sqlite.
func libraryConfig(cmd *cobra.Command) (types.LibraryConfig, error) {
	dataDir := stringSetting(cmd, "data-dir", "library.data_dir")
	database := stringSetting(cmd, "database", "library.database_path")

	if dataDir == "" && database == "" {
		return types.LibraryConfig{}, fmt.Errorf("Zotero data directory required: set --data-dir or library.data_dir in the config file")
	}
	if database == "" {
		database = filepath.Join(dataDir, "zotero.sqlite")
	}
	if dataDir == "" {
		dataDir = filepath.Dir(database)
	}
	if _, err := os.Stat(dataDir); err != nil {
		return types.LibraryConfig{}, fmt.Errorf("Zotero data directory not found at %s: %w", dataDir, err)
	}

	return types.LibraryConfig{
		DataDir:      dataDir,
		DatabasePath: database,
	}, nil
}
