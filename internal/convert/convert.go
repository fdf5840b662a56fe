// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns PDF attachments into Markdown documents with
// relocated image assets. The heavy lifting is delegated to an external
// document-analysis Engine; this package owns output naming, batch
// resumability, the page-limit policy, and image-reference bookkeeping.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imagesDirName is the subdirectory holding extracted image assets, both
// inside per-request working directories and under the batch output root.
const imagesDirName = "images"

// ConvertFile converts a single PDF into outputDir/outputName.md. An empty
// outputName defaults to the PDF's basename without extension. The
// directory and its images/ subdirectory are created if absent. Engine
// failures propagate to the caller; no markdown file is written in that
// case, and retry/skip decisions are the caller's concern.
func ConvertFile(e Engine, pdfPath, outputDir, outputName string) (string, error) {
	if outputName == "" {
		base := filepath.Base(pdfPath)
		outputName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	imagesDir := filepath.Join(outputDir, imagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	md, err := e.Analyze(pdfPath, outputDir, imagesDir)
	if err != nil {
		return "", err
	}

	mdPath := filepath.Join(outputDir, outputName+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", mdPath, err)
	}
	return mdPath, nil
}
