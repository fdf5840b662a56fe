// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	// tempDirPrefix names per-request working directories under the
	// output root: temp_0, temp_1, ... by batch position.
	tempDirPrefix = "temp_"

	// summaryFile is the YAML run summary written under the output root.
	summaryFile = "conversion-summary.yaml"
)

// imageExtensions lists the asset types relocated from working directories
// into the shared images directory.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// PageCounter reports the number of pages in a PDF document.
type PageCounter func(path string) (int, error)

// BatchSummary aggregates the per-request outcomes of a conversion run.
// Results preserves input order.
type BatchSummary struct {
	Results []types.ConversionResult `yaml:"results"`

	Converted           int `yaml:"converted"`
	AlreadyDone         int `yaml:"already_done"`
	SkippedTooLarge     int `yaml:"skipped_too_large"`
	SkippedUnknownPages int `yaml:"skipped_unknown_pages"`
	Failed              int `yaml:"failed"`
}

// Total returns the number of requests processed.
func (s BatchSummary) Total() int {
	return s.Converted + s.AlreadyDone + s.SkippedTooLarge + s.SkippedUnknownPages + s.Failed
}

// Succeeded returns the number of requests with a usable output file;
// already-done requests count as successes.
func (s BatchSummary) Succeeded() int {
	return s.Converted + s.AlreadyDone
}

// HasFailures reports whether any request failed conversion.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *BatchSummary) record(r types.ConversionResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case types.StatusConverted:
		s.Converted++
	case types.StatusAlreadyDone:
		s.AlreadyDone++
	case types.StatusSkippedTooLarge:
		s.SkippedTooLarge++
	case types.StatusSkippedUnknownPages:
		s.SkippedUnknownPages++
	case types.StatusFailed:
		s.Failed++
	}
}

// ConvertBatch drives the Engine over requests in input order, writing
// per-request progress to w and returning the aggregated summary.
//
// Each request's output is {OutputDir}/{id}_{basename}.md with its image
// assets renamed to {id}_{original} under {OutputDir}/images/. A request
// whose output file already exists is skipped unless ForceRebuild is set;
// this existence check is the whole resumability contract. Failures are
// isolated per request and never abort the rest of the batch. The returned
// error covers stage-level preconditions only (output root setup).
func ConvertBatch(e Engine, requests []types.ConversionRequest, cfg types.ConversionConfig, w io.Writer) (BatchSummary, error) {
	return convertBatch(e, CountPages, requests, cfg, w)
}

func convertBatch(e Engine, pages PageCounter, requests []types.ConversionRequest, cfg types.ConversionConfig, w io.Writer) (BatchSummary, error) {
	if cfg.ForceRebuild {
		if _, err := os.Stat(cfg.OutputDir); err == nil {
			fmt.Fprintf(w, "force rebuild: removing %s\n", cfg.OutputDir)
			if err := os.RemoveAll(cfg.OutputDir); err != nil {
				return BatchSummary{}, fmt.Errorf("removing output directory: %w", err)
			}
		}
	}

	imagesDir := filepath.Join(cfg.OutputDir, imagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	var summary BatchSummary
	total := len(requests)

	for i, req := range requests {
		base := filepath.Base(req.SourcePath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		outputName := fmt.Sprintf("%d_%s", req.ID, stem)
		finalPath := filepath.Join(cfg.OutputDir, outputName+".md")

		if !cfg.ForceRebuild {
			if _, err := os.Stat(finalPath); err == nil {
				fmt.Fprintf(w, "[%d/%d] already converted: %s.md\n", i+1, total, outputName)
				summary.record(types.ConversionResult{
					ID:           req.ID,
					MarkdownPath: finalPath,
					Status:       types.StatusAlreadyDone,
				})
				continue
			}
		}

		if cfg.MaxPages > 0 {
			n, err := pages(req.SourcePath)
			if err != nil || n == 0 {
				reason := "could not determine page count"
				if err != nil {
					reason = fmt.Sprintf("could not determine page count: %v", err)
				}
				fmt.Fprintf(w, "[%d/%d] skipping %s (%s)\n", i+1, total, base, reason)
				summary.record(types.ConversionResult{
					ID:     req.ID,
					Status: types.StatusSkippedUnknownPages,
					Reason: reason,
				})
				continue
			}
			if n > cfg.MaxPages {
				reason := fmt.Sprintf("%d pages exceeds %d page limit", n, cfg.MaxPages)
				fmt.Fprintf(w, "[%d/%d] skipping %s (%s)\n", i+1, total, base, reason)
				summary.record(types.ConversionResult{
					ID:     req.ID,
					Status: types.StatusSkippedTooLarge,
					Reason: reason,
				})
				continue
			}
			fmt.Fprintf(w, "[%d/%d] converting %s (%d pages) to %s.md\n", i+1, total, base, n, outputName)
		} else {
			fmt.Fprintf(w, "[%d/%d] converting %s to %s.md\n", i+1, total, base, outputName)
		}

		tempDir := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s%d", tempDirPrefix, i))
		err := convertOne(e, req, tempDir, finalPath, outputName, imagesDir)
		if err != nil {
			fmt.Fprintf(w, "[%d/%d] failed: %s (%v)\n", i+1, total, base, err)
			summary.record(types.ConversionResult{
				ID:     req.ID,
				Status: types.StatusFailed,
				Reason: err.Error(),
			})
			continue
		}

		summary.record(types.ConversionResult{
			ID:           req.ID,
			MarkdownPath: finalPath,
			Status:       types.StatusConverted,
		})
	}

	fmt.Fprintf(w, "\nConversion summary: %d converted, %d already done, %d skipped (too large), %d skipped (unknown pages), %d failed (total: %d)\n",
		summary.Converted, summary.AlreadyDone, summary.SkippedTooLarge,
		summary.SkippedUnknownPages, summary.Failed, summary.Total())

	if err := writeSummary(cfg.OutputDir, summary); err != nil {
		fmt.Fprintf(w, "warning: %s write failed: %v\n", summaryFile, err)
	}

	return summary, nil
}

// convertOne runs one request through the Converter inside a private
// working directory, then relocates the markdown and its image assets to
// their canonical locations. The working directory is removed whether or
// not the request succeeds.
func convertOne(e Engine, req types.ConversionRequest, tempDir, finalPath, outputName, imagesDir string) error {
	defer os.RemoveAll(tempDir)

	mdPath, err := ConvertFile(e, req.SourcePath, tempDir, outputName)
	if err != nil {
		return err
	}

	if err := os.Rename(mdPath, finalPath); err != nil {
		return fmt.Errorf("moving markdown to %s: %w", finalPath, err)
	}

	renamed, err := relocateImages(req.ID, filepath.Join(tempDir, imagesDirName), imagesDir)
	if err != nil {
		return err
	}
	if len(renamed) == 0 {
		return nil
	}
	return rewriteImageRefs(finalPath, renamed)
}

// relocateImages moves image files from a working directory's images
// subdirectory into the shared images directory, prefixing each name with
// the owning request's identifier. It returns the old-name to new-name
// mapping for reference rewriting.
func relocateImages(id int64, srcDir, dstDir string) (map[string]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading images directory: %w", err)
	}

	renamed := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		newName := fmt.Sprintf("%d_%s", id, name)
		if err := os.Rename(filepath.Join(srcDir, name), filepath.Join(dstDir, newName)); err != nil {
			return nil, fmt.Errorf("relocating image %s: %w", name, err)
		}
		renamed[name] = newName
	}
	return renamed, nil
}

// rewriteImageRefs updates image links inside a markdown file after its
// assets were renamed, so "images/NAME" becomes "images/{id}_NAME".
func rewriteImageRefs(mdPath string, renamed map[string]string) error {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", mdPath, err)
	}
	content := string(data)
	for oldName, newName := range renamed {
		content = strings.ReplaceAll(content,
			imagesDirName+"/"+oldName,
			imagesDirName+"/"+newName)
	}
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("rewriting image references in %s: %w", mdPath, err)
	}
	return nil
}

// writeSummary persists the run summary under the output root for later
// inspection.
func writeSummary(outputDir string, summary BatchSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, summaryFile), data, 0o644)
}
