// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package models provisions the MinerU model weights and writes the
// engine configuration file the conversion stage mounts into its
// container.
package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Yimsun97/zotero-kbase/internal/httputil"
	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

const (
	modelsSubdir       = "models"
	layoutReaderSubdir = "layoutreader"
)

// modelAssets are the PDF-Extract-Kit weight files fetched relative to
// ModelsBaseURL. Only the detection, formula, and OCR models the engine
// loads in auto mode are listed; table recognition weights are not.
var modelAssets = []string{
	"Layout/YOLO/doclayout_yolo_docstructbench_imgsz1024.pt",
	"MFD/YOLO/yolo_v8_ft.pt",
	"MFR/unimernet_hf_small_2503/model.safetensors",
	"MFR/unimernet_hf_small_2503/config.json",
	"MFR/unimernet_hf_small_2503/tokenizer.json",
	"OCR/paddleocr_torch/ch_PP-OCRv4_det_infer.pth",
	"OCR/paddleocr_torch/ch_PP-OCRv4_rec_infer.pth",
}

// layoutReaderAssets are the reading-order model files fetched relative
// to LayoutReaderBaseURL.
var layoutReaderAssets = []string{
	"config.json",
	"model.safetensors",
	"tokenizer.json",
}

// FetchSummary holds the outcome of a provisioning run.
type FetchSummary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of assets processed.
func (s FetchSummary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any assets failed to download.
func (s FetchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Fetch downloads the model weights into cfg.MinerUDir, skipping files
// that already exist, then writes the engine configuration file. It
// continues after individual download failures and returns the summary;
// the error is non-nil only when the run cannot proceed at all or the
// configuration file cannot be written.
func Fetch(ctx context.Context, client *http.Client, cfg types.ModelsConfig, w io.Writer) (FetchSummary, error) {
	var summary FetchSummary
	if cfg.MinerUDir == "" {
		return summary, fmt.Errorf("mineru directory is not configured")
	}

	type asset struct {
		url  string
		dest string
	}
	var assets []asset
	for _, rel := range modelAssets {
		assets = append(assets, asset{
			url:  cfg.ModelsBaseURL + "/" + rel,
			dest: filepath.Join(cfg.MinerUDir, modelsSubdir, filepath.FromSlash(rel)),
		})
	}
	for _, rel := range layoutReaderAssets {
		assets = append(assets, asset{
			url:  cfg.LayoutReaderBaseURL + "/" + rel,
			dest: filepath.Join(cfg.MinerUDir, layoutReaderSubdir, filepath.FromSlash(rel)),
		})
	}

	total := len(assets)
	for i, a := range assets {
		name := filepath.Base(a.dest)
		if _, err := os.Stat(a.dest); err == nil {
			fmt.Fprintf(w, "[%d/%d] already present: %s\n", i+1, total, name)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "[%d/%d] downloading: %s\n", i+1, total, name)
		if err := downloadAsset(ctx, client, a.url, a.dest, cfg, w); err != nil {
			fmt.Fprintf(w, "[%d/%d] failed: %s (%v)\n", i+1, total, name, err)
			summary.Failed++
			continue
		}
		summary.Downloaded++
	}

	fmt.Fprintf(w, "\nModel summary: %d downloaded, %d already present, %d failed (total: %d)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Total())

	if summary.HasFailures() {
		return summary, nil
	}

	configPath, err := WriteConfig(cfg)
	if err != nil {
		return summary, fmt.Errorf("writing engine configuration: %w", err)
	}
	fmt.Fprintf(w, "Wrote %s\n", configPath)
	return summary, nil
}

// downloadAsset fetches url to destPath using a temporary file so a
// partial download never occupies the final path. Rate-limited requests
// retry with backoff, announcing each wait on w; an optional access token
// is sent for gated repositories.
func downloadAsset(ctx context.Context, client *http.Client, url, destPath string, cfg types.ModelsConfig, w io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(destPath), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries, w)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".models-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
