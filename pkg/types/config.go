// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration structs and data records shared
// across the zotero-kbase pipeline stages.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "zotero-kbase/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LibraryConfig locates the Zotero library on disk.
type LibraryConfig struct {
	// DataDir is the Zotero data directory (contains zotero.sqlite and storage/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DatabasePath is the path to zotero.sqlite. Defaults to
	// DataDir/zotero.sqlite when empty.
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// StorageDirName is the name of the attachment storage directory
	// under DataDir (default "storage").
	StorageDirName string `json:"storage_dir_name" yaml:"storage_dir_name"`
}

// ConversionConfig holds settings for the PDF-to-Markdown conversion stage.
type ConversionConfig struct {
	// OutputDir is the directory receiving converted Markdown files and the
	// shared images/ subdirectory (default "fulltexts").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxPages skips documents longer than this many pages. Zero disables
	// the page-limit policy.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// ForceRebuild deletes OutputDir and reconverts everything. When false,
	// attachments whose output file already exists are skipped.
	ForceRebuild bool `json:"force_rebuild" yaml:"force_rebuild"`

	// Image is the MinerU container image used for document analysis.
	Image string `json:"image" yaml:"image"`

	// MinerUDir is the directory holding magic-pdf.json and the model
	// weights the engine loads.
	MinerUDir string `json:"mineru_dir" yaml:"mineru_dir"`

	// ConfigFilename is the engine configuration file name under MinerUDir
	// (default "magic-pdf.json").
	ConfigFilename string `json:"config_filename" yaml:"config_filename"`
}

// AnnotationsConfig holds settings for annotation rendering.
type AnnotationsConfig struct {
	// OutputDir is the directory receiving per-attachment Markdown files
	// (default "annotations").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ModelsConfig holds settings for MinerU model provisioning.
type ModelsConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinerUDir is the directory the model weights and magic-pdf.json are
	// installed into.
	MinerUDir string `json:"mineru_dir" yaml:"mineru_dir"`

	// ModelsBaseURL is the base URL the PDF-Extract-Kit weights are fetched
	// from (a Hugging Face resolve endpoint).
	ModelsBaseURL string `json:"models_base_url" yaml:"models_base_url"`

	// LayoutReaderBaseURL is the base URL for the layoutreader weights.
	LayoutReaderBaseURL string `json:"layoutreader_base_url" yaml:"layoutreader_base_url"`

	// Token is an optional Hugging Face access token for gated downloads.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// MaxRetries is the number of retry attempts on rate-limited downloads.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}
