// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yimsun97/zotero-kbase/internal/container"
	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// Engine is the external document-analysis engine. Given a source PDF it
// produces Markdown text and writes extracted image assets into imagesDir;
// image links in the returned Markdown are relative to outputDir
// (i.e. "images/NAME"). The engine classifies the document itself
// (text layer vs. scan needing OCR).
type Engine interface {
	Analyze(pdfPath, outputDir, imagesDir string) (string, error)
}

// Container mount points for the MinerU image.
const (
	mountInput  = "/work/input"
	mountOutput = "/work/output"
	mountMinerU = "/work/mineru"
)

// MinerUEngine runs the MinerU container image over a bind-mounted working
// directory. It depends on a container.Runtime (docker or podman) injected
// at construction time.
type MinerUEngine struct {
	runtime container.Runtime
	image   string

	// minerUDir holds magic-pdf.json and the model weights; mounted
	// read-only into the container.
	minerUDir      string
	configFilename string

	// log receives the container's combined output.
	log io.Writer
}

// NewMinerUEngine creates an engine that uses the given container runtime
// to run the MinerU image. It verifies that the image exists locally and
// that the engine configuration file is present.
func NewMinerUEngine(rt container.Runtime, cfg types.ConversionConfig, log io.Writer) (*MinerUEngine, error) {
	if err := rt.ImageExists(cfg.Image); err != nil {
		return nil, fmt.Errorf("MinerU image not available in %s: %w", rt.Name(), err)
	}
	configPath := filepath.Join(cfg.MinerUDir, cfg.ConfigFilename)
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("engine config not found at %s (run the models command first): %w", configPath, err)
	}
	if log == nil {
		log = io.Discard
	}
	return &MinerUEngine{
		runtime:        rt,
		image:          cfg.Image,
		minerUDir:      cfg.MinerUDir,
		configFilename: cfg.ConfigFilename,
		log:            log,
	}, nil
}

// Analyze runs the MinerU container against pdfPath. The source directory
// is mounted read-only, outputDir is mounted writable, and the engine is
// pointed at the mounted magic-pdf.json. The container writes BASE.md and
// images/ into outputDir; Analyze returns the Markdown text and removes
// the intermediate BASE.md, leaving only the images behind.
func (e *MinerUEngine) Analyze(pdfPath, outputDir, imagesDir string) (string, error) {
	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	binds := []container.Bind{
		{Host: filepath.Dir(pdfPath), Container: mountInput, ReadOnly: true},
		{Host: outputDir, Container: mountOutput},
		{Host: e.minerUDir, Container: mountMinerU, ReadOnly: true},
	}
	env := []string{
		"MINERU_TOOLS_CONFIG_JSON=" + mountMinerU + "/" + e.configFilename,
	}
	args := []string{
		"magic-pdf",
		"-p", mountInput + "/" + base,
		"-o", mountOutput,
		"-m", "auto",
	}

	if err := e.runtime.RunMounted(e.image, binds, env, args, e.log); err != nil {
		return "", fmt.Errorf("analyzing %s: %w", pdfPath, err)
	}

	mdPath := filepath.Join(outputDir, stem+".md")
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return "", fmt.Errorf("engine produced no markdown for %s: %w", pdfPath, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("engine produced empty markdown for %s", pdfPath)
	}
	os.Remove(mdPath)

	return string(data), nil
}
