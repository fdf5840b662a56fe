// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Yimsun97/zotero-kbase/pkg/types"
)

// containerMinerUDir is the path the conversion stage mounts the MinerU
// directory at inside the container. The model paths written into the
// engine configuration are container paths, not host paths.
const containerMinerUDir = "/work/mineru"

// engineConfig is the magic-pdf.json document the MinerU engine reads at
// startup. Field names follow the engine's own configuration schema.
type engineConfig struct {
	ConfigVersion        string       `json:"config_version"`
	ModelsDir            string       `json:"models-dir"`
	LayoutReaderModelDir string       `json:"layoutreader-model-dir"`
	DeviceMode           string       `json:"device-mode"`
	FormulaConfig        enableConfig `json:"formula-config"`
	TableConfig          enableConfig `json:"table-config"`
}

type enableConfig struct {
	Enable bool `json:"enable"`
}

// WriteConfig writes magic-pdf.json into cfg.MinerUDir, pointing the
// engine at the weights Fetch installed. It returns the written path.
func WriteConfig(cfg types.ModelsConfig) (string, error) {
	doc := engineConfig{
		ConfigVersion:        "1.2.1",
		ModelsDir:            containerMinerUDir + "/" + modelsSubdir,
		LayoutReaderModelDir: containerMinerUDir + "/" + layoutReaderSubdir,
		DeviceMode:           "cpu",
		FormulaConfig:        enableConfig{Enable: true},
		TableConfig:          enableConfig{Enable: false},
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshaling engine config: %w", err)
	}

	if err := os.MkdirAll(cfg.MinerUDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", cfg.MinerUDir, err)
	}
	path := filepath.Join(cfg.MinerUDir, "magic-pdf.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
