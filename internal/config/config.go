// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the engine's project configuration from
// .engine/project.yaml, applying defaults in Go rather than in the file so
// a missing or partial file still produces a fully-specified Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ece/internal/errors"
)

// Config holds every environment/configuration option named in the engine's
// external interface contract.
type Config struct {
	Port          int    `yaml:"port"`
	WatchedDir    string `yaml:"watched_dir"`
	DBPath        string `yaml:"db_path"`
	BackupsDir    string `yaml:"backups_dir"`
	ModelsDir     string `yaml:"models_dir"`
	MaxFileBytes  int64  `yaml:"max_file_bytes"`
	FTSBaseK      int    `yaml:"fts_base_k"`
	MergeThreshold int   `yaml:"merge_threshold"`
	MinPadding    int    `yaml:"min_padding"`
	MaxPadding    int    `yaml:"max_padding"`
	MinWindowCap  int    `yaml:"min_window_cap"`
	MinViableSize int    `yaml:"min_viable_size"`

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	Engine string `yaml:"engine"`

	// Provider selects the llm.Provider backend used by Scribe and chat:
	// "ollama", "openai", "anthropic", or "mock".
	Provider string `yaml:"provider"`
}

// Defaults returns the configuration spelled out in the external interfaces
// table: every zero-value field a caller leaves unset resolves to these.
func Defaults() Config {
	return Config{
		Port:           3000,
		WatchedDir:     "./context",
		DBPath:         "./engine/context.db",
		BackupsDir:     "./backups",
		ModelsDir:      "./models",
		MaxFileBytes:   100 * 1024 * 1024,
		FTSBaseK:       500,
		MergeThreshold: 500,
		MinPadding:     50,
		MaxPadding:     500,
		MinWindowCap:   200,
		MinViableSize:  150,
		Engine:         "rocksdb",
		Provider:       "mock",
	}
}

// Load reads path (typically ".engine/project.yaml") and overlays it on top
// of Defaults(). A missing file is not an error: Load returns the defaults
// unmodified, matching the teacher's bootstrap pattern of applying defaults
// in Go rather than requiring an on-disk file to exist.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.NewConfigError(
			"Cannot read engine configuration",
			err.Error(),
			fmt.Sprintf("Check that %s is readable, or run 'engine init'", path),
			err,
		)
	}

	overlay := Defaults()
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, errors.NewConfigError(
			"Cannot parse engine configuration",
			err.Error(),
			fmt.Sprintf("Check the YAML syntax in %s", path),
			err,
		)
	}

	return overlay, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewConfigError(
			"Cannot create config directory",
			err.Error(),
			"Check filesystem permissions",
			err,
		)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot serialize engine configuration",
			err.Error(),
			"This is a bug. Please report it.",
			err,
		)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewConfigError(
			"Cannot write engine configuration",
			err.Error(),
			"Check filesystem permissions",
			err,
		)
	}
	return nil
}

// DefaultConfigPath is the conventional project config location, mirroring
// the teacher's per-project dotdir layout.
const DefaultConfigPath = ".engine/project.yaml"
