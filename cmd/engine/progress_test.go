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

package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/kraklabs/ece/internal/config"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name            string
		globals         GlobalFlags
		expectedEnabled bool
		expectedNoColor bool
	}{
		{
			name:            "default flags - progress disabled in test (not a TTY)",
			globals:         GlobalFlags{},
			expectedEnabled: false,
			expectedNoColor: false,
		},
		{
			name:            "quiet mode - progress disabled",
			globals:         GlobalFlags{Quiet: true},
			expectedEnabled: false,
			expectedNoColor: false,
		},
		{
			name:            "json mode - progress disabled",
			globals:         GlobalFlags{JSON: true},
			expectedEnabled: false,
			expectedNoColor: false,
		},
		{
			name:            "noColor flag propagates to config",
			globals:         GlobalFlags{NoColor: true},
			expectedEnabled: false,
			expectedNoColor: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals)
			if cfg.Enabled != tt.expectedEnabled {
				t.Errorf("NewProgressConfig().Enabled = %v, want %v", cfg.Enabled, tt.expectedEnabled)
			}
			if cfg.NoColor != tt.expectedNoColor {
				t.Errorf("NewProgressConfig().NoColor = %v, want %v", cfg.NoColor, tt.expectedNoColor)
			}
			if cfg.Writer != os.Stderr {
				t.Error("NewProgressConfig().Writer should be os.Stderr")
			}
		})
	}
}

func TestNewProgressBar(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		bar := NewProgressBar(ProgressConfig{Enabled: false}, 100, "Test")
		if bar != nil {
			t.Error("NewProgressBar() should return nil when disabled")
		}
	})

	t.Run("enabled config returns usable bar", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf}, 100, "Test")
		if bar == nil {
			t.Fatal("NewProgressBar() should return non-nil when enabled")
		}
		_ = bar.Set(50)
		_ = bar.Finish()
	})
}

func TestNewSpinner(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		spinner := NewSpinner(ProgressConfig{Enabled: false}, "Test")
		if spinner != nil {
			t.Error("NewSpinner() should return nil when disabled")
		}
	})

	t.Run("enabled config returns usable spinner", func(t *testing.T) {
		var buf bytes.Buffer
		spinner := NewSpinner(ProgressConfig{Enabled: true, Writer: &buf}, "Test")
		if spinner == nil {
			t.Fatal("NewSpinner() should return non-nil when enabled")
		}
		_ = spinner.Add(1)
		_ = spinner.Finish()
	})
}

func TestResolvedConfigPath(t *testing.T) {
	if got := resolvedConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Errorf("resolvedConfigPath(explicit) = %q, want %q", got, "custom.yaml")
	}
	if got := resolvedConfigPath(""); got != config.DefaultConfigPath {
		t.Errorf("resolvedConfigPath(\"\") = %q, want %q", got, config.DefaultConfigPath)
	}
}

func TestIsDotfileAndIsSnapshotFile(t *testing.T) {
	if !isDotfile(".git") {
		t.Error("isDotfile(.git) should be true")
	}
	if isDotfile("notes.md") {
		t.Error("isDotfile(notes.md) should be false")
	}
	if !isSnapshotFile("cozo_memory_snapshot_20260101T000000Z.yaml") {
		t.Error("isSnapshotFile should recognize the snapshot naming convention")
	}
	if isSnapshotFile("notes.yaml") {
		t.Error("isSnapshotFile(notes.yaml) should be false")
	}
}
