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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/output"
	"github.com/kraklabs/ece/internal/ui"
)

// indexResult is the machine-readable summary printed under --json.
type indexResult struct {
	Scanned  int `json:"scanned"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// runIndex walks cfg.WatchedDir and calls IngestFile for every eligible
// regular file, backfilling the store from whatever already sits on disk
// before the watcher takes over.
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("index", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine index [options]

Backfill-ingests every eligible file under the configured watched directory.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigOrFatal(configPath, globals)
	logger := newLogger(globals)

	st, reg, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	ig := newIngestor(st, cfg, logger, reg)

	var paths []string
	walkErr := filepath.WalkDir(cfg.WatchedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if d.IsDir() {
			if isDotfile(base) && path != cfg.WatchedDir {
				return filepath.SkipDir
			}
			return nil
		}
		if isDotfile(base) || isSnapshotFile(base) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			die("watched directory %s does not exist", cfg.WatchedDir)
		}
		errors.FatalError(errors.NewStoreError("Cannot walk watched directory", walkErr.Error(), walkErr), globals.JSON)
	}

	progressCfg := NewProgressConfig(globals)
	bar := NewProgressBar(progressCfg, int64(len(paths)), "Indexing")

	result := indexResult{Scanned: len(paths)}
	for _, path := range paths {
		res, err := ig.IngestFile(path)
		if err != nil {
			result.Errors++
			logger.Warn("index.file_failed", "path", path, "err", err)
		} else if res.Status == "inserted" {
			result.Inserted++
		} else {
			result.Skipped++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}
	ui.Successf("Indexed %s: %d inserted, %d skipped, %d errors",
		cfg.WatchedDir, result.Inserted, result.Skipped, result.Errors)
}

// isDotfile reports whether base is a dotfile/dotdir entry, mirroring the
// ingestor's own watcher-time skip rule.
func isDotfile(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isSnapshotFile reports whether base matches the snapshot backup naming
// convention, mirroring the ingestor's own watcher-time skip rule.
func isSnapshotFile(name string) bool {
	return strings.HasPrefix(name, "cozo_memory_snapshot_") && strings.HasSuffix(name, ".yaml")
}
