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
	"os"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/output"
	"github.com/kraklabs/ece/internal/ui"
	"github.com/kraklabs/ece/pkg/snapshot"
)

type backupResult struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
}

// runBackup ejects a snapshot document of every Compound to backups_dir.
func runBackup(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("backup", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine backup [options]

Ejects a timestamped snapshot document of every stored Compound to
the configured backups directory.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := newLogger(globals)

	cfg := loadConfigOrFatal(configPath, globals)
	st, _, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	if err := os.MkdirAll(cfg.BackupsDir, 0o755); err != nil {
		errors.FatalError(errors.NewStoreError("Cannot create backups directory", err.Error(), err), globals.JSON)
	}

	logger.Info("backup.run.start", "run_id", runID)
	path, err := snapshot.Eject(st, cfg.BackupsDir)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	logger.Info("backup.run.done", "run_id", runID, "path", path)

	if globals.JSON {
		_ = output.JSON(backupResult{RunID: runID, Path: path})
		return
	}
	ui.Successf("Ejected snapshot to %s (run %s)", path, runID)
}

type restoreResult struct {
	Path     string `json:"path"`
	Hydrated int    `json:"hydrated"`
}

// runRestore hydrates the store from a given snapshot file, or from the
// newest file under backups_dir when no file is given.
func runRestore(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("restore", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine restore [file] [options]

Hydrates the store from a snapshot file. With no file argument, hydrates
from the newest backup under backups_dir, but only if the store is
currently empty.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigOrFatal(configPath, globals)
	logger := newLogger(globals)

	st, _, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	progressCfg := NewProgressConfig(globals)

	rest := fset.Args()
	var hydrated int
	var path string

	if len(rest) > 0 {
		path = rest[0]
		bar := NewProgressBar(progressCfg, 0, "Restoring")
		hydrated, err = snapshot.HydrateFile(st, path, logger, func(done, total int) {
			if bar == nil {
				return
			}
			bar.ChangeMax(total)
			_ = bar.Set(done)
		})
		if bar != nil {
			_ = bar.Finish()
		}
	} else {
		hydrated, err = snapshot.HydrateOnBoot(st, cfg.BackupsDir, logger, nil)
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(restoreResult{Path: path, Hydrated: hydrated})
		return
	}
	ui.Successf("Hydrated %d records", hydrated)
}
