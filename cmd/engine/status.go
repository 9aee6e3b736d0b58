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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/errors"
	"github.com/kraklabs/ece/internal/output"
	"github.com/kraklabs/ece/internal/ui"
	"github.com/kraklabs/ece/pkg/store"
)

// StatusResult is the dual JSON/text status payload.
type StatusResult struct {
	DBPath          string   `json:"db_path"`
	WatchedDir      string   `json:"watched_dir"`
	Compounds       int      `json:"compounds"`
	Molecules       int      `json:"molecules"`
	Buckets         []string `json:"buckets"`
	HasSessionState bool     `json:"has_session_state"`
}

func runStatus(args []string, configPath string, globals GlobalFlags) {
	fset := flag.NewFlagSet("status", flag.ExitOnError)
	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine status [options]

Reports compound/molecule counts, known buckets, and session state presence.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfigOrFatal(configPath, globals)
	st, _, err := openStore(cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	defer func() { _ = st.Close() }()

	compounds, err := st.ScanCompounds(func(store.Compound) bool { return true })
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	molecules, err := st.ScanMolecules(func(store.Molecule) bool { return true })
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	buckets, err := st.AllBuckets()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	state, err := st.GetSessionState()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result := StatusResult{
		DBPath:          cfg.DBPath,
		WatchedDir:      cfg.WatchedDir,
		Compounds:       len(compounds),
		Molecules:       len(molecules),
		Buckets:         buckets,
		HasSessionState: state != nil && state.Summary != "",
	}

	if globals.JSON {
		_ = output.JSON(result)
		return
	}

	ui.Header("Context Engine Status")
	fmt.Printf("%s %s\n", ui.Label("Database:"), ui.DimText(result.DBPath))
	fmt.Printf("%s %s\n", ui.Label("Watched dir:"), ui.DimText(result.WatchedDir))
	fmt.Printf("%s %s\n", ui.Label("Compounds:"), ui.CountText(result.Compounds))
	fmt.Printf("%s %s\n", ui.Label("Molecules:"), ui.CountText(result.Molecules))
	fmt.Printf("%s %v\n", ui.Label("Buckets:"), result.Buckets)
	fmt.Printf("%s %v\n", ui.Label("Session state recorded:"), result.HasSessionState)
}
