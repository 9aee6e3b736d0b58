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

	"github.com/kraklabs/ece/internal/config"
)

// runReset deletes the local store and backups directories. Destructive;
// requires --yes.
func runReset(args []string, configPath string) {
	fset := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fset.Bool("yes", false, "Confirm the reset (required)")
	keepBackups := fset.Bool("keep-backups", false, "Delete the database but leave backups_dir intact")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine reset [options]

Deletes the local database (and, unless --keep-backups is given, the
backups directory). This cannot be undone.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		die("you must pass --yes to confirm the reset")
	}

	cfg, err := config.Load(resolvedConfigPath(configPath))
	if err != nil {
		die("%v", err)
	}

	fmt.Printf("Deleting %s...\n", cfg.DBPath)
	if err := os.RemoveAll(cfg.DBPath); err != nil {
		die("failed to delete database: %v", err)
	}

	if !*keepBackups {
		fmt.Printf("Deleting %s...\n", cfg.BackupsDir)
		if err := os.RemoveAll(cfg.BackupsDir); err != nil {
			die("failed to delete backups: %v", err)
		}
	}

	fmt.Println("Reset complete.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  engine index    Reindex the watched directory")
}
