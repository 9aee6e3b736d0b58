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

// Package main implements the engine CLI: a local-first context store
// fronted by init/index/watch/search/status/dream/backup/chat commands.
//
// Usage:
//
//	engine init                   Create .engine/project.yaml
//	engine index                  Backfill-ingest the watched directory
//	engine watch                  Watch the directory and ingest on change
//	engine search <query>         Run a Tag-Walker search and print windows
//	engine status [--json]        Show store counts
//	engine dream                  Re-tag core-bucket memories by path
//	engine backup                 Eject a snapshot to backups/
//	engine restore <file>         Hydrate the store from a snapshot file
//	engine chat <message>         Weave session state and call the generator
//	engine reset --yes            Delete local store and backup data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are the flags recognized before the subcommand name.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output machine-readable JSON where supported")
		quiet       = flag.Bool("quiet", false, "Suppress progress bars and informational output")
		noColor     = flag.Bool("no-color", false, "Disable colored terminal output")
		verbose     = flag.Bool("verbose", false, "Enable debug-level logging")
		configPath  = flag.String("config", "", "Path to .engine/project.yaml (default: ./.engine/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `engine - local-first context engine CLI

Usage:
  engine <command> [options]

Commands:
  init       Create .engine/project.yaml configuration
  index      Backfill-ingest every file under watched_dir
  watch      Watch watched_dir and ingest on change
  search     Run a Tag-Walker search and print inflated windows
  status     Show store counts
  dream      Re-tag core-bucket memories by path
  backup     Eject a snapshot document to backups_dir
  restore    Hydrate the store from a snapshot file
  chat       Weave session state into a message and call the generator
  reset      Delete local store and backup data (destructive!)

Global Options:
  --json       Output JSON where supported
  --quiet      Suppress progress bars
  --no-color   Disable colored output
  --verbose    Enable debug-level logging
  --config     Path to .engine/project.yaml
  --version    Show version and exit

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("engine version %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	globals := GlobalFlags{JSON: *jsonOutput, Quiet: *quiet, NoColor: *noColor, Verbose: verbosity}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "watch":
		runWatch(cmdArgs, *configPath, globals)
	case "search":
		runSearch(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "dream":
		runDream(cmdArgs, *configPath, globals)
	case "backup":
		runBackup(cmdArgs, *configPath, globals)
	case "restore":
		runRestore(cmdArgs, *configPath, globals)
	case "chat":
		runChat(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath)
	case "install-hook":
		runInstallHook(cmdArgs)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
