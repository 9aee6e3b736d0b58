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
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ece/internal/config"
	"github.com/kraklabs/ece/internal/ui"
)

// runInit creates .engine/project.yaml, either from flags/defaults or via
// an interactive prompt flow, mirroring the teacher's init command shape.
func runInit(args []string, configPath string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	nonInteractive := fs.Bool("y", false, "Non-interactive mode (use defaults)")
	watchedDir := fs.String("watched-dir", "", "Directory to watch and ingest")
	provider := fs.String("provider", "", "Generator provider: ollama, openai, anthropic, mock")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine init [options]

Creates %s.

Options:
`, resolvedConfigPath(configPath))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := resolvedConfigPath(configPath)
	if _, err := os.Stat(path); err == nil && !*force {
		die("%s already exists. Use --force to overwrite.", path)
	}

	cfg := config.Defaults()
	if *watchedDir != "" {
		cfg.WatchedDir = *watchedDir
	}
	if *provider != "" {
		cfg.Provider = *provider
	}

	if !*nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		runInteractiveInit(reader, &cfg)
	}

	if err := config.Save(path, cfg); err != nil {
		die("cannot save configuration: %v", err)
	}
	ui.Successf("Created %s", path)
	addEngineGitignore()

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit", path, "if needed")
	fmt.Println("  2. Run 'engine index' to backfill-ingest", cfg.WatchedDir)
	fmt.Println("  3. Run 'engine status' to verify ingestion")
}

func runInteractiveInit(reader *bufio.Reader, cfg *config.Config) {
	ui.Header("Context Engine Project Configuration")
	fmt.Println()

	cfg.WatchedDir = prompt(reader, "Watched directory", cfg.WatchedDir)
	cfg.DBPath = prompt(reader, "Database path", cfg.DBPath)
	cfg.BackupsDir = prompt(reader, "Backups directory", cfg.BackupsDir)

	fmt.Println()
	fmt.Println("Generator providers: ollama, openai, anthropic, mock")
	cfg.Provider = prompt(reader, "Generator provider", cfg.Provider)
	fmt.Println()
}

// prompt displays a label with a bracketed default and reads one line from
// reader, returning the default when the user presses Enter.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// addEngineGitignore appends .engine/ to the project .gitignore, skipping
// silently if no .gitignore exists or the entry is already present.
func addEngineGitignore() {
	const gitignorePath = ".gitignore"

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".engine/" || line == ".engine" || line == "/.engine/" || line == "/.engine" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# context engine\n.engine/\n")
	ui.Info("Added .engine/ to .gitignore")
}
