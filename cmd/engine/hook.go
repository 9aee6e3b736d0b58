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
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
)

const postCommitHookContent = `#!/bin/sh
# engine auto-index hook - backfills the context store after each commit
# Installed by: engine install-hook
# Remove with: engine install-hook --remove

engine index --quiet 2>/dev/null &
`

const hookMarker = "# engine auto-index hook"

// runInstallHook installs or removes a git post-commit hook that re-runs
// 'engine index' in the background after each commit.
func runInstallHook(args []string) {
	fset := flag.NewFlagSet("install-hook", flag.ExitOnError)
	force := fset.Bool("force", false, "Overwrite existing hook")
	remove := fset.Bool("remove", false, "Remove the hook instead of installing")

	fset.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: engine install-hook [options]

Installs a git post-commit hook that backfill-ingests the watched
directory in the background after each commit.

Options:
`)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		os.Exit(1)
	}

	gitDir, err := findGitDir()
	if err != nil {
		die("%v", err)
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if *remove {
		if err := removeHook(hookPath); err != nil {
			die("%v", err)
		}
		fmt.Println("Git hook removed successfully.")
		return
	}

	if err := installHook(hookPath, *force); err != nil {
		die("%v", err)
	}
	fmt.Printf("Git hook installed: %s\n", hookPath)
}

// findGitDir walks up from the current directory looking for a .git
// directory or worktree-style .git file.
func findGitDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath, nil
			}
			content, err := os.ReadFile(gitPath)
			if err != nil {
				return "", fmt.Errorf("cannot read .git file: %w", err)
			}
			var gitdir string
			if _, err := fmt.Sscanf(string(content), "gitdir: %s", &gitdir); err == nil {
				if filepath.IsAbs(gitdir) {
					return gitdir, nil
				}
				return filepath.Join(dir, gitdir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("not a git repository (or any of the parent directories)")
}

func installHook(hookPath string, force bool) error {
	hookDir := filepath.Dir(hookPath)
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return fmt.Errorf("cannot create hooks directory: %w", err)
	}

	if _, err := os.Stat(hookPath); err == nil {
		if !force {
			content, err := os.ReadFile(hookPath)
			if err == nil && containsEngineMarker(string(content)) {
				fmt.Println("Hook already installed. Use --force to reinstall.")
				return nil
			}
			return fmt.Errorf("hook already exists at %s\nUse --force to overwrite", hookPath)
		}
	}

	if err := os.WriteFile(hookPath, []byte(postCommitHookContent), 0o755); err != nil {
		return fmt.Errorf("cannot write hook: %w", err)
	}
	return nil
}

// removeHook only removes the hook if it carries the engine's marker
// comment, protecting hand-written hooks from accidental removal.
func removeHook(hookPath string) error {
	content, err := os.ReadFile(hookPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no hook found at %s", hookPath)
		}
		return fmt.Errorf("cannot read hook: %w", err)
	}

	if !containsEngineMarker(string(content)) {
		return fmt.Errorf("hook at %s was not installed by engine\nManually remove it if needed", hookPath)
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("cannot remove hook: %w", err)
	}
	return nil
}

func containsEngineMarker(content string) bool {
	return strings.Contains(content, hookMarker)
}
